// Package markup encodes converted questions into an escaped, tagged text
// format and decodes batches of it back into the exam model.
//
// A block looks like:
//
//	<Q>
//	<t>stem</t>
//	<CC>correct choice</CC>
//	<c>other choice</c>
//	</Q>
//
// Correctness is carried by the tag name, never by position.
package markup

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/pavelanni/examgen/internal/model"
)

const (
	tagRoot     = "exam"
	tagQuestion = "Q"
	tagStem     = "t"
	tagCorrect  = "CC"
	tagChoice   = "c"
)

// Entry is a converted choice with its correctness flag.
type Entry struct {
	Text    string
	Correct bool
}

// AuthoredFirst flags the first choice as correct. Banks are authored with
// the correct answer first; every other choice is a distractor.
func AuthoredFirst(choices []string) []Entry {
	out := make([]Entry, len(choices))
	for i, c := range choices {
		out[i] = Entry{Text: c, Correct: i == 0}
	}
	return out
}

// Encode renders one question block. Text is trimmed and entity-escaped.
func Encode(stem string, choices []Entry) string {
	var sb strings.Builder
	sb.WriteString("<" + tagQuestion + ">\n")
	writeElem(&sb, tagStem, stem)
	for _, c := range choices {
		tag := tagChoice
		if c.Correct {
			tag = tagCorrect
		}
		writeElem(&sb, tag, c.Text)
	}
	sb.WriteString("</" + tagQuestion + ">\n")
	return sb.String()
}

func writeElem(sb *strings.Builder, tag, text string) {
	sb.WriteString("<" + tag + ">")
	sb.WriteString(html.EscapeString(strings.TrimSpace(text)))
	sb.WriteString("</" + tag + ">\n")
}

// Wrap joins encoded blocks under the single root container Decode expects.
func Wrap(blocks []string) string {
	return "<" + tagRoot + ">\n" + strings.Join(blocks, "") + "</" + tagRoot + ">\n"
}

// Sentinel causes wrapped by ParseError.
var (
	ErrNoRoot        = errors.New("missing <" + tagRoot + "> root element")
	ErrUnknownTag    = errors.New("unknown tag")
	ErrMissingStem   = errors.New("question without <" + tagStem + "> stem")
	ErrDuplicateStem = errors.New("question with more than one stem")
	ErrStrayText     = errors.New("text outside a stem or choice")
)

// ParseError reports malformed markup. It always indicates a defect in an
// earlier stage, never a recoverable input problem.
type ParseError struct {
	Offset   int64 // byte offset in the blob
	Question int   // zero based question being decoded, -1 outside any question
	Err      error
}

func (e *ParseError) Error() string {
	if e.Question >= 0 {
		return fmt.Sprintf("markup: question %d at offset %d: %v", e.Question+1, e.Offset, e.Err)
	}
	return fmt.Sprintf("markup: offset %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Decode parses a wrapped batch of blocks. Choices keep document order.
// Any structural problem aborts the whole decode.
func Decode(blob string) (model.ExamSet, error) {
	d := xml.NewDecoder(strings.NewReader(blob))
	d.Strict = true

	var (
		set      model.ExamSet
		cur      *model.Question
		hasStem  bool
		field    string
		text     strings.Builder
		inRoot   bool
		rootDone bool
	)
	fail := func(err error) (model.ExamSet, error) {
		q := -1
		if cur != nil {
			q = len(set.Questions)
		}
		return model.ExamSet{}, &ParseError{Offset: d.InputOffset(), Question: q, Err: err}
	}

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fail(err)
		}

		switch tok := tok.(type) {
		case xml.StartElement:
			name := tok.Name.Local
			switch {
			case !inRoot:
				if name != tagRoot || rootDone {
					return fail(fmt.Errorf("%w: <%s>", ErrUnknownTag, name))
				}
				inRoot = true
			case cur == nil:
				if name != tagQuestion {
					return fail(fmt.Errorf("%w: <%s>", ErrUnknownTag, name))
				}
				cur = &model.Question{}
				hasStem = false
			case field == "":
				switch name {
				case tagStem:
					if hasStem {
						return fail(ErrDuplicateStem)
					}
				case tagCorrect, tagChoice:
				default:
					return fail(fmt.Errorf("%w: <%s>", ErrUnknownTag, name))
				}
				field = name
				text.Reset()
			default:
				return fail(fmt.Errorf("%w: <%s> inside <%s>", ErrUnknownTag, name, field))
			}

		case xml.EndElement:
			switch {
			case field != "":
				value := strings.TrimSpace(text.String())
				switch field {
				case tagStem:
					cur.Text = value
					hasStem = true
				case tagCorrect:
					cur.Choices = append(cur.Choices, model.Choice{Text: value, Correct: true})
				case tagChoice:
					cur.Choices = append(cur.Choices, model.Choice{Text: value})
				}
				field = ""
			case cur != nil:
				if !hasStem {
					return fail(ErrMissingStem)
				}
				set.Questions = append(set.Questions, *cur)
				cur = nil
			default:
				inRoot = false
				rootDone = true
			}

		case xml.CharData:
			if field != "" {
				text.Write(tok)
			} else if len(bytes.TrimSpace(tok)) > 0 {
				return fail(ErrStrayText)
			}
		}
	}

	if !rootDone {
		return fail(ErrNoRoot)
	}
	return set, nil
}
