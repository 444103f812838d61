// Package bank splits a plain-text question bank into question blocks and
// choice fragments, and writes banks back out in the same format.
package bank

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pavelanni/examgen/internal/model"
)

// DefaultCommentPrefixes are the line prefixes dropped before segmentation.
const DefaultCommentPrefixes = "#;"

// minBlockLen discards stray marker matches that carry no real content.
const minBlockLen = 4

var (
	questionMarker = regexp.MustCompile(`(?m)^\d+\.\s+`)
	// A rule line starts with three hyphens; table separator rows carry pipes.
	trailingRule = regexp.MustCompile(`(?m)^---[^|\n]*$`)

	choiceSplitters = map[model.LabelStyle]*regexp.Regexp{
		model.StyleLetterDot:  regexp.MustCompile(`\n\s*[a-z]\.\s+`),
		model.StyleParenUpper: regexp.MustCompile(`\n\s*\([A-Z]\)\s+`),
	}
)

// RawQuestion is one question block before rich-text conversion.
type RawQuestion struct {
	Stem    string
	Choices []string
}

// SegmentError reports a question block that produced no choices.
type SegmentError struct {
	Block         int // zero based
	Style         model.LabelStyle
	StyleMismatch bool // the other label style would have found choices
}

func (e *SegmentError) Error() string {
	msg := fmt.Sprintf("question block %d has no choices for label style %d", e.Block+1, e.Style)
	if e.StyleMismatch {
		msg += fmt.Sprintf(" (block looks like style %d; check --type)", e.Style.Other())
	}
	return msg
}

// StripComments removes every line that starts with one of the prefix bytes.
func StripComments(text, prefixes string) string {
	if prefixes == "" {
		return text
	}
	lines := strings.SplitAfter(text, "\n")
	var sb strings.Builder
	sb.Grow(len(text))
	for _, line := range lines {
		if line != "" && strings.IndexByte(prefixes, line[0]) >= 0 {
			continue
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// Segment splits the bank into question blocks. Text after the first line
// starting with "---" is trailing material and is ignored, as is any
// preamble before the first numbered marker.
func Segment(text string) []string {
	if loc := trailingRule.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}

	parts := questionMarker.Split(text, -1)
	if pre := strings.TrimSpace(parts[0]); pre != "" {
		slog.Debug("ignoring text before first question", "preamble", pre)
	}

	var blocks []string
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if len(p) < minBlockLen {
			continue
		}
		blocks = append(blocks, p)
	}
	return blocks
}

// SplitBlock splits a question block into its stem and choice fragments.
func SplitBlock(block string, style model.LabelStyle) (string, []string) {
	re, ok := choiceSplitters[style]
	if !ok {
		re = choiceSplitters[model.StyleLetterDot]
	}
	parts := re.Split(block, -1)
	stem := strings.TrimSpace(parts[0])
	choices := make([]string, 0, len(parts)-1)
	for _, c := range parts[1:] {
		choices = append(choices, strings.TrimSpace(c))
	}
	return stem, choices
}

// Parse strips comments, segments the bank and splits every block into a
// stem and choices. Text that fails CheckText is rejected with an
// *InputError before segmentation.
func Parse(text string, style model.LabelStyle, commentPrefixes string) ([]RawQuestion, error) {
	if err := CheckText(text); err != nil {
		return nil, err
	}
	text = StripComments(text, commentPrefixes)
	blocks := Segment(text)

	out := make([]RawQuestion, 0, len(blocks))
	for i, b := range blocks {
		stem, choices := SplitBlock(b, style)
		if len(choices) == 0 {
			_, alt := SplitBlock(b, style.Other())
			return nil, &SegmentError{Block: i, Style: style, StyleMismatch: len(alt) > 0}
		}
		out = append(out, RawQuestion{Stem: stem, Choices: choices})
	}
	slog.Debug("segmented question bank", "questions", len(out), "style", int(style))
	return out, nil
}
