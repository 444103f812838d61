package model

import (
	"errors"
	"fmt"
)

// LabelStyle selects how choices are introduced in the question bank.
type LabelStyle int

const (
	// StyleLetterDot introduces choices with a lowercase letter and a period: "a.", "b.".
	StyleLetterDot LabelStyle = 1
	// StyleParenUpper introduces choices with a parenthesized capital: "(A)", "(B)".
	StyleParenUpper LabelStyle = 2
)

// MaxChoices is the number of letters available for labelling choices.
const MaxChoices = 5

// KeyLetters are the answer-key letters in display order.
var KeyLetters = [MaxChoices]string{"A", "B", "C", "D", "E"}

// ParseLabelStyle converts the numeric --type flag value into a LabelStyle.
func ParseLabelStyle(n int) (LabelStyle, error) {
	switch LabelStyle(n) {
	case StyleLetterDot, StyleParenUpper:
		return LabelStyle(n), nil
	default:
		return 0, fmt.Errorf("unknown choice label style %d: must be 1 (a.) or 2 (A)", n)
	}
}

// Label returns the display label for the i-th choice (zero based).
func (s LabelStyle) Label(i int) string {
	if i < 0 || i >= MaxChoices {
		return "?"
	}
	if s == StyleParenUpper {
		return "(" + KeyLetters[i] + ")"
	}
	return string(rune('a'+i)) + "."
}

// Other returns the alternative label style.
func (s LabelStyle) Other() LabelStyle {
	if s == StyleParenUpper {
		return StyleLetterDot
	}
	return StyleParenUpper
}

// Choice is one answer option of a question.
type Choice struct {
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct"`
}

// Question is a question stem with its ordered choices.
type Question struct {
	Text    string   `yaml:"text"`
	Choices []Choice `yaml:"choices"`
}

// ExamSet is the ordered list of questions assembled for one run.
type ExamSet struct {
	Questions []Question `yaml:"questions"`
}

// Invariant violations reported inside InvariantError.
var (
	ErrNoChoices      = errors.New("question has no choices")
	ErrCorrectCount   = errors.New("question must have exactly one correct choice")
	ErrTooManyChoices = errors.New("question has more choices than key letters")
)

// InvariantError reports a model invariant violation for one question.
type InvariantError struct {
	Question int // zero based
	Correct  int // number of choices flagged correct
	Err      error
}

func (e *InvariantError) Error() string {
	if errors.Is(e.Err, ErrCorrectCount) {
		return fmt.Sprintf("question %d: %v (found %d)", e.Question+1, e.Err, e.Correct)
	}
	return fmt.Sprintf("question %d: %v", e.Question+1, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }

// CorrectIndex returns the position of the single correct choice.
func (q Question) CorrectIndex() (int, error) {
	if len(q.Choices) == 0 {
		return -1, ErrNoChoices
	}
	idx, n := -1, 0
	for i, c := range q.Choices {
		if c.Correct {
			idx = i
			n++
		}
	}
	if n != 1 {
		return -1, ErrCorrectCount
	}
	return idx, nil
}

// Validate checks that every question has choices and exactly one correct choice.
func (s ExamSet) Validate() error {
	for i, q := range s.Questions {
		if _, err := q.CorrectIndex(); err != nil {
			return &InvariantError{Question: i, Correct: q.countCorrect(), Err: err}
		}
	}
	return nil
}

func (q Question) countCorrect() int {
	n := 0
	for _, c := range q.Choices {
		if c.Correct {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the set so later stages never share choice slices.
func (s ExamSet) Clone() ExamSet {
	out := ExamSet{Questions: make([]Question, len(s.Questions))}
	for i, q := range s.Questions {
		out.Questions[i] = Question{
			Text:    q.Text,
			Choices: append([]Choice(nil), q.Choices...),
		}
	}
	return out
}

// AssembleConfig holds the per-run exam options set via CLI flags.
type AssembleConfig struct {
	Seed             int64
	Style            LabelStyle
	ShuffleQuestions bool
	ShuffleChoices   bool
	MarkCorrect      bool
	IncludeKey       bool
	NoneOfAbove      bool
	Output           string // base name of the final PDF
	CommentPrefixes  string // line prefixes treated as comments, e.g. "#;"
	Lang             string // language for rendered literals (en, ru)
}

// BaseName returns the output name combined with the seed, e.g. "Test-Output-2048".
func (c AssembleConfig) BaseName() string {
	return fmt.Sprintf("%s-%d", c.Output, c.Seed)
}
