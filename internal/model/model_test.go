package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func q(text string, correct int, choices ...string) Question {
	out := Question{Text: text}
	for i, c := range choices {
		out.Choices = append(out.Choices, Choice{Text: c, Correct: i == correct})
	}
	return out
}

func TestParseLabelStyle(t *testing.T) {
	s, err := ParseLabelStyle(1)
	require.NoError(t, err)
	assert.Equal(t, StyleLetterDot, s)

	s, err = ParseLabelStyle(2)
	require.NoError(t, err)
	assert.Equal(t, StyleParenUpper, s)

	_, err = ParseLabelStyle(3)
	assert.Error(t, err)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "a.", StyleLetterDot.Label(0))
	assert.Equal(t, "e.", StyleLetterDot.Label(4))
	assert.Equal(t, "(B)", StyleParenUpper.Label(1))
	assert.Equal(t, "?", StyleParenUpper.Label(MaxChoices))
	assert.Equal(t, StyleParenUpper, StyleLetterDot.Other())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		set     ExamSet
		wantErr error
		wantQ   int
	}{
		{"ok", ExamSet{Questions: []Question{q("Q1", 0, "a", "b"), q("Q2", 1, "a", "b")}}, nil, 0},
		{"no choices", ExamSet{Questions: []Question{q("Q1", 0, "a"), {Text: "Q2"}}}, ErrNoChoices, 1},
		{"no correct", ExamSet{Questions: []Question{q("Q1", -1, "a", "b")}}, ErrCorrectCount, 0},
		{"two correct", ExamSet{Questions: []Question{{Text: "Q1", Choices: []Choice{
			{Text: "a", Correct: true}, {Text: "b", Correct: true},
		}}}}, ErrCorrectCount, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.set.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			var inv *InvariantError
			require.True(t, errors.As(err, &inv))
			assert.Equal(t, tt.wantQ, inv.Question)
		})
	}
}

func TestKeyFor(t *testing.T) {
	set := ExamSet{Questions: []Question{
		q("Q1", 0, "a", "b"),
		q("Q2", 2, "a", "b", "c"),
	}}
	key, err := KeyFor(set)
	require.NoError(t, err)
	assert.Equal(t, []KeyEntry{{Number: 1, Letter: "A"}, {Number: 2, Letter: "C"}}, key)

	wide := ExamSet{Questions: []Question{q("Q", 5, "a", "b", "c", "d", "e", "f")}}
	_, err = KeyFor(wide)
	assert.ErrorIs(t, err, ErrTooManyChoices)
}

func TestClone(t *testing.T) {
	orig := ExamSet{Questions: []Question{q("Q1", 0, "a", "b")}}
	cp := orig.Clone()
	cp.Questions[0].Choices[0].Text = "changed"
	assert.Equal(t, "a", orig.Questions[0].Choices[0].Text)
}

func TestBaseName(t *testing.T) {
	cfg := AssembleConfig{Output: "Midterm", Seed: 2048}
	assert.Equal(t, "Midterm-2048", cfg.BaseName())
}
