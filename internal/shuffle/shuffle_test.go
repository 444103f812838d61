package shuffle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/examgen/internal/model"
)

func sampleSet(n int) model.ExamSet {
	var set model.ExamSet
	for i := 0; i < n; i++ {
		q := model.Question{Text: fmt.Sprintf("Q%d", i+1)}
		for j := 0; j < 4; j++ {
			q.Choices = append(q.Choices, model.Choice{Text: fmt.Sprintf("Q%d-%d", i+1, j), Correct: j == 0})
		}
		set.Questions = append(set.Questions, q)
	}
	return set
}

func order(set model.ExamSet) []string {
	var out []string
	for _, q := range set.Questions {
		out = append(out, q.Text)
		for _, c := range q.Choices {
			out = append(out, c.Text)
		}
	}
	return out
}

func TestSameSeedSameLayout(t *testing.T) {
	set := sampleSet(10)
	opts := Options{Questions: true, Choices: true}

	a := New(2048).Apply(set, opts)
	b := New(2048).Apply(set, opts)
	assert.Equal(t, order(a), order(b))
}

func TestDifferentSeedsDiffer(t *testing.T) {
	set := sampleSet(10)
	opts := Options{Questions: true, Choices: true}

	a := New(1).Apply(set, opts)
	b := New(2).Apply(set, opts)
	assert.NotEqual(t, order(a), order(b))
}

func TestNoShuffleKeepsOrder(t *testing.T) {
	set := sampleSet(5)
	got := New(99).Apply(set, Options{})
	assert.Equal(t, order(set), order(got))
}

func TestInputNotMutated(t *testing.T) {
	set := sampleSet(6)
	before := order(set)
	New(7).Apply(set, Options{Questions: true, Choices: true})
	assert.Equal(t, before, order(set))
}

func TestChoicesOnlyKeepsQuestionOrder(t *testing.T) {
	set := sampleSet(6)
	got := New(3).Apply(set, Options{Choices: true})
	for i := range set.Questions {
		assert.Equal(t, set.Questions[i].Text, got.Questions[i].Text)
		assert.ElementsMatch(t, set.Questions[i].Choices, got.Questions[i].Choices)
	}
}

func TestShufflePreservesCorrectness(t *testing.T) {
	set := sampleSet(8)
	got := New(42).Apply(set, Options{Questions: true, Choices: true})
	require.NoError(t, got.Validate())

	for _, q := range got.Questions {
		idx, err := q.CorrectIndex()
		require.NoError(t, err)
		assert.Equal(t, q.Text+"-0", q.Choices[idx].Text)
	}
}
