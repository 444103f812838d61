package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/examgen/internal/model"
	"github.com/pavelanni/examgen/internal/shuffle"
)

func sampleSet() model.ExamSet {
	return model.ExamSet{Questions: []model.Question{
		{Text: "What is 2+2?", Choices: []model.Choice{{Text: "3", Correct: true}, {Text: "4"}}},
		{Text: "Capital of France?", Choices: []model.Choice{{Text: "Rome"}, {Text: "Oslo"}, {Text: "Paris", Correct: true}}},
	}}
}

func TestQuestionsUnmarked(t *testing.T) {
	r := Renderer{Style: model.StyleLetterDot, Labels: DefaultLabels()}
	got, err := r.Questions(sampleSet())
	require.NoError(t, err)

	assert.Contains(t, got, "\t\t\t\\item[a.] 3\n")
	assert.Contains(t, got, "\t\t\t\\item[b.] 4\n")
	assert.Contains(t, got, "\t\t\t\\item[c.] Paris\n")
	assert.NotContains(t, got, "(*)")
	assert.Equal(t, 2, strings.Count(got, `\begin{minipage}`))
	assert.True(t, strings.HasPrefix(got, "\\begin{enumerate}\n"))
}

func TestQuestionsMarkCorrect(t *testing.T) {
	r := Renderer{Style: model.StyleParenUpper, MarkCorrect: true, Labels: DefaultLabels()}
	got, err := r.Questions(sampleSet())
	require.NoError(t, err)

	assert.Contains(t, got, `\item[(A)] (*) 3`)
	assert.Contains(t, got, `\item[(C)] (*) Paris`)
	assert.Equal(t, 2, strings.Count(got, "(*)"))
}

func TestQuestionsNoneOfAbove(t *testing.T) {
	r := Renderer{Style: model.StyleLetterDot, NoneOfAbove: true, Labels: DefaultLabels()}
	got, err := r.Questions(sampleSet())
	require.NoError(t, err)

	assert.Contains(t, got, `\item[c.] None of the above`)
	assert.Contains(t, got, `\item[d.] None of the above`)
}

func TestQuestionsTooManyChoices(t *testing.T) {
	q := model.Question{Text: "Q"}
	for i := 0; i < model.MaxChoices; i++ {
		q.Choices = append(q.Choices, model.Choice{Text: "x", Correct: i == 0})
	}
	set := model.ExamSet{Questions: []model.Question{q}}

	_, err := Renderer{Style: model.StyleLetterDot}.Questions(set)
	require.NoError(t, err)

	_, err = Renderer{Style: model.StyleLetterDot, NoneOfAbove: true}.Questions(set)
	assert.ErrorIs(t, err, model.ErrTooManyChoices)
}

func TestKey(t *testing.T) {
	r := Renderer{IncludeKey: true, Labels: DefaultLabels()}
	got, err := r.Key(sampleSet())
	require.NoError(t, err)
	assert.Equal(t, "\\clearpage\n\\textbf{KEY}\n\\begin{enumerate}\n\t\\item A\n\t\\item C\n\\end{enumerate}\n", got)

	off, err := Renderer{}.Key(sampleSet())
	require.NoError(t, err)
	assert.Empty(t, off)
}

func TestKeyFollowsFinalOrder(t *testing.T) {
	set := sampleSet()
	for i := 0; i < 3; i++ {
		set.Questions = append(set.Questions, model.Question{
			Text: "Extra",
			Choices: []model.Choice{
				{Text: "w"}, {Text: "x", Correct: true}, {Text: "y"}, {Text: "z"},
			},
		})
	}
	shuffled := shuffle.New(11).Apply(set, shuffle.Options{Questions: true, Choices: true})

	r := Renderer{IncludeKey: true, Labels: DefaultLabels()}
	key, err := r.Key(shuffled)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(key), "\n")
	items := lines[3 : len(lines)-1]
	require.Len(t, items, len(shuffled.Questions))
	for i, q := range shuffled.Questions {
		idx, err := q.CorrectIndex()
		require.NoError(t, err)
		assert.Equal(t, "\t\\item "+model.KeyLetters[idx], items[i])
	}
}

func TestDocument(t *testing.T) {
	r := Renderer{Style: model.StyleLetterDot, IncludeKey: true, Labels: DefaultLabels()}
	tmpl := "ID=%%TESTID%%\n%%QUESTIONS%%\n%%KEY%%\n"
	got, err := r.Document(tmpl, sampleSet(), "2048")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "ID=2048\n\\begin{enumerate}"))
	assert.Contains(t, got, `\textbf{KEY}`)
	assert.NotContains(t, got, "%%")
}

func TestDocumentMissingPlaceholders(t *testing.T) {
	r := Renderer{Style: model.StyleLetterDot, IncludeKey: true}
	got, err := r.Document("no placeholders here", sampleSet(), "1")
	require.NoError(t, err)
	assert.Equal(t, "no placeholders here", got)
}

func TestDefaultTemplateHasPlaceholders(t *testing.T) {
	for _, p := range []string{PlaceholderQuestions, PlaceholderKey, PlaceholderTestID} {
		assert.Contains(t, DefaultTemplate, p)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := model.AssembleConfig{Style: model.StyleParenUpper, MarkCorrect: true, IncludeKey: true, NoneOfAbove: true}
	r := New(cfg, DefaultLabels())
	assert.Equal(t, model.StyleParenUpper, r.Style)
	assert.True(t, r.MarkCorrect)
	assert.True(t, r.IncludeKey)
	assert.True(t, r.NoneOfAbove)
}
