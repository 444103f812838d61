// Package render typesets an exam set as LaTeX and fills it into a template.
package render

import (
	_ "embed"
	"strings"

	"github.com/pavelanni/examgen/internal/model"
)

// Template placeholders replaced by Document.
const (
	PlaceholderQuestions = "%%QUESTIONS%%"
	PlaceholderKey       = "%%KEY%%"
	PlaceholderTestID    = "%%TESTID%%"
)

// DefaultTemplate is used when no template file is configured.
//
//go:embed template.tex
var DefaultTemplate string

// Labels are the localized literals inserted into the document.
type Labels struct {
	NoneOfAbove string
	KeyHeading  string
}

// DefaultLabels returns the English literals.
func DefaultLabels() Labels {
	return Labels{NoneOfAbove: "None of the above", KeyHeading: "KEY"}
}

// Renderer turns an exam set into LaTeX fragments.
type Renderer struct {
	Style       model.LabelStyle
	MarkCorrect bool
	IncludeKey  bool
	NoneOfAbove bool
	Labels      Labels
}

// New builds a Renderer from the run configuration.
func New(cfg model.AssembleConfig, labels Labels) Renderer {
	return Renderer{
		Style:       cfg.Style,
		MarkCorrect: cfg.MarkCorrect,
		IncludeKey:  cfg.IncludeKey,
		NoneOfAbove: cfg.NoneOfAbove,
		Labels:      labels,
	}
}

// Questions renders the numbered question list. Each question sits in a
// minipage so its stem and choices stay on one page.
func (r Renderer) Questions(set model.ExamSet) (string, error) {
	var sb strings.Builder
	sb.WriteString("\\begin{enumerate}\n\t\\itemsep0.2em\n")
	for i, q := range set.Questions {
		shown := len(q.Choices)
		if r.NoneOfAbove {
			shown++
		}
		if shown > model.MaxChoices {
			return "", &model.InvariantError{Question: i, Correct: 1, Err: model.ErrTooManyChoices}
		}

		sb.WriteString("\t\\item\n\t\\begin{minipage}[t]{\\linewidth}\n")
		sb.WriteString("\t\t" + q.Text + "\n\n")
		sb.WriteString("\t\t\\vspace{1em}\n\n")
		sb.WriteString("\t\t\\begin{enumerate}\n\t\t\\setlength\\itemsep{0.25em}\n")
		for j, c := range q.Choices {
			sb.WriteString("\t\t\t\\item[" + r.Style.Label(j) + "] ")
			if c.Correct && r.MarkCorrect {
				sb.WriteString("(*) ")
			}
			sb.WriteString(c.Text + "\n")
		}
		if r.NoneOfAbove {
			sb.WriteString("\t\t\t\\item[" + r.Style.Label(len(q.Choices)) + "] " + r.Labels.NoneOfAbove + "\n")
		}
		sb.WriteString("\t\t\\end{enumerate}\n")
		sb.WriteString("\t\\end{minipage}\n")
	}
	sb.WriteString("\\end{enumerate}\n")
	return sb.String(), nil
}

// Key renders the answer key from the order of set as given, so it must be
// called on the final (shuffled) set. It returns "" when the key is off.
func (r Renderer) Key(set model.ExamSet) (string, error) {
	if !r.IncludeKey {
		return "", nil
	}
	entries, err := model.KeyFor(set)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("\\clearpage\n")
	sb.WriteString("\\textbf{" + r.Labels.KeyHeading + "}\n")
	sb.WriteString("\\begin{enumerate}\n")
	for _, e := range entries {
		sb.WriteString("\t\\item " + e.Letter + "\n")
	}
	sb.WriteString("\\end{enumerate}\n")
	return sb.String(), nil
}

// Document substitutes the rendered questions, key and test identifier into
// tmpl. Placeholders missing from tmpl are skipped.
func (r Renderer) Document(tmpl string, set model.ExamSet, testID string) (string, error) {
	questions, err := r.Questions(set)
	if err != nil {
		return "", err
	}
	key, err := r.Key(set)
	if err != nil {
		return "", err
	}
	out := strings.ReplaceAll(tmpl, PlaceholderQuestions, questions)
	out = strings.ReplaceAll(out, PlaceholderKey, key)
	out = strings.ReplaceAll(out, PlaceholderTestID, testID)
	return out, nil
}
