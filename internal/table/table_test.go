package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReformatSimpleTable(t *testing.T) {
	in := "Consider:\n```\n A | B\n---|---\n 1 | 2\n```\nWhich is right?"
	got := Reformat(in)

	assert.Contains(t, got, `\begin{tabular}{|c|c|}\hline A & B \\ \hline`)
	assert.Contains(t, got, "\n1 & 2 \\\\ \\hline\n")
	assert.Equal(t, 1, strings.Count(got, `\begin{center}`))
	assert.NotContains(t, got, "```")
	assert.NotContains(t, got, "---")
	assert.True(t, strings.HasPrefix(got, "Consider:\n"))
	assert.True(t, strings.HasSuffix(got, "\nWhich is right?"))
}

func TestReformatTruthTable(t *testing.T) {
	in := "```\n| p | q | p AND q |\n|:-:|:-:|:-:|\n| T | T | T |\n| T | F | F |\n```"
	got := Reformat(in)

	assert.Contains(t, got, `\begin{tabular}{|c|c|c|}`)
	assert.Contains(t, got, `p & q & p AND q \\ \hline`)
	assert.Contains(t, got, `T & T & T \\ \hline`)
	assert.Contains(t, got, `T & F & F \\ \hline`)
}

func TestReformatLeavesCodeBlocks(t *testing.T) {
	in := "What does this print?\n```\nx = 1 | 2\nprint(x)\n```"
	assert.Equal(t, in, Reformat(in))
}

func TestReformatUnfencedTableUntouched(t *testing.T) {
	in := "A | B\n---|---\n1 | 2"
	assert.Equal(t, in, Reformat(in))
}

func TestReformatRaggedRowsPassThrough(t *testing.T) {
	in := "```\nA | B\n---|---\n1 | 2 | 3\n```"
	got := Reformat(in)
	assert.Contains(t, got, `{|c|c|}`)
	assert.Contains(t, got, `1 & 2 & 3 \\ \hline`)
}

func TestUnfence(t *testing.T) {
	in := "Consider:\n```\nA | B\n---|---\n1 | 2\n```\nWhich is right?"
	assert.Equal(t, "Consider:\n\nA | B\n---|---\n1 | 2\n\nWhich is right?", Unfence(in))

	code := "Run:\n```\nfmt.Println(1)\n```"
	assert.Equal(t, code, Unfence(code))
}
