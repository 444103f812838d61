// Package table converts fenced plain-text pipe tables into LaTeX tabular
// environments. It runs before rich-text conversion because its output is
// already LaTeX.
package table

import (
	"log/slog"
	"regexp"
	"strings"
)

var (
	fencedBlock  = regexp.MustCompile("(?s)```[ \\t]*\\n(.*?)\\n```")
	separatorRow = regexp.MustCompile(`^[\s\-:|]+$`)
)

// Reformat replaces every fenced block holding a pipe table with a centered
// tabular. Fenced blocks without a header separator row are left as is.
// Pipe tables found outside a fence are reported and left untouched.
func Reformat(text string) string {
	warnUnfenced(fencedBlock.ReplaceAllString(text, ""))

	return fencedBlock.ReplaceAllStringFunc(text, func(block string) string {
		m := fencedBlock.FindStringSubmatch(block)
		lines := strings.Split(strings.TrimSpace(m[1]), "\n")
		if !isTable(lines) {
			return block
		}
		return toTabular(lines)
	})
}

// Unfence strips the fences around pipe tables so a Markdown renderer sees
// a bare table. Other fenced blocks are left as is.
func Unfence(text string) string {
	return fencedBlock.ReplaceAllStringFunc(text, func(block string) string {
		body := strings.TrimSpace(fencedBlock.FindStringSubmatch(block)[1])
		if !isTable(strings.Split(body, "\n")) {
			return block
		}
		return "\n" + body + "\n"
	})
}

// isTable reports whether lines form a header row followed by a separator row.
func isTable(lines []string) bool {
	if len(lines) < 2 || !strings.Contains(lines[0], "|") {
		return false
	}
	for _, l := range lines[1:] {
		if isSeparator(l) {
			return true
		}
	}
	return false
}

func isSeparator(line string) bool {
	return separatorRow.MatchString(line) && strings.Contains(line, "-") && strings.Contains(line, "|")
}

func toTabular(lines []string) string {
	header := splitCells(lines[0])

	var sb strings.Builder
	sb.WriteString(`\begin{center}`)
	sb.WriteString(`\begin{tabular}{|` + strings.Repeat("c|", len(header)) + `}\hline `)
	sb.WriteString(row(header) + "\n")
	for _, l := range lines[1:] {
		if strings.TrimSpace(l) == "" || separatorRow.MatchString(l) {
			continue
		}
		sb.WriteString(row(splitCells(l)) + "\n")
	}
	sb.WriteString(`\end{tabular}`)
	sb.WriteString(`\end{center}`)
	return sb.String()
}

func splitCells(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	cells := strings.Split(line, "|")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

func row(cells []string) string {
	return strings.Join(cells, " & ") + ` \\ \hline`
}

func warnUnfenced(text string) {
	for _, l := range strings.Split(text, "\n") {
		if isSeparator(strings.TrimSpace(l)) {
			slog.Warn("table found outside a fenced block, leaving it for manual formatting", "line", strings.TrimSpace(l))
			return
		}
	}
}
