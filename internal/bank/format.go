package bank

import (
	"fmt"
	"strings"

	"github.com/pavelanni/examgen/internal/model"
)

// Format writes questions in bank source format with style 1 labels. The
// correct choice is written first, which is the authoring contract Parse
// relies on.
func Format(title string, questions []model.Question) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString("# " + title + "\n\n")
	}
	for i, q := range questions {
		fmt.Fprintf(&sb, "%d. %s\n\n", i+1, strings.TrimSpace(q.Text))

		n := 0
		write := func(c model.Choice) {
			fmt.Fprintf(&sb, "%c. %s\n", 'a'+n, strings.TrimSpace(c.Text))
			n++
		}
		for _, c := range q.Choices {
			if c.Correct {
				write(c)
			}
		}
		for _, c := range q.Choices {
			if !c.Correct {
				write(c)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
