// Package convert defines the rich-text conversion capability used to turn
// markdown fragments into typeset-ready text.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Format is a target format understood by a Converter.
type Format string

const (
	// LaTeX is the typesetting target used for printed exams.
	LaTeX Format = "latex"
	// HTML is used for LMS exports.
	HTML Format = "html"
)

// Converter turns a markdown fragment into text in the target format.
type Converter interface {
	Convert(ctx context.Context, text string, to Format) (string, error)
}

// ConverterFunc adapts a plain function to the Converter interface.
type ConverterFunc func(ctx context.Context, text string, to Format) (string, error)

// Convert calls f.
func (f ConverterFunc) Convert(ctx context.Context, text string, to Format) (string, error) {
	return f(ctx, text, to)
}

// Passthrough returns fragments unchanged. It is used when the bank is
// already written in the target syntax.
type Passthrough struct{}

// Convert returns text unchanged.
func (Passthrough) Convert(_ context.Context, text string, _ Format) (string, error) {
	return text, nil
}

// Pandoc converts fragments by running the pandoc binary.
type Pandoc struct {
	Path string // binary path, "pandoc" when empty
	From string // source dialect, "markdown" when empty
}

// ErrUnsupportedFormat is returned for targets a converter cannot produce.
var ErrUnsupportedFormat = errors.New("unsupported target format")

// Convert feeds text to pandoc on stdin and returns its stdout.
func (p Pandoc) Convert(ctx context.Context, text string, to Format) (string, error) {
	if to != LaTeX && to != HTML {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, to)
	}
	bin := p.Path
	if bin == "" {
		bin = "pandoc"
	}
	from := p.From
	if from == "" {
		from = "markdown"
	}

	cmd := exec.CommandContext(ctx, bin, "--from", from, "--to", string(to))
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("pandoc: %w: %s", err, msg)
		}
		return "", fmt.Errorf("pandoc: %w", err)
	}
	return stdout.String(), nil
}

// Error identifies the fragment a converter rejected.
type Error struct {
	Block  int // zero based question block
	Choice int // zero based choice, -1 for the stem
	Err    error
}

func (e *Error) Error() string {
	if e.Choice < 0 {
		return fmt.Sprintf("convert question %d stem: %v", e.Block+1, e.Err)
	}
	return fmt.Sprintf("convert question %d choice %d: %v", e.Block+1, e.Choice+1, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
