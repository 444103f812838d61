// Package typeset drives the external LaTeX compiler and PDF merger.
package typeset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Compiler turns LaTeX sources into PDFs and merges PDFs.
type Compiler interface {
	// Compile typesets texPath and returns the path of the produced PDF.
	Compile(ctx context.Context, texPath string) (string, error)
	// Merge concatenates inputs, in order, into out.
	Merge(ctx context.Context, out string, inputs ...string) error
}

// ToolError reports a failed external tool run. Runs are never retried.
type ToolError struct {
	Tool     string
	ExitCode int
	Output   string
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s exited with status %d: %v", e.Tool, e.ExitCode, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Tools runs pdflatex and pdfunite.
type Tools struct {
	PDFLaTeX string // "pdflatex" when empty
	PDFUnite string // "pdfunite" when empty
}

// Compile runs pdflatex in the directory of texPath.
func (t Tools) Compile(ctx context.Context, texPath string) (string, error) {
	bin := t.PDFLaTeX
	if bin == "" {
		bin = "pdflatex"
	}
	dir, name := filepath.Split(texPath)
	if dir == "" {
		dir = "."
	}
	if err := run(ctx, dir, bin, "-interaction=nonstopmode", "-halt-on-error", name); err != nil {
		return "", err
	}
	return strings.TrimSuffix(texPath, filepath.Ext(texPath)) + ".pdf", nil
}

// Merge runs pdfunite. With a single input the file is copied instead.
func (t Tools) Merge(ctx context.Context, out string, inputs ...string) error {
	if len(inputs) == 0 {
		return errors.New("merge: no input files")
	}
	if len(inputs) == 1 {
		return copyFile(inputs[0], out)
	}
	bin := t.PDFUnite
	if bin == "" {
		bin = "pdfunite"
	}
	args := append(append([]string{}, inputs...), out)
	return run(ctx, "", bin, args...)
}

func run(ctx context.Context, dir, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	slog.Debug("running external tool", "tool", bin, "args", args, "dir", dir)
	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return &ToolError{Tool: filepath.Base(bin), ExitCode: code, Output: output.String(), Err: err}
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

// auxExts are the files pdflatex leaves next to the source.
var auxExts = []string{".tex", ".aux", ".log", ".out", ".pdf"}

// Cleanup removes the intermediate files of base (a path without extension).
// Missing files are ignored.
func Cleanup(base string) error {
	var errs []error
	for _, ext := range auxExts {
		if err := os.Remove(base + ext); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
