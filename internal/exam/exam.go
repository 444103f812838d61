// Package exam wires the pipeline stages into one exam assembly run:
// segment, reformat tables, convert, encode, decode, shuffle, render,
// typeset and record.
package exam

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pavelanni/examgen/internal/bank"
	"github.com/pavelanni/examgen/internal/convert"
	"github.com/pavelanni/examgen/internal/markup"
	"github.com/pavelanni/examgen/internal/model"
	"github.com/pavelanni/examgen/internal/render"
	"github.com/pavelanni/examgen/internal/shuffle"
	"github.com/pavelanni/examgen/internal/table"
	"github.com/pavelanni/examgen/internal/typeset"
)

// Ledger records finished runs.
type Ledger interface {
	RecordRun(rec model.RunRecord) (string, error)
}

// Assembler runs the pipeline. Converter is required; a nil Compiler skips
// PDF production and a nil Ledger skips recording.
type Assembler struct {
	Converter convert.Converter
	Compiler  typeset.Compiler
	Ledger    Ledger

	Template   string        // LaTeX template; render.DefaultTemplate when empty
	Labels     render.Labels // localized literals; English when zero
	Cover      string        // cover PDF placed before the exam, optional
	WorkDir    string        // intermediate files; "." when empty
	OutDir     string        // final PDF; "." when empty
	KeepMarkup bool          // write the intermediate markup next to the LaTeX source
	Cleanup    bool          // remove intermediate LaTeX files after merging
	RawTables  bool          // leave fenced tables as Markdown for non-LaTeX exports
}

// Result is the outcome of one run.
type Result struct {
	RunID    string
	Markup   string
	Set      model.ExamSet // final order
	Document string
	Key      []model.KeyEntry
	TeXPath  string
	PDF      string // empty when compilation was skipped
}

// Decode runs the stages up to and including validation and returns the
// intermediate markup with the decoded set in source order. Converted text
// is checked the same way as the source so that the markup always decodes.
func (a *Assembler) Decode(ctx context.Context, source []byte, cfg model.AssembleConfig) (string, model.ExamSet, error) {
	prefixes := cfg.CommentPrefixes
	if prefixes == "" {
		prefixes = bank.DefaultCommentPrefixes
	}
	raw, err := bank.Parse(string(source), cfg.Style, prefixes)
	if err != nil {
		return "", model.ExamSet{}, fmt.Errorf("segment: %w", err)
	}

	blocks := make([]string, 0, len(raw))
	for i, q := range raw {
		stem := q.Stem
		if !a.RawTables {
			stem = table.Reformat(stem)
		}
		stem, err := a.convert(ctx, stem)
		if err != nil {
			return "", model.ExamSet{}, &convert.Error{Block: i, Choice: -1, Err: err}
		}
		choices := make([]string, len(q.Choices))
		for j, c := range q.Choices {
			choices[j], err = a.convert(ctx, c)
			if err != nil {
				return "", model.ExamSet{}, &convert.Error{Block: i, Choice: j, Err: err}
			}
		}
		blocks = append(blocks, markup.Encode(stem, markup.AuthoredFirst(choices)))
	}

	blob := markup.Wrap(blocks)
	set, err := markup.Decode(blob)
	if err != nil {
		return blob, model.ExamSet{}, fmt.Errorf("decode markup: %w", err)
	}
	if err := set.Validate(); err != nil {
		return blob, model.ExamSet{}, err
	}
	return blob, set, nil
}

func (a *Assembler) convert(ctx context.Context, text string) (string, error) {
	out, err := a.Converter.Convert(ctx, text, convert.LaTeX)
	if err != nil {
		return "", err
	}
	if err := bank.CheckText(out); err != nil {
		return "", fmt.Errorf("converted text: %w", err)
	}
	return out, nil
}

// Build assembles one exam from source. sourcePath is only recorded in the
// ledger and may be empty.
func (a *Assembler) Build(ctx context.Context, source []byte, sourcePath string, cfg model.AssembleConfig) (*Result, error) {
	blob, set, err := a.Decode(ctx, source, cfg)
	if err != nil {
		return nil, err
	}

	set = shuffle.New(cfg.Seed).Apply(set, shuffle.Options{
		Questions: cfg.ShuffleQuestions,
		Choices:   cfg.ShuffleChoices,
	})

	key, err := model.KeyFor(set)
	if err != nil {
		return nil, err
	}

	labels := a.Labels
	if labels == (render.Labels{}) {
		labels = render.DefaultLabels()
	}
	tmpl := a.Template
	if tmpl == "" {
		tmpl = render.DefaultTemplate
	}
	doc, err := render.New(cfg, labels).Document(tmpl, set, fmt.Sprint(cfg.Seed))
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	res := &Result{Markup: blob, Set: set, Document: doc, Key: key}

	workDir := dirOrDot(a.WorkDir)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	body := filepath.Join(workDir, cfg.BaseName()+"-body")
	res.TeXPath = body + ".tex"
	if err := os.WriteFile(res.TeXPath, []byte(doc), 0o644); err != nil {
		return nil, fmt.Errorf("write LaTeX source: %w", err)
	}
	if a.KeepMarkup {
		if err := os.WriteFile(filepath.Join(workDir, cfg.BaseName()+"-bank.xml"), []byte(blob), 0o644); err != nil {
			return nil, fmt.Errorf("write markup: %w", err)
		}
	}

	if a.Compiler != nil {
		pdf, err := a.compileAndMerge(ctx, res.TeXPath, cfg)
		if err != nil {
			return nil, err
		}
		res.PDF = pdf
		if a.Cleanup {
			if err := typeset.Cleanup(body); err != nil {
				slog.Warn("cleanup failed", "base", body, "error", err)
			}
		}
	}

	if a.Ledger != nil {
		id, err := a.Ledger.RecordRun(model.RunRecord{
			Output:            cfg.Output,
			Seed:              cfg.Seed,
			SourcePath:        sourcePath,
			SourceHash:        hashSource(source),
			NumQuestions:      len(set.Questions),
			ShuffledQuestions: cfg.ShuffleQuestions,
			ShuffledChoices:   cfg.ShuffleChoices,
			PDFPath:           res.PDF,
			Key:               key,
		})
		if err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
		res.RunID = id
	}

	slog.Info("exam assembled",
		"output", cfg.Output,
		"seed", cfg.Seed,
		"questions", len(set.Questions),
		"pdf", res.PDF,
	)
	return res, nil
}

// BuildFile reads the bank at path and calls Build.
func (a *Assembler) BuildFile(ctx context.Context, path string, cfg model.AssembleConfig) (*Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return a.Build(ctx, source, path, cfg)
}

func (a *Assembler) compileAndMerge(ctx context.Context, texPath string, cfg model.AssembleConfig) (string, error) {
	compiled, err := a.Compiler.Compile(ctx, texPath)
	if err != nil {
		return "", fmt.Errorf("compile: %w", err)
	}

	outDir := dirOrDot(a.OutDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	final := filepath.Join(outDir, cfg.BaseName()+".pdf")

	inputs := []string{compiled}
	if a.Cover != "" {
		inputs = append([]string{a.Cover}, inputs...)
	}
	if err := a.Compiler.Merge(ctx, final, inputs...); err != nil {
		return "", fmt.Errorf("merge: %w", err)
	}
	return final, nil
}

func dirOrDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

func hashSource(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
