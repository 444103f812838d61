package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/examgen/internal/bank"
	"github.com/pavelanni/examgen/internal/convert"
	"github.com/pavelanni/examgen/internal/exam"
	appI18n "github.com/pavelanni/examgen/internal/i18n"
	"github.com/pavelanni/examgen/internal/llm"
	"github.com/pavelanni/examgen/internal/model"
	"github.com/pavelanni/examgen/internal/store"
	"github.com/pavelanni/examgen/internal/typeset"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "examgen",
		Short: "Assemble randomized multiple-choice exams from a question bank",
	}

	build := buildCmd()
	root.AddCommand(build, keyCmd(), runsCmd(), inspectCmd(), qtiCmd(), generateCmd())

	// Make "build" the default when no subcommand is given.
	root.RunE = build.RunE

	// Register build flags on root so bare `examgen -i bank.md` still works.
	root.Flags().AddFlagSet(build.Flags())

	return root
}

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble an exam PDF from a question bank",
		RunE:  runBuild,
	}
	f := cmd.Flags()
	f.StringP("input", "i", "", "Question bank file (required)")
	f.Int64P("seed", "s", 2048, "Random seed for shuffling")
	f.StringP("output", "o", "Test-Output", "Output base name; the PDF is <output>-<seed>.pdf")
	f.Bool("shuffle-questions", false, "Shuffle question order")
	f.Bool("shuffle-choices", false, "Shuffle choice order within each question")
	f.BoolP("mark-correct", "m", false, "Mark the correct choice with (*)")
	f.BoolP("key", "k", false, "Append the answer key")
	f.Bool("none-above", false, "Add a \"None of the above\" choice to every question")
	f.Int("type", 1, "Choice label style: 1 for a. b. c., 2 for (A) (B) (C)")
	f.String("comment-prefixes", bank.DefaultCommentPrefixes, "Characters that start a comment line")
	f.String("template", "", "LaTeX template file (built-in template when empty)")
	f.String("cover", "CoverPage.pdf", "Cover page PDF placed before the exam (empty to skip)")
	f.String("converter", "pandoc", "Markdown converter (pandoc, llm, none)")
	f.String("pandoc", "pandoc", "pandoc binary")
	f.String("pdflatex", "pdflatex", "pdflatex binary")
	f.String("pdfunite", "pdfunite", "pdfunite binary")
	f.String("workdir", ".", "Directory for intermediate files")
	f.String("outdir", ".", "Directory for the final PDF")
	f.Bool("keep-markup", false, "Keep the intermediate question markup file")
	f.Bool("no-compile", false, "Write the LaTeX source only")
	f.Bool("cleanup", false, "Remove intermediate LaTeX files after a successful build")
	f.String("db", "examgen.db", "SQLite run ledger path (empty to disable)")
	f.StringP("lang", "l", "en", "Language of rendered literals (en, ru)")
	addLLMFlags(f)
	addLogFlags(f)
	return cmd
}

func addLLMFlags(f *pflag.FlagSet) {
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EXAMGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("examgen")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/examgen")
	v.AddConfigPath("/etc/examgen")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// assembleConfig reads the per-run options shared by build and inspect.
func assembleConfig(v *viper.Viper) (model.AssembleConfig, error) {
	style, err := model.ParseLabelStyle(v.GetInt("type"))
	if err != nil {
		return model.AssembleConfig{}, err
	}
	return model.AssembleConfig{
		Seed:             v.GetInt64("seed"),
		Style:            style,
		ShuffleQuestions: v.GetBool("shuffle-questions"),
		ShuffleChoices:   v.GetBool("shuffle-choices"),
		MarkCorrect:      v.GetBool("mark-correct"),
		IncludeKey:       v.GetBool("key"),
		NoneOfAbove:      v.GetBool("none-above"),
		Output:           v.GetString("output"),
		CommentPrefixes:  v.GetString("comment-prefixes"),
		Lang:             v.GetString("lang"),
	}, nil
}

func runBuild(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	input := v.GetString("input")
	if input == "" {
		return fmt.Errorf("question bank is required: set --input or EXAMGEN_INPUT")
	}
	cfg, err := assembleConfig(v)
	if err != nil {
		return err
	}

	if err := appI18n.Init(cfg.Lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	conv, err := newConverter(ctx, v)
	if err != nil {
		return err
	}

	a := &exam.Assembler{
		Converter:  conv,
		Labels:     exam.LocalizedLabels(cfg.Lang),
		WorkDir:    v.GetString("workdir"),
		OutDir:     v.GetString("outdir"),
		KeepMarkup: v.GetBool("keep-markup"),
		Cleanup:    v.GetBool("cleanup"),
	}

	if path := v.GetString("template"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}
		a.Template = string(data)
	}

	if !v.GetBool("no-compile") {
		a.Compiler = typeset.Tools{
			PDFLaTeX: v.GetString("pdflatex"),
			PDFUnite: v.GetString("pdfunite"),
		}
		if cover := v.GetString("cover"); cover != "" {
			if _, err := os.Stat(cover); err != nil {
				slog.Warn("cover page not found, building without it", "cover", cover)
			} else {
				a.Cover = cover
			}
		}
	}

	if dbPath := v.GetString("db"); dbPath != "" {
		db, err := store.New(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		a.Ledger = db
	}

	res, err := a.BuildFile(ctx, input, cfg)
	if err != nil {
		return err
	}

	uiCtx := appI18n.WithLocalizer(ctx, appI18n.NewLocalizer(cfg.Lang))
	fmt.Fprintln(cmd.OutOrStdout(), appI18n.Tp(uiCtx, "QuestionsAssembled", len(res.Set.Questions)))
	if res.PDF != "" {
		fmt.Fprintln(cmd.OutOrStdout(), res.PDF)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), res.TeXPath)
	}
	return nil
}

func newConverter(ctx context.Context, v *viper.Viper) (convert.Converter, error) {
	switch name := strings.ToLower(v.GetString("converter")); name {
	case "pandoc":
		return convert.Pandoc{Path: v.GetString("pandoc")}, nil
	case "none":
		return convert.Passthrough{}, nil
	case "llm":
		client, err := newLLMClient(ctx, v)
		if err != nil {
			return nil, err
		}
		return llm.NewConverter(client), nil
	default:
		return nil, fmt.Errorf("unknown converter %q: must be pandoc, llm or none", name)
	}
}

func newLLMClient(ctx context.Context, v *viper.Viper) (*llm.Client, error) {
	client, err := llm.New(v.GetString("llm-url"), v.GetString("llm-key"), v.GetString("llm-model"))
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("LLM health check: %w", err)
	}
	slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
	return client, nil
}

// openOutput returns stdout for "" or "-", otherwise a created file.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}
