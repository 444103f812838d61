package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pavelanni/examgen/internal/bank"
	"github.com/pavelanni/examgen/internal/convert"
	"github.com/pavelanni/examgen/internal/exam"
	"github.com/pavelanni/examgen/internal/llm"
	"github.com/pavelanni/examgen/internal/llm/prompts"
	"github.com/pavelanni/examgen/internal/model"
	"github.com/pavelanni/examgen/internal/qti"
	"github.com/pavelanni/examgen/internal/shuffle"
	"github.com/pavelanni/examgen/internal/store"
)

func keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Print the answer key recorded for an exam",
		RunE:  runKey,
	}
	f := cmd.Flags()
	f.String("db", "examgen.db", "SQLite run ledger path")
	f.StringP("output", "o", "Test-Output", "Output base name used for the build")
	f.Int64P("seed", "s", 2048, "Seed used for the build")
	f.String("run-id", "", "Run identifier (overrides --output and --seed)")
	f.Bool("json", false, "Print the key as JSON")
	addLogFlags(f)
	return cmd
}

func runKey(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	var rec model.RunRecord
	if id := v.GetString("run-id"); id != "" {
		rec, err = db.GetRun(id)
	} else {
		rec, err = db.LatestRun(v.GetString("output"), v.GetInt64("seed"))
	}
	if err != nil {
		return fmt.Errorf("find run: %w", err)
	}

	w := cmd.OutOrStdout()
	if v.GetBool("json") {
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	fmt.Fprintf(w, "%s seed %d (%s)\n", rec.Output, rec.Seed, rec.CreatedAt.Format("2006-01-02 15:04"))
	for _, e := range rec.Key {
		fmt.Fprintf(w, "%d. %s\n", e.Number, e.Letter)
	}
	return nil
}

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded exam builds",
		RunE:  runRuns,
	}
	f := cmd.Flags()
	f.String("db", "examgen.db", "SQLite run ledger path")
	f.IntP("limit", "n", 20, "Maximum number of runs to list (0 = all)")
	addLogFlags(f)
	return cmd
}

func runRuns(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	total, err := db.RunCount()
	if err != nil {
		return fmt.Errorf("count runs: %w", err)
	}
	runs, err := db.ListRuns(v.GetInt("limit"))
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tOUTPUT\tSEED\tQUESTIONS\tSOURCE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Output, r.Seed, r.NumQuestions, r.SourcePath)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	slog.Debug("listed runs", "shown", len(runs), "total", total)
	return nil
}

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the decoded question model as YAML",
		RunE:  runInspect,
	}
	f := cmd.Flags()
	f.StringP("input", "i", "", "Question bank file (required)")
	f.Int("type", 1, "Choice label style: 1 for a. b. c., 2 for (A) (B) (C)")
	f.String("comment-prefixes", bank.DefaultCommentPrefixes, "Characters that start a comment line")
	f.Int64P("seed", "s", 2048, "Random seed for shuffling")
	f.Bool("shuffle-questions", false, "Shuffle question order")
	f.Bool("shuffle-choices", false, "Shuffle choice order within each question")
	f.Bool("markup", false, "Print the intermediate markup instead of YAML")
	addLogFlags(f)
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runInspect(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	cfg, err := assembleConfig(v)
	if err != nil {
		return err
	}
	source, err := os.ReadFile(v.GetString("input"))
	if err != nil {
		return fmt.Errorf("read question bank: %w", err)
	}

	a := &exam.Assembler{Converter: convert.Passthrough{}}
	blob, set, err := a.Decode(cmd.Context(), source, cfg)
	if err != nil {
		return err
	}
	if v.GetBool("markup") {
		_, err = fmt.Fprint(cmd.OutOrStdout(), blob)
		return err
	}

	set = shuffle.New(cfg.Seed).Apply(set, shuffle.Options{
		Questions: cfg.ShuffleQuestions,
		Choices:   cfg.ShuffleChoices,
	})
	key, err := model.KeyFor(set)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(struct {
		Seed      int64            `yaml:"seed"`
		Questions []model.Question `yaml:"questions"`
		Key       []model.KeyEntry `yaml:"key"`
	}{cfg.Seed, set.Questions, key}); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return enc.Close()
}

func qtiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qti",
		Short: "Export a question bank as a QTI cartridge for LMS import",
		RunE:  runQTI,
	}
	f := cmd.Flags()
	f.StringP("input", "i", "", "Question bank file (required)")
	f.Int("type", 1, "Choice label style: 1 for a. b. c., 2 for (A) (B) (C)")
	f.String("comment-prefixes", bank.DefaultCommentPrefixes, "Characters that start a comment line")
	f.String("title", "Question Bank", "Bank title shown in the LMS")
	f.String("format", "zip", "Export format (zip, txt)")
	f.StringP("output", "o", "", "Output file (default <title>.zip, - for stdout)")
	addLogFlags(f)
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runQTI(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	cfg, err := assembleConfig(v)
	if err != nil {
		return err
	}
	source, err := os.ReadFile(v.GetString("input"))
	if err != nil {
		return fmt.Errorf("read question bank: %w", err)
	}
	// Tables stay Markdown; the LMS export renders them as HTML.
	a := &exam.Assembler{Converter: convert.Passthrough{}, RawTables: true}
	_, set, err := a.Decode(cmd.Context(), source, cfg)
	if err != nil {
		return err
	}

	title := v.GetString("title")
	var data []byte
	switch format := strings.ToLower(v.GetString("format")); format {
	case "zip":
		data, err = qti.Export(title, set.Questions)
		if err != nil {
			return fmt.Errorf("export QTI: %w", err)
		}
	case "txt":
		data = []byte(bank.Format(title, set.Questions))
	default:
		return fmt.Errorf("unknown format %q: must be zip or txt", format)
	}

	out := v.GetString("output")
	if out == "" {
		out = strings.ReplaceAll(title, " ", "_") + "." + strings.ToLower(v.GetString("format"))
	}
	w, closeFn, err := openOutput(cmd, out)
	if err != nil {
		return err
	}
	defer closeFn()
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	slog.Info("exported question bank", "questions", len(set.Questions), "output", out)
	return nil
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Draft new questions with an LLM in question bank format",
		RunE:  runGenerate,
	}
	f := cmd.Flags()
	f.StringSliceP("topic", "t", nil, "Topic to cover (repeatable, required)")
	f.IntP("count", "n", 5, "Number of questions to draft")
	f.StringP("difficulty", "d", string(prompts.DifficultyMedium), "Difficulty (easy, medium, hard)")
	f.String("examples", "", "Existing question bank used as a style reference")
	f.String("notes", "", "Extra instructions for the model")
	f.String("title", "", "Title comment written at the top of the bank")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLLMFlags(f)
	addLogFlags(f)
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	difficulty := strings.ToLower(strings.TrimSpace(v.GetString("difficulty")))
	if !prompts.IsValidDifficulty(difficulty) {
		return fmt.Errorf("invalid difficulty %q: must be easy, medium or hard", difficulty)
	}

	var examples string
	if path := v.GetString("examples"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read examples: %w", err)
		}
		examples = string(data)
	}

	client, err := newLLMClient(ctx, v)
	if err != nil {
		return err
	}
	questions, err := client.GenerateQuestions(ctx, llm.GenerateRequest{
		Topics:     v.GetStringSlice("topic"),
		Difficulty: prompts.Difficulty(difficulty),
		Count:      v.GetInt("count"),
		Examples:   examples,
		Notes:      v.GetString("notes"),
	})
	if err != nil {
		return fmt.Errorf("generate questions: %w", err)
	}
	if len(questions) == 0 {
		return fmt.Errorf("the model returned no usable questions")
	}

	w, closeFn, err := openOutput(cmd, v.GetString("output"))
	if err != nil {
		return err
	}
	defer closeFn()
	if _, err := fmt.Fprint(w, bank.Format(v.GetString("title"), questions)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	slog.Info("drafted questions", "requested", v.GetInt("count"), "kept", len(questions))
	return nil
}
