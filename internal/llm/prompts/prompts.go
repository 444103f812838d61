package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

//go:embed prompts/*.txt
var Files embed.FS

var authorNotesRegex = regexp.MustCompile(`(?i)</?\s*author-notes\b[^>]*>`)

// maxNotesRunes bounds user supplied notes pasted into a prompt.
const maxNotesRunes = 4000

// Difficulty is the requested difficulty of generated questions.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var difficultyDescriptions = map[Difficulty]string{
	DifficultyEasy:   "Easy - basic recall or simple application, 1-2 steps",
	DifficultyMedium: "Medium - analysis or multi-step reasoning, 3-5 steps",
	DifficultyHard:   "Hard - synthesis of several concepts, 5+ steps",
}

// IsValidDifficulty checks if a difficulty name is valid.
func IsValidDifficulty(d string) bool {
	_, ok := difficultyDescriptions[Difficulty(d)]
	return ok
}

// GenerateData holds template data for bank drafting prompts.
type GenerateData struct {
	Topics     string
	Difficulty string
	Count      int
	MaxChoices int
	Examples   string
	Notes      string
}

// ConvertData holds template data for conversion prompts.
type ConvertData struct {
	Fragment string
}

var (
	loadOnce         sync.Once
	loadErr          error
	generateTemplate *template.Template
	convertTemplate  *template.Template
)

// Load parses prompt templates from fsys. Templates are loaded only once.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		generateTemplate, loadErr = parse(fsys, "prompts/generate.txt")
		if loadErr != nil {
			return
		}
		convertTemplate, loadErr = parse(fsys, "prompts/convert.txt")
	})
	return loadErr
}

func parse(fsys fs.FS, name string) (*template.Template, error) {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read prompt file %s: %w", name, err)
	}
	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}
	return tmpl, nil
}

// BuildGeneratePrompt builds the prompt asking for count new questions.
func BuildGeneratePrompt(topics []string, difficulty Difficulty, count, maxChoices int, examples, notes string) (string, error) {
	if generateTemplate == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	desc, ok := difficultyDescriptions[difficulty]
	if !ok {
		return "", errors.New("invalid difficulty: " + string(difficulty))
	}

	data := GenerateData{
		Topics:     strings.Join(topics, ", "),
		Difficulty: desc,
		Count:      count,
		MaxChoices: maxChoices,
		Examples:   strings.TrimSpace(examples),
		Notes:      sanitizeNotes(notes),
	}

	var buf bytes.Buffer
	if err := generateTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildConvertPrompt builds the prompt converting one Markdown fragment.
func BuildConvertPrompt(fragment string) (string, error) {
	if convertTemplate == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	var buf bytes.Buffer
	if err := convertTemplate.Execute(&buf, ConvertData{Fragment: fragment}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sanitizeNotes(notes string) string {
	notes = authorNotesRegex.ReplaceAllString(notes, "")
	notes = strings.TrimSpace(notes)

	if utf8.RuneCountInString(notes) > maxNotesRunes {
		runes := []rune(notes)
		notes = string(runes[:maxNotesRunes])
	}
	return notes
}
