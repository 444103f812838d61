package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/examgen/internal/convert"
	"github.com/pavelanni/examgen/internal/llm/prompts"
	"github.com/pavelanni/examgen/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// GenerateRequest describes a batch of questions to draft.
type GenerateRequest struct {
	Topics     []string
	Difficulty prompts.Difficulty
	Count      int
	Examples   string // existing bank text shown as style reference
	Notes      string
}

type generatedAnswer struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type generatedQuestion struct {
	Text    string            `json:"text"`
	Answers []generatedAnswer `json:"answers"`
}

type generateResponse struct {
	Questions []generatedQuestion `json:"questions"`
}

type convertResponse struct {
	LaTeX string `json:"latex"`
}

// chatAPI is the subset of the OpenAI client used here.
type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   chatAPI
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) (*Client, error) {
	if modelName == "" {
		return nil, fmt.Errorf("LLM model name is required")
	}
	if err := prompts.Load(prompts.Files); err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}, nil
}

// Ping checks that the endpoint answers.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (c *Client) complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}
	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)
	return raw, nil
}

// GenerateQuestions drafts new questions. Drafts that break the
// one-correct-answer rule or have too many answers are dropped with a warning.
func (c *Client) GenerateQuestions(ctx context.Context, req GenerateRequest) ([]model.Question, error) {
	prompt, err := prompts.BuildGeneratePrompt(req.Topics, req.Difficulty, req.Count, model.MaxChoices, req.Examples, req.Notes)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	raw, err := c.complete(ctx, prompt, 0.7)
	if err != nil {
		return nil, err
	}

	var result generateResponse
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	return toQuestions(result.Questions), nil
}

func toQuestions(drafts []generatedQuestion) []model.Question {
	var out []model.Question
	for i, d := range drafts {
		q := model.Question{Text: strings.TrimSpace(d.Text)}
		for _, a := range d.Answers {
			q.Choices = append(q.Choices, model.Choice{Text: strings.TrimSpace(a.Text), Correct: a.IsCorrect})
		}
		if _, err := q.CorrectIndex(); err != nil {
			slog.Warn("dropping generated question", "index", i, "error", err)
			continue
		}
		if q.Text == "" || len(q.Choices) < 2 || len(q.Choices) > model.MaxChoices {
			slog.Warn("dropping generated question", "index", i, "choices", len(q.Choices))
			continue
		}
		out = append(out, q)
	}
	return out
}

// Converter converts Markdown fragments to LaTeX with the model. It is an
// alternative to pandoc when pandoc is not installed.
type Converter struct {
	client *Client
}

// NewConverter returns a convert.Converter backed by c.
func NewConverter(c *Client) *Converter {
	return &Converter{client: c}
}

var _ convert.Converter = (*Converter)(nil)

// Convert asks the model for a LaTeX rendition of text.
func (c *Converter) Convert(ctx context.Context, text string, to convert.Format) (string, error) {
	if to != convert.LaTeX {
		return "", fmt.Errorf("%w: %s", convert.ErrUnsupportedFormat, to)
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	prompt, err := prompts.BuildConvertPrompt(text)
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}
	raw, err := c.client.complete(ctx, prompt, 0)
	if err != nil {
		return "", err
	}
	var result convertResponse
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return "", fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	return result.LaTeX, nil
}
