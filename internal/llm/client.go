// Package llm generates card content and tutor replies with a local Ollama model.
//
// Every call shells out to `<binary> run <model> ...` under an explicit
// timeout. Failures of any kind come back as GENERATION_FAILED.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/vocab/internal/card"
	"github.com/hpungsan/vocab/internal/config"
	"github.com/hpungsan/vocab/internal/errors"
)

// Runner executes a command and returns its stdout and stderr.
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// ExecRunner runs the command with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Client talks to the local model.
type Client struct {
	binary  string
	model   string
	timeout time.Duration
	run     Runner
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRunner replaces the command runner (tests).
func WithRunner(run Runner) Option {
	return func(c *Client) { c.run = run }
}

// WithLogger sets the client's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Client from config.
func New(cfg config.LLMConfig, opts ...Option) *Client {
	c := &Client{
		binary:  cfg.Binary,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		run:     ExecRunner,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CardPrompt builds the card generation prompt.
func CardPrompt(word, usage string) string {
	prompt := fmt.Sprintf(
		"Provide a JSON object with keys 'translation_en', 'translation_de', 'definition', 'example_sentence' "+
			"for the Spanish word '%s'. The definition should be in Spanish. "+
			"The example sentence should be in Spanish and use the word.", word)
	if strings.TrimSpace(usage) != "" {
		prompt += fmt.Sprintf(" Use the following context: %s.", usage)
	}
	return prompt + " Respond with JSON only."
}

// GenerateCard asks the model for a card's content.
func (c *Client) GenerateCard(ctx context.Context, word, usage string) (card.Content, error) {
	out, err := c.call(ctx, CardPrompt(word, usage), true)
	if err != nil {
		return card.Content{}, err
	}

	content, err := ParseCardContent(out)
	if err != nil {
		c.logger.Warn("unparsable card content", zap.String("word", word), zap.ByteString("output", truncate(out, 500)))
		return card.Content{}, err
	}

	c.logger.Info("generated card content", zap.String("word", word))
	return content, nil
}

// Complete returns the model's raw text reply to prompt.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := c.call(ctx, prompt, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// call runs one model invocation bounded by the client timeout.
func (c *Client) call(ctx context.Context, prompt string, jsonFormat bool) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{"run", c.model}
	if jsonFormat {
		args = append(args, "--format", "json")
	}
	args = append(args, prompt)

	start := time.Now()
	stdout, stderr, err := c.run(ctx, c.binary, args...)
	c.logger.Debug("model call",
		zap.String("model", c.model),
		zap.Bool("json", jsonFormat),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)

	if ctxErr := ctx.Err(); ctxErr != nil {
		if stderrors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, errors.NewGenerationFailed("ollama call timed out", ctxErr)
		}
		return nil, errors.NewGenerationFailed("ollama call cancelled", ctxErr)
	}
	if err != nil {
		reason := "model call failed"
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			reason = fmt.Sprintf("model call failed: %s", msg)
		}
		return nil, errors.NewGenerationFailed(reason, err)
	}
	return stdout, nil
}

// ParseCardContent extracts card fields from model output.
// Accepts translation_en or translation, and example_sentence or example_spanish.
func ParseCardContent(out []byte) (card.Content, error) {
	start := bytes.IndexByte(out, '{')
	end := bytes.LastIndexByte(out, '}')
	if start < 0 || end < start {
		return card.Content{}, errors.NewGenerationFailed("failed to parse JSON from model output", nil)
	}

	var fields map[string]any
	if err := json.Unmarshal(out[start:end+1], &fields); err != nil {
		return card.Content{}, errors.NewGenerationFailed("failed to parse JSON from model output", err)
	}

	content := card.Content{
		TranslationEN: firstString(fields, "translation_en", "translation"),
		TranslationDE: firstString(fields, "translation_de"),
		Definition:    firstString(fields, "definition"),
		Example:       firstString(fields, "example_sentence", "example_spanish", "example"),
	}
	if content.Empty() {
		return card.Content{}, errors.NewGenerationFailed("model returned no card content", nil)
	}
	return content, nil
}

// firstString returns the first non-empty value among keys, stringified.
func firstString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := fields[key]
		if !ok || v == nil {
			continue
		}
		var s string
		switch val := v.(type) {
		case string:
			s = val
		default:
			s = fmt.Sprint(val)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
