package answer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
)

const (
	// DefaultMaxTokens bounds the length of a generated answer.
	DefaultMaxTokens = 1024

	// DefaultTemperature is the sampling temperature of answer generation.
	DefaultTemperature = 0.1

	// DefaultTimeout bounds a single generation call.
	DefaultTimeout = 120 * time.Second

	// DefaultHistoryTurns is how many recent session turns go into the prompt.
	DefaultHistoryTurns = 4
)

// Generator produces raw answers from retrieved context.
type Generator struct {
	generator    ai.Generator
	maxTokens    int
	temperature  float64
	timeout      time.Duration
	historyTurns int
	logger       *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator) error

// WithMaxTokens sets the maximum answer length in tokens.
// Default is DefaultMaxTokens.
func WithMaxTokens(n int) Option {
	return func(g *Generator) error {
		if n < 1 {
			return fmt.Errorf("max tokens must be at least 1, got %d", n)
		}
		g.maxTokens = n
		return nil
	}
}

// WithTemperature sets the sampling temperature.
// Default is DefaultTemperature.
func WithTemperature(t float64) Option {
	return func(g *Generator) error {
		if t < 0 {
			return fmt.Errorf("temperature cannot be negative, got %g", t)
		}
		g.temperature = t
		return nil
	}
}

// WithTimeout bounds each generation call.
// Default is DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(g *Generator) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", timeout)
		}
		g.timeout = timeout
		return nil
	}
}

// WithHistoryTurns sets how many recent turns are included in the prompt.
// Zero leaves history out. Default is DefaultHistoryTurns.
func WithHistoryTurns(n int) Option {
	return func(g *Generator) error {
		if n < 0 {
			n = 0
		}
		g.historyTurns = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
		return nil
	}
}

// NewGenerator creates an answer generator calling generator.
func NewGenerator(generator ai.Generator, opts ...Option) (*Generator, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	g := &Generator{
		generator:    generator,
		maxTokens:    DefaultMaxTokens,
		temperature:  DefaultTemperature,
		timeout:      DefaultTimeout,
		historyTurns: DefaultHistoryTurns,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	g.logger = g.logger.With("component", "answer-generator")
	return g, nil
}

// Generate returns the raw model answer to question given the retrieved
// chunks and prior turns. The provider is called once; failure, timeout or
// cancellation returns core.ErrGeneration.
func (g *Generator) Generate(ctx context.Context, question string, chunks []core.ScoredChunk, history []core.Turn) (string, error) {
	prompt := buildPrompt(question, chunks, history, g.historyTurns)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.generator.Generate(ctx, prompt, ai.GenerateOptions{
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		g.logger.Error("generation failed", "elapsed", time.Since(start), "err", err)
		return "", fmt.Errorf("%w: %w", core.ErrGeneration, err)
	}
	g.logger.Debug("generated answer", "elapsed", time.Since(start), "prompt_chars", len(prompt), "answer_chars", len(raw))
	return raw, nil
}
