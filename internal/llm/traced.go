package llm

import (
	"context"
	"log/slog"
	"time"

	"tamgu/internal/cost"
)

// Traced wraps a Generator and logs every call: model, prompt size, latency and
// outcome. Prompts and responses themselves are only logged at debug level.
type Traced struct {
	next   Generator
	logger *slog.Logger
}

// NewTraced wraps next. A nil logger uses slog.Default.
func NewTraced(next Generator, logger *slog.Logger) *Traced {
	if logger == nil {
		logger = slog.Default()
	}
	return &Traced{next: next, logger: logger}
}

func (t *Traced) Model() string {
	return t.next.Model()
}

// Generate forwards to the wrapped Generator.
func (t *Traced) Generate(ctx context.Context, req Request) (string, error) {
	startTime := time.Now()
	result, err := t.next.Generate(ctx, req)
	latencyMs := time.Since(startTime).Milliseconds()

	attrs := []any{
		"model", t.next.Model(),
		"prompt_chars", len([]rune(req.Prompt)),
		"structured", req.Schema != nil,
		"latency_ms", latencyMs,
	}
	if err != nil {
		t.logger.Warn("AI generation failed", append(attrs, "error", err.Error())...)
		return "", err
	}

	est := cost.EstimateCall(t.next.Model(), req.Prompt, result)
	t.logger.Info("AI generation completed", append(attrs, "response_chars", len([]rune(result)), "estimated_tokens", est.TotalTokens(), "estimated_cost_usd", est.TotalCost)...)
	t.logger.Debug("AI generation payload", "prompt", req.Prompt, "response", result)
	return result, nil
}
