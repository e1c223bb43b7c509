package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tamgu/internal/core"
	"tamgu/internal/llm"
	"tamgu/internal/parser"
	"tamgu/internal/prompt"

	"github.com/google/uuid"
)

const (
	// GeneratedSource is the source label of AI-written articles.
	GeneratedSource = "AI 생성 활동지"
	// GeneratedKeyword tags AI-written articles next to their topic.
	GeneratedKeyword = "AI작문"
	// GeneratedIDPrefix prefixes the IDs of AI-written articles.
	GeneratedIDPrefix = "gen_"

	// DefaultTimeout bounds a single generation request.
	DefaultTimeout = 60 * time.Second
)

var (
	ErrEmptyTopic = errors.New("topic is required")
	ErrEmptyText  = errors.New("article text is required")
)

// Options tunes a Gateway. Zero values use sensible defaults.
type Options struct {
	Timeout time.Duration    // Per-request deadline; DefaultTimeout when zero
	Now     func() time.Time // Clock used for latency logging
	NewID   func() string    // ID suffix for generated articles; uuid when nil
	Logger  *slog.Logger
}

// Gateway is the only component that talks to the generation service. It
// builds prompts, sends them with a response schema and turns the raw text
// into validated domain values.
type Gateway struct {
	gen     llm.Generator
	timeout time.Duration
	now     func() time.Time
	newID   func() string
	logger  *slog.Logger
}

// New creates a Gateway over an injected generator.
func New(gen llm.Generator, opts Options) *Gateway {
	g := &Gateway{
		gen:     gen,
		timeout: opts.Timeout,
		now:     opts.Now,
		newID:   opts.NewID,
		logger:  opts.Logger,
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.newID == nil {
		g.newID = uuid.NewString
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Model reports the model behind the gateway.
func (g *Gateway) Model() string {
	return g.gen.Model()
}

// GenerateArticle writes a new educational article about topic at the given
// reading level.
func (g *Gateway) GenerateArticle(ctx context.Context, topic string, d core.Difficulty) (core.Article, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return core.Article{}, ErrEmptyTopic
	}
	if !d.Valid() {
		d = core.DifficultyMedium
	}

	text, err := g.call(ctx, "article", llm.Request{
		Prompt: prompt.Article(topic, d),
		Schema: ArticleSchema(),
	})
	if err != nil {
		return core.Article{}, fmt.Errorf("article generation failed: %w", err)
	}

	article, err := parseArticle(text)
	if err != nil {
		g.logger.Warn("Unusable article response", "topic", topic, "error", err.Error())
		return core.Article{}, fmt.Errorf("article generation failed: %w", err)
	}

	article.ID = GeneratedIDPrefix + g.newID()
	article.Source = GeneratedSource
	article.ReadTime = d.Label()
	article.Keywords = []string{topic, GeneratedKeyword}

	g.logger.Info("Generated article", "id", article.ID, "topic", topic, "difficulty", string(d), "chars", len([]rune(article.Content)))
	return article, nil
}

// Analyze extracts 5W1H answers and supporting quotes from text. Every answer
// and quote list must be present; a partial response is rejected.
func (g *Gateway) Analyze(ctx context.Context, text string, d core.Difficulty) (core.AnalysisResult, error) {
	if strings.TrimSpace(text) == "" {
		return core.AnalysisResult{}, ErrEmptyText
	}
	if !d.Valid() {
		d = core.DifficultyMedium
	}

	raw, err := g.call(ctx, "analysis", llm.Request{
		Prompt: prompt.Analysis(text, d),
		Schema: AnalysisSchema(),
	})
	if err != nil {
		return core.AnalysisResult{}, fmt.Errorf("analysis failed: %w", err)
	}

	result, err := parseAnalysis(raw)
	if err != nil {
		g.logger.Warn("Unusable analysis response", "error", err.Error())
		return core.AnalysisResult{}, fmt.Errorf("analysis failed: %w", err)
	}

	dropped := normalizeAnalysis(&result, text)
	if dropped > 0 {
		g.logger.Debug("Dropped quotes not found in article", "count", dropped)
	}
	return result, nil
}

// SuggestKeywords asks for fresh topic ideas. It never fails: any error is
// logged and yields an empty list so the caller keeps its previous set.
func (g *Gateway) SuggestKeywords(ctx context.Context) []string {
	raw, err := g.call(ctx, "keywords", llm.Request{
		Prompt: prompt.Keywords(),
		Schema: KeywordsSchema(),
	})
	if err != nil {
		g.logger.Warn("Keyword suggestion failed", "error", err.Error())
		return []string{}
	}

	list, err := parser.ParseStringList(raw)
	if err != nil {
		g.logger.Warn("Unusable keyword response", "error", err.Error())
		return []string{}
	}
	return cleanKeywords(list)
}

func (g *Gateway) call(ctx context.Context, op string, req llm.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := g.now()
	text, err := g.gen.Generate(ctx, req)
	if err != nil {
		g.logger.Warn("AI request failed", "op", op, "model", g.gen.Model(), "elapsed", g.now().Sub(start).String(), "error", err.Error())
		return "", err
	}
	g.logger.Debug("AI request completed", "op", op, "model", g.gen.Model(), "elapsed", g.now().Sub(start).String())
	return text, nil
}

func parseArticle(text string) (core.Article, error) {
	obj, err := parser.ParseObject(text)
	if err != nil {
		return core.Article{}, err
	}

	var article core.Article
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"title", &article.Title},
		{"category", &article.Category},
		{"content", &article.Content},
	} {
		v, err := parser.RequiredString(obj, "", f.key)
		if err != nil {
			return core.Article{}, withRaw(err, text)
		}
		v = strings.TrimSpace(v)
		if v == "" {
			return core.Article{}, &parser.ParseError{Reason: "empty value", Field: f.key, Raw: text}
		}
		*f.dst = v
	}
	return article, nil
}

func parseAnalysis(text string) (core.AnalysisResult, error) {
	obj, err := parser.ParseObject(text)
	if err != nil {
		return core.AnalysisResult{}, err
	}
	answers, err := parser.RequiredObject(obj, "", "answers")
	if err != nil {
		return core.AnalysisResult{}, withRaw(err, text)
	}
	quotes, err := parser.RequiredObject(obj, "", "quotes")
	if err != nil {
		return core.AnalysisResult{}, withRaw(err, text)
	}

	var result core.AnalysisResult
	for _, f := range core.AllFields() {
		answer, err := parser.RequiredString(answers, "answers", string(f))
		if err != nil {
			return core.AnalysisResult{}, withRaw(err, text)
		}
		list, err := parser.RequiredStringList(quotes, "quotes", string(f))
		if err != nil {
			return core.AnalysisResult{}, withRaw(err, text)
		}
		result.Answers.Set(f, answer)
		result.Quotes.Set(f, list)
	}
	return result, nil
}

// normalizeAnalysis applies the answer and quote rules in place and returns the
// number of quotes dropped because they do not occur in text:
// blank answers become core.Unknown, unknown answers carry no quotes, and
// quotes are trimmed, de-duplicated and kept only when found verbatim.
func normalizeAnalysis(result *core.AnalysisResult, text string) int {
	dropped := 0
	for _, f := range core.AllFields() {
		answer := strings.TrimSpace(result.Answers.Get(f))
		if answer == "" {
			answer = core.Unknown
		}
		result.Answers.Set(f, answer)

		kept := []string{}
		if answer != core.Unknown {
			seen := map[string]bool{}
			for _, q := range result.Quotes.Get(f) {
				q = strings.TrimSpace(q)
				if q == "" || seen[q] {
					continue
				}
				if !strings.Contains(text, q) {
					dropped++
					continue
				}
				seen[q] = true
				kept = append(kept, q)
			}
		}
		result.Quotes.Set(f, kept)
	}
	return dropped
}

func cleanKeywords(list []string) []string {
	out := make([]string, 0, prompt.KeywordCount)
	seen := map[string]bool{}
	for _, k := range list {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
		if len(out) == prompt.KeywordCount {
			break
		}
	}
	return out
}

func withRaw(err error, raw string) error {
	var pe *parser.ParseError
	if errors.As(err, &pe) && pe.Raw == "" {
		pe.Raw = raw
	}
	return err
}
