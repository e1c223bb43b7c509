package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tamgu/internal/core"
	"tamgu/internal/gateway"
	"tamgu/internal/render"
	"tamgu/internal/store"
)

var (
	ErrBusy            = errors.New("an AI request is already in progress")
	ErrNoArticle       = errors.New("no article selected")
	ErrEmptyTopic      = gateway.ErrEmptyTopic
	ErrArticleNotFound = errors.New("article not found")
)

// Saved-mode placeholder article labels.
const (
	SavedCategory = "저장됨"
	SavedSource   = "내 보관함"
	SavedReadTime = "-"
	savedIDPrefix = "saved_"
)

// AI is the part of the gateway the workspace uses.
type AI interface {
	GenerateArticle(ctx context.Context, topic string, d core.Difficulty) (core.Article, error)
	Analyze(ctx context.Context, text string, d core.Difficulty) (core.AnalysisResult, error)
	SuggestKeywords(ctx context.Context) []string
}

// Options configures a Controller.
type Options struct {
	Articles []core.Article  // Initial list; core.RecommendedArticles() when nil
	Keywords []string        // Initial suggestions; core.SuggestedKeywords() when nil
	Now      func() time.Time // Clock for saved-document IDs and dates
	Logger   *slog.Logger
}

// Controller owns the live session: article list, selection, answers, last
// analysis, difficulty and keyword suggestions. Only one AI request runs at a
// time; a second one fails fast with ErrBusy.
type Controller struct {
	ai     AI
	docs   *store.DocumentStore
	now    func() time.Time
	logger *slog.Logger

	mu         sync.Mutex
	articles   []core.Article
	selectedID string
	saved      *core.Article // Placeholder shown while a saved document is open
	answers    core.W1HAnswers
	quotes     core.W1HQuotes
	difficulty core.Difficulty
	keywords   []string
	busy       bool
}

// New creates a Controller with medium difficulty and nothing selected.
func New(ai AI, docs *store.DocumentStore, opts Options) *Controller {
	c := &Controller{
		ai:         ai,
		docs:       docs,
		now:        opts.Now,
		logger:     opts.Logger,
		articles:   opts.Articles,
		keywords:   opts.Keywords,
		difficulty: core.DifficultyMedium,
		quotes:     core.W1HQuotes{}.Clone(),
	}
	if c.articles == nil {
		c.articles = core.RecommendedArticles()
	}
	if c.keywords == nil {
		c.keywords = core.SuggestedKeywords()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Articles returns a copy of the article list.
func (c *Controller) Articles() []core.Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Article, len(c.articles))
	copy(out, c.articles)
	return out
}

// Selected returns the article on the worksheet, if any. While a saved
// document is open this is its placeholder article.
func (c *Controller) Selected() (core.Article, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedLocked()
}

func (c *Controller) selectedLocked() (core.Article, bool) {
	if c.saved != nil {
		return *c.saved, true
	}
	for _, a := range c.articles {
		if a.ID == c.selectedID {
			return a, true
		}
	}
	return core.Article{}, false
}

// SavedMode reports whether a saved document, rather than an article, is open.
func (c *Controller) SavedMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saved != nil
}

// Select puts an article on the worksheet and resets answers and quotes.
func (c *Controller) Select(id string) (core.Article, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.articles {
		if a.ID == id {
			c.selectedID = id
			c.saved = nil
			c.resetWorksheetLocked()
			return a, nil
		}
	}
	return core.Article{}, fmt.Errorf("%w: %s", ErrArticleNotFound, id)
}

func (c *Controller) resetWorksheetLocked() {
	c.answers = core.W1HAnswers{}
	c.quotes = core.W1HQuotes{}.Clone()
}

// SetDifficulty changes the level used for generation and analysis.
func (c *Controller) SetDifficulty(d core.Difficulty) error {
	if !d.Valid() {
		return fmt.Errorf("unknown difficulty %q", d)
	}
	c.mu.Lock()
	c.difficulty = d
	c.mu.Unlock()
	return nil
}

func (c *Controller) Difficulty() core.Difficulty {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.difficulty
}

// SetAnswer edits one answer on the worksheet.
func (c *Controller) SetAnswer(f core.Field, value string) error {
	if _, err := core.ParseField(string(f)); err != nil {
		return err
	}
	c.mu.Lock()
	c.answers.Set(f, value)
	c.mu.Unlock()
	return nil
}

func (c *Controller) Answers() core.W1HAnswers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answers
}

// Quotes returns a copy of the evidence from the last analysis.
func (c *Controller) Quotes() core.W1HQuotes {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quotes.Clone()
}

// Busy reports whether an AI request is running.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Controller) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.busy = true
	return nil
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// Generate asks the AI for a new article on topic at the current difficulty.
// On success the article is put first in the list and selected; on failure
// nothing changes.
func (c *Controller) Generate(ctx context.Context, topic string) (core.Article, error) {
	return c.GenerateWithDifficulty(ctx, topic, c.Difficulty())
}

// GenerateWithDifficulty is Generate at an explicit level. The level becomes
// the session difficulty only when generation succeeds.
func (c *Controller) GenerateWithDifficulty(ctx context.Context, topic string, d core.Difficulty) (core.Article, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return core.Article{}, ErrEmptyTopic
	}
	if !d.Valid() {
		return core.Article{}, fmt.Errorf("unknown difficulty %q", d)
	}
	if err := c.acquire(); err != nil {
		return core.Article{}, err
	}
	defer c.release()

	article, err := c.ai.GenerateArticle(ctx, topic, d)
	if err != nil {
		c.logger.Warn("Article generation failed", "topic", topic, "error", err.Error())
		return core.Article{}, err
	}

	c.mu.Lock()
	c.articles = append([]core.Article{article}, c.articles...)
	c.selectedID = article.ID
	c.difficulty = d
	c.saved = nil
	c.resetWorksheetLocked()
	c.mu.Unlock()

	return article, nil
}

// Analyze runs AI 5W1H analysis on the selected article and replaces the
// answers and quotes wholesale.
func (c *Controller) Analyze(ctx context.Context) (core.AnalysisResult, error) {
	c.mu.Lock()
	article, ok := c.selectedLocked()
	savedMode := c.saved != nil
	d := c.difficulty
	c.mu.Unlock()
	if !ok || savedMode || strings.TrimSpace(article.Content) == "" {
		return core.AnalysisResult{}, ErrNoArticle
	}

	if err := c.acquire(); err != nil {
		return core.AnalysisResult{}, err
	}
	defer c.release()

	result, err := c.ai.Analyze(ctx, article.Content, d)
	if err != nil {
		c.logger.Warn("Analysis failed", "article", article.ID, "error", err.Error())
		return core.AnalysisResult{}, err
	}

	c.mu.Lock()
	current, stillSelected := c.selectedLocked()
	if stillSelected && current.ID == article.ID {
		c.answers = result.Answers
		c.quotes = result.Quotes.Clone()
	}
	c.mu.Unlock()

	return result, nil
}

// Keywords returns the current topic suggestions.
func (c *Controller) Keywords() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.keywords...)
}

// RefreshKeywords asks the AI for new suggestions. An empty answer keeps the
// previous set.
func (c *Controller) RefreshKeywords(ctx context.Context) ([]string, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	fresh := c.ai.SuggestKeywords(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(fresh) > 0 {
		c.keywords = append([]string(nil), fresh...)
	}
	return append([]string(nil), c.keywords...), nil
}

// Save stores the current worksheet in the archive.
func (c *Controller) Save(ctx context.Context) (core.SavedDocument, error) {
	c.mu.Lock()
	article, ok := c.selectedLocked()
	answers := c.answers
	c.mu.Unlock()
	if !ok {
		return core.SavedDocument{}, ErrNoArticle
	}

	now := c.now()
	doc := core.SavedDocument{
		Date:         now.Format(render.DateFormat),
		ArticleTitle: article.Title,
		Answers:      answers,
	}
	return c.docs.SaveAt(ctx, doc, now)
}

// Documents lists the archive, newest first.
func (c *Controller) Documents() []core.SavedDocument {
	return c.docs.List()
}

// Document returns one saved document.
func (c *Controller) Document(id int64) (core.SavedDocument, error) {
	return c.docs.Get(id)
}

// Delete removes a saved document.
func (c *Controller) Delete(ctx context.Context, id int64) error {
	return c.docs.Delete(ctx, id)
}

// Open shows a saved document on the worksheet. The original article text is
// not kept with the document, so a placeholder article carries its title.
func (c *Controller) Open(id int64) (core.SavedDocument, error) {
	doc, err := c.docs.Get(id)
	if err != nil {
		return core.SavedDocument{}, err
	}

	placeholder := core.Article{
		ID:       fmt.Sprintf("%s%d", savedIDPrefix, doc.ID),
		Category: SavedCategory,
		Title:    doc.ArticleTitle,
		Content:  "저장된 활동지입니다. 원문 기사는 보관되지 않습니다.",
		Source:   SavedSource,
		ReadTime: SavedReadTime,
		Keywords: []string{},
	}

	c.mu.Lock()
	c.saved = &placeholder
	c.selectedID = ""
	c.answers = doc.Answers
	c.quotes = core.W1HQuotes{}.Clone()
	c.mu.Unlock()

	return doc, nil
}

// ClearArticles empties the article list and deselects any listed article.
func (c *Controller) ClearArticles() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.articles = []core.Article{}
	if c.selectedID != "" {
		c.selectedID = ""
		c.resetWorksheetLocked()
	}
}

// Worksheet snapshots the current worksheet for printing.
func (c *Controller) Worksheet() (render.Worksheet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	article, ok := c.selectedLocked()
	if !ok {
		return render.Worksheet{}, ErrNoArticle
	}
	return render.Worksheet{
		Article:    article,
		Answers:    c.answers,
		Quotes:     c.quotes.Clone(),
		Difficulty: c.difficulty,
		PrintedAt:  c.now(),
	}, nil
}

// StorageDegraded reports whether saved documents are only kept in memory.
func (c *Controller) StorageDegraded() bool {
	return c.docs.Degraded()
}
