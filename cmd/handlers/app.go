package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"tamgu/internal/config"
	"tamgu/internal/gateway"
	"tamgu/internal/llm"
	"tamgu/internal/logger"
	"tamgu/internal/store"
	"tamgu/internal/workspace"
)

// newGenerator builds the generation client from configuration. Tests replace it.
var newGenerator = func(ctx context.Context, c *config.Config) (llm.Generator, error) {
	return llm.New(ctx, llm.Settings{
		Provider: c.AI.Provider,
		Gemini: llm.GeminiOptions{
			APIKey:      c.AI.Gemini.APIKey,
			Model:       c.AI.Gemini.Model,
			Temperature: c.AI.Gemini.Temperature,
		},
		OpenAI: llm.OpenAIOptions{
			APIKey:  c.AI.OpenAI.APIKey,
			Model:   c.AI.OpenAI.Model,
			BaseURL: c.AI.OpenAI.BaseURL,
		},
	})
}

// app is the wired application shared by every command.
type app struct {
	gateway *gateway.Gateway
	docs    *store.DocumentStore
	ws      *workspace.Controller
	log     *slog.Logger
}

// newApp connects the generation service, the document store and the
// workspace. A missing credential does not stop startup; AI operations report
// it when they are used.
func newApp(ctx context.Context) (*app, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	log := logger.Get()

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		log.Warn("AI service unavailable", "provider", cfg.AI.Provider, "error", err.Error())
		gen = llm.Unconfigured{Err: err}
	}
	gen = llm.NewTraced(gen, log)

	gw := gateway.New(gen, gateway.Options{
		Timeout: cfg.RequestTimeout(),
		Logger:  log,
	})

	backend, err := store.NewBackend(cfg.Storage.Backend, cfg.App.DataDir, cfg.Storage.SQLiteFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	docs, err := store.Open(ctx, backend, cfg.Storage.Key, log)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}
	if docs.Degraded() {
		log.Warn("Saved worksheets are kept in memory only for this run")
	}

	return &app{
		gateway: gw,
		docs:    docs,
		ws:      workspace.New(gw, docs, workspace.Options{Logger: log}),
		log:     log,
	}, nil
}

func (a *app) Close() {
	if err := a.docs.Close(); err != nil {
		a.log.Warn("Failed to close storage", "error", err.Error())
	}
}
