package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	// DefaultGeminiModel is the Gemini model used when none is configured.
	DefaultGeminiModel = "gemini-2.5-flash"
	// DefaultOpenAIModel is the chat model used for OpenAI-compatible providers.
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultTemperature is applied when neither settings nor request set one.
	DefaultTemperature = float32(0.7)

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Generator turns a prompt into raw model text. Implementations do not parse the
// response; that is the caller's job.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}

// Request is a single generation call.
type Request struct {
	Prompt      string        // The full instruction text
	Schema      *genai.Schema // Optional: structured output shape
	Temperature float32       // Optional: overrides the client default when > 0
}

// Settings selects and configures a provider.
type Settings struct {
	Provider string // "gemini" (default) or "openai"
	Gemini   GeminiOptions
	OpenAI   OpenAIOptions
}

// ConfigError reports a setup problem, typically a missing credential. Retrying
// will not help until the configuration changes.
type ConfigError struct {
	Provider string
	Msg      string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not configured: %s", e.Provider, e.Msg)
}

// ServiceError reports a failed call to the generation service: transport
// failure, timeout, or a response without text.
type ServiceError struct {
	Provider string
	Msg      string
	Err      error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s request failed: %s: %v", e.Provider, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Msg)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsServiceError reports whether err is or wraps a *ServiceError.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

// New builds the Generator for the configured provider. A missing API key
// returns a *ConfigError; callers that still want to start can wrap it in
// Unconfigured.
func New(ctx context.Context, s Settings) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "", ProviderGemini:
		return NewGeminiClient(ctx, s.Gemini)
	case ProviderOpenAI:
		return NewOpenAIClient(s.OpenAI)
	}
	return nil, &ConfigError{Provider: s.Provider, Msg: "unknown provider (want gemini or openai)"}
}

// Unconfigured stands in for a provider that could not be built. Every call
// returns the original configuration error, so the problem surfaces on first use.
type Unconfigured struct {
	Err error
}

func (u Unconfigured) Generate(ctx context.Context, req Request) (string, error) {
	if u.Err == nil {
		return "", &ConfigError{Provider: "ai", Msg: "no generation service configured"}
	}
	return "", u.Err
}

func (u Unconfigured) Model() string {
	return "unconfigured"
}

func temperatureFor(req Request, fallback float32) float32 {
	if req.Temperature > 0 {
		return req.Temperature
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultTemperature
}
