package llm

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/genai"
)

func TestNewMissingKeyIsConfigError(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
	}{
		{"default provider", Settings{}},
		{"gemini", Settings{Provider: "gemini", Gemini: GeminiOptions{APIKey: "  "}}},
		{"openai", Settings{Provider: "OpenAI"}},
		{"unknown", Settings{Provider: "claude", Gemini: GeminiOptions{APIKey: "k"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.settings)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !IsConfigError(err) {
				t.Errorf("Expected *ConfigError, got %T: %v", err, err)
			}
		})
	}
}

func TestNewOpenAIClient(t *testing.T) {
	gen, err := New(context.Background(), Settings{
		Provider: "openai",
		OpenAI:   OpenAIOptions{APIKey: "sk-test", BaseURL: "http://localhost:1234/v1"},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if gen.Model() != DefaultOpenAIModel {
		t.Errorf("Expected default model %s, got %s", DefaultOpenAIModel, gen.Model())
	}
}

func TestGeminiClientIntegration(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := NewGeminiClient(ctx, GeminiOptions{APIKey: apiKey})
	if err != nil {
		t.Fatalf("NewGeminiClient failed: %v", err)
	}
	if client.Model() != DefaultGeminiModel {
		t.Errorf("Unexpected model %s", client.Model())
	}

	text, err := client.Generate(ctx, Request{
		Prompt: "Return a JSON list with the two words red and blue.",
		Schema: &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(text, "[") {
		t.Errorf("Expected a JSON array, got %q", text)
	}
}

func TestUnconfiguredReturnsOriginalError(t *testing.T) {
	cfgErr := &ConfigError{Provider: "gemini", Msg: "API key is required"}
	u := Unconfigured{Err: cfgErr}

	for i := 0; i < 2; i++ {
		_, err := u.Generate(context.Background(), Request{Prompt: "x"})
		if !errors.Is(err, cfgErr) {
			t.Fatalf("call %d: expected the configuration error, got %v", i, err)
		}
	}

	_, err := Unconfigured{}.Generate(context.Background(), Request{Prompt: "x"})
	if !IsConfigError(err) {
		t.Errorf("Zero Unconfigured should still report a config error, got %v", err)
	}
}

func TestServiceErrorUnwraps(t *testing.T) {
	err := &ServiceError{Provider: "gemini", Msg: "failed", Err: context.DeadlineExceeded}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("ServiceError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "gemini") {
		t.Errorf("Error should name the provider: %v", err)
	}
}

func TestFakeScript(t *testing.T) {
	boom := errors.New("boom")
	f := NewFake("first").Push(FakeResponse{Err: boom}, FakeResponse{Text: "last"})
	ctx := context.Background()

	if got, _ := f.Generate(ctx, Request{Prompt: "a"}); got != "first" {
		t.Errorf("Expected first, got %q", got)
	}
	if _, err := f.Generate(ctx, Request{Prompt: "b"}); !errors.Is(err, boom) {
		t.Errorf("Expected scripted error, got %v", err)
	}
	for i := 0; i < 2; i++ {
		if got, _ := f.Generate(ctx, Request{Prompt: "c"}); got != "last" {
			t.Errorf("Last response should repeat, got %q", got)
		}
	}

	var prompts []string
	for _, r := range f.Requests() {
		prompts = append(prompts, r.Prompt)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "c"}, prompts); diff != "" {
		t.Errorf("unexpected recorded prompts (-want +got):\n%s", diff)
	}
	if f.Calls() != 4 {
		t.Errorf("Expected 4 calls, got %d", f.Calls())
	}
}

func TestFakeEmptyScript(t *testing.T) {
	_, err := NewFake().Generate(context.Background(), Request{Prompt: "x"})
	if !IsServiceError(err) {
		t.Errorf("Expected ServiceError from an empty script, got %v", err)
	}
}

func TestFakeDelayHonoursContext(t *testing.T) {
	f := NewFake().Push(FakeResponse{Text: "late", Delay: time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Generate(ctx, Request{Prompt: "x"})
	if !IsServiceError(err) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected a deadline ServiceError, got %v", err)
	}
}

func TestTracedLogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	tr := NewTraced(NewFake(`{"ok":true}`), log)
	if tr.Model() != "fake" {
		t.Errorf("Traced should report the wrapped model, got %s", tr.Model())
	}
	got, err := tr.Generate(context.Background(), Request{Prompt: "hello"})
	if err != nil || got != `{"ok":true}` {
		t.Fatalf("Generate = %q, %v", got, err)
	}
	out := buf.String()
	if !strings.Contains(out, "AI generation completed") || !strings.Contains(out, `"model":"fake"`) {
		t.Errorf("Expected a completion log line, got %s", out)
	}
	if !strings.Contains(out, `"estimated_tokens"`) {
		t.Errorf("Completion log should carry a token estimate, got %s", out)
	}
	if strings.Contains(out, "hello") {
		t.Error("Prompt text should not be logged above debug level")
	}

	buf.Reset()
	_, err = NewTraced(NewFake(), log).Generate(context.Background(), Request{Prompt: "x"})
	if err == nil {
		t.Fatal("Expected error to pass through")
	}
	if !strings.Contains(buf.String(), "AI generation failed") {
		t.Errorf("Expected a failure log line, got %s", buf.String())
	}
}

func TestJSONSchemaConversion(t *testing.T) {
	s := &genai.Schema{
		Type:  genai.TypeObject,
		Title: "article",
		Properties: map[string]*genai.Schema{
			"title":    {Type: genai.TypeString, Description: "Headline"},
			"keywords": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"title"},
	}

	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":    map[string]any{"type": "string", "description": "Headline"},
			"keywords": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required":             []string{"keywords", "title"},
		"additionalProperties": false,
	}
	if diff := cmp.Diff(want, jsonSchema(s)); diff != "" {
		t.Errorf("unexpected schema (-want +got):\n%s", diff)
	}
}

func TestTemperatureFor(t *testing.T) {
	if got := temperatureFor(Request{Temperature: 0.2}, 0.9); got != 0.2 {
		t.Errorf("Request temperature should win, got %v", got)
	}
	if got := temperatureFor(Request{}, 0.9); got != 0.9 {
		t.Errorf("Client temperature should apply, got %v", got)
	}
	if got := temperatureFor(Request{}, 0); got != DefaultTemperature {
		t.Errorf("Default temperature should apply, got %v", got)
	}
}
