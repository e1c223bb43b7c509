package llm

import (
	"context"
	"strings"

	"google.golang.org/genai"
)

// GeminiOptions configures a GeminiClient.
type GeminiOptions struct {
	APIKey      string
	Model       string
	Temperature float32
}

// GeminiClient generates text with Google Gemini.
type GeminiClient struct {
	modelName   string
	temperature float32
	gClient     *genai.Client
}

// NewGeminiClient creates a client. The key is taken from opts only; reading the
// environment is the config package's job.
func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, &ConfigError{
			Provider: ProviderGemini,
			Msg:      "API key is required. Set GEMINI_API_KEY or ai.gemini.api_key in the config file",
		}
	}

	modelName := opts.Model
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &ConfigError{Provider: ProviderGemini, Msg: "failed to create client: " + err.Error()}
	}

	return &GeminiClient{
		modelName:   modelName,
		temperature: opts.Temperature,
		gClient:     gClient,
	}, nil
}

// Model returns the model name sent with every request.
func (c *GeminiClient) Model() string {
	return c.modelName
}

// Generate sends req as a single user turn. With a schema set, the model is
// asked for JSON matching it.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	if req.Prompt == "" {
		return "", &ServiceError{Provider: ProviderGemini, Msg: "prompt cannot be empty"}
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: req.Prompt}},
		Role:  "user",
	}}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperatureFor(req, c.temperature)),
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = req.Schema
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, c.modelName, contents, config)
	if err != nil {
		return "", &ServiceError{Provider: ProviderGemini, Msg: "failed to generate content", Err: err}
	}

	text := resp.Text()
	if text == "" {
		return "", &ServiceError{Provider: ProviderGemini, Msg: "empty response from model"}
	}

	return text, nil
}
