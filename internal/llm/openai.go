package llm

import (
	"context"
	"sort"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"
)

// OpenAIOptions configures an OpenAIClient.
type OpenAIOptions struct {
	APIKey      string
	Model       string
	BaseURL     string // Optional: any OpenAI-compatible endpoint
	Temperature float32
}

// OpenAIClient generates text through the chat completions API.
type OpenAIClient struct {
	model       string
	temperature float32
	client      openai.Client
}

// NewOpenAIClient creates a client for OpenAI or a compatible endpoint.
func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, &ConfigError{
			Provider: ProviderOpenAI,
			Msg:      "API key is required. Set OPENAI_API_KEY or ai.openai.api_key in the config file",
		}
	}
	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &OpenAIClient{
		model:       model,
		temperature: opts.Temperature,
		client:      openai.NewClient(reqOpts...),
	}, nil
}

func (o *OpenAIClient) Model() string {
	return o.model
}

// Generate sends req as a single user message. Object schemas are passed as a
// strict JSON schema response format; other shapes are requested as plain text
// and left to the parser to validate.
func (o *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	if req.Prompt == "" {
		return "", &ServiceError{Provider: ProviderOpenAI, Msg: "prompt cannot be empty"}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(req.Prompt)},
		Temperature: openai.Float(float64(temperatureFor(req, o.temperature))),
	}
	if req.Schema != nil && req.Schema.Type == genai.TypeObject {
		name := req.Schema.Title
		if name == "" {
			name = "response"
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   name,
					Schema: jsonSchema(req.Schema),
					Strict: openai.Bool(true),
				},
			},
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", &ServiceError{Provider: ProviderOpenAI, Msg: "chat completion failed", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ServiceError{Provider: ProviderOpenAI, Msg: "empty choices"}
	}
	text := resp.Choices[0].Message.Content
	if text == "" {
		return "", &ServiceError{Provider: ProviderOpenAI, Msg: "empty response from model"}
	}
	return text, nil
}

// jsonSchema converts a genai schema into the JSON Schema dialect accepted by
// strict structured outputs: every property required, no extra properties.
func jsonSchema(s *genai.Schema) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if s.Description != "" {
		out["description"] = s.Description
	}

	switch s.Type {
	case genai.TypeObject:
		out["type"] = "object"
		props := map[string]any{}
		keys := make([]string, 0, len(s.Properties))
		for k, p := range s.Properties {
			props[k] = jsonSchema(p)
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out["properties"] = props
		out["required"] = keys
		out["additionalProperties"] = false
	case genai.TypeArray:
		out["type"] = "array"
		out["items"] = jsonSchema(s.Items)
	default:
		out["type"] = strings.ToLower(string(s.Type))
	}
	return out
}
