package gateway

import (
	"tamgu/internal/core"

	"google.golang.org/genai"
)

// ArticleSchema is the response_schema for generated articles.
func ArticleSchema() *genai.Schema {
	return &genai.Schema{
		Type:  genai.TypeObject,
		Title: "article",
		Properties: map[string]*genai.Schema{
			"title": {
				Type:        genai.TypeString,
				Description: "An engaging title that names the topic",
			},
			"category": {
				Type:        genai.TypeString,
				Description: "Subject area such as 역사, 과학, 사회, 인물",
			},
			"content": {
				Type:        genai.TypeString,
				Description: "The article body as flowing prose; paragraphs separated by newlines",
			},
		},
		Required: []string{"title", "category", "content"},
	}
}

// AnalysisSchema is the response_schema for 5W1H analysis: six answers and six
// quote lists, all required.
func AnalysisSchema() *genai.Schema {
	fields := core.AllFields()
	answers := make(map[string]*genai.Schema, len(fields))
	quotes := make(map[string]*genai.Schema, len(fields))
	required := make([]string, 0, len(fields))

	for _, f := range fields {
		key := string(f)
		answers[key] = &genai.Schema{
			Type:        genai.TypeString,
			Description: f.Hint(),
		}
		quotes[key] = &genai.Schema{
			Type:        genai.TypeArray,
			Description: "Exact excerpts of the text supporting the answer",
			Items:       &genai.Schema{Type: genai.TypeString},
		}
		required = append(required, key)
	}

	return &genai.Schema{
		Type:  genai.TypeObject,
		Title: "analysis",
		Properties: map[string]*genai.Schema{
			"answers": {Type: genai.TypeObject, Properties: answers, Required: required},
			"quotes":  {Type: genai.TypeObject, Properties: quotes, Required: required},
		},
		Required: []string{"answers", "quotes"},
	}
}

// KeywordsSchema is the response_schema for keyword suggestions.
func KeywordsSchema() *genai.Schema {
	return &genai.Schema{
		Type:  genai.TypeArray,
		Title: "keywords",
		Items: &genai.Schema{Type: genai.TypeString},
	}
}
