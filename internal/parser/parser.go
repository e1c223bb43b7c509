package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const fence = "```"

// ParseError reports a model response that is not the JSON the caller asked for.
type ParseError struct {
	Reason string // What went wrong
	Field  string // Dotted path of the offending field, empty for whole-payload errors
	Raw    string // The raw response text, kept for logging
	Err    error  // Underlying decode error, if any
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("failed to parse AI response: field %q: %s", e.Field, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("failed to parse AI response: %s: %v", e.Reason, e.Err)
	}
	return "failed to parse AI response: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// StripFences removes a surrounding markdown code fence (``` or ```json) and
// surrounding whitespace. Text without a fence is only trimmed.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, fence) {
		return text
	}

	// Drop the opening fence together with its optional language tag
	body := text[len(fence):]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = strings.TrimLeft(body, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}

	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, fence)
	return strings.TrimSpace(body)
}

// Parse strips code fences and decodes the remaining text as a single JSON value.
// Objects decode to map[string]any and arrays to []any.
func Parse(text string) (any, error) {
	clean := StripFences(text)
	if clean == "" {
		return nil, &ParseError{Reason: "empty response", Raw: text}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(clean)))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Raw: text, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Reason: "unexpected data after JSON value", Raw: text}
	}

	return v, nil
}

// ParseObject parses text that must hold a JSON object.
func ParseObject(text string) (map[string]any, error) {
	v, err := Parse(text)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseError{Reason: fmt.Sprintf("expected JSON object, got %s", typeName(v)), Raw: text}
	}
	return obj, nil
}

// ParseStringList parses text that must hold a JSON array of strings.
func ParseStringList(text string) ([]string, error) {
	v, err := Parse(text)
	if err != nil {
		return nil, err
	}
	list, err := toStringList(v, "")
	if err != nil {
		err.(*ParseError).Raw = text
		return nil, err
	}
	return list, nil
}

// RequiredString returns obj[key] as a string.
func RequiredString(obj map[string]any, path, key string) (string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return "", &ParseError{Reason: "missing required field", Field: join(path, key)}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ParseError{Reason: fmt.Sprintf("expected string, got %s", typeName(v)), Field: join(path, key)}
	}
	return s, nil
}

// RequiredStringList returns obj[key] as a list of strings.
func RequiredStringList(obj map[string]any, path, key string) ([]string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, &ParseError{Reason: "missing required field", Field: join(path, key)}
	}
	list, err := toStringList(v, join(path, key))
	if err != nil {
		return nil, err
	}
	return list, nil
}

// RequiredObject returns obj[key] as a nested object.
func RequiredObject(obj map[string]any, path, key string) (map[string]any, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, &ParseError{Reason: "missing required field", Field: join(path, key)}
	}
	nested, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseError{Reason: fmt.Sprintf("expected object, got %s", typeName(v)), Field: join(path, key)}
	}
	return nested, nil
}

func toStringList(v any, field string) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, &ParseError{Reason: fmt.Sprintf("expected array of strings, got %s", typeName(v)), Field: field}
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, &ParseError{Reason: fmt.Sprintf("element %d: expected string, got %s", i, typeName(item)), Field: field}
		}
		out = append(out, s)
	}
	return out, nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
