// Package llm sends single-turn, schema-constrained prompts to a hosted
// model. It backs the optional reflection grader.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates one structured completion per call.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	// Name identifies the vendor ("anthropic", "openai", ...).
	Name() string
	// Model is the resolved model ID requests are sent to.
	Model() string
}

// Request is a single-turn prompt. Grading never needs a conversation, so
// there is exactly one user message.
type Request struct {
	// Purpose labels the request in the event log.
	Purpose string

	System      string
	Prompt      string
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// Schema is a JSON Schema the response must satisfy.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response carries the model's JSON output.
type Response struct {
	Content   json.RawMessage
	Usage     Usage
	Model     string
	Truncated bool
}

// Decode unmarshals the response content into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Content, v); err != nil {
		return invalid("", r.Content, err)
	}
	return nil
}

// Usage counts tokens for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// finish applies the checks every vendor shares: truncation, then schema
// validation.
func finish(provider string, req Request, resp *Response) (*Response, error) {
	if resp.Truncated {
		return nil, &Error{Kind: KindTruncated, Provider: provider, Content: resp.Content}
	}
	if req.Schema != nil {
		if err := req.Schema.validate(resp.Content); err != nil {
			return nil, invalid(provider, resp.Content, err)
		}
	}
	return resp, nil
}
