package llm

import (
	"context"
	"encoding/json"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// openaiProvider also serves OpenRouter and other compatible endpoints.
type openaiProvider struct {
	name   string
	client *openai.Client
	model  string
}

func newOpenAI(name string, cfg Config) (*openaiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing API key")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &openaiProvider{
		name:   name,
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
	}, nil
}

func (p *openaiProvider) Name() string  { return p.name }
func (p *openaiProvider) Model() string { return p.model }

func (p *openaiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	chat := openai.ChatCompletionRequest{
		Model:               p.model,
		Messages:            msgs,
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         float32(req.Temperature),
	}
	if req.Schema != nil {
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        req.Schema.Name,
				Description: req.Schema.Description,
				Schema:      req.Schema.JSON(),
				Strict:      true,
			},
		}
	}

	out, err := p.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		return nil, p.classify(err)
	}
	if len(out.Choices) == 0 {
		return nil, invalid(p.name, nil, errors.New("response has no choices"))
	}

	choice := out.Choices[0]
	return finish(p.name, req, &Response{
		Content: json.RawMessage(choice.Message.Content),
		Usage: Usage{
			InputTokens:  out.Usage.PromptTokens,
			OutputTokens: out.Usage.CompletionTokens,
		},
		Model:     out.Model,
		Truncated: choice.FinishReason == openai.FinishReasonLength,
	})
}

func (p *openaiProvider) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fromStatus(p.name, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fromStatus(p.name, reqErr.HTTPStatusCode, err)
	}
	return fromStatus(p.name, 0, err)
}
