package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

type geminiProvider struct {
	client *genai.Client
	model  string
}

func newGemini(ctx context.Context, cfg Config) (*geminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &geminiProvider{client: client, model: cfg.Model}, nil
}

func (p *geminiProvider) Name() string  { return "gemini" }
func (p *geminiProvider) Model() string { return p.model }

func (p *geminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	gc := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}
	if req.Temperature > 0 {
		t := float32(req.Temperature)
		gc.Temperature = &t
	}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		gc.ResponseMIMEType = "application/json"
		gc.ResponseJsonSchema = req.Schema.Definition
	}

	out, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), gc)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, fromStatus(p.Name(), apiErr.Code, err)
		}
		return nil, fromStatus(p.Name(), 0, err)
	}

	resp := &Response{Content: json.RawMessage(out.Text()), Model: p.model}
	if out.ModelVersion != "" {
		resp.Model = out.ModelVersion
	}
	if len(out.Candidates) > 0 {
		resp.Truncated = out.Candidates[0].FinishReason == genai.FinishReasonMaxTokens
	}
	if u := out.UsageMetadata; u != nil {
		resp.Usage = Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
		}
	}
	return finish(p.Name(), req, resp)
}
