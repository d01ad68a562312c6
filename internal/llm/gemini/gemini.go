package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"rfpassist/internal/domain"
	"rfpassist/internal/llm"
)

// Provider generates text with a Gemini model.
type Provider struct {
	client *genai.Client
	model  string
}

var _ llm.Provider = (*Provider)(nil)

// New creates a provider for model on an existing client.
func New(client *genai.Client, model string) *Provider {
	return &Provider{client: client, model: model}
}

// Generate sends one prompt and normalises the response.
func (p *Provider) Generate(ctx context.Context, req llm.Request) (llm.Result, error) {
	m := p.client.GenerativeModel(p.model)
	m.SetTemperature(req.Temperature)
	if req.MaxOutputTokens > 0 {
		m.SetMaxOutputTokens(req.MaxOutputTokens)
	}
	resp, err := m.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return llm.BlockedResult(), nil
		}
		return llm.Result{}, fmt.Errorf("%w: %w", domain.ErrTransientProvider, err)
	}
	return FromResponse(resp), nil
}

// FromResponse maps a Gemini response onto the canonical result: the text
// parts of the first candidate, Blocked for safety or recitation stops and
// Empty when nothing usable came back.
func FromResponse(resp *genai.GenerateContentResponse) llm.Result {
	if resp == nil {
		return llm.Result{Empty: true}
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return llm.BlockedResult()
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return llm.Result{Empty: true}
	}
	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonRecitation:
		return llm.BlockedResult()
	}
	if cand.Content == nil {
		return llm.Result{Empty: true}
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return llm.Normalize(b.String())
}
