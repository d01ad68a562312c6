package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"

	"rfpassist/internal/llm"
)

func TestFromResponse(t *testing.T) {
	text := func(parts ...genai.Part) *genai.GenerateContentResponse {
		return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: parts, Role: "model"},
			FinishReason: genai.FinishReasonStop,
		}}}
	}
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want llm.Result
	}{
		{"nil response", nil, llm.Result{Empty: true}},
		{"no candidates", &genai.GenerateContentResponse{}, llm.Result{Empty: true}},
		{"joined text parts", text(genai.Text("Page limit: 10.\n"), genai.Text("Font: Times New Roman.")),
			llm.Result{Text: "Page limit: 10.\nFont: Times New Roman."}},
		{"whitespace only", text(genai.Text("  \n")), llm.Result{Empty: true}},
		{"non-text parts skipped", text(genai.Blob{MIMEType: "image/png"}, genai.Text("ok")), llm.Result{Text: "ok"}},
		{"safety stop", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}},
			llm.Result{Blocked: true, Empty: true}},
		{"recitation stop", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonRecitation}}},
			llm.Result{Blocked: true, Empty: true}},
		{"prompt blocked", &genai.GenerateContentResponse{PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety}},
			llm.Result{Blocked: true, Empty: true}},
		{"candidate without content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonOther}}},
			llm.Result{Empty: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromResponse(tt.resp))
		})
	}
}
