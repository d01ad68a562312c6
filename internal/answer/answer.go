// Package answer generates grounded answers from retrieved context.
package answer

import (
	"context"
	"fmt"
	"strings"

	"rfpassist/internal/domain"
	"rfpassist/internal/llm"
)

// DefaultTemperature is used for question answering.
const DefaultTemperature = 0.3

// NotAvailable is the phrase the model is told to emit when the context
// does not contain the answer.
const NotAvailable = "Answer is not available in the context."

const promptTemplate = `Answer the question as detailed as possible from the provided context. If the answer is not in the provided context, just say "Answer is not available in the context." Do not make up answers.

Context:
{context}

Question: {question}

Answer:`

// Outcome is either an answer or a report that the context had none.
type Outcome struct {
	Text  string
	Found bool
}

// Answered wraps a grounded answer.
func Answered(text string) Outcome { return Outcome{Text: text, Found: true} }

// NotFound reports that the context did not contain the answer.
func NotFound() Outcome { return Outcome{} }

// String renders the outcome for display.
func (o Outcome) String() string {
	if !o.Found {
		return NotAvailable
	}
	return o.Text
}

// Completer is satisfied by *llm.Client.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) llm.Result
}

// Generator answers questions strictly from supplied chunks.
type Generator struct {
	model       Completer
	temperature float32
}

// NewGenerator creates a generator sampling at temperature.
func NewGenerator(model Completer, temperature float32) *Generator {
	return &Generator{model: model, temperature: temperature}
}

// Prompt builds the grounded prompt for question over chunks.
func Prompt(question string, chunks []string) string {
	return strings.NewReplacer(
		"{context}", strings.Join(chunks, "\n\n"),
		"{question}", question,
	).Replace(promptTemplate)
}

// Answer asks the model. A blocked or empty completion is an error; the
// not-available phrase becomes NotFound.
func (g *Generator) Answer(ctx context.Context, question string, chunks []string) (Outcome, error) {
	res := g.model.Complete(ctx, llm.Request{Prompt: Prompt(question, chunks), Temperature: g.temperature})
	switch {
	case res.Blocked:
		return Outcome{}, fmt.Errorf("answer: %w", domain.ErrContentBlocked)
	case res.Empty:
		return Outcome{}, fmt.Errorf("answer: %w", domain.ErrNoOutput)
	case isNotAvailable(res.Text):
		return NotFound(), nil
	}
	return Answered(res.Text), nil
}

var sentinel = strings.ToLower(strings.TrimSuffix(NotAvailable, "."))

func isNotAvailable(text string) bool {
	return strings.Contains(strings.ToLower(text), sentinel)
}
