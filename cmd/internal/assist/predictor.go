package assist

import (
	"context"
	"encoding/json"
	"strings"

	"spendsense/cmd/internal/ledger"
)

// PromptPredictor implements CategoryPredictor on any Completer.
type PromptPredictor struct {
	llm Completer
}

func NewPromptPredictor(llm Completer) *PromptPredictor {
	return &PromptPredictor{llm: llm}
}

// Predict classifies text against the catalog. A reply that cannot be parsed
// or names an unknown category degrades to Uncategorized rather than failing
// the request; only a transport error from the model surfaces as an error.
func (p *PromptPredictor) Predict(ctx context.Context, text string, categories []ledger.Category) (Prediction, error) {
	reply, err := p.llm.Complete(ctx, buildCategoryPrompt(text, categories))
	if err != nil {
		return Prediction{}, err
	}
	return parsePrediction(reply, categories), nil
}

// PromptAssistant implements Assistant on any Completer.
type PromptAssistant struct {
	llm Completer
}

func NewPromptAssistant(llm Completer) *PromptAssistant {
	return &PromptAssistant{llm: llm}
}

func (a *PromptAssistant) Answer(ctx context.Context, question string, expenses []ledger.Expense) (string, error) {
	return a.llm.Complete(ctx, buildChatPrompt(question, expenses))
}

// stripFences removes a leading ```json (or bare ```) fence and a trailing
// fence, the way chat models commonly wrap structured replies.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

func parsePrediction(raw string, categories []ledger.Category) Prediction {
	var parsed struct {
		CategoryID string   `json:"categoryId"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return Uncategorized
	}

	for _, c := range categories {
		if c.ID == parsed.CategoryID {
			confidence := 0.8
			if parsed.Confidence != nil {
				confidence = *parsed.Confidence
			}
			return Prediction{CategoryID: c.ID, CategoryName: c.Name, Confidence: confidence}
		}
	}
	return Uncategorized
}
