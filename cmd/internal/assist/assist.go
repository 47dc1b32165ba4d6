// Package assist integrates optional LLM collaborators: an expense-category
// predictor and a finance question assistant. Both are interfaces; the
// module ships prompt construction and reply parsing, the model call itself
// is injected. With no collaborator configured the endpoints answer 503.
package assist

import (
	"context"

	"spendsense/cmd/internal/ledger"
)

// Completer is the minimal LLM boundary: one prompt in, one text reply out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Prediction is a category classification for an expense description.
type Prediction struct {
	CategoryID   string  `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	Confidence   float64 `json:"confidence"`
}

// Uncategorized is the fallback prediction when the model reply cannot be
// parsed or names a category not in the catalog.
var Uncategorized = Prediction{
	CategoryID:   "uncategorized",
	CategoryName: "Uncategorized",
	Confidence:   0,
}

// CategoryPredictor classifies an expense description against the catalog.
type CategoryPredictor interface {
	Predict(ctx context.Context, text string, categories []ledger.Category) (Prediction, error)
}

// Assistant answers a finance question grounded in the user's expenses.
type Assistant interface {
	Answer(ctx context.Context, question string, expenses []ledger.Expense) (string, error)
}
