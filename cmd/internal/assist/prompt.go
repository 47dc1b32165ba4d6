package assist

import (
	"encoding/json"
	"fmt"
	"strings"

	"spendsense/cmd/internal/ledger"
)

func buildCategoryPrompt(text string, categories []ledger.Category) string {
	var list strings.Builder
	for _, c := range categories {
		fmt.Fprintf(&list, "- %s (ID: %s)\n", c.Name, c.ID)
	}

	return fmt.Sprintf(`You are a financial assistant that classifies expense descriptions.
Choose ONE category from the list below.

List of categories:
%s
If the description does not fit any category, choose "Other".

Return JSON ONLY in this exact format:
{
  "categoryId": "<use the ID from the list above>",
  "categoryName": "<use the corresponding category name>",
  "confidence": 0.0-1.0
}

Description: %q
`, list.String(), text)
}

func buildChatPrompt(question string, expenses []ledger.Expense) string {
	type row struct {
		Title    string  `json:"title"`
		Amount   float64 `json:"amount"`
		Category string  `json:"category"`
		Date     string  `json:"date"`
		Notes    string  `json:"notes,omitempty"`
	}
	rows := make([]row, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, row{
			Title:    e.Title,
			Amount:   e.Amount,
			Category: e.CategoryID,
			Date:     e.Date.Format("2006-01-02"),
			Notes:    e.Notes,
		})
	}
	data, _ := json.MarshalIndent(rows, "", "  ")

	return fmt.Sprintf(`You are a personal finance assistant.
Here are the user's recent expenses:
%s

The user asks: %q

Provide a short, clear, actionable answer.
`, data, question)
}
