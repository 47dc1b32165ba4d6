// Package ledgerapi exposes the expense, category and payment-method
// resources over HTTP, guarded by the auth middleware.
package ledgerapi

import (
	"errors"
	"time"

	"spendsense/cmd/internal/ledger"
)

type catalogRequest struct {
	Name string `json:"name"`
}

type catalogResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type expenseRequest struct {
	Title           string   `json:"title"`
	Amount          *float64 `json:"amount"`
	CategoryID      string   `json:"categoryId"`
	PaymentMethodID *string  `json:"paymentMethodId"`
	Date            string   `json:"date"`
	Notes           string   `json:"notes"`
}

type expenseUpdateRequest struct {
	Title           *string  `json:"title"`
	Amount          *float64 `json:"amount"`
	CategoryID      *string  `json:"categoryId"`
	PaymentMethodID *string  `json:"paymentMethodId"`
	Date            *string  `json:"date"`
	Notes           *string  `json:"notes"`
}

type expenseResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	CategoryID      string    `json:"categoryId"`
	PaymentMethodID *string   `json:"paymentMethodId,omitempty"`
	Title           string    `json:"title"`
	Amount          float64   `json:"amount"`
	Date            time.Time `json:"date"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toCatalogResponse(id, name string, createdAt, updatedAt time.Time) catalogResponse {
	return catalogResponse{ID: id, Name: name, CreatedAt: createdAt, UpdatedAt: updatedAt}
}

func toExpenseResponse(e ledger.Expense) expenseResponse {
	return expenseResponse{
		ID:              e.ID,
		UserID:          e.UserID,
		CategoryID:      e.CategoryID,
		PaymentMethodID: e.PaymentMethodID,
		Title:           e.Title,
		Amount:          e.Amount,
		Date:            e.Date,
		Notes:           e.Notes,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// parseDate accepts RFC 3339 timestamps and bare dates.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("date is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New("unrecognized date format")
}
