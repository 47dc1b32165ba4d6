package ledger

import "time"

// Category is a shared expense category. The catalog is global: every
// authenticated user reads and maintains the same list.
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PaymentMethod is a shared payment-method catalog entry.
type PaymentMethod struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expense is a single spend record owned by one user.
type Expense struct {
	ID              string
	UserID          string
	CategoryID      string
	PaymentMethodID *string
	Title           string
	Amount          float64
	Date            time.Time
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateExpenseInput carries the fields for a new expense. UserID is set by
// the handler from the authenticated principal, never from the request body.
type CreateExpenseInput struct {
	UserID          string
	CategoryID      string
	PaymentMethodID *string
	Title           string
	Amount          float64
	Date            time.Time
	Notes           string
	Now             time.Time
}

// UpdateExpenseInput is a partial update: nil means unchanged.
type UpdateExpenseInput struct {
	ID              string
	CategoryID      *string
	PaymentMethodID *string
	Title           *string
	Amount          *float64
	Date            *time.Time
	Notes           *string
	Now             time.Time
}
