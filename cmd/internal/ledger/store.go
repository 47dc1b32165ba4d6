package ledger

import (
	"context"
	"time"
)

// Store persists expenses and the shared catalogs. Implementations return
// identity.NotFoundError for missing rows and identity.ConflictError for
// catalog name collisions, so the HTTP layer maps them uniformly.
type Store interface {
	CreateCategory(ctx context.Context, name string, now time.Time) (Category, error)
	GetCategory(ctx context.Context, id string) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, id, name string, now time.Time) (Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CreatePaymentMethod(ctx context.Context, name string, now time.Time) (PaymentMethod, error)
	GetPaymentMethod(ctx context.Context, id string) (PaymentMethod, error)
	ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, id, name string, now time.Time) (PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, id string) error

	CreateExpense(ctx context.Context, in CreateExpenseInput) (Expense, error)
	GetExpense(ctx context.Context, id string) (Expense, error)
	ListExpensesForUser(ctx context.Context, userID string) ([]Expense, error)
	ListExpenses(ctx context.Context) ([]Expense, error)
	UpdateExpense(ctx context.Context, in UpdateExpenseInput) (Expense, error)
	DeleteExpense(ctx context.Context, id string) error
}
