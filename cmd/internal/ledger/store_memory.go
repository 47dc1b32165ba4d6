package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"spendsense/cmd/identity"
)

// InMemoryStore is a mutex-protected Store for development and tests.
// It mirrors the Postgres store's error semantics.
type InMemoryStore struct {
	mu             sync.Mutex
	categories     map[string]Category
	paymentMethods map[string]PaymentMethod
	expenses       map[string]Expense
	seq            int
}

// NewInMemoryStore creates an empty in-memory ledger store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		categories:     make(map[string]Category),
		paymentMethods: make(map[string]PaymentMethod),
		expenses:       make(map[string]Expense),
	}
}

var _ Store = (*InMemoryStore)(nil)

func (s *InMemoryStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *InMemoryStore) CreateCategory(_ context.Context, name string, now time.Time) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return Category{}, identity.ConflictError{Op: "ledger.create_category", Field: "name"}
		}
	}
	c := Category{ID: s.nextID("cat"), Name: name, CreatedAt: now, UpdatedAt: now}
	s.categories[c.ID] = c
	return c, nil
}

func (s *InMemoryStore) GetCategory(_ context.Context, id string) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return Category{}, identity.NotFoundError{Op: "ledger.get_category", Resource: "category"}
	}
	return c, nil
}

func (s *InMemoryStore) ListCategories(_ context.Context) ([]Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) UpdateCategory(_ context.Context, id, name string, now time.Time) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return Category{}, identity.NotFoundError{Op: "ledger.update_category", Resource: "category"}
	}
	for otherID, other := range s.categories {
		if otherID != id && strings.EqualFold(other.Name, name) {
			return Category{}, identity.ConflictError{Op: "ledger.update_category", Field: "name"}
		}
	}
	c.Name = name
	c.UpdatedAt = now
	s.categories[id] = c
	return c, nil
}

func (s *InMemoryStore) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return identity.NotFoundError{Op: "ledger.delete_category", Resource: "category"}
	}
	delete(s.categories, id)
	return nil
}

func (s *InMemoryStore) CreatePaymentMethod(_ context.Context, name string, now time.Time) (PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.paymentMethods {
		if strings.EqualFold(m.Name, name) {
			return PaymentMethod{}, identity.ConflictError{Op: "ledger.create_payment_method", Field: "name"}
		}
	}
	m := PaymentMethod{ID: s.nextID("pm"), Name: name, CreatedAt: now, UpdatedAt: now}
	s.paymentMethods[m.ID] = m
	return m, nil
}

func (s *InMemoryStore) GetPaymentMethod(_ context.Context, id string) (PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.paymentMethods[id]
	if !ok {
		return PaymentMethod{}, identity.NotFoundError{Op: "ledger.get_payment_method", Resource: "payment method"}
	}
	return m, nil
}

func (s *InMemoryStore) ListPaymentMethods(_ context.Context) ([]PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PaymentMethod, 0, len(s.paymentMethods))
	for _, m := range s.paymentMethods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) UpdatePaymentMethod(_ context.Context, id, name string, now time.Time) (PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.paymentMethods[id]
	if !ok {
		return PaymentMethod{}, identity.NotFoundError{Op: "ledger.update_payment_method", Resource: "payment method"}
	}
	m.Name = name
	m.UpdatedAt = now
	s.paymentMethods[id] = m
	return m, nil
}

func (s *InMemoryStore) DeletePaymentMethod(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paymentMethods[id]; !ok {
		return identity.NotFoundError{Op: "ledger.delete_payment_method", Resource: "payment method"}
	}
	delete(s.paymentMethods, id)
	return nil
}

func (s *InMemoryStore) CreateExpense(_ context.Context, in CreateExpenseInput) (Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[in.CategoryID]; !ok {
		return Expense{}, identity.OpError{Op: "ledger.create_expense", Kind: identity.ErrInvalidInput, Msg: "unknown category"}
	}
	e := Expense{
		ID:              s.nextID("exp"),
		UserID:          in.UserID,
		CategoryID:      in.CategoryID,
		PaymentMethodID: in.PaymentMethodID,
		Title:           in.Title,
		Amount:          in.Amount,
		Date:            in.Date,
		Notes:           in.Notes,
		CreatedAt:       in.Now,
		UpdatedAt:       in.Now,
	}
	s.expenses[e.ID] = e
	return e, nil
}

func (s *InMemoryStore) GetExpense(_ context.Context, id string) (Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return Expense{}, identity.NotFoundError{Op: "ledger.get_expense", Resource: "expense"}
	}
	return e, nil
}

func (s *InMemoryStore) ListExpensesForUser(_ context.Context, userID string) ([]Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Expense
	for _, e := range s.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sortExpenses(out)
	return out, nil
}

func (s *InMemoryStore) ListExpenses(_ context.Context) ([]Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		out = append(out, e)
	}
	sortExpenses(out)
	return out, nil
}

func (s *InMemoryStore) UpdateExpense(_ context.Context, in UpdateExpenseInput) (Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[in.ID]
	if !ok {
		return Expense{}, identity.NotFoundError{Op: "ledger.update_expense", Resource: "expense"}
	}
	if in.CategoryID != nil {
		if _, ok := s.categories[*in.CategoryID]; !ok {
			return Expense{}, identity.OpError{Op: "ledger.update_expense", Kind: identity.ErrInvalidInput, Msg: "unknown category"}
		}
		e.CategoryID = *in.CategoryID
	}
	if in.PaymentMethodID != nil {
		e.PaymentMethodID = in.PaymentMethodID
	}
	if in.Title != nil {
		e.Title = *in.Title
	}
	if in.Amount != nil {
		e.Amount = *in.Amount
	}
	if in.Date != nil {
		e.Date = *in.Date
	}
	if in.Notes != nil {
		e.Notes = *in.Notes
	}
	e.UpdatedAt = in.Now
	s.expenses[in.ID] = e
	return e, nil
}

func (s *InMemoryStore) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return identity.NotFoundError{Op: "ledger.delete_expense", Resource: "expense"}
	}
	delete(s.expenses, id)
	return nil
}

func sortExpenses(out []Expense) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
}
