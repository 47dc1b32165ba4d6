package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"spendsense/cmd/identity"
	"spendsense/cmd/identity/ids"
)

const (
	catalogColumns = "id, name, created_at, updated_at"
	expenseColumns = "id, user_id, category_id, payment_method_id, title, amount, date, notes, created_at, updated_at"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("ledger: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

var _ Store = (*PostgresStore)(nil)

// ---- categories ----

func (s *PostgresStore) CreateCategory(ctx context.Context, name string, now time.Time) (Category, error) {
	const op = "ledger.create_category"
	if name == "" {
		return Category{}, identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: "name is required"}
	}
	id, err := ids.NewULID(now)
	if err != nil {
		return Category{}, err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO categories (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING `+catalogColumns,
		id, name, now,
	)
	c, err := scanCategory(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Category{}, identity.ConflictError{Op: op, Field: "name"}
		}
		return Category{}, err
	}
	return c, nil
}

func (s *PostgresStore) GetCategory(ctx context.Context, id string) (Category, error) {
	const op = "ledger.get_category"
	row := s.pool.QueryRow(ctx, `SELECT `+catalogColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, identity.NotFoundError{Op: op, Resource: "category"}
		}
		return Category{}, err
	}
	return c, nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+catalogColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, id, name string, now time.Time) (Category, error) {
	const op = "ledger.update_category"
	if name == "" {
		return Category{}, identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: "name is required"}
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE categories SET name = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+catalogColumns,
		id, name, now,
	)
	c, err := scanCategory(row)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return Category{}, identity.NotFoundError{Op: op, Resource: "category"}
		case isUniqueViolation(err):
			return Category{}, identity.ConflictError{Op: op, Field: "name"}
		}
		return Category{}, err
	}
	return c, nil
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id string) error {
	const op = "ledger.delete_category"
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return identity.NotFoundError{Op: op, Resource: "category"}
	}
	return nil
}

// ---- payment methods ----

func (s *PostgresStore) CreatePaymentMethod(ctx context.Context, name string, now time.Time) (PaymentMethod, error) {
	const op = "ledger.create_payment_method"
	if name == "" {
		return PaymentMethod{}, identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: "name is required"}
	}
	id, err := ids.NewULID(now)
	if err != nil {
		return PaymentMethod{}, err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO payment_methods (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING `+catalogColumns,
		id, name, now,
	)
	m, err := scanPaymentMethod(row)
	if err != nil {
		if isUniqueViolation(err) {
			return PaymentMethod{}, identity.ConflictError{Op: op, Field: "name"}
		}
		return PaymentMethod{}, err
	}
	return m, nil
}

func (s *PostgresStore) GetPaymentMethod(ctx context.Context, id string) (PaymentMethod, error) {
	const op = "ledger.get_payment_method"
	row := s.pool.QueryRow(ctx, `SELECT `+catalogColumns+` FROM payment_methods WHERE id = $1`, id)
	m, err := scanPaymentMethod(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PaymentMethod{}, identity.NotFoundError{Op: op, Resource: "payment method"}
		}
		return PaymentMethod{}, err
	}
	return m, nil
}

func (s *PostgresStore) ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+catalogColumns+` FROM payment_methods ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PaymentMethod
	for rows.Next() {
		m, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdatePaymentMethod(ctx context.Context, id, name string, now time.Time) (PaymentMethod, error) {
	const op = "ledger.update_payment_method"
	if name == "" {
		return PaymentMethod{}, identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: "name is required"}
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE payment_methods SET name = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+catalogColumns,
		id, name, now,
	)
	m, err := scanPaymentMethod(row)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return PaymentMethod{}, identity.NotFoundError{Op: op, Resource: "payment method"}
		case isUniqueViolation(err):
			return PaymentMethod{}, identity.ConflictError{Op: op, Field: "name"}
		}
		return PaymentMethod{}, err
	}
	return m, nil
}

func (s *PostgresStore) DeletePaymentMethod(ctx context.Context, id string) error {
	const op = "ledger.delete_payment_method"
	tag, err := s.pool.Exec(ctx, `DELETE FROM payment_methods WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return identity.NotFoundError{Op: op, Resource: "payment method"}
	}
	return nil
}

// ---- expenses ----

func (s *PostgresStore) CreateExpense(ctx context.Context, in CreateExpenseInput) (Expense, error) {
	const op = "ledger.create_expense"
	if in.UserID == "" || in.Title == "" || in.CategoryID == "" {
		return Expense{}, identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: "userId, title and categoryId are required"}
	}
	id, err := ids.NewULID(in.Now)
	if err != nil {
		return Expense{}, err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO expenses (id, user_id, category_id, payment_method_id, title, amount, date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING `+expenseColumns,
		id, in.UserID, in.CategoryID, in.PaymentMethodID,
		in.Title, in.Amount, in.Date, in.Notes, in.Now,
	)
	e, err := scanExpense(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Expense{}, identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: "unknown category or payment method"}
		}
		return Expense{}, err
	}
	return e, nil
}

func (s *PostgresStore) GetExpense(ctx context.Context, id string) (Expense, error) {
	const op = "ledger.get_expense"
	row := s.pool.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Expense{}, identity.NotFoundError{Op: op, Resource: "expense"}
		}
		return Expense{}, err
	}
	return e, nil
}

func (s *PostgresStore) ListExpensesForUser(ctx context.Context, userID string) ([]Expense, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = $1 ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExpenses(rows)
}

func (s *PostgresStore) ListExpenses(ctx context.Context) ([]Expense, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExpenses(rows)
}

func (s *PostgresStore) UpdateExpense(ctx context.Context, in UpdateExpenseInput) (Expense, error) {
	const op = "ledger.update_expense"
	row := s.pool.QueryRow(ctx, `
		UPDATE expenses SET
			category_id       = COALESCE($2, category_id),
			payment_method_id = COALESCE($3, payment_method_id),
			title             = COALESCE($4, title),
			amount            = COALESCE($5, amount),
			date              = COALESCE($6, date),
			notes             = COALESCE($7, notes),
			updated_at        = $8
		WHERE id = $1
		RETURNING `+expenseColumns,
		in.ID, in.CategoryID, in.PaymentMethodID, in.Title, in.Amount, in.Date, in.Notes, in.Now,
	)
	e, err := scanExpense(row)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return Expense{}, identity.NotFoundError{Op: op, Resource: "expense"}
		case isForeignKeyViolation(err):
			return Expense{}, identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: "unknown category or payment method"}
		}
		return Expense{}, err
	}
	return e, nil
}

func (s *PostgresStore) DeleteExpense(ctx context.Context, id string) error {
	const op = "ledger.delete_expense"
	tag, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return identity.NotFoundError{Op: op, Resource: "expense"}
	}
	return nil
}

// ---- scanning ----

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Category{}, err
	}
	return c, nil
}

func scanPaymentMethod(row pgx.Row) (PaymentMethod, error) {
	var m PaymentMethod
	if err := row.Scan(&m.ID, &m.Name, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return PaymentMethod{}, err
	}
	return m, nil
}

func scanExpense(row pgx.Row) (Expense, error) {
	var e Expense
	if err := row.Scan(
		&e.ID, &e.UserID, &e.CategoryID, &e.PaymentMethodID,
		&e.Title, &e.Amount, &e.Date, &e.Notes,
		&e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return Expense{}, err
	}
	return e, nil
}

func collectExpenses(rows pgx.Rows) ([]Expense, error) {
	var out []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
