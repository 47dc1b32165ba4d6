package ledgerapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"spendsense/cmd/identity"
	authapi "spendsense/cmd/internal/auth/api"
	"spendsense/cmd/internal/ledger"
)

// Handler serves the ledger resources. Authentication and authorization are
// delegated to the auth handler's middleware so every route shares one
// policy mechanism.
type Handler struct {
	log   *slog.Logger
	store ledger.Store
	auth  *authapi.Handler

	maxBodyBytes int64
}

func NewHandler(log *slog.Logger, store ledger.Store, auth *authapi.Handler, maxBodyBytes int64) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &Handler{log: log, store: store, auth: auth, maxBodyBytes: maxBodyBytes}
}

// Register wires the ledger routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}

	// The shared catalogs are readable and writable by every signed-in user.
	member := h.auth.Guard(identity.AnyOf(identity.RoleUser, identity.RoleAdmin), nil)
	memberByID := h.auth.Guard(identity.AnyOf(identity.RoleUser, identity.RoleAdmin), h.categoryLoader())
	methodByID := h.auth.Guard(identity.AnyOf(identity.RoleUser, identity.RoleAdmin), h.paymentMethodLoader())

	mux.Handle("GET /api/categories", member(http.HandlerFunc(h.handleListCategories)))
	mux.Handle("POST /api/categories", member(http.HandlerFunc(h.handleCreateCategory)))
	mux.Handle("GET /api/categories/{id}", memberByID(http.HandlerFunc(h.handleGetCategory)))
	mux.Handle("PUT /api/categories/{id}", memberByID(http.HandlerFunc(h.handleUpdateCategory)))
	mux.Handle("DELETE /api/categories/{id}", memberByID(http.HandlerFunc(h.handleDeleteCategory)))

	mux.Handle("GET /api/payment-methods", member(http.HandlerFunc(h.handleListPaymentMethods)))
	mux.Handle("POST /api/payment-methods", member(http.HandlerFunc(h.handleCreatePaymentMethod)))
	mux.Handle("GET /api/payment-methods/{id}", methodByID(http.HandlerFunc(h.handleGetPaymentMethod)))
	mux.Handle("PUT /api/payment-methods/{id}", methodByID(http.HandlerFunc(h.handleUpdatePaymentMethod)))
	mux.Handle("DELETE /api/payment-methods/{id}", methodByID(http.HandlerFunc(h.handleDeletePaymentMethod)))

	// Expense rows are private: the row's owner or an admin.
	ownerByID := h.auth.Guard(identity.OwnerOnly(), h.expenseLoader())

	mux.Handle("GET /api/expenses", member(http.HandlerFunc(h.handleListExpenses)))
	mux.Handle("POST /api/expenses", member(http.HandlerFunc(h.handleCreateExpense)))
	mux.Handle("GET /api/expenses/{id}", ownerByID(http.HandlerFunc(h.handleGetExpense)))
	mux.Handle("PUT /api/expenses/{id}", ownerByID(http.HandlerFunc(h.handleUpdateExpense)))
	mux.Handle("DELETE /api/expenses/{id}", ownerByID(http.HandlerFunc(h.handleDeleteExpense)))
}

func (h *Handler) categoryLoader() authapi.ResourceLoader {
	return func(r *http.Request, id string) (string, any, error) {
		c, err := h.store.GetCategory(r.Context(), id)
		if err != nil {
			return "", nil, err
		}
		// Catalog entries have no owner; role policy alone decides.
		return "", c, nil
	}
}

func (h *Handler) paymentMethodLoader() authapi.ResourceLoader {
	return func(r *http.Request, id string) (string, any, error) {
		m, err := h.store.GetPaymentMethod(r.Context(), id)
		if err != nil {
			return "", nil, err
		}
		return "", m, nil
	}
}

func (h *Handler) expenseLoader() authapi.ResourceLoader {
	return func(r *http.Request, id string) (string, any, error) {
		e, err := h.store.GetExpense(r.Context(), id)
		if err != nil {
			return "", nil, err
		}
		return e.UserID, e, nil
	}
}

// ---- categories ----

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.store.ListCategories(r.Context())
	if err != nil {
		h.fail(w, "ledger.categories.list", err)
		return
	}
	out := make([]catalogResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCatalogResponse(c.ID, c.Name, c.CreatedAt, c.UpdatedAt))
	}
	authapi.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	name, ok := h.decodeCatalogName(w, r)
	if !ok {
		return
	}
	c, err := h.store.CreateCategory(r.Context(), name, time.Now().UTC())
	if err != nil {
		if identity.IsConflict(err) {
			authapi.WriteError(w, http.StatusConflict, "name_in_use", "category already exists")
			return
		}
		h.fail(w, "ledger.categories.create", err)
		return
	}
	authapi.WriteJSON(w, http.StatusCreated, toCatalogResponse(c.ID, c.Name, c.CreatedAt, c.UpdatedAt))
}

func (h *Handler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, ok := authapi.ResourceFrom(r.Context()).(ledger.Category)
	if !ok {
		h.fail(w, "ledger.categories.get", errMissingResource)
		return
	}
	authapi.WriteJSON(w, http.StatusOK, toCatalogResponse(c.ID, c.Name, c.CreatedAt, c.UpdatedAt))
}

func (h *Handler) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	name, ok := h.decodeCatalogName(w, r)
	if !ok {
		return
	}
	c, err := h.store.UpdateCategory(r.Context(), r.PathValue("id"), name, time.Now().UTC())
	if err != nil {
		switch {
		case identity.IsNotFound(err):
			authapi.WriteError(w, http.StatusNotFound, "not_found", "category not found")
		case identity.IsConflict(err):
			authapi.WriteError(w, http.StatusConflict, "name_in_use", "category already exists")
		default:
			h.fail(w, "ledger.categories.update", err)
		}
		return
	}
	authapi.WriteJSON(w, http.StatusOK, toCatalogResponse(c.ID, c.Name, c.CreatedAt, c.UpdatedAt))
}

func (h *Handler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		if identity.IsNotFound(err) {
			authapi.WriteError(w, http.StatusNotFound, "not_found", "category not found")
			return
		}
		h.fail(w, "ledger.categories.delete", err)
		return
	}
	authapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "Category deleted"})
}

// ---- payment methods ----

func (h *Handler) handleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.store.ListPaymentMethods(r.Context())
	if err != nil {
		h.fail(w, "ledger.payment_methods.list", err)
		return
	}
	out := make([]catalogResponse, 0, len(methods))
	for _, m := range methods {
		out = append(out, toCatalogResponse(m.ID, m.Name, m.CreatedAt, m.UpdatedAt))
	}
	authapi.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	name, ok := h.decodeCatalogName(w, r)
	if !ok {
		return
	}
	m, err := h.store.CreatePaymentMethod(r.Context(), name, time.Now().UTC())
	if err != nil {
		if identity.IsConflict(err) {
			authapi.WriteError(w, http.StatusConflict, "name_in_use", "payment method already exists")
			return
		}
		h.fail(w, "ledger.payment_methods.create", err)
		return
	}
	authapi.WriteJSON(w, http.StatusCreated, toCatalogResponse(m.ID, m.Name, m.CreatedAt, m.UpdatedAt))
}

func (h *Handler) handleGetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	m, ok := authapi.ResourceFrom(r.Context()).(ledger.PaymentMethod)
	if !ok {
		h.fail(w, "ledger.payment_methods.get", errMissingResource)
		return
	}
	authapi.WriteJSON(w, http.StatusOK, toCatalogResponse(m.ID, m.Name, m.CreatedAt, m.UpdatedAt))
}

func (h *Handler) handleUpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	name, ok := h.decodeCatalogName(w, r)
	if !ok {
		return
	}
	m, err := h.store.UpdatePaymentMethod(r.Context(), r.PathValue("id"), name, time.Now().UTC())
	if err != nil {
		switch {
		case identity.IsNotFound(err):
			authapi.WriteError(w, http.StatusNotFound, "not_found", "payment method not found")
		case identity.IsConflict(err):
			authapi.WriteError(w, http.StatusConflict, "name_in_use", "payment method already exists")
		default:
			h.fail(w, "ledger.payment_methods.update", err)
		}
		return
	}
	authapi.WriteJSON(w, http.StatusOK, toCatalogResponse(m.ID, m.Name, m.CreatedAt, m.UpdatedAt))
}

func (h *Handler) handleDeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeletePaymentMethod(r.Context(), r.PathValue("id")); err != nil {
		if identity.IsNotFound(err) {
			authapi.WriteError(w, http.StatusNotFound, "not_found", "payment method not found")
			return
		}
		h.fail(w, "ledger.payment_methods.delete", err)
		return
	}
	authapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "Payment method deleted"})
}

// ---- expenses ----

func (h *Handler) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	p, _ := authapi.PrincipalFrom(r.Context())

	var (
		expenses []ledger.Expense
		err      error
	)
	if p.HasRole(identity.RoleAdmin) {
		expenses, err = h.store.ListExpenses(r.Context())
	} else {
		expenses, err = h.store.ListExpensesForUser(r.Context(), p.ID)
	}
	if err != nil {
		h.fail(w, "ledger.expenses.list", err)
		return
	}

	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	authapi.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p, _ := authapi.PrincipalFrom(r.Context())

	var req expenseRequest
	if err := authapi.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" || req.CategoryID == "" || req.Amount == nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_request", "title, amount and categoryId are required")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	now := time.Now().UTC()
	// Ownership comes from the session, never from the body.
	e, err := h.store.CreateExpense(r.Context(), ledger.CreateExpenseInput{
		UserID:          p.ID,
		CategoryID:      req.CategoryID,
		PaymentMethodID: req.PaymentMethodID,
		Title:           title,
		Amount:          *req.Amount,
		Date:            date,
		Notes:           req.Notes,
		Now:             now,
	})
	if err != nil {
		if identity.IsInvalidInput(err) {
			authapi.WriteError(w, http.StatusBadRequest, "invalid_request", "unknown category or payment method")
			return
		}
		h.fail(w, "ledger.expenses.create", err)
		return
	}

	authapi.WriteJSON(w, http.StatusCreated, toExpenseResponse(e))
}

func (h *Handler) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, ok := authapi.ResourceFrom(r.Context()).(ledger.Expense)
	if !ok {
		h.fail(w, "ledger.expenses.get", errMissingResource)
		return
	}
	authapi.WriteJSON(w, http.StatusOK, toExpenseResponse(e))
}

func (h *Handler) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseUpdateRequest
	if err := authapi.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	in := ledger.UpdateExpenseInput{
		ID:              r.PathValue("id"),
		CategoryID:      req.CategoryID,
		PaymentMethodID: req.PaymentMethodID,
		Title:           req.Title,
		Amount:          req.Amount,
		Notes:           req.Notes,
		Now:             time.Now().UTC(),
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			authapi.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		in.Date = &date
	}

	e, err := h.store.UpdateExpense(r.Context(), in)
	if err != nil {
		switch {
		case identity.IsNotFound(err):
			authapi.WriteError(w, http.StatusNotFound, "not_found", "expense not found")
		case identity.IsInvalidInput(err):
			authapi.WriteError(w, http.StatusBadRequest, "invalid_request", "unknown category or payment method")
		default:
			h.fail(w, "ledger.expenses.update", err)
		}
		return
	}

	authapi.WriteJSON(w, http.StatusOK, toExpenseResponse(e))
}

func (h *Handler) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteExpense(r.Context(), r.PathValue("id")); err != nil {
		if identity.IsNotFound(err) {
			authapi.WriteError(w, http.StatusNotFound, "not_found", "expense not found")
			return
		}
		h.fail(w, "ledger.expenses.delete", err)
		return
	}
	authapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "Expense deleted"})
}

// ---- helpers ----

var errMissingResource = &missingResourceError{}

type missingResourceError struct{}

func (*missingResourceError) Error() string { return "resource missing from request context" }

func (h *Handler) decodeCatalogName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req catalogRequest
	if err := authapi.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return "", false
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return "", false
	}
	return name, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.log.Error(op, "err", err)
	authapi.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
}
