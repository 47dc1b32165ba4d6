package assist

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"spendsense/cmd/identity"
	authapi "spendsense/cmd/internal/auth/api"
	"spendsense/cmd/internal/ledger"
)

const categoryCacheTTL = 5 * time.Minute

// Handler serves the assistant endpoints. predictor and assistant may be
// nil, in which case the corresponding route answers 503.
type Handler struct {
	log       *slog.Logger
	store     ledger.Store
	auth      *authapi.Handler
	predictor CategoryPredictor
	assistant Assistant

	maxBodyBytes int64

	// The catalog changes rarely; predictions reuse a short-lived snapshot.
	mu         sync.Mutex
	categories []ledger.Category
	fetchedAt  time.Time
}

func NewHandler(log *slog.Logger, store ledger.Store, auth *authapi.Handler, predictor CategoryPredictor, assistant Assistant, maxBodyBytes int64) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &Handler{
		log:          log,
		store:        store,
		auth:         auth,
		predictor:    predictor,
		assistant:    assistant,
		maxBodyBytes: maxBodyBytes,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	member := h.auth.Guard(identity.AnyOf(identity.RoleUser, identity.RoleAdmin), nil)
	mux.Handle("POST /api/predict-category", member(http.HandlerFunc(h.handlePredict)))
	mux.Handle("POST /api/chat", member(http.HandlerFunc(h.handleChat)))
}

type predictRequest struct {
	Text string `json:"text"`
}

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	if h.predictor == nil {
		authapi.WriteError(w, http.StatusServiceUnavailable, "assistant_unconfigured", "category prediction is not configured")
		return
	}

	var req predictRequest
	if err := authapi.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	categories, err := h.cachedCategories(r)
	if err != nil {
		h.log.Error("assist.predict.categories.fail", "err", err)
		authapi.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	prediction, err := h.predictor.Predict(r.Context(), text, categories)
	if err != nil {
		h.log.Error("assist.predict.fail", "err", err)
		authapi.WriteError(w, http.StatusInternalServerError, "server_error", "failed to get a prediction")
		return
	}

	authapi.WriteJSON(w, http.StatusOK, prediction)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if h.assistant == nil {
		authapi.WriteError(w, http.StatusServiceUnavailable, "assistant_unconfigured", "the assistant is not configured")
		return
	}

	var req chatRequest
	if err := authapi.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_request", "question is required")
		return
	}

	// The assistant only ever sees the asking user's own rows.
	p, _ := authapi.PrincipalFrom(r.Context())
	expenses, err := h.store.ListExpensesForUser(r.Context(), p.ID)
	if err != nil {
		h.log.Error("assist.chat.expenses.fail", "err", err)
		authapi.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	answer, err := h.assistant.Answer(r.Context(), question, expenses)
	if err != nil {
		h.log.Error("assist.chat.fail", "err", err)
		authapi.WriteError(w, http.StatusInternalServerError, "server_error", "failed to get an answer")
		return
	}

	authapi.WriteJSON(w, http.StatusOK, chatResponse{Response: answer})
}

func (h *Handler) cachedCategories(r *http.Request) ([]ledger.Category, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	if h.categories != nil && now.Sub(h.fetchedAt) < categoryCacheTTL {
		return h.categories, nil
	}

	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		return nil, err
	}
	h.categories = categories
	h.fetchedAt = now
	return categories, nil
}
