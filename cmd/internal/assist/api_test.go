package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"spendsense/cmd/identity"
	authapi "spendsense/cmd/internal/auth/api"
	"spendsense/cmd/internal/auth/session"
	"spendsense/cmd/internal/ledger"
	"spendsense/cmd/security/password"
)

// stubUsers is the minimal identity.Store the auth handler needs for these
// tests: one fixed user that can log in.
type stubUsers struct {
	user identity.User
}

func (s *stubUsers) CreateUser(_ context.Context, _ identity.CreateUserInput) (identity.User, error) {
	return identity.User{}, identity.ConflictError{Op: "stub.create_user", Field: "email"}
}

func (s *stubUsers) GetUserByID(_ context.Context, id string) (identity.User, error) {
	if id != s.user.ID {
		return identity.User{}, identity.NotFoundError{Op: "stub.get_user", Resource: "user"}
	}
	return s.user, nil
}

func (s *stubUsers) GetUserByEmail(_ context.Context, email string) (identity.User, error) {
	if identity.NormalizeEmail(email) != s.user.EmailNorm {
		return identity.User{}, identity.NotFoundError{Op: "stub.get_user_by_email", Resource: "user"}
	}
	return s.user, nil
}

func (s *stubUsers) ListUsers(_ context.Context) ([]identity.User, error) {
	return []identity.User{s.user}, nil
}

func (s *stubUsers) UpdateUser(_ context.Context, _ identity.UpdateUserInput) (identity.User, error) {
	return identity.User{}, identity.NotFoundError{Op: "stub.update_user", Resource: "user"}
}

func (s *stubUsers) DeleteUser(_ context.Context, _ string) error {
	return identity.NotFoundError{Op: "stub.delete_user", Resource: "user"}
}

func (s *stubUsers) PrincipalByID(_ context.Context, id string) (identity.Principal, error) {
	if id != s.user.ID {
		return identity.Principal{}, identity.NotFoundError{Op: "stub.principal", Resource: "user"}
	}
	return identity.Principal{ID: s.user.ID, Roles: s.user.Roles}, nil
}

type apiEnv struct {
	mux    *http.ServeMux
	store  *ledger.InMemoryStore
	userID string
	access *http.Cookie
}

func newAPIEnv(t *testing.T, predictor CategoryPredictor, assistant Assistant) *apiEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	users := &stubUsers{user: identity.User{
		ID:           "user-1",
		Name:         "Alice",
		Email:        "alice@example.com",
		EmailNorm:    "alice@example.com",
		PasswordHash: string(hash),
		Roles:        []string{identity.RoleUser},
	}}

	sessCfg := session.DefaultConfig()
	sessCfg.Secret = []byte("0123456789abcdef0123456789abcdef")
	tokens, err := session.NewHMACManager(sessCfg)
	if err != nil {
		t.Fatalf("NewHMACManager: %v", err)
	}
	svc := session.NewService(sessCfg, session.NewInMemoryStore(), tokens, users)

	pw := password.DefaultConfig()
	pw.Cost = bcrypt.MinCost

	auth, err := authapi.NewHandler(nil, authapi.Config{MaxBodyBytes: 1 << 20}, pw, users, svc)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	store := ledger.NewInMemoryStore()
	h := NewHandler(nil, store, auth, predictor, assistant, 1<<20)

	mux := http.NewServeMux()
	auth.Register(mux)
	h.Register(mux)

	env := &apiEnv{mux: mux, store: store, userID: users.user.ID}

	w := env.do(t, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"s3cret-pass"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == authapi.AccessCookieName {
			env.access = c
		}
	}
	if env.access == nil {
		t.Fatalf("no access cookie in login response")
	}
	return env
}

func (e *apiEnv) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, r)
	return w
}

func apiErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body, err)
	}
	return resp.Error.Code
}

func TestAssistRoutes_Unconfigured(t *testing.T) {
	env := newAPIEnv(t, nil, nil)

	for _, path := range []string{"/api/predict-category", "/api/chat"} {
		w := env.do(t, http.MethodPost, path, `{"text":"lunch","question":"?"}`, env.access)
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: status = %d", path, w.Code)
		}
		if code := apiErrorCode(t, w); code != "assistant_unconfigured" {
			t.Fatalf("%s: code = %q", path, code)
		}
	}
}

func TestAssistRoutes_RequireAuth(t *testing.T) {
	env := newAPIEnv(t, nil, nil)

	if w := env.do(t, http.MethodPost, "/api/predict-category", `{"text":"lunch"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous predict status = %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/chat", `{"question":"?"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous chat status = %d", w.Code)
	}
}

func TestPredictEndpoint(t *testing.T) {
	stub := &stubCompleter{reply: `{"categoryId":"cat-1","confidence":0.9}`}
	env := newAPIEnv(t, NewPromptPredictor(stub), nil)

	cat, err := env.store.CreateCategory(context.Background(), "Food", time.Now())
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	stub.reply = fmt.Sprintf(`{"categoryId":%q,"confidence":0.9}`, cat.ID)

	w := env.do(t, http.MethodPost, "/api/predict-category", `{"text":"lunch at the deli"}`, env.access)
	if w.Code != http.StatusOK {
		t.Fatalf("predict status = %d, body %s", w.Code, w.Body)
	}
	var got Prediction
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode prediction: %v", err)
	}
	if got.CategoryID != cat.ID || got.CategoryName != "Food" || got.Confidence != 0.9 {
		t.Fatalf("prediction = %+v", got)
	}
	if !strings.Contains(stub.lastPrompt, "lunch at the deli") {
		t.Fatalf("prompt missing description: %q", stub.lastPrompt)
	}

	if w := env.do(t, http.MethodPost, "/api/predict-category", `{"text":"  "}`, env.access); w.Code != http.StatusBadRequest {
		t.Fatalf("blank text status = %d", w.Code)
	}
}

func TestChatEndpoint(t *testing.T) {
	stub := &stubCompleter{reply: "You spent 42.50 on groceries."}
	env := newAPIEnv(t, nil, NewPromptAssistant(stub))

	cat, err := env.store.CreateCategory(context.Background(), "Food", time.Now())
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	_, err = env.store.CreateExpense(context.Background(), ledger.CreateExpenseInput{
		UserID:     env.userID,
		CategoryID: cat.ID,
		Title:      "Weekly shop",
		Amount:     42.5,
		Date:       time.Now(),
		Now:        time.Now(),
	})
	if err != nil {
		t.Fatalf("seed expense: %v", err)
	}
	// A row owned by someone else must never reach the prompt.
	_, err = env.store.CreateExpense(context.Background(), ledger.CreateExpenseInput{
		UserID:     "someone-else",
		CategoryID: cat.ID,
		Title:      "Private dinner",
		Amount:     99,
		Date:       time.Now(),
		Now:        time.Now(),
	})
	if err != nil {
		t.Fatalf("seed foreign expense: %v", err)
	}

	w := env.do(t, http.MethodPost, "/api/chat", `{"question":"how much on groceries?"}`, env.access)
	if w.Code != http.StatusOK {
		t.Fatalf("chat status = %d, body %s", w.Code, w.Body)
	}
	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Response == "" {
		t.Fatalf("body = %s (err %v)", w.Body, err)
	}

	if !strings.Contains(stub.lastPrompt, "Weekly shop") {
		t.Fatalf("prompt missing the user's expense: %q", stub.lastPrompt)
	}
	if strings.Contains(stub.lastPrompt, "Private dinner") {
		t.Fatalf("prompt leaked a foreign expense: %q", stub.lastPrompt)
	}
}
