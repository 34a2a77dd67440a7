package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/finance-dashboard-be/internal/auth"
	"github.com/hongminglow/finance-dashboard-be/internal/models"
	"github.com/hongminglow/finance-dashboard-be/internal/testutil"
	"github.com/hongminglow/finance-dashboard-be/internal/transactions"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newAuthHandler(t *testing.T) (*AuthHandler, *auth.Service, *testutil.UserStore) {
	t.Helper()
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost, 2)
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager("secret", "test")
	require.NoError(t, err)
	store := testutil.NewUserStore()
	svc, err := auth.NewService(store, hasher, tokens, time.Hour, nil)
	require.NoError(t, err)
	return NewAuthHandler(svc, nil, nil), svc, store
}

func post(h http.HandlerFunc, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestHandleRegister(t *testing.T) {
	h, _, store := newAuthHandler(t)

	rec, env := post(h.HandleRegister, `{"email":"a@b.com","password":"pw123","confirmPassword":"pw123"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User registered", env.Message)
	assert.Equal(t, 1, store.Len())

	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"duplicate", `{"email":"A@B.com","password":"x","confirmPassword":"x"}`, http.StatusConflict, "Email already in use"},
		{"mismatch", `{"email":"c@d.com","password":"x","confirmPassword":"y"}`, http.StatusBadRequest, "Passwords do not match"},
		{"bad json", `{"email":`, http.StatusBadRequest, "invalid JSON payload"},
		{"bad email", `{"email":"nope","password":"x","confirmPassword":"x"}`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := post(h.HandleRegister, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, env.Message)
			}
		})
	}
}

func TestHandleRegisterUsernameTaken(t *testing.T) {
	h, _, _ := newAuthHandler(t)

	rec, _ := post(h.HandleRegister, `{"username":"trader","email":"one@b.com","password":"x","confirmPassword":"x"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := post(h.HandleRegister, `{"username":"trader","email":"two@b.com","password":"x","confirmPassword":"x"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Username already taken", env.Message)
}

func TestHandleLogin(t *testing.T) {
	h, svc, store := newAuthHandler(t)
	_, err := svc.Register(context.Background(), auth.RegisterInput{Email: "a@b.com", Password: "pw123", ConfirmPassword: "pw123"})
	require.NoError(t, err)

	rec, env := post(h.HandleLogin, `{"email":"A@B.com ","password":"pw123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Token     string      `json:"token"`
		ExpiresAt time.Time   `json:"expiresAt"`
		User      models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.Token)
	assert.Equal(t, "a@b.com", data.User.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	for _, body := range []string{
		`{"email":"a@b.com","password":"wrong"}`,
		`{"email":"ghost@b.com","password":"pw123"}`,
		`{}`,
	} {
		rec, env := post(h.HandleLogin, body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, body)
		assert.Equal(t, "Invalid credentials", env.Message)
	}

	store.Err = errors.New("connection reset")
	rec, env = post(h.HandleLogin, `{"email":"a@b.com","password":"pw123"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server error", env.Message)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestHandleProtectedAndMe(t *testing.T) {
	h, _, _ := newAuthHandler(t)
	user := models.User{ID: "u1", Email: "a@b.com"}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithUser(req.Context(), user))

	rec := httptest.NewRecorder()
	h.HandleProtected(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome a@b.com")

	rec = httptest.NewRecorder()
	h.HandleMe(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"u1"`)

	rec = httptest.NewRecorder()
	h.HandleMe(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleDashboard(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithUser(req.Context(), models.User{ID: "u1", Email: "a@b.com", FirstName: "Ada"}))
	rec = httptest.NewRecorder()
	HandleDashboard(rec, req)
	assert.Contains(t, rec.Body.String(), "Welcome back, Ada")
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	h := NewHealthHandler(time.Now(), pingFunc(func(context.Context) error { return nil }))
	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	h = NewHealthHandler(time.Now(), pingFunc(func(context.Context) error { return errors.New("down") }))
	rec = httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"storage":"unreachable"`)
}

func newTransactionsHandler(t *testing.T) *TransactionsHandler {
	t.Helper()
	rows, err := transactions.SampleTransactions()
	require.NoError(t, err)
	return NewTransactionsHandler(transactions.NewStaticRepository(rows), nil)
}

func TestHandleTransactionsList(t *testing.T) {
	h := newTransactionsHandler(t)

	rec := httptest.NewRecorder()
	h.HandleList(rec, httptest.NewRequest(http.MethodGet, "/?status=pending&columns=id,amount", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.JSONEq(t, `{"columns":["id","amount"],"count":2,"rows":[{"id":"6","amount":-1200.5},{"id":"3","amount":2100.75}]}`, string(env.Data))

	for _, target := range []string{"/?columns=secret", "/?startDate=yesterday", "/?minAmount=abc"} {
		rec := httptest.NewRecorder()
		h.HandleList(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

type failingRepo struct{}

func (failingRepo) ListTransactions(context.Context, transactions.Filter) ([]models.Transaction, error) {
	return nil, errors.New("db gone")
}

func TestHandleTransactionsRepositoryFailure(t *testing.T) {
	h := NewTransactionsHandler(failingRepo{}, nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db gone")
}

func TestHandleTransactionsExport(t *testing.T) {
	h := newTransactionsHandler(t)

	rec := httptest.NewRecorder()
	h.HandleExport(rec, httptest.NewRequest(http.MethodGet, "/?userId=user_001&columns=date,amount,status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="financial_transactions.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "date,amount,status\n2024-02-12,-450.25,Paid\n2024-01-15,1250.50,Paid\n", rec.Body.String())

	rec = httptest.NewRecorder()
	h.HandleExport(rec, httptest.NewRequest(http.MethodGet, "/?format=json&filename=q1&category=revenue&columns=id", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="q1.json"`, rec.Header().Get("Content-Disposition"))
	var got []map[string]string
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(rec.Body.Bytes()), &got))
	assert.Equal(t, []map[string]string{{"id": "7"}, {"id": "5"}, {"id": "3"}, {"id": "1"}}, got)

	rec = httptest.NewRecorder()
	h.HandleExport(rec, httptest.NewRequest(http.MethodGet, "/?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
