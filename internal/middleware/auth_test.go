package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/finance-dashboard-be/internal/auth"
	"github.com/hongminglow/finance-dashboard-be/internal/metrics"
	"github.com/hongminglow/finance-dashboard-be/internal/models"
)

type stubResolver struct {
	tokens map[string]models.User
	err    error
	seen   []string
}

func (s *stubResolver) Resolve(_ context.Context, token string) (models.User, error) {
	s.seen = append(s.seen, token)
	if token == "" {
		return models.User{}, auth.ErrNoToken
	}
	if s.err != nil {
		return models.User{}, s.err
	}
	u, ok := s.tokens[token]
	if !ok {
		return models.User{}, fmt.Errorf("%w: unknown", auth.ErrTokenMalformed)
	}
	return u, nil
}

func identityHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_, _ = w.Write([]byte(u.Email))
}

func serve(h http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Message
}

func TestRequireAuth(t *testing.T) {
	resolver := &stubResolver{tokens: map[string]models.User{"good": {ID: "u1", Email: "a@b.com"}}}
	m := metrics.New()
	h := NewAuthorizer(resolver, nil, m).RequireAuth(http.HandlerFunc(identityHandler))

	tests := []struct {
		name   string
		header string
		status int
		msg    string
	}{
		{"missing header", "", http.StatusUnauthorized, MsgNoToken},
		{"bare scheme", "Bearer", http.StatusUnauthorized, MsgNoToken},
		{"scheme only with space", "Bearer   ", http.StatusUnauthorized, MsgNoToken},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, MsgTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.header)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, message(t, rec))
		})
	}

	for _, header := range []string{"Bearer good", "bearer good", "good"} {
		rec := serve(h, header)
		assert.Equal(t, http.StatusOK, rec.Code, header)
		assert.Equal(t, "a@b.com", rec.Body.String())
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.TokenRejections.WithLabelValues("missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenRejections.WithLabelValues("invalid")))
}

func TestRequireAuthExpiredAndStorageFailure(t *testing.T) {
	resolver := &stubResolver{err: auth.ErrTokenExpired}
	h := NewAuthorizer(resolver, nil, nil).RequireAuth(http.HandlerFunc(identityHandler))

	rec := serve(h, "Bearer old")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgTokenExpired, message(t, rec))

	resolver.err = fmt.Errorf("%w: db down", auth.ErrStorageUnavailable)
	rec = serve(h, "Bearer any")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, MsgServerError, message(t, rec))

	resolver.err = errors.New("surprise")
	rec = serve(h, "Bearer any")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestOptionalAuth(t *testing.T) {
	resolver := &stubResolver{tokens: map[string]models.User{"good": {ID: "u1", Email: "a@b.com"}}}
	h := NewAuthorizer(resolver, nil, nil).OptionalAuth(http.HandlerFunc(identityHandler))

	rec := serve(h, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, resolver.seen, "no lookup without a token")

	rec = serve(h, "Bearer broken")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(h, "Bearer good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.com", rec.Body.String())
}
