package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/finance-dashboard-be/internal/auth"
	"github.com/hongminglow/finance-dashboard-be/internal/http/respond"
	"github.com/hongminglow/finance-dashboard-be/internal/metrics"
	"github.com/hongminglow/finance-dashboard-be/internal/models"
)

// Client-facing messages for rejected tokens.
const (
	MsgNoToken      = "No token, authorization denied"
	MsgTokenExpired = "Token has expired"
	MsgTokenInvalid = "Token is not valid"
	MsgServerError  = "Server error"
)

// Resolver turns a bearer token into the user it names.
type Resolver interface {
	Resolve(ctx context.Context, token string) (models.User, error)
}

// Authorizer guards routes with bearer tokens.
type Authorizer struct {
	resolver Resolver
	log      *zap.Logger
	metrics  *metrics.Registry
}

// NewAuthorizer builds an Authorizer. m may be nil.
func NewAuthorizer(resolver Resolver, log *zap.Logger, m *metrics.Registry) *Authorizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Authorizer{resolver: resolver, log: log, metrics: m}
}

// RequireAuth rejects requests without a valid token and stores the
// resolved user in the request context otherwise.
func (a *Authorizer) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.resolver.Resolve(r.Context(), BearerToken(r))
		if err != nil {
			status, msg, reason := classify(err)
			a.reject(reason)
			if status == http.StatusInternalServerError {
				a.log.Error("resolve token", zap.Error(err), zap.String("path", r.URL.Path))
			}
			respond.Error(w, status, msg)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}

// OptionalAuth attaches the user when a valid token is present and
// otherwise continues anonymously.
func (a *Authorizer) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := a.resolver.Resolve(r.Context(), token)
		if err != nil {
			a.log.Debug("optional auth ignored token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}

func (a *Authorizer) reject(reason string) {
	if a.metrics != nil {
		a.metrics.TokenRejections.WithLabelValues(reason).Inc()
	}
}

// BearerToken returns the Authorization header with any "Bearer " prefix
// removed.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.EqualFold(h, "bearer") {
		return ""
	}
	if len(h) >= 7 && strings.EqualFold(h[:7], "bearer ") {
		h = h[7:]
	}
	return strings.TrimSpace(h)
}

func classify(err error) (status int, msg, reason string) {
	switch {
	case errors.Is(err, auth.ErrNoToken):
		return http.StatusUnauthorized, MsgNoToken, "missing"
	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, MsgTokenExpired, "expired"
	case errors.Is(err, auth.ErrTokenMalformed):
		return http.StatusUnauthorized, MsgTokenInvalid, "invalid"
	default:
		return http.StatusInternalServerError, MsgServerError, "error"
	}
}
