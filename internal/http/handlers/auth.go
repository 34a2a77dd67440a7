package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/finance-dashboard-be/internal/auth"
	"github.com/hongminglow/finance-dashboard-be/internal/http/respond"
	"github.com/hongminglow/finance-dashboard-be/internal/metrics"
	"github.com/hongminglow/finance-dashboard-be/internal/models/dto"
)

// AuthHandler owns the register, login and identity endpoints.
type AuthHandler struct {
	svc     *auth.Service
	log     *zap.Logger
	metrics *metrics.Registry
}

// NewAuthHandler constructs the handler. m may be nil.
func NewAuthHandler(svc *auth.Service, log *zap.Logger, m *metrics.Registry) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{svc: svc, log: log, metrics: m}
}

// HandleRegister creates an account. It does not issue a token.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.observeRegister("bad_request")
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	_, err := h.svc.Register(r.Context(), auth.RegisterInput{
		Username:        req.Username,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		status, msg, outcome := registerFailure(err)
		h.observeRegister(outcome)
		if status == http.StatusInternalServerError {
			h.log.Error("register failed", zap.Error(err))
		}
		respond.Error(w, status, msg)
		return
	}

	h.observeRegister("success")
	respond.JSON(w, http.StatusCreated, "User registered", nil)
}

// HandleLogin exchanges email and password for a bearer token.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.observeLogin("bad_request")
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.observeLogin("invalid_credentials")
			respond.Error(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.observeLogin("error")
		h.log.Error("login failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.observeLogin("success")
	respond.JSON(w, http.StatusOK, "Login successful", dto.LoginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      res.User,
	})
}

// HandleProtected greets the authenticated caller.
func (h *AuthHandler) HandleProtected(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}
	respond.JSON(w, http.StatusOK, fmt.Sprintf("Welcome %s", user.Email), dto.IdentityResponse{User: user})
}

// HandleMe returns the authenticated caller's profile.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.IdentityResponse{User: user})
}

func registerFailure(err error) (status int, msg, outcome string) {
	switch {
	case errors.Is(err, auth.ErrPasswordMismatch):
		return http.StatusBadRequest, "Passwords do not match", "invalid"
	case errors.Is(err, auth.ErrInvalidInput):
		return http.StatusBadRequest, err.Error(), "invalid"
	case errors.Is(err, auth.ErrEmailInUse):
		return http.StatusConflict, "Email already in use", "conflict"
	case errors.Is(err, auth.ErrUsernameInUse):
		return http.StatusConflict, "Username already taken", "conflict"
	default:
		return http.StatusInternalServerError, "Server error", "error"
	}
}

func (h *AuthHandler) observeRegister(outcome string) {
	if h.metrics != nil {
		h.metrics.Register.WithLabelValues(outcome).Inc()
	}
}

func (h *AuthHandler) observeLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.Login.WithLabelValues(outcome).Inc()
	}
}
