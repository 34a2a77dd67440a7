package dto

import (
	"time"

	"github.com/hongminglow/finance-dashboard-be/internal/models"
)

type RegisterRequest struct {
	Username        string `json:"username"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

type IdentityResponse struct {
	User models.User `json:"user"`
}

type DashboardResponse struct {
	Greeting      string       `json:"greeting"`
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
}
