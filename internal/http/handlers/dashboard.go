package handlers

import (
	"fmt"
	"net/http"

	"github.com/hongminglow/finance-dashboard-be/internal/auth"
	"github.com/hongminglow/finance-dashboard-be/internal/http/respond"
	"github.com/hongminglow/finance-dashboard-be/internal/models/dto"
)

// HandleDashboard greets signed-in users by name and everyone else
// generically. Mounted behind OptionalAuth.
func HandleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respond.JSON(w, http.StatusOK, "ok", dto.DashboardResponse{Greeting: "Welcome to the finance dashboard"})
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.DashboardResponse{
		Greeting:      fmt.Sprintf("Welcome back, %s", user.DisplayName()),
		Authenticated: true,
		User:          &user,
	})
}
