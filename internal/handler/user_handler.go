package handler

import (
	"log/slog"
	"net/http"

	"github.com/dnadawa/Prkcar-Backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// UserHandler handles account administration routes
type UserHandler struct {
	accounts *service.AccountService
}

// NewUserHandler creates a new user handler
func NewUserHandler(accounts *service.AccountService) *UserHandler {
	return &UserHandler{
		accounts: accounts,
	}
}

// SendEmail handles POST /sendEmail: mails credentials to a new account
func (h *UserHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	fields, err := parseFields(r)
	if err != nil {
		slog.Warn("Malformed /sendEmail request", "error", err)
		writeFailed(w)
		return
	}

	if err := h.accounts.SendCredentials(r.Context(), fields["email"], fields["role"], fields["password"]); err != nil {
		slog.Error("Failed to email credentials", "error", err)
		writeFailed(w)
		return
	}

	writeStatus(w, statusSuccessful, nil)
}

// DeleteUser handles GET /deleteUser/{email}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	if err := h.accounts.DeleteUser(r.Context(), email); err != nil {
		slog.Error("Failed to delete user", "email", email, "error", err)
		writeFailed(w)
		return
	}

	writeStatus(w, statusDone, nil)
}
