package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dnadawa/Prkcar-Backend/internal/model"
	"github.com/dnadawa/Prkcar-Backend/internal/notify"
	"github.com/dnadawa/Prkcar-Backend/pkg/metrics"
)

// UserStore is the surface the account service needs from the user repository
type UserStore interface {
	DeleteByEmail(ctx context.Context, email string) error
}

// AccountService handles the companion app's account administration calls
type AccountService struct {
	users    UserStore
	notifier notify.Notifier
	metrics  *metrics.Metrics
}

// NewAccountService creates a new account service
func NewAccountService(users UserStore, notifier notify.Notifier, m *metrics.Metrics) *AccountService {
	return &AccountService{
		users:    users,
		notifier: notifier,
		metrics:  m,
	}
}

// SendCredentials emails login credentials to a newly created account
func (s *AccountService) SendCredentials(ctx context.Context, email, role, password string) error {
	body := fmt.Sprintf(
		"Welcome to Prkcar!\n\nAn account has been created for you.\n\nRole: %s\nEmail: %s\nPassword: %s\n\nPlease change your password after the first login.",
		role, email, password,
	)

	err := s.notifier.SendEmail(ctx, email, "Your Prkcar account", body)

	status := model.DeliveryDelivered
	if err != nil {
		status = model.DeliveryFailed
	}
	s.metrics.NotificationsSent.WithLabelValues(model.ChannelEmail, status).Inc()

	if err != nil {
		return fmt.Errorf("failed to send credentials: %w", err)
	}

	slog.Info("Credentials emailed", "email", email, "role", role)
	return nil
}

// DeleteUser removes a user account. A missing account is treated as already
// deleted.
func (s *AccountService) DeleteUser(ctx context.Context, email string) error {
	err := s.users.DeleteByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			slog.Info("Delete skipped, user already gone", "email", email)
			return nil
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("User deleted", "email", email)
	return nil
}
