package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailSender sends email through the Gmail API on behalf of the service
// account's mailbox, authenticated with an OAuth refresh token.
type GmailSender struct {
	service *gmail.Service
	from    string
}

// NewGmailSender builds a Gmail API client from OAuth client credentials
// and a refresh token
func NewGmailSender(ctx context.Context, clientID, clientSecret, refreshToken, from string) (*GmailSender, error) {
	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}

	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now(), // force refresh on first use
	}

	service, err := gmail.NewService(ctx, option.WithTokenSource(config.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &GmailSender{
		service: service,
		from:    from,
	}, nil
}

// Send dispatches one email as an RFC 822 message via users.messages.send
func (s *GmailSender) Send(ctx context.Context, to, subject, body string) error {
	raw := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		s.from, to, subject, body,
	)

	message := &gmail.Message{
		Raw: base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(raw)),
	}

	start := time.Now()
	if _, err := s.service.Users.Messages.Send("me", message).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("Email dispatched",
		"to", to,
		"subject", subject,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}
