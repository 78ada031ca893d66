package notify

import "context"

// Notifier sends a message to a destination. Implementations return errors
// instead of panicking across the boundary, and perform exactly one provider
// call per invocation.
type Notifier interface {
	SendSMS(ctx context.Context, phone, body string) (sid string, err error)
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Service combines the SMS and email providers behind the Notifier interface
type Service struct {
	sms   *TwilioClient
	email *GmailSender
}

// NewService creates a Notifier backed by Twilio and Gmail
func NewService(sms *TwilioClient, email *GmailSender) *Service {
	return &Service{
		sms:   sms,
		email: email,
	}
}

// SendSMS dispatches one SMS and returns the provider delivery SID
func (s *Service) SendSMS(ctx context.Context, phone, body string) (string, error) {
	return s.sms.Send(ctx, phone, body)
}

// SendEmail dispatches one email
func (s *Service) SendEmail(ctx context.Context, to, subject, body string) error {
	return s.email.Send(ctx, to, subject, body)
}
