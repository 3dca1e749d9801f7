package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendgridEmailService struct {
	apiKey     string
	from       string
	fromName   string
	adminEmail string
}

func NewEmailService(apiKey, from, fromName, adminEmail string) EmailService {
	return &sendgridEmailService{
		apiKey:     apiKey,
		from:       from,
		fromName:   fromName,
		adminEmail: adminEmail,
	}
}

func (s *sendgridEmailService) SendEventNotification(ctx context.Context, toEmail, toName, subject, body string) error {
	return s.send(toEmail, toName, subject, body)
}

func (s *sendgridEmailService) SendAdminAlert(ctx context.Context, subject, body string) error {
	if s.adminEmail == "" {
		return nil
	}
	return s.send(s.adminEmail, "Administrator", subject, body)
}

func (s *sendgridEmailService) send(toEmail, toName, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.from)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, body, body)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

// noopDirectory is used when no external directory is wired; email
// dispatch is skipped and only the notification outbox is written.
type noopDirectory struct{}

func NewNoopDirectory() Directory {
	return noopDirectory{}
}

func (noopDirectory) Lookup(ctx context.Context, userID int64) (string, string, error) {
	return "", "", nil
}
