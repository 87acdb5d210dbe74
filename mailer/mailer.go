// Package mailer wraps sendgrid behind the Notifier interface. Sends are
// best effort: callers log failures and move on, nothing here retries.
package mailer

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Notifier delivers one email to one recipient.
type Notifier interface {
	Send(toEmail, toName, subject, htmlContent, plainText string) error
}

// SendgridNotifier implements Notifier with the sendgrid API.
type SendgridNotifier struct {
	apiKey    string
	fromName  string
	fromEmail string
}

// NewSendgridNotifier creates a notifier sending from the given address.
func NewSendgridNotifier(apiKey, fromName, fromEmail string) *SendgridNotifier {
	return &SendgridNotifier{
		apiKey:    apiKey,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// Send delivers a single email through sendgrid.
func (n *SendgridNotifier) Send(toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail(n.fromName, n.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(n.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}
	return nil
}
