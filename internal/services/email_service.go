package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"sync"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ReminderSubject is the subject line of every reminder email
const ReminderSubject = "⏰ Smart Reminder"

// mailClient is the part of the SendGrid client the email service uses
type mailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// EmailConfig holds SendGrid credentials and sender identity
type EmailConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

// EmailService sends reminders through SendGrid
type EmailService struct {
	client    mailClient
	fromEmail string
	fromName  string
	timeout   time.Duration
	configErr error
	// the SendGrid client stores the request body on itself, one send at a time
	mu sync.Mutex
}

// NewEmailService creates the SendGrid notifier. Missing credentials are not
// an error here, every send reports them as a configuration failure instead.
func NewEmailService(cfg EmailConfig) *EmailService {
	return newEmailService(cfg, sendgrid.NewSendClient(cfg.APIKey))
}

func newEmailService(cfg EmailConfig, client mailClient) *EmailService {
	var configErr error
	switch {
	case cfg.APIKey == "":
		configErr = errors.New("SENDGRID_API_KEY is not configured")
	case cfg.FromEmail == "":
		configErr = errors.New("SENDGRID_FROM_EMAIL is not configured")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &EmailService{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		timeout:   timeout,
		configErr: configErr,
	}
}

// Configured reports whether credentials are present
func (s *EmailService) Configured() error {
	return s.configErr
}

// Send implements Notifier
func (s *EmailService) Send(ctx context.Context, recipient, message string) error {
	if s.configErr != nil {
		return ConfigurationError(s.configErr)
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", recipient)
	plainContent, htmlContent := reminderBodies(message)
	email := mail.NewSingleEmail(from, ReminderSubject, to, plainContent, htmlContent)

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.mu.Lock()
	response, err := s.client.SendWithContext(sendCtx, email)
	s.mu.Unlock()

	if err != nil {
		return TransientError(fmt.Errorf("send to %s: %w", recipient, err))
	}
	return classifyResponse(recipient, response)
}

// classifyResponse maps a SendGrid HTTP response onto a notify error
func classifyResponse(recipient string, response *rest.Response) error {
	if response == nil {
		return &NotifyError{Kind: KindUnknown, Err: fmt.Errorf("send to %s: empty response", recipient)}
	}

	status := response.StatusCode
	if status >= 200 && status < 300 {
		return nil
	}

	err := fmt.Errorf("failed to send email to %s: %d %s", recipient, status, response.Body)
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return TransientError(err)
	case status == http.StatusTooManyRequests, status >= 500:
		return TransientError(err)
	default:
		return &NotifyError{Kind: KindUnknown, Err: err}
	}
}

func reminderBodies(message string) (string, string) {
	plainContent := fmt.Sprintf("Hello,\n\nThis is your reminder:\n\n  %s\n\n--\nSent automatically by SmartReminder", message)
	htmlContent := fmt.Sprintf("<p>Hello,</p><p>This is your reminder:</p><blockquote>%s</blockquote><p>--<br>Sent automatically by SmartReminder</p>",
		html.EscapeString(message))
	return plainContent, htmlContent
}
