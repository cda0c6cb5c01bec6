package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/itayost/barber-shem-tov-sub000/pkg/logging"
)

const sendGridMailPath = "/v3/mail/send"

// SendGridConfig configures the SendGrid v3 mail client.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// Host replaces https://api.sendgrid.com; tests point it at httptest.
	Host string
}

// SendGridSender delivers lead emails through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   Mailbox
	logger *logging.Logger
}

// NewSendGridSender returns nil when no API key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{
		client: newSendGridClient(cfg.APIKey, cfg.Host),
		from:   newMailbox(cfg.FromName, cfg.FromEmail),
		logger: logger,
	}
}

func newSendGridClient(apiKey, host string) *sendgrid.Client {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return sendgrid.NewSendClient(apiKey)
	}
	req := sendgrid.GetRequest(apiKey, sendGridMailPath, host)
	req.Method = http.MethodPost
	return &sendgrid.Client{Request: req}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	if err := msg.validate(); err != nil {
		return err
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(s.from.Name, s.from.Address),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		msg.Body,
		msg.htmlOrText(),
	)
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("notify: sendgrid request: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		s.logger.Warn("sendgrid rejected lead email", "status", resp.StatusCode, "body", resp.Body)
		return fmt.Errorf("notify: sendgrid status %d", resp.StatusCode)
	}
	s.logger.Debug("lead email accepted by sendgrid", "to", msg.To, "status", resp.StatusCode)
	return nil
}

var _ EmailSender = (*SendGridSender)(nil)
