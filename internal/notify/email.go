package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/itayost/barber-shem-tov-sub000/pkg/logging"
)

const defaultFromName = "Shem Tov Barber Academy"

// ErrNoRecipient is returned for a message without a To address.
var ErrNoRecipient = errors.New("notify: message has no recipient")

// EmailSender delivers one message. LeadNotifier only depends on this.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a single-recipient email. HTML is optional.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
}

func (m EmailMessage) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	return nil
}

// htmlOrText returns the HTML part, falling back to the text body.
func (m EmailMessage) htmlOrText() string {
	if m.HTML != "" {
		return m.HTML
	}
	return m.Body
}

// Mailbox is a display name plus address.
type Mailbox struct {
	Name    string
	Address string
}

func newMailbox(name, address string) Mailbox {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultFromName
	}
	return Mailbox{Name: name, Address: strings.TrimSpace(address)}
}

// String renders the RFC 5322 form, e.g. `Academy <desk@example.com>`.
func (m Mailbox) String() string {
	if m.Name == "" {
		return m.Address
	}
	return fmt.Sprintf("%s <%s>", m.Name, m.Address)
}

// StubEmailSender logs messages instead of sending them. It is the fallback
// when no provider credentials are configured.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.Info("email delivery disabled; dropping message", "to", msg.To, "subject", msg.Subject)
	return nil
}

var _ EmailSender = (*StubEmailSender)(nil)
