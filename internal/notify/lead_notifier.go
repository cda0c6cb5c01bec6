package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/itayost/barber-shem-tov-sub000/internal/leads"
	"github.com/itayost/barber-shem-tov-sub000/pkg/logging"
)

// LeadNotifierConfig configures staff notifications for new leads.
type LeadNotifierConfig struct {
	Recipients  []string
	AcademyName string
	Region      string
	Location    *time.Location
}

// LeadNotifier emails the academy staff when a lead is accepted.
type LeadNotifier struct {
	email       EmailSender
	recipients  []string
	academyName string
	region      string
	location    *time.Location
	logger      *logging.Logger
}

// NewLeadNotifier creates a notifier. With no sender or no recipients it is a no-op.
func NewLeadNotifier(email EmailSender, cfg LeadNotifierConfig, logger *logging.Logger) *LeadNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	recipients := make([]string, 0, len(cfg.Recipients))
	for _, r := range cfg.Recipients {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	name := strings.TrimSpace(cfg.AcademyName)
	if name == "" {
		name = defaultFromName
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &LeadNotifier{
		email:       email,
		recipients:  recipients,
		academyName: name,
		region:      cfg.Region,
		location:    loc,
		logger:      logger,
	}
}

// NotifyNewLead sends one email per recipient. Every recipient is attempted;
// the returned error joins the individual failures.
func (n *LeadNotifier) NotifyNewLead(ctx context.Context, lead *leads.Lead) error {
	if lead == nil {
		return errors.New("notify: lead is nil")
	}
	if n.email == nil || len(n.recipients) == 0 {
		n.logger.Debug("notify: lead notifications disabled", "lead_id", lead.ID)
		return nil
	}

	msg := n.buildMessage(lead)
	var errs []error
	for _, recipient := range n.recipients {
		msg.To = recipient
		if err := n.email.Send(ctx, msg); err != nil {
			n.logger.Error("notify: failed to send lead email", "error", err, "to", recipient, "lead_id", lead.ID)
			errs = append(errs, fmt.Errorf("notify: %s: %w", recipient, err))
			continue
		}
		n.logger.Info("notify: lead email sent", "to", recipient, "lead_id", lead.ID)
	}
	return errors.Join(errs...)
}

func (n *LeadNotifier) buildMessage(lead *leads.Lead) EmailMessage {
	phone := FormatE164(lead.Phone, n.region)
	whatsapp := WhatsAppLink(lead.Phone, n.region)
	received := lead.CreatedAt.In(n.location).Format("January 2, 2006 at 15:04")
	source := lead.Source
	if source == "" {
		source = "unknown"
	}

	subject := fmt.Sprintf("New enrollment lead - %s (%s)", lead.Name, lead.Course)

	var body strings.Builder
	fmt.Fprintf(&body, "A new prospective student left their details.\n\n")
	fmt.Fprintf(&body, "Name: %s\nCity: %s\nAge: %s\nPhone: %s\n", lead.Name, lead.City, formatAge(lead.Age), phone)
	fmt.Fprintf(&body, "Course: %s\nSource: %s\nReceived: %s\n", lead.Course, source, received)
	if whatsapp != "" {
		fmt.Fprintf(&body, "WhatsApp: %s\n", whatsapp)
	}
	fmt.Fprintf(&body, "\n- %s", n.academyName)

	rows := [][2]string{
		{"Name", lead.Name},
		{"City", lead.City},
		{"Age", formatAge(lead.Age)},
		{"Phone", phone},
		{"Course", lead.Course},
		{"Source", source},
		{"Received", received},
	}
	var table strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&table, `<tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>%s:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>`,
			row[0], html.EscapeString(row[1]))
	}
	cta := ""
	if whatsapp != "" {
		cta = fmt.Sprintf(`<p><a href="%s">Reply on WhatsApp</a></p>`, whatsapp)
	}
	htmlBody := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2>New enrollment lead</h2>
<table style="border-collapse: collapse; margin: 20px 0;">%s</table>
%s<p style="color: #6b7280; font-size: 12px; margin-top: 20px;">- %s</p>
</div>`, table.String(), cta, html.EscapeString(n.academyName))

	return EmailMessage{Subject: subject, Body: body.String(), HTML: htmlBody}
}

func formatAge(age float64) string {
	if age == float64(int(age)) {
		return fmt.Sprintf("%d", int(age))
	}
	return fmt.Sprintf("%.1f", age)
}

var _ leads.Notifier = (*LeadNotifier)(nil)
