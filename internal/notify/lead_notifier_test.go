package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/itayost/barber-shem-tov-sub000/internal/leads"
	"github.com/itayost/barber-shem-tov-sub000/pkg/logging"
)

type mockEmailSender struct {
	sent   []EmailMessage
	failOn string // fail if To matches this
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if m.failOn != "" && msg.To == m.failOn {
		return errors.New("mock email error")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func sampleLead() *leads.Lead {
	return &leads.Lead{
		ID:        "lead-1",
		Name:      "Dana",
		City:      "Haifa",
		Age:       22,
		Phone:     "0521112222",
		Course:    "Barbering 101",
		Source:    "course_page",
		CreatedAt: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestLeadNotifier_SendsToEveryRecipient(t *testing.T) {
	sender := &mockEmailSender{}
	notifier := NewLeadNotifier(sender, LeadNotifierConfig{
		Recipients: []string{"owner@example.com", " ", "desk@example.com"},
		Region:     "IL",
	}, logging.Discard())

	if err := notifier.NotifyNewLead(context.Background(), sampleLead()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sender.sent))
	}
	if sender.sent[0].To != "owner@example.com" || sender.sent[1].To != "desk@example.com" {
		t.Errorf("unexpected recipients %q, %q", sender.sent[0].To, sender.sent[1].To)
	}

	msg := sender.sent[0]
	if !strings.Contains(msg.Subject, "Dana") || !strings.Contains(msg.Subject, "Barbering 101") {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	for _, want := range []string{"Phone: +972521112222", "City: Haifa", "Age: 22", "Source: course_page", "https://wa.me/972521112222", "March 1, 2026 at 10:30"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
	if !strings.Contains(msg.HTML, `href="https://wa.me/972521112222"`) {
		t.Errorf("html missing whatsapp link")
	}
}

func TestLeadNotifier_EscapesHTML(t *testing.T) {
	sender := &mockEmailSender{}
	notifier := NewLeadNotifier(sender, LeadNotifierConfig{Recipients: []string{"a@example.com"}}, logging.Discard())
	lead := sampleLead()
	lead.Name = "<script>x</script>"

	if err := notifier.NotifyNewLead(context.Background(), lead); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(sender.sent[0].HTML, "<script>") {
		t.Error("expected lead fields to be escaped in HTML")
	}
}

func TestLeadNotifier_PartialFailure(t *testing.T) {
	sender := &mockEmailSender{failOn: "owner@example.com"}
	notifier := NewLeadNotifier(sender, LeadNotifierConfig{
		Recipients: []string{"owner@example.com", "desk@example.com"},
	}, logging.Discard())

	err := notifier.NotifyNewLead(context.Background(), sampleLead())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "owner@example.com") {
		t.Errorf("error should name the failing recipient: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "desk@example.com" {
		t.Errorf("remaining recipients must still be attempted")
	}
}

func TestLeadNotifier_DisabledIsNoop(t *testing.T) {
	sender := &mockEmailSender{}
	if err := NewLeadNotifier(sender, LeadNotifierConfig{}, logging.Discard()).NotifyNewLead(context.Background(), sampleLead()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Error("expected no email without recipients")
	}
	if err := NewLeadNotifier(nil, LeadNotifierConfig{Recipients: []string{"a@example.com"}}, nil).NotifyNewLead(context.Background(), sampleLead()); err != nil {
		t.Fatalf("unexpected error without sender: %v", err)
	}
}

func TestLeadNotifier_NilLead(t *testing.T) {
	notifier := NewLeadNotifier(&mockEmailSender{}, LeadNotifierConfig{Recipients: []string{"a@example.com"}}, logging.Discard())
	if err := notifier.NotifyNewLead(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil lead")
	}
}
