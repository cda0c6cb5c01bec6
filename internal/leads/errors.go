package leads

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrUnexpectedResponse is returned when the intake endpoint reply lacks a success flag
	ErrUnexpectedResponse = errors.New("leads: unexpected response from intake endpoint")

	// ErrRejected is wrapped by remote rejections
	ErrRejected = errors.New("leads: submission rejected by intake endpoint")
)

// Field validation messages.
const (
	MsgRequired = "Required"
	MsgInvalid  = "Invalid"
)

// FieldErrors maps a form field name to its validation message.
type FieldErrors map[string]string

// Error lists the failing fields in a stable order.
func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+f[field])
	}
	return "leads: invalid form: " + strings.Join(parts, ", ")
}

// ErrorKind classifies a failed submission.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	// KindTransport covers network failures, timeouts and unparsable replies.
	KindTransport
	// KindRemoteRejection means the endpoint answered success=false.
	KindRemoteRejection
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransport:
		return "transport_error"
	case KindRemoteRejection:
		return "remote_rejection"
	default:
		return "unknown"
	}
}

// SubmitError describes why a submission failed.
type SubmitError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *SubmitError) Error() string {
	msg := fmt.Sprintf("leads: submit %s", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Result is what a submission produced. It never carries a panic or an
// unclassified error: Kind says which branch failed.
type Result struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Kind    ErrorKind `json:"-"`
	Err     error     `json:"-"`
}

func (r Result) outcome() string {
	if r.Success {
		return "success"
	}
	return r.Kind.String()
}
