package leads

import (
	"context"

	"github.com/itayost/barber-shem-tov-sub000/internal/tracking"
	"github.com/itayost/barber-shem-tov-sub000/pkg/logging"
)

// GenericFailureMessage is shown when the submission failed without a usable remote message.
const GenericFailureMessage = "We could not send your details. Please try again in a moment or reach us on WhatsApp."

// EventTracker records enrollment-intent events without reporting failures.
type EventTracker interface {
	Track(ctx context.Context, method tracking.Method, source tracking.Source, opts ...tracking.TrackOption)
}

// Submitter delivers a validated record.
type Submitter interface {
	Submit(ctx context.Context, rec LeadRecord) Result
}

// Controller runs the enrollment form flow: validate, track, submit.
type Controller struct {
	tracker EventTracker
	client  Submitter
	logger  *logging.Logger
}

// NewController wires the form flow. tracker may be nil.
func NewController(tracker EventTracker, client Submitter, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Default()
	}
	return &Controller{tracker: tracker, client: client, logger: logger}
}

// Outcome is what the form should show after a submit attempt.
type Outcome struct {
	Submitted   bool        `json:"submitted"`
	FieldErrors FieldErrors `json:"fieldErrors,omitempty"`
	Result      Result      `json:"result"`
	UserMessage string      `json:"userMessage,omitempty"`
}

// Submit validates the form and, when valid, tracks a form event and posts the lead.
// Invalid input never reaches the tracker or the client.
func (c *Controller) Submit(ctx context.Context, in FormInput, course string, source tracking.Source) Outcome {
	validation := Validate(in)
	if !validation.Valid {
		return Outcome{FieldErrors: validation.Errors}
	}
	rec := validation.Record.WithCourse(course).WithSource(string(source))

	if c.tracker != nil {
		var opts []tracking.TrackOption
		if rec.Course != DefaultCourse {
			opts = append(opts, tracking.WithCourse(rec.Course))
		}
		c.tracker.Track(ctx, tracking.MethodForm, source, opts...)
	}

	res := c.client.Submit(ctx, rec)
	out := Outcome{Submitted: res.Success, Result: res}
	if !res.Success {
		out.UserMessage = userMessage(res)
		c.logger.Warn("lead submission failed", "kind", res.Kind.String(), "error", res.Err)
	}
	return out
}

func userMessage(res Result) string {
	if res.Kind == KindRemoteRejection && res.Message != "" {
		return res.Message
	}
	return GenericFailureMessage
}
