package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// EnrollmentEventName is the event name reported to generic analytics.
	EnrollmentEventName = "enrollment_click"
	// ConversionEventName is the fixed conversion event name.
	ConversionEventName = "Lead"
	// ConversionCurrency is the currency reported with conversion values.
	ConversionCurrency = "ILS"
)

// Sink receives every tracked event. Deliveries are fire-and-forget: the
// tracker calls Send on its own goroutine and only logs the returned error.
type Sink interface {
	Name() string
	Send(ctx context.Context, evt EnrollmentEvent) error
}

// EventRecorder is a generic page/event analytics backend.
type EventRecorder interface {
	RecordEvent(ctx context.Context, eventName string, properties map[string]any) error
}

// ConversionData is the payload attached to a conversion event.
type ConversionData struct {
	ContentName     string  `json:"content_name"`
	Value           float64 `json:"value"`
	Currency        string  `json:"currency"`
	ContentCategory string  `json:"content_category"`
}

// ConversionRecorder is an ad-conversion tracking backend.
type ConversionRecorder interface {
	RecordConversion(ctx context.Context, eventName string, data ConversionData) error
}

// EventSink forwards events to an EventRecorder.
type EventSink struct {
	name     string
	recorder EventRecorder
}

// NewEventSink names and wraps a recorder.
func NewEventSink(name string, recorder EventRecorder) *EventSink {
	return &EventSink{name: name, recorder: recorder}
}

func (s *EventSink) Name() string { return s.name }

func (s *EventSink) Send(ctx context.Context, evt EnrollmentEvent) error {
	return s.recorder.RecordEvent(ctx, EnrollmentEventName, EventProperties(evt))
}

// EventProperties flattens an event into analytics properties.
func EventProperties(evt EnrollmentEvent) map[string]any {
	props := map[string]any{
		"method": string(evt.Method),
		"source": string(evt.Source),
	}
	if evt.CourseName != "" {
		props["course_name"] = evt.CourseName
	}
	if evt.CoursePrice != nil {
		props["value"] = *evt.CoursePrice
		props["currency"] = ConversionCurrency
	}
	return props
}

// ConversionSink forwards events to a ConversionRecorder under the fixed conversion name.
type ConversionSink struct {
	name     string
	recorder ConversionRecorder
}

// NewConversionSink names and wraps a recorder.
func NewConversionSink(name string, recorder ConversionRecorder) *ConversionSink {
	return &ConversionSink{name: name, recorder: recorder}
}

func (s *ConversionSink) Name() string { return s.name }

func (s *ConversionSink) Send(ctx context.Context, evt EnrollmentEvent) error {
	return s.recorder.RecordConversion(ctx, ConversionEventName, ConversionFor(evt))
}

// ConversionFor maps an event to conversion data. Events without a course are
// reported under their source so they still group in the ad platform.
func ConversionFor(evt EnrollmentEvent) ConversionData {
	data := ConversionData{
		ContentName:     evt.CourseName,
		Currency:        ConversionCurrency,
		ContentCategory: string(evt.Source),
	}
	if data.ContentName == "" {
		data.ContentName = string(evt.Source)
	}
	if evt.CoursePrice != nil {
		data.Value = *evt.CoursePrice
	}
	return data
}

// HTTPSink POSTs the raw event as JSON to a custom analytics endpoint.
type HTTPSink struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPSink returns nil when endpoint is blank, so callers can append it unconditionally.
func NewHTTPSink(endpoint string, httpClient *http.Client) *HTTPSink {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPSink{endpoint: endpoint, httpClient: httpClient}
}

func (s *HTTPSink) Name() string { return "http" }

func (s *HTTPSink) Send(ctx context.Context, evt EnrollmentEvent) error {
	if s == nil {
		return errors.New("tracking: http sink not configured")
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("tracking: marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("tracking: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tracking: post event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("tracking: analytics endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// BuildSinks collects the non-nil sinks, keeping nil-returning constructors out of the slice.
func BuildSinks(candidates ...Sink) []Sink {
	var out []Sink
	for _, s := range candidates {
		if s == nil || isNilSink(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func isNilSink(s Sink) bool {
	switch v := s.(type) {
	case *HTTPSink:
		return v == nil
	case *EventSink:
		return v == nil || v.recorder == nil
	case *ConversionSink:
		return v == nil || v.recorder == nil
	}
	return false
}
