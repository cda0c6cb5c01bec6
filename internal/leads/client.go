package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/itayost/barber-shem-tov-sub000/internal/observability/metrics"
	"github.com/itayost/barber-shem-tov-sub000/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultSubmitTimeout = 10 * time.Second
	defaultUserAgent     = "academy-lead-client/1.0"
	maxResponseBytes     = 1 << 20
)

// ClientConfig controls how the submission client behaves.
type ClientConfig struct {
	Endpoint string
	// Timeout bounds each attempt. Expiry is reported as a transport error.
	Timeout    time.Duration
	Retry      RetryPolicy
	HTTPClient *http.Client
	Logger     *logging.Logger
	Metrics    *metrics.LeadMetrics
	UserAgent  string
}

// Client posts validated leads to the intake endpoint.
type Client struct {
	endpoint   string
	timeout    time.Duration
	retry      RetryPolicy
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metrics.LeadMetrics
	userAgent  string
	tracer     trace.Tracer
}

// NewClient creates a configured Client with sane defaults.
func NewClient(cfg ClientConfig) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("leads: intake endpoint is required")
	}
	if u, err := url.Parse(endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("leads: invalid intake endpoint %q", endpoint)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSubmitTimeout
	}
	retry := cfg.Retry
	if retry == nil {
		retry = NoRetry{}
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		endpoint:   endpoint,
		timeout:    timeout,
		retry:      retry,
		httpClient: httpClient,
		logger:     logger,
		metrics:    cfg.Metrics,
		userAgent:  userAgent,
		tracer:     otel.Tracer("academy.internal.leads.client"),
	}, nil
}

type intakeResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Submit sends the record and classifies the outcome. It never panics and
// never returns a bare error: failures are described by the Result.
func (c *Client) Submit(ctx context.Context, rec LeadRecord) Result {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "leads.submit", trace.WithAttributes(
		attribute.String("lead.source", rec.Source),
		attribute.String("lead.course", rec.Course),
	))
	defer span.End()

	res := c.submit(ctx, rec)

	span.SetAttributes(attribute.String("lead.outcome", res.outcome()))
	if !res.Success {
		span.SetStatus(codes.Error, res.Kind.String())
		if res.Err != nil {
			span.RecordError(res.Err)
		}
	}
	c.metrics.ObserveSubmission(res.outcome(), time.Since(start).Seconds())
	return res
}

func (c *Client) submit(ctx context.Context, rec LeadRecord) Result {
	body, err := BuildPayload(rec)
	if err != nil {
		return transportFailure(0, err)
	}

	for attempt := 0; ; attempt++ {
		res := c.attempt(ctx, body)
		if res.Success || res.Kind != KindTransport {
			return res
		}
		delay, retry := c.retry.Next(attempt, res.Err)
		if !retry || ctx.Err() != nil {
			return res
		}
		c.logger.Warn("lead submission retry",
			"attempt", attempt+1,
			"delay_ms", delay.Milliseconds(),
			"error", res.Err,
		)
		if err := sleep(ctx, delay); err != nil {
			return res
		}
	}
}

func (c *Client) attempt(ctx context.Context, body []byte) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return transportFailure(0, fmt.Errorf("leads: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportFailure(0, fmt.Errorf("leads: http error: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return transportFailure(resp.StatusCode, fmt.Errorf("leads: read response: %w", err))
	}

	var parsed intakeResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return transportFailure(resp.StatusCode, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err))
	}
	if parsed.Success == nil {
		return transportFailure(resp.StatusCode, ErrUnexpectedResponse)
	}
	if !*parsed.Success {
		msg := strings.TrimSpace(parsed.Message)
		if msg == "" {
			msg = strings.TrimSpace(parsed.Error)
		}
		return Result{
			Message: msg,
			Kind:    KindRemoteRejection,
			Err:     &SubmitError{Kind: KindRemoteRejection, StatusCode: resp.StatusCode, Message: msg, Err: ErrRejected},
		}
	}
	return Result{Success: true}
}

func transportFailure(status int, err error) Result {
	return Result{
		Kind: KindTransport,
		Err:  &SubmitError{Kind: KindTransport, StatusCode: status, Err: err},
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
