package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/itayost/barber-shem-tov-sub000/internal/tracking"
)

const (
	defaultMetaBaseURL = "https://graph.facebook.com"
	defaultMetaVersion = "v19.0"
)

// MetaConfig configures the Meta Conversions API client.
type MetaConfig struct {
	BaseURL     string
	APIVersion  string
	PixelID     string
	AccessToken string
	HTTPClient  *http.Client
	Now         func() time.Time
}

// MetaClient reports conversion events to a Meta pixel.
type MetaClient struct {
	baseURL     string
	apiVersion  string
	pixelID     string
	accessToken string
	httpClient  *http.Client
	now         func() time.Time
}

// NewMetaClient validates credentials and applies defaults.
func NewMetaClient(cfg MetaConfig) (*MetaClient, error) {
	if strings.TrimSpace(cfg.PixelID) == "" || strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("analytics: meta pixel id and access token are required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultMetaBaseURL
	}
	version := cfg.APIVersion
	if version == "" {
		version = defaultMetaVersion
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &MetaClient{
		baseURL:     baseURL,
		apiVersion:  version,
		pixelID:     cfg.PixelID,
		accessToken: cfg.AccessToken,
		httpClient:  defaultHTTPClient(cfg.HTTPClient),
		now:         now,
	}, nil
}

type metaEvent struct {
	EventName    string                  `json:"event_name"`
	EventTime    int64                   `json:"event_time"`
	ActionSource string                  `json:"action_source"`
	CustomData   tracking.ConversionData `json:"custom_data"`
}

type metaPayload struct {
	Data []metaEvent `json:"data"`
}

// RecordConversion implements tracking.ConversionRecorder.
func (c *MetaClient) RecordConversion(ctx context.Context, eventName string, data tracking.ConversionData) error {
	body, err := json.Marshal(metaPayload{Data: []metaEvent{{
		EventName:    eventName,
		EventTime:    c.now().Unix(),
		ActionSource: "website",
		CustomData:   data,
	}}})
	if err != nil {
		return fmt.Errorf("analytics: marshal meta payload: %w", err)
	}
	q := url.Values{}
	q.Set("access_token", c.accessToken)
	fullURL := fmt.Sprintf("%s/%s/%s/events?%s", c.baseURL, c.apiVersion, url.PathEscape(c.pixelID), q.Encode())
	return postJSON(ctx, c.httpClient, fullURL, body)
}
