package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"

	"github.com/itayost/barber-shem-tov-sub000/internal/analytics"
	appconfig "github.com/itayost/barber-shem-tov-sub000/internal/config"
	"github.com/itayost/barber-shem-tov-sub000/internal/observability/metrics"
	"github.com/itayost/barber-shem-tov-sub000/internal/tracking"
	"github.com/itayost/barber-shem-tov-sub000/pkg/logging"
)

// Event log backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendS3     = "s3"
)

// EventStorageDeps carries the clients a storage backend may need.
// S3 is built lazily from AWS config when nil.
type EventStorageDeps struct {
	Redis redis.Cmdable
	S3    tracking.S3API
}

// BuildEventStorage selects the enrollment log backend named by EVENT_LOG_BACKEND.
func BuildEventStorage(ctx context.Context, cfg *appconfig.Config, deps EventStorageDeps, logger *logging.Logger) (tracking.Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.EventLogBackend))
	switch backend {
	case "", BackendMemory:
		logger.Info("enrollment log stored in memory")
		return tracking.NewMemoryStorage(), nil
	case BackendRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("bootstrap: EVENT_LOG_BACKEND=redis requires REDIS_ADDR")
		}
		logger.Info("enrollment log stored in redis", "key", cfg.EventLogKey, "ttl", cfg.EventLogTTL.String())
		return tracking.NewRedisStorage(deps.Redis, cfg.EventLogTTL), nil
	case BackendS3:
		client := deps.S3
		if client == nil {
			awsCfg, err := LoadAWSConfig(ctx, cfg)
			if err != nil {
				return nil, err
			}
			client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
				o.UsePathStyle = cfg.AWSEndpointOverride != ""
			})
		}
		storage, err := tracking.NewS3Storage(client, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: s3 event log: %w", err)
		}
		logger.Info("enrollment log stored in s3", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
		return storage, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown EVENT_LOG_BACKEND %q", cfg.EventLogBackend)
	}
}

// BuildSinks wires the analytics destinations that have credentials configured.
// A misconfigured destination is logged and skipped rather than failing startup.
func BuildSinks(cfg *appconfig.Config, logger *logging.Logger) []tracking.Sink {
	if cfg == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	var ga4Sink, metaSink tracking.Sink
	if cfg.GA4MeasurementID != "" || cfg.GA4APISecret != "" {
		client, err := analytics.NewGA4Client(analytics.GA4Config{
			MeasurementID: cfg.GA4MeasurementID,
			APISecret:     cfg.GA4APISecret,
		})
		if err != nil {
			logger.Warn("ga4 sink disabled", "error", err)
		} else {
			ga4Sink = tracking.NewEventSink("ga4", client)
		}
	}
	if cfg.MetaPixelID != "" || cfg.MetaAccessToken != "" {
		client, err := analytics.NewMetaClient(analytics.MetaConfig{
			PixelID:     cfg.MetaPixelID,
			AccessToken: cfg.MetaAccessToken,
		})
		if err != nil {
			logger.Warn("meta pixel sink disabled", "error", err)
		} else {
			metaSink = tracking.NewConversionSink("meta_pixel", client)
		}
	}

	sinks := tracking.BuildSinks(tracking.NewHTTPSink(cfg.AnalyticsEndpoint, nil), ga4Sink, metaSink)
	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	logger.Info("analytics sinks configured", "sinks", names)
	return sinks
}

// BuildTracker assembles the enrollment tracker.
func BuildTracker(cfg *appconfig.Config, storage tracking.Storage, sinks []tracking.Sink, m *metrics.TrackingMetrics, logger *logging.Logger) *tracking.Tracker {
	tc := tracking.Config{
		Storage: storage,
		Sinks:   sinks,
		Logger:  logger,
		Metrics: m,
	}
	if cfg != nil {
		tc.Key = cfg.EventLogKey
		tc.SinkTimeout = cfg.SinkTimeout
	}
	return tracking.New(tc)
}
