package bootstrap

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"

	appconfig "github.com/itayost/barber-shem-tov-sub000/internal/config"
	"github.com/itayost/barber-shem-tov-sub000/internal/leads"
	"github.com/itayost/barber-shem-tov-sub000/internal/notify"
	"github.com/itayost/barber-shem-tov-sub000/internal/observability/metrics"
	"github.com/itayost/barber-shem-tov-sub000/pkg/logging"
)

// BuildLeadRepository prefers Postgres and falls back to memory.
func BuildLeadRepository(pool *pgxpool.Pool, logger *logging.Logger) leads.Repository {
	if pool == nil {
		if logger != nil {
			logger.Warn("DATABASE_URL not set; leads are kept in memory")
		}
		return leads.NewInMemoryRepository()
	}
	return leads.NewPostgresRepository(pool)
}

// BuildSubmitClient creates the lead submission client for LEAD_INTAKE_URL.
func BuildSubmitClient(cfg *appconfig.Config, m *metrics.LeadMetrics, logger *logging.Logger) (*leads.Client, error) {
	return leads.NewClient(leads.ClientConfig{
		Endpoint: cfg.LeadIntakeURL,
		Timeout:  cfg.LeadSubmitTimeout,
		Retry:    leads.PolicyFor(cfg.LeadSubmitMaxRetries, cfg.LeadSubmitBackoff),
		Logger:   logger,
		Metrics:  m,
	})
}

// BuildEmailSender picks the provider named by EMAIL_PROVIDER. It never returns
// nil: without credentials it falls back to the logging stub.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.EmailProvider)) {
	case "ses":
		if cfg.SESFromEmail == "" {
			logger.Warn("SES_FROM_EMAIL not set; using stub email sender")
			break
		}
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Warn("ses disabled", "error", err)
			break
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	case "sendgrid", "":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("SENDGRID_API_KEY not set; using stub email sender")
	default:
		logger.Warn("unknown EMAIL_PROVIDER; using stub email sender", "provider", cfg.EmailProvider)
	}
	return notify.NewStubEmailSender(logger)
}

// BuildLeadNotifier wires staff notifications for new leads.
func BuildLeadNotifier(email notify.EmailSender, cfg *appconfig.Config, logger *logging.Logger) *notify.LeadNotifier {
	return notify.NewLeadNotifier(email, notify.LeadNotifierConfig{
		Recipients:  cfg.LeadNotifyEmails,
		AcademyName: cfg.SendGridFromName,
		Region:      notify.DefaultRegion,
	}, logger)
}
