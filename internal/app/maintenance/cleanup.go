// Package maintenance runs the recurring background jobs: audit retention and
// NDA expiry warnings. Expiring NDAs never transition automatically; the sweep
// only notifies the buyer so they can re-request access in time.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dealbridge/dealroom/internal/services"
	"github.com/dealbridge/dealroom/pkg/logger"
)

const (
	defaultAuditRetentionDays = 365
	defaultExpiryWarningDays  = 7
	defaultAuditSpec          = "@daily"
	defaultExpirySpec         = "@daily"
)

// Cleaner coordinates background maintenance tasks.
type Cleaner struct {
	audit         *services.AuditService
	ndas          *services.NDAService
	notifications *services.NotificationService
	cron          *cron.Cron
	now           func() time.Time
	log           *zap.Logger

	retention   int
	warningDays int

	auditSchedule  string
	expirySchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithExpiryWarningDays adjusts how far ahead the NDA expiry sweep looks.
func WithExpiryWarningDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.warningDays = days
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil dependency
// results in the corresponding job being skipped.
func NewCleaner(audit *services.AuditService, ndas *services.NDAService, notifications *services.NotificationService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		audit:          audit,
		ndas:           ndas,
		notifications:  notifications,
		now:            time.Now,
		retention:      defaultAuditRetentionDays,
		warningDays:    defaultExpiryWarningDays,
		auditSchedule:  defaultAuditSpec,
		expirySchedule: defaultExpirySpec,
		log:            logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the jobs with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.audit != nil && c.retention > 0 {
		if _, err := c.cron.AddFunc(c.auditSchedule, func() {
			if _, err := c.audit.CleanupOlderThan(context.Background(), c.retention); err != nil {
				c.log.Warn("audit cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.ndas != nil && c.notifications != nil {
		if _, err := c.cron.AddFunc(c.expirySchedule, func() {
			if err := c.warnExpiringNDAs(context.Background()); err != nil {
				c.log.Warn("nda expiry sweep failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured routines sequentially. Used in tests and
// during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.audit != nil && c.retention > 0 {
		if _, err := c.audit.CleanupOlderThan(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.ndas != nil && c.notifications != nil {
		if err := c.warnExpiringNDAs(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

func (c *Cleaner) warnExpiringNDAs(ctx context.Context) error {
	cutoff := c.now().UTC().AddDate(0, 0, c.warningDays)

	expiring, err := c.ndas.ExpiringBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, request := range expiring {
		c.notifications.NotifyBestEffort(ctx, services.CreateNotificationInput{
			UserID:  request.BuyerID,
			Type:    "nda.expiring",
			Title:   "NDA expiring soon",
			Message: fmt.Sprintf("Your approved NDA expires on %s. Sign it or request a new one.", request.ExpiresAt.Format("2006-01-02")),
			Metadata: map[string]any{
				"nda_id":     request.ID,
				"listing_id": request.ListingID,
				"expires_at": request.ExpiresAt,
			},
		})
	}

	if len(expiring) > 0 {
		c.log.Info("nda expiry warnings sent", zap.Int("count", len(expiring)))
	}
	return nil
}
