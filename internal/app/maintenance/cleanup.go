package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/agent-zon/grantd/internal/models"
	"github.com/agent-zon/grantd/internal/services"
	"github.com/agent-zon/grantd/pkg/logger"
)

const defaultSchedule = "@every 1m"

// Cleaner enforces pushed-authorization-request TTLs and prunes expired
// access tokens and cache entries in the background. Request expiry is not
// automatic in the store; this job plus the read-path checks make it
// explicit.
type Cleaner struct {
	db       *gorm.DB
	requests *services.RequestService
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger
	schedule string
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

// WithSchedule overrides the cron specification for the cleanup job.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(db *gorm.DB, requests *services.RequestService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:       db,
		requests: requests,
		now:      time.Now,
		log:      logger.WithModule("maintenance"),
		schedule: defaultSchedule,
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New()
	}

	return cleaner
}

// Start registers the cleanup job and begins the scheduler.
func (c *Cleaner) Start() error {
	if c.db == nil {
		return errors.New("maintenance: db is required")
	}

	_, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("cleanup run failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the scheduler and returns a context that completes when
// running jobs have drained.
func (c *Cleaner) Stop() context.Context {
	return c.cron.Stop()
}

// RunOnce executes every cleanup task, aggregating their failures.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	now := c.now()
	var errs error

	if c.requests != nil {
		expired, err := c.requests.ExpireStale(ctx, now)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if expired > 0 {
			c.log.Info("expired stale authorization requests", zap.Int64("count", expired))
		}
	}

	if err := c.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.AccessToken{}).Error; err != nil {
		errs = multierr.Append(errs, err)
	}

	if err := c.db.WithContext(ctx).
		Where("expires_at != ? AND expires_at < ?", time.Time{}, now).
		Delete(&models.CacheEntry{}).Error; err != nil {
		errs = multierr.Append(errs, err)
	}

	return errs
}
