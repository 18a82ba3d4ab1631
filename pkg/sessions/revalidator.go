package sessions

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/larry-brewer/jsonauth/pkg/accounts"
	"github.com/larry-brewer/jsonauth/pkg/observability"
	"github.com/larry-brewer/jsonauth/pkg/provider"
)

// Validator confirms that a provider session still vouches for an account.
type Validator interface {
	ValidateSession(ctx context.Context, req *provider.RequestContext, current *accounts.User) bool
}

// Revalidator periodically replays each registered session's provider cookie
// and revokes sessions the provider no longer confirms.
type Revalidator struct {
	registry   Registry
	validator  Validator
	cookieName string
	logger     *observability.Logger
	metrics    *observability.Metrics
	cron       *cron.Cron
	now        func() time.Time
}

// NewRevalidator creates a revalidator. cookieName is the shared provider
// cookie name the registry entries were granted under.
func NewRevalidator(registry Registry, validator Validator, cookieName string, logger *observability.Logger) *Revalidator {
	return &Revalidator{
		registry:   registry,
		validator:  validator,
		cookieName: cookieName,
		logger:     logger,
		now:        time.Now,
	}
}

// WithMetrics attaches revalidation metrics.
func (r *Revalidator) WithMetrics(m *observability.Metrics) *Revalidator {
	r.metrics = m
	return r
}

// Start schedules background sweeps. schedule is a cron expression,
// e.g. "@every 15m".
func (r *Revalidator) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		r.Sweep(ctx)
	}); err != nil {
		return err
	}
	c.Start()
	r.cron = c
	r.logger.WithField("schedule", schedule).Info("Session revalidation scheduled")
	return nil
}

// Stop cancels the schedule and waits for a running sweep to finish.
func (r *Revalidator) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

// Sweep revalidates every registered session once. Sessions whose provider
// cookie no longer checks out are deleted.
func (r *Revalidator) Sweep(ctx context.Context) {
	entries, err := r.registry.List(ctx)
	if err != nil {
		r.logger.WithError(err).Error("Failed to list sessions for revalidation")
		return
	}

	var confirmed, revoked int
	for _, entry := range entries {
		if ctx.Err() != nil {
			r.logger.WithError(ctx.Err()).Warn("Revalidation sweep aborted")
			return
		}
		if r.revalidate(ctx, entry) {
			confirmed++
		} else {
			revoked++
		}
	}

	r.updateGauge(ctx)
	r.logger.WithFields(map[string]interface{}{
		"confirmed": confirmed,
		"revoked":   revoked,
	}).Info("Session revalidation sweep complete")
}

func (r *Revalidator) revalidate(ctx context.Context, entry Entry) bool {
	req := provider.NewRequestContext(map[string]string{r.cookieName: entry.CookieValue})
	current := &accounts.User{
		ID:            entry.UserID,
		Username:      entry.Username,
		UsernameClean: accounts.NormalizeUsername(entry.Username),
	}

	if r.validator.ValidateSession(ctx, req, current) {
		if err := r.registry.Touch(ctx, entry.Token, r.now()); err != nil {
			r.logger.WithError(err).WithField("username", entry.Username).
				Warn("Failed to refresh revalidated session")
		}
		r.observe("confirmed")
		return true
	}

	if err := r.registry.Delete(ctx, entry.Token); err != nil {
		r.logger.WithError(err).WithField("username", entry.Username).
			Error("Failed to revoke stale session")
	} else {
		r.logger.WithField("username", entry.Username).Info("Revoked stale session")
	}
	r.observe("revoked")
	return false
}

func (r *Revalidator) observe(outcome string) {
	if r.metrics != nil {
		r.metrics.RevalidationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (r *Revalidator) updateGauge(ctx context.Context) {
	if r.metrics == nil {
		return
	}
	if count, err := r.registry.Count(ctx); err == nil {
		r.metrics.SessionsRegistered.Set(float64(count))
	}
}
