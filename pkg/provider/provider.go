package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/larry-brewer/jsonauth/pkg/accounts"
	"github.com/larry-brewer/jsonauth/pkg/assertion"
	"github.com/larry-brewer/jsonauth/pkg/observability"
	"github.com/larry-brewer/jsonauth/pkg/reconcile"
)

// SessionProvider is the capability interface the host's auth dispatch
// integrates against.
type SessionProvider interface {
	// TryAutoLogin is the implicit silent-login path. An absent shared
	// cookie yields StatusNoAssertion; everything else runs the full
	// fetch/validate/reconcile pipeline.
	TryAutoLogin(ctx context.Context, req *RequestContext) Verdict

	// Login handles an explicit login attempt. Local credentials are
	// ignored for this provider; the verdict is entirely determined by
	// the remote assertion. Unauthenticated verdicts carry the configured
	// login redirect URL for the caller to act on.
	Login(ctx context.Context, req *RequestContext, username, password string) Verdict

	// ValidateSession re-fetches the assertion and reports whether it
	// still backs the given local account.
	ValidateSession(ctx context.Context, req *RequestContext, current *accounts.User) bool

	// Logout pings the provider's logout URL with the session cookie.
	// Best effort.
	Logout(ctx context.Context, req *RequestContext) error

	// ConfigFields declares the operator settings this provider needs.
	ConfigFields() []ConfigField

	// SharedCookieName reports which cookie carries the provider session,
	// so hosts know what to look for.
	SharedCookieName() string
}

// Reconciler is the slice of the reconciliation engine the provider
// consumes. *reconcile.Reconciler is the production implementation.
type Reconciler interface {
	Reconcile(ctx context.Context, a *assertion.Assertion) (*accounts.User, error)
}

// JSONProvider implements SessionProvider against a cookie-correlated
// JSON assertion endpoint.
type JSONProvider struct {
	mu            sync.RWMutex
	cfg           Config
	fetcher       *Fetcher
	logoutFetcher *Fetcher
	reconciler    Reconciler
	logger        *observability.Logger
	metrics       *observability.Metrics
}

var _ SessionProvider = (*JSONProvider)(nil)

// NewJSONProvider validates the configuration and builds the provider.
// metrics may be nil.
func NewJSONProvider(cfg Config, rec Reconciler, logger *observability.Logger, metrics *observability.Metrics) (*JSONProvider, error) {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Error("provider configuration incomplete")
		return nil, err
	}

	cfg = cfg.withDefaults()
	return &JSONProvider{
		cfg:           cfg,
		fetcher:       NewFetcher(cfg),
		logoutFetcher: newLogoutFetcher(cfg),
		reconciler:    rec,
		logger:        logger,
		metrics:       metrics,
	}, nil
}

func newLogoutFetcher(cfg Config) *Fetcher {
	logoutCfg := cfg
	logoutCfg.AssertionURL = cfg.LogoutURL
	return NewFetcher(logoutCfg)
}

// UpdateConfig swaps the provider settings, rebuilding the fetcher.
// In-flight requests finish against the old settings.
func (p *JSONProvider) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg = cfg.withDefaults()

	p.mu.Lock()
	p.cfg = cfg
	p.fetcher = NewFetcher(cfg)
	p.logoutFetcher = newLogoutFetcher(cfg)
	p.mu.Unlock()

	p.logger.WithField("assertion_url", cfg.AssertionURL).Info("provider configuration reloaded")
	return nil
}

func (p *JSONProvider) snapshot() (Config, *Fetcher) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg, p.fetcher
}

// TryAutoLogin implements the silent-login path.
func (p *JSONProvider) TryAutoLogin(ctx context.Context, req *RequestContext) Verdict {
	cfg, fetcher := p.snapshot()

	cookie, ok := req.Cookie(cfg.SharedCookieName)
	if !ok {
		return p.observe("autologin", noAssertion())
	}

	a, reason := p.assert(ctx, fetcher, cookie)
	if a == nil {
		return p.observe("autologin", deny(reason))
	}

	return p.observe("autologin", p.reconcileVerdict(ctx, a))
}

// Login implements the explicit login path. username and password are
// accepted for interface compatibility and ignored.
func (p *JSONProvider) Login(ctx context.Context, req *RequestContext, username, password string) Verdict {
	cfg, fetcher := p.snapshot()

	cookie, ok := req.Cookie(cfg.SharedCookieName)
	if !ok {
		v := deny(ReasonUnauthenticated)
		v.RedirectURL = cfg.LoginRedirectURL
		return p.observe("login", v)
	}

	a, reason := p.assert(ctx, fetcher, cookie)
	if a == nil {
		v := deny(reason)
		if reason == ReasonUnauthenticated {
			v.RedirectURL = cfg.LoginRedirectURL
		}
		return p.observe("login", v)
	}

	return p.observe("login", p.reconcileVerdict(ctx, a))
}

// ValidateSession reports whether a fresh assertion still backs the
// current account: shared cookie present, provider authenticated, and
// normalized usernames equal.
func (p *JSONProvider) ValidateSession(ctx context.Context, req *RequestContext, current *accounts.User) bool {
	cfg, fetcher := p.snapshot()

	valid := false
	defer func() {
		if p.metrics != nil {
			status := "denied"
			if valid {
				status = "granted"
			}
			p.metrics.VerdictsTotal.WithLabelValues("validate_session", status).Inc()
		}
	}()

	if current == nil {
		return false
	}

	cookie, ok := req.Cookie(cfg.SharedCookieName)
	if !ok {
		return false
	}

	a, _ := p.assert(ctx, fetcher, cookie)
	if a == nil {
		return false
	}

	currentKey := current.UsernameClean
	if currentKey == "" {
		currentKey = accounts.NormalizeUsername(current.Username)
	}

	valid = accounts.NormalizeUsername(a.Username) == currentKey
	return valid
}

// Logout pings the provider's logout URL with the session cookie so the
// remote session ends too. Nothing depends on it succeeding.
func (p *JSONProvider) Logout(ctx context.Context, req *RequestContext) error {
	p.mu.RLock()
	cfg, fetcher := p.cfg, p.logoutFetcher
	p.mu.RUnlock()

	cookie, ok := req.Cookie(cfg.SharedCookieName)
	if !ok {
		return nil
	}

	if _, err := fetcher.Fetch(ctx, cookie); err != nil {
		p.logger.WithError(err).Warn("logout ping failed")
		return fmt.Errorf("logout ping: %w", err)
	}
	return nil
}

// ConfigFields declares the operator settings for the host's admin UI.
func (p *JSONProvider) ConfigFields() []ConfigField {
	return ConfigFields()
}

// SharedCookieName reports the current shared cookie name.
func (p *JSONProvider) SharedCookieName() string {
	cfg, _ := p.snapshot()
	return cfg.SharedCookieName
}

// assert runs fetch+parse and collapses failures into a deny reason.
// Returns a nil assertion when the pipeline must deny.
func (p *JSONProvider) assert(ctx context.Context, fetcher *Fetcher, cookieValue string) (*assertion.Assertion, DenyReason) {
	start := time.Now()
	raw, err := fetcher.Fetch(ctx, cookieValue)
	p.recordFetch(err, time.Since(start))
	if err != nil {
		p.logger.WithError(err).Warn("assertion fetch failed")
		return nil, ReasonFetchFailed
	}

	a, err := assertion.Parse(raw)
	if err != nil {
		if errors.Is(err, assertion.ErrUnauthenticated) {
			return nil, ReasonUnauthenticated
		}
		p.logger.WithError(err).Warn("assertion validation failed")
		return nil, ReasonMalformedResponse
	}

	return a, ""
}

// reconcileVerdict maps reconciliation outcomes onto verdicts.
func (p *JSONProvider) reconcileVerdict(ctx context.Context, a *assertion.Assertion) Verdict {
	user, err := p.reconciler.Reconcile(ctx, a)
	if err == nil {
		return grant(user)
	}

	reason := ReasonReconcileFailed
	switch {
	case errors.Is(err, reconcile.ErrAccountDisabled):
		reason = ReasonAccountDisabled
	case errors.Is(err, reconcile.ErrCreationRaceOrFailure):
		reason = ReasonCreationFailed
	case errors.Is(err, reconcile.ErrGroupResolution):
		reason = ReasonGroupResolution
	}

	if p.metrics != nil {
		p.metrics.ReconcileFailuresTotal.WithLabelValues(string(reason)).Inc()
	}
	return deny(reason)
}

func (p *JSONProvider) recordFetch(err error, elapsed time.Duration) {
	if p.metrics == nil {
		return
	}

	result := "success"
	var statusErr *HTTPStatusError
	switch {
	case err == nil:
	case errors.Is(err, ErrProviderTimeout):
		result = "timeout"
	case errors.As(err, &statusErr):
		result = fmt.Sprintf("http_%d", statusErr.StatusCode)
	default:
		result = "unreachable"
	}

	p.metrics.AssertionFetchesTotal.WithLabelValues(result).Inc()
	p.metrics.AssertionFetchSeconds.Observe(elapsed.Seconds())
}

func (p *JSONProvider) observe(operation string, v Verdict) Verdict {
	if p.metrics != nil {
		p.metrics.VerdictsTotal.WithLabelValues(operation, string(v.Status)).Inc()
	}
	return v
}
