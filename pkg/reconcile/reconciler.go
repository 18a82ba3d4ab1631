package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/larry-brewer/jsonauth/pkg/accounts"
	"github.com/larry-brewer/jsonauth/pkg/assertion"
	"github.com/larry-brewer/jsonauth/pkg/observability"
)

// Reconciler maps remote assertions to local accounts. It never deletes
// accounts and never grants on partial state: any failure after lookup
// yields an error, and the caller denies the session.
type Reconciler struct {
	store   accounts.Store
	roles   *RoleMapper
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewReconciler creates a reconciler over the account store and group
// directory.
func NewReconciler(store accounts.Store, groups accounts.GroupDirectory, logger *observability.Logger) *Reconciler {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Reconciler{
		store:  store,
		roles:  NewRoleMapper(groups),
		logger: logger,
	}
}

// WithMetrics attaches provisioning metrics and returns the reconciler.
func (r *Reconciler) WithMetrics(metrics *observability.Metrics) *Reconciler {
	r.metrics = metrics
	return r
}

// Reconcile returns the local account backing an authenticated assertion,
// provisioning one on first sight. The assertion must have passed
// assertion.Parse; an unauthenticated claim never reaches this point.
func (r *Reconciler) Reconcile(ctx context.Context, a *assertion.Assertion) (*accounts.User, error) {
	key := accounts.NormalizeUsername(a.Username)

	user, err := r.store.FindByNormalizedUsername(ctx, key)
	switch {
	case err == nil:
		if user.Role.Disabled() {
			r.logger.WithFields(map[string]interface{}{
				"username": key,
				"role":     user.Role.String(),
			}).Warn("denying session for disabled account")
			return nil, fmt.Errorf("%w: %s", ErrAccountDisabled, key)
		}
		r.refreshProfile(ctx, user, a)
		return user, nil

	case errors.Is(err, accounts.ErrNotFound):
		return r.provision(ctx, key, a)

	default:
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}
}

// provision creates the local account for a first-seen username and
// returns the canonical stored row.
func (r *Reconciler) provision(ctx context.Context, key string, a *assertion.Assertion) (*accounts.User, error) {
	tier, groupID, err := r.roles.MapRole(ctx, a.Admin)
	if err != nil {
		r.logger.WithError(err).Error("cannot provision account: special group unresolvable")
		return nil, err
	}

	credential, err := accounts.GeneratePlaceholderCredential()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreationRaceOrFailure, err)
	}

	user := &accounts.User{
		Username:      a.Username,
		UsernameClean: key,
		Email:         a.Email,
		Avatar:        a.Avatar,
		GroupID:       groupID,
		Role:          tier,
		PasswordHash:  credential,
	}

	if err := r.store.Create(ctx, user); err != nil {
		// A duplicate-username error here means a concurrent first login
		// won the race; this request denies and the next one finds the row.
		r.logger.WithError(err).WithField("username", key).Warn("account creation failed")
		return nil, fmt.Errorf("%w: %v", ErrCreationRaceOrFailure, err)
	}

	// Re-query for the canonical row; the store may apply defaults or
	// further normalization on insert.
	created, err := r.store.FindByNormalizedUsername(ctx, key)
	if errors.Is(err, accounts.ErrNotFound) {
		r.logger.WithField("username", key).Error("created account not found on re-query")
		return nil, fmt.Errorf("%w: created row not found for %s", ErrCreationRaceOrFailure, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: re-query failed: %v", ErrCreationRaceOrFailure, err)
	}

	r.logger.WithFields(map[string]interface{}{
		"username": key,
		"role":     created.Role.String(),
		"group_id": created.GroupID,
	}).Info("provisioned local account from remote assertion")

	if r.metrics != nil {
		r.metrics.AccountsProvisionedTotal.WithLabelValues(created.Role.String()).Inc()
	}

	return created, nil
}

// refreshProfile updates mutable attributes when the assertion disagrees
// with the stored row. Best effort: a failed refresh never blocks the
// session.
func (r *Reconciler) refreshProfile(ctx context.Context, user *accounts.User, a *assertion.Assertion) {
	if user.Email == a.Email && user.Avatar == a.Avatar {
		return
	}

	if err := r.store.UpdateProfile(ctx, user.ID, a.Email, a.Avatar); err != nil {
		r.logger.WithError(err).WithField("username", user.UsernameClean).Warn("profile refresh failed")
		return
	}

	user.Email = a.Email
	user.Avatar = a.Avatar
}
