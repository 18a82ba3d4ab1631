package provider

import "github.com/larry-brewer/jsonauth/pkg/accounts"

// Status is the terminal outcome of a verdict pipeline run.
type Status string

const (
	// StatusNoAssertion means the shared cookie was absent; the host
	// should do nothing.
	StatusNoAssertion Status = "no_assertion"

	// StatusGranted means the remote assertion reconciled to an active
	// local account; the host may establish a session for Verdict.User.
	StatusGranted Status = "granted"

	// StatusDenied means no session may be established. Verdict.Reason
	// says why.
	StatusDenied Status = "denied"
)

// DenyReason classifies a denied verdict. Transient reasons (fetch
// failures) clear themselves on the next request; configuration reasons
// need operator attention.
type DenyReason string

const (
	ReasonFetchFailed          DenyReason = "fetch_failed"
	ReasonMalformedResponse    DenyReason = "malformed_response"
	ReasonUnauthenticated      DenyReason = "unauthenticated"
	ReasonAccountDisabled      DenyReason = "account_disabled"
	ReasonCreationFailed       DenyReason = "creation_race_or_failure"
	ReasonGroupResolution      DenyReason = "group_resolution_error"
	ReasonReconcileFailed      DenyReason = "reconcile_failed"
	ReasonConfigurationMissing DenyReason = "configuration_missing"
)

// Verdict is the engine's final grant/deny decision for one request.
// Role and admin standing ride on User; the engine never mutates ambient
// host state.
type Verdict struct {
	Status Status         `json:"status"`
	User   *accounts.User `json:"user,omitempty"`
	Reason DenyReason     `json:"reason,omitempty"`

	// RedirectURL is set on unauthenticated login verdicts; the caller is
	// responsible for issuing the redirect.
	RedirectURL string `json:"redirect_url,omitempty"`
}

// Granted reports whether the verdict establishes a session.
func (v Verdict) Granted() bool {
	return v.Status == StatusGranted
}

func grant(user *accounts.User) Verdict {
	return Verdict{Status: StatusGranted, User: user}
}

func deny(reason DenyReason) Verdict {
	return Verdict{Status: StatusDenied, Reason: reason}
}

func noAssertion() Verdict {
	return Verdict{Status: StatusNoAssertion}
}
