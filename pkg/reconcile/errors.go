package reconcile

import "errors"

var (
	// ErrAccountDisabled means the asserted username maps to a local
	// account whose role tier forbids login (inactive or banned). The
	// remote assertion cannot override a local disable.
	ErrAccountDisabled = errors.New("local account is disabled")

	// ErrCreationRaceOrFailure means account creation did not yield a
	// readable row: either the insert failed (including losing a
	// duplicate-username race to a concurrent first login) or the
	// follow-up query found nothing. The request is denied; the next
	// request retries fresh.
	ErrCreationRaceOrFailure = errors.New("account creation failed or raced")

	// ErrGroupResolution means a required special group could not be
	// resolved. This is forum misconfiguration and must reach the
	// operator log; no account is created.
	ErrGroupResolution = errors.New("special group resolution failed")
)
