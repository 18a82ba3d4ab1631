// Package reconcile maps a validated remote assertion onto the local
// account directory.
//
// Reconciliation looks up the asserted username by its normalized key,
// denies disabled accounts, and provisions a new account on first sight
// with the role and special group derived from the assertion's admin flag.
// The create path finishes by re-querying the store for the canonical row;
// a miss there fails closed rather than treating an ambiguous insert as a
// success.
//
// All failures surface as wrapped sentinel errors so the verdict producer
// can collapse them into a deny without losing the reason.
package reconcile
