// Package sessions tracks which local sessions were granted from provider
// assertions, so they can be revalidated in the background and revoked when
// the provider no longer vouches for them.
//
// Two registry backends are provided: an in-memory registry for single-node
// deployments and a Redis-backed registry for deployments that share session
// state across nodes. The Revalidator sweeps the registry on a cron schedule
// and drops entries the provider no longer confirms.
package sessions
