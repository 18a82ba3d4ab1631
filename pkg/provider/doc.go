// Package provider implements the session verdict producer: the three
// host-facing operations (auto-login, login, session validation) plus the
// logout ping and the operator configuration schema.
//
// The JSON provider trusts a single external identity provider that
// reports session state as JSON over HTTP, correlated by a cookie shared
// between the forum's domain and the provider's domain. Local credentials
// are never consulted; every verdict is derived from a fresh
// fetch/validate/reconcile pass. All failure classes collapse into a deny
// verdict: the provider never raises an unrecoverable fault to the host.
//
// Hosts integrate against the SessionProvider interface; nothing here
// requires inheriting from or embedding host types.
package provider
