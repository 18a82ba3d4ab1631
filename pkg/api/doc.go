// Package api exposes the auth bridge over HTTP for forum frontends.
//
// The frontend forwards the visitor's cookies on every call; handlers pick
// out the shared provider cookie, run the verdict pipeline, and answer with
// a JSON verdict. Granted verdicts come back with a session token the
// frontend stores and later presents to /v1/auth/validate and
// /v1/auth/logout.
//
// # Endpoints
//
//	POST /v1/auth/autologin     silent login from the shared cookie
//	POST /v1/auth/login         explicit login attempt
//	POST /v1/auth/validate      re-check a granted session
//	POST /v1/auth/logout        revoke a session and ping the provider
//	GET  /v1/auth/config-schema operator settings this provider needs
//	GET  /healthz               liveness probe
//	GET  /readyz                readiness probe (checks postgres/redis)
//	GET  /metrics               Prometheus metrics
package api
