// Package observability provides the bridge's structured logging,
// Prometheus metrics, health probes, and optional OpenTelemetry tracing.
//
// Logging is structured JSON over log/slog. The bridge logs at well-defined
// points only (fetch failure, malformed response, account provisioning,
// disabled-account denial, group resolution failure, config reload); log
// calls never affect control flow.
//
// Metrics are registered on a caller-supplied Prometheus registry and
// exposed by the daemon on /metrics.
package observability
