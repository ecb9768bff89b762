// Package middleware wraps batch application with observability.
//
// A Handler applies one inbound batch; a Middleware decorates a Handler.
// The session builds its chain once:
//
//	h := middleware.Chain(
//	    middleware.Recover(logger),
//	    middleware.OpenTelemetry(),
//	    middleware.Logging(logger),
//	    metrics.Middleware(),
//	)(apply)
//
// # Prometheus Metrics
//
// NewMetrics registers the following collectors (namespace "thinclient"
// by default):
//   - thinclient_batches_total: batches applied, by status
//   - thinclient_batch_duration_seconds: batch application duration
//   - thinclient_patches_received_total: patches received
//   - thinclient_faults_total: faults by class (desync, decode, internal)
//   - thinclient_events_sent_total: outbound events, by status
//
// Expose them on a separate listener with promhttp.HandlerFor.
//
// # OpenTelemetry
//
// OpenTelemetry starts one span per batch from the global tracer
// provider and records the session ID, sequence number, patch count and
// fault class. The span context flows to later middleware through ctx.
package middleware
