// Package metrics provides observability hooks for scans, fixes and the
// registry.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so nothing needs a nil check:
//
//	checker := consistency.New(reg, consistency.WithRecorder(metrics.NoopRecorder{}))
//
// When metrics are enabled in the configuration, the CLI swaps in a
// PrometheusRecorder. One-shot runs flush it with WriteTextfile for the node
// exporter textfile collector; watch mode serves it over HTTP with Handler.
package metrics
