// Package metrics provides build metrics for docsite.
//
// Components receive a Recorder through dependency injection. NoopRecorder
// is the default and costs nothing; PrometheusRecorder backs the
// --metrics-file textfile export and the /metrics endpoint of the preview
// server.
//
//	reg := prom.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	builder := build.New(build.Options{Recorder: rec, ...})
package metrics
