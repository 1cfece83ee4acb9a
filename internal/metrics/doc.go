// Package metrics provides generation metrics for campus.
//
// Components receive a Recorder through their options. NoopRecorder is the
// default and costs nothing; PrometheusRecorder backs the /metrics endpoint of
// the preview server and the counters logged after `campus make`.
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	walker := site.NewWalker(site.WithRecorder(rec))
package metrics
