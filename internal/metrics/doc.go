// Package metrics records task and run metrics behind a small Recorder interface.
//
// Components receive a Recorder and default to NoopRecorder, so metrics cost nothing
// unless enabled. PrometheusRecorder backs the interface with client_golang collectors
// and can dump its registry in node_exporter textfile format after a run:
//
//	rec := metrics.NewPrometheusRecorder(prom.NewRegistry())
//	seq := sequencer.New(reg, sequencer.WithObserver(metrics.NewObserver(rec)))
//	...
//	_ = rec.WriteTextfile("/var/lib/node_exporter/buildseq.prom")
package metrics
