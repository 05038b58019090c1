// Package metrics records deployment outcomes for the node exporter
// textfile collector.
//
// sitectl is a short-lived process, so nothing is served over HTTP. After
// each run the registry is written atomically to a .prom file that
// node_exporter picks up. The counters are carried over from the previous
// file so they keep growing across runs:
//
//	rec := metrics.NewRecorder(nil)
//	if err := rec.Restore(path); err != nil { ... }
//	rec.ObserveStep("reload", 120*time.Millisecond)
//	rec.ObserveOutcome("success", false)
//	err := rec.WriteTextfile(path)
package metrics

import (
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
)

// Outcome labels.
const (
	OutcomeSuccess    = "success"
	OutcomeFailed     = "failed"
	OutcomeCancelled  = "cancelled"
	OutcomeRolledBack = "rolled_back"
)

// Recorder holds the metrics of one sitectl run.
type Recorder struct {
	registry *prometheus.Registry

	deployments  *prometheus.CounterVec
	stepDuration *prometheus.GaugeVec
	rollbacks    prometheus.Counter
	lastRun      prometheus.Gauge
}

// NewRecorder registers the sitectl metrics on registry, or on a fresh
// registry when nil.
func NewRecorder(registry *prometheus.Registry) *Recorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	r := &Recorder{
		registry: registry,
		deployments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitectl",
			Name:      "deployments_total",
			Help:      "Deployments by final outcome.",
		}, []string{"outcome"}),
		stepDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sitectl",
			Name:      "step_duration_seconds",
			Help:      "Duration of each pipeline step in the last run.",
		}, []string{"step"}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sitectl",
			Name:      "rollbacks_total",
			Help:      "Deployments that were rolled back.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sitectl",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last deployment finished.",
		}),
	}

	registry.MustRegister(r.deployments, r.stepDuration, r.rollbacks, r.lastRun)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Restore seeds the counters from a textfile written by an earlier run. A
// missing file is a first run and not an error. Step durations and the
// timestamp are per run and are not restored.
func (r *Recorder) Restore(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	parser := expfmt.NewTextParser(model.UTF8Validation)
	families, err := parser.TextToMetricFamilies(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if mf, ok := families["sitectl_deployments_total"]; ok {
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" {
					r.deployments.WithLabelValues(lp.GetValue()).Add(m.GetCounter().GetValue())
				}
			}
		}
	}
	if mf, ok := families["sitectl_rollbacks_total"]; ok {
		for _, m := range mf.GetMetric() {
			r.rollbacks.Add(m.GetCounter().GetValue())
		}
	}
	return nil
}

// ObserveStep records how long a step took.
func (r *Recorder) ObserveStep(step string, d time.Duration) {
	r.stepDuration.WithLabelValues(step).Set(d.Seconds())
}

// ObserveOutcome records the final outcome of a run.
func (r *Recorder) ObserveOutcome(outcome string, rolledBack bool) {
	r.deployments.WithLabelValues(outcome).Inc()
	if rolledBack {
		r.rollbacks.Inc()
	}
	r.lastRun.SetToCurrentTime()
}

// WriteTextfile writes the registry in text exposition format. The write
// goes through a temp file and rename so a scrape never sees half a file.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
