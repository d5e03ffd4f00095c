// Package prometheus exports dispatch and registry statistics as Prometheus
// collectors.
package prometheus

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-drift/embedview/pkg/dispatch"
	"github.com/go-drift/embedview/pkg/registry"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// Exporter adapts dispatch.Metrics and registry.Metrics to Prometheus
// collectors.
type Exporter struct {
	taskDurationSeconds *prom.HistogramVec
	taskPanicTotal      *prom.CounterVec
	taskRejectedTotal   *prom.CounterVec
	queueDepth          *prom.GaugeVec
	liveWebViews        prom.Gauge
}

var (
	_ dispatch.Metrics = (*Exporter)(nil)
	_ registry.Metrics = (*Exporter)(nil)
)

// dispatchBuckets suit native UI calls, which mostly finish well under a
// frame.
var dispatchBuckets = []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, 1}

// NewExporter creates and registers the collectors. A nil reg means the
// default registerer; an empty namespace means "embedview".
func NewExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*Exporter, error) {
	if namespace == "" {
		namespace = "embedview"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = dispatchBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "dispatch_duration_seconds",
		Help:      "Time spent running tasks on the platform thread.",
		Buckets:   buckets,
	}, []string{"thread"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_panic_total",
		Help:      "Tasks that panicked on the platform thread.",
	}, []string{"thread"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_rejected_total",
		Help:      "Tasks the platform thread refused to run.",
	}, []string{"thread", "reason"})
	depthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "dispatch_queue_depth",
		Help:      "Tasks waiting for the platform thread.",
	}, []string{"thread"})
	live := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "webviews_live",
		Help:      "Registered web views.",
	})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if depthVec, err = registerCollector(reg, depthVec); err != nil {
		return nil, err
	}
	if live, err = registerCollector(reg, live); err != nil {
		return nil, err
	}

	return &Exporter{
		taskDurationSeconds: durationVec,
		taskPanicTotal:      panicVec,
		taskRejectedTotal:   rejectedVec,
		queueDepth:          depthVec,
		liveWebViews:        live,
	}, nil
}

func (e *Exporter) RecordTaskDuration(thread string, d time.Duration) {
	if e == nil {
		return
	}
	e.taskDurationSeconds.WithLabelValues(normalizeLabel(thread)).Observe(d.Seconds())
}

func (e *Exporter) RecordTaskPanic(thread string, _ any) {
	if e == nil {
		return
	}
	e.taskPanicTotal.WithLabelValues(normalizeLabel(thread)).Inc()
}

func (e *Exporter) RecordQueueDepth(thread string, depth int) {
	if e == nil {
		return
	}
	e.queueDepth.WithLabelValues(normalizeLabel(thread)).Set(float64(depth))
}

func (e *Exporter) RecordTaskRejected(thread, reason string) {
	if e == nil {
		return
	}
	e.taskRejectedTotal.WithLabelValues(normalizeLabel(thread), normalizeLabel(reason)).Inc()
}

func (e *Exporter) RecordLiveWebViews(n int) {
	if e == nil {
		return
	}
	e.liveWebViews.Set(float64(n))
}

// Handler serves the metrics gathered by g in the text exposition format.
// A nil g means the default gatherer.
func Handler(g prom.Gatherer) http.Handler {
	if g == nil {
		g = prom.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var already prom.AlreadyRegisteredError
	if errors.As(err, &already) {
		existing, ok := already.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}
	return collector, err
}
