// Package metrics exports monitoring session state as Prometheus metrics.
package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/danpilch/fpsmon/pkg/fps"
	"github.com/danpilch/fpsmon/pkg/selector"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fpsmon"

var intervalBuckets = []float64{0.004, 0.007, 0.0085, 0.011, 0.017, 0.025, 0.034, 0.05, 0.1, 0.25, 1}

var allStates = []selector.State{
	selector.StateIdle,
	selector.StateProbing,
	selector.StateActive,
	selector.StateDegraded,
	selector.StateStopped,
	selector.StateFailed,
}

// Source is the session surface the exporter reads from.
type Source interface {
	ID() string
	AppID() string
	Stats() fps.Stats
	CurrentFPS() float64
	Status() selector.Status
	AddListener(l selector.Listener)
}

// Exporter publishes one session's metrics.
type Exporter struct {
	src Source

	// stateMu serializes state gauge updates from concurrent listeners.
	stateMu sync.Mutex

	collectors    []prometheus.Collector
	state         *prometheus.GaugeVec
	transitions   *prometheus.CounterVec
	frameInterval *prometheus.HistogramVec
}

// NewExporter registers the session's metrics with reg, or with the default
// registerer when reg is nil.
func NewExporter(src Source, reg prometheus.Registerer) (*Exporter, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	e := &Exporter{src: src}

	constLabels := prometheus.Labels{"session": src.ID(), "app": src.AppID()}
	gauge := func(name, help string, fn func() float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: name, Help: help, ConstLabels: constLabels,
		}, fn)
	}
	counter := func(name, help string, fn func() float64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Name: name, Help: help, ConstLabels: constLabels,
		}, fn)
	}

	e.collectors = []prometheus.Collector{
		gauge("current_fps", "Frame rate in the configured mode", src.CurrentFPS),
		gauge("average_fps", "Running average frame rate", func() float64 { return src.Stats().AverageFPS }),
		gauge("per_second_fps", "Frame rate over the last closed window", func() float64 { return src.Stats().PerSecondFPS }),
		counter("frames_total", "Frame ticks accepted by the calculator", func() float64 { return float64(src.Stats().TotalFrames) }),
		counter("discarded_frames_total", "Non-monotonic frame ticks discarded", func() float64 { return float64(src.Stats().TotalDiscarded) }),
		counter("stalls_total", "Frame gaps longer than the stall threshold", func() float64 { return float64(src.Stats().TotalStalls) }),
		counter("strategy_attempts_total", "Strategy activation attempts", func() float64 { return float64(src.Status().Attempts) }),
		counter("strategy_fallbacks_total", "Runtime fallbacks after a strategy became unhealthy", func() float64 { return float64(src.Status().Fallbacks) }),
		counter("strategy_activation_failures_total", "Strategy activations that failed", func() float64 { return float64(src.Status().ActivationFailures) }),
	}
	for _, c := range e.collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	e.state = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "selector_state",
		Help:      "1 for the selector's current state, 0 otherwise",
	}, []string{"session", "state"})
	e.transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "selector_transitions_total",
		Help:      "Selector state transitions",
	}, []string{"session", "from", "to"})
	e.frameInterval = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "frame_interval_seconds",
		Help:      "Sampled inter-frame intervals",
		Buckets:   intervalBuckets,
	}, []string{"session"})

	// Vectors are shared by every session on a registerer.
	for _, c := range []prometheus.Collector{e.state, e.transitions, e.frameInterval} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
			switch v := are.ExistingCollector.(type) {
			case *prometheus.GaugeVec:
				e.state = v
			case *prometheus.CounterVec:
				e.transitions = v
			case *prometheus.HistogramVec:
				e.frameInterval = v
			}
		}
	}

	e.syncState()
	src.AddListener(func(prev, next selector.State) {
		e.transitions.WithLabelValues(src.ID(), prev.String(), next.String()).Inc()
		e.syncState()
	})
	return e, nil
}

// ObserveInterval records a sampled frame interval. Zero intervals are ignored.
func (e *Exporter) ObserveInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	e.frameInterval.WithLabelValues(e.src.ID()).Observe(d.Seconds())
}

// Unregister removes the session's metrics from reg.
func (e *Exporter) Unregister(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range e.collectors {
		reg.Unregister(c)
	}
	id := e.src.ID()
	e.state.DeletePartialMatch(prometheus.Labels{"session": id})
	e.transitions.DeletePartialMatch(prometheus.Labels{"session": id})
	e.frameInterval.DeletePartialMatch(prometheus.Labels{"session": id})
}

// syncState sets the state gauge from the source's current state rather than
// from the transition being delivered, since listeners on different goroutines
// may run out of order.
func (e *Exporter) syncState() {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	current := e.src.Status().State
	id := e.src.ID()
	for _, s := range allStates {
		v := 0.0
		if s == current {
			v = 1
		}
		e.state.WithLabelValues(id, s.String()).Set(v)
	}
}
