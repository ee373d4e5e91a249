package game

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives world bookkeeping events
type Recorder interface {
	HazardSpawned(kind HazardKind)
	HazardsReclaimed(n int)
	SetLiveHazards(n int)
	SetScore(score int64)
	RoundFinished(outcome string)
}

// Round outcomes
const (
	OutcomeGameOver  = "game_over"
	OutcomeAbandoned = "abandoned"
)

type nopRecorder struct{}

func (nopRecorder) HazardSpawned(HazardKind) {}
func (nopRecorder) HazardsReclaimed(int)     {}
func (nopRecorder) SetLiveHazards(int)       {}
func (nopRecorder) SetScore(int64)           {}
func (nopRecorder) RoundFinished(string)     {}

// Collector exposes simulation metrics to Prometheus. It implements Recorder
// and the scheduler's step observer; a nil Collector records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	StepDuration    prometheus.Histogram
	Steps           prometheus.Counter
	HazardsSpawned  *prometheus.CounterVec
	HazardsReaped   prometheus.Counter
	LiveHazards     prometheus.Gauge
	Score           prometheus.Gauge
	RoundsCompleted *prometheus.CounterVec
	LagBursts       prometheus.Counter
}

// NewCollector registers the game metrics against reg
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	stepHist, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "conkers_step_duration_seconds",
		Help:    "Wall time spent in one fixed simulation step.",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
	}), "conkers_step_duration_seconds")
	if err != nil {
		return nil, err
	}

	steps, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "conkers_steps_total",
		Help: "Completed fixed simulation steps.",
	}), "conkers_steps_total")
	if err != nil {
		return nil, err
	}

	spawned, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "conkers_hazards_spawned_total",
		Help: "Hazards spawned, by kind.",
	}, []string{"kind"}), "conkers_hazards_spawned_total")
	if err != nil {
		return nil, err
	}

	reaped, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "conkers_hazards_reclaimed_total",
		Help: "Dead hazards removed after their fade.",
	}), "conkers_hazards_reclaimed_total")
	if err != nil {
		return nil, err
	}

	live, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "conkers_live_hazards",
		Help: "Hazards currently alive.",
	}), "conkers_live_hazards")
	if err != nil {
		return nil, err
	}

	score, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "conkers_score",
		Help: "Score of the current round.",
	}), "conkers_score")
	if err != nil {
		return nil, err
	}

	rounds, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "conkers_rounds_total",
		Help: "Finished rounds, by outcome.",
	}, []string{"outcome"}), "conkers_rounds_total")
	if err != nil {
		return nil, err
	}

	lag, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "conkers_lag_bursts_total",
		Help: "Catch-up bursts longer than the configured lag threshold.",
	}), "conkers_lag_bursts_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		StepDuration:    stepHist,
		Steps:           steps,
		HazardsSpawned:  spawned,
		HazardsReaped:   reaped,
		LiveHazards:     live,
		Score:           score,
		RoundsCompleted: rounds,
		LagBursts:       lag,
	}, nil
}

// Handler serves the collector's registry
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveStep records one step's wall duration
func (c *Collector) ObserveStep(d time.Duration) {
	if c == nil {
		return
	}
	c.StepDuration.Observe(d.Seconds())
	c.Steps.Inc()
}

func (c *Collector) HazardSpawned(kind HazardKind) {
	if c == nil {
		return
	}
	c.HazardsSpawned.WithLabelValues(kind.String()).Inc()
}

func (c *Collector) HazardsReclaimed(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.HazardsReaped.Add(float64(n))
}

func (c *Collector) SetLiveHazards(n int) {
	if c == nil {
		return
	}
	c.LiveHazards.Set(float64(n))
}

func (c *Collector) SetScore(score int64) {
	if c == nil {
		return
	}
	c.Score.Set(float64(score))
}

func (c *Collector) RoundFinished(outcome string) {
	if c == nil {
		return
	}
	c.RoundsCompleted.WithLabelValues(outcome).Inc()
}

// IncLagBursts counts a catch-up burst
func (c *Collector) IncLagBursts() {
	if c == nil {
		return
	}
	c.LagBursts.Inc()
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
