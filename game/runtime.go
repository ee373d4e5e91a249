package game

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"conkers/simloop"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Runtime bundles a world with the scheduler stepping it and the
// instrumentation both frontends share
type Runtime struct {
	Config   Config
	Log      *zap.Logger
	World    *World
	Loop     *simloop.Loop
	Metrics  *Collector
	Profiler *Profiler
}

// RuntimeOption configures NewRuntime
type RuntimeOption func(*runtimeOptions)

type runtimeOptions struct {
	clock    simloop.Clock
	registry prometheus.Registerer
	world    []Option
}

// WithClock drives the scheduler from c instead of the wall clock
func WithClock(c simloop.Clock) RuntimeOption {
	return func(o *runtimeOptions) { o.clock = c }
}

// WithRegistry registers metrics against reg instead of a fresh registry
func WithRegistry(reg prometheus.Registerer) RuntimeOption {
	return func(o *runtimeOptions) { o.registry = reg }
}

// WithWorldOptions passes extra options to NewWorld
func WithWorldOptions(opts ...Option) RuntimeOption {
	return func(o *runtimeOptions) { o.world = append(o.world, opts...) }
}

// NewRuntime wires a validated config into a stopped scheduler
func NewRuntime(cfg Config, log *zap.Logger, opts ...RuntimeOption) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	o := runtimeOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	collector, err := NewCollector(o.registry)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	worldOpts := append([]Option{
		WithLogger(log.Named("world")),
		WithRecorder(collector),
	}, o.world...)
	world := NewWorld(cfg, worldOpts...)

	loopOpts := simloop.Options{
		Dt:       cfg.Dt(),
		Clock:    o.clock,
		Logger:   log.Named("simloop"),
		Observer: collector,
		LagSteps: cfg.Profile.LagSteps,
	}

	var profiler *Profiler
	if cfg.Profile.Enabled {
		profiler, err = NewProfiler(cfg.Profile, log.Named("profiler"))
		if err != nil {
			return nil, err
		}
	}
	loopOpts.OnLag = func(steps int) {
		collector.IncLagBursts()
		if profiler != nil {
			profiler.OnLag(steps)
		}
	}

	loop, err := simloop.New(world, loopOpts)
	if err != nil {
		return nil, err
	}

	return &Runtime{
		Config:   cfg,
		Log:      log,
		World:    world,
		Loop:     loop,
		Metrics:  collector,
		Profiler: profiler,
	}, nil
}

// Start initializes the world and starts stepping it
func (r *Runtime) Start() error {
	return r.Loop.Start()
}

// Stop joins the scheduler and waits for any profile still being written
func (r *Runtime) Stop() error {
	err := r.Loop.Stop()
	if r.Profiler != nil {
		r.Profiler.Wait()
	}
	return err
}

// ServeMetrics serves /metrics on the configured address until ctx is done.
// It returns nil at once when no address is configured.
func (r *Runtime) ServeMetrics(ctx context.Context) error {
	addr := r.Config.Metrics.Addr
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.Log.Info("metrics server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		return nil
	}
}
