// Command headless runs the simulation without a window, steering the player
// along a scripted pointer path and restarting rounds as they end. It is used
// for soak runs against the metrics endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"conkers/game"
	"conkers/logging"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "YAML config file layered over the defaults")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	metricsAddr := flag.String("metrics-addr", ":9090", "serve Prometheus metrics on this address")
	duration := flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	report := flag.Duration("report", 10*time.Second, "interval between summary log lines")
	seed := flag.Uint64("seed", 0, "spawn seed override (0 keeps world.seed)")
	orbit := flag.Float64("orbit", 0.3, "pointer orbit radius as a fraction of the smaller window edge")
	period := flag.Duration("period", 3*time.Second, "time for the pointer to complete one orbit")
	flag.Parse()

	config := game.DefaultConfig()
	if *configPath != "" {
		loaded, err := game.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		config = loaded
	}
	if *logLevel != "" {
		config.Log.Level = *logLevel
	}
	config.Metrics.Addr = *metricsAddr

	logger, err := logging.New(config.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	var opts []game.RuntimeOption
	if *seed != 0 {
		opts = append(opts, game.WithWorldOptions(game.WithSeed(*seed)))
	}
	rt, err := game.NewRuntime(config, logger, opts...)
	if err != nil {
		logger.Fatal("failed to set up game", zap.Error(err))
	}
	if err := rt.Start(); err != nil {
		logger.Fatal("failed to start simulation", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	d := &driver{
		rt:     rt,
		log:    logger.Named("headless"),
		radius: *orbit * math.Min(float64(config.Window.Width), float64(config.Window.Height)),
		period: *period,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rt.ServeMetrics(ctx) })
	g.Go(func() error { return d.steer(ctx) })
	g.Go(func() error { return d.report(ctx, *report) })

	err = g.Wait()
	if stopErr := rt.Stop(); stopErr != nil {
		logger.Fatal("failed to stop simulation", zap.Error(stopErr))
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		logger.Fatal("headless run failed", zap.Error(err))
	}
}

// driver plays the game through the same input boundary the window uses
type driver struct {
	rt     *game.Runtime
	log    *zap.Logger
	radius float64
	period time.Duration
}

// steer moves the pointer around the window centre at display rate and keeps
// rounds going
func (d *driver) steer(ctx context.Context) error {
	cfg := d.rt.Config
	startKey, _ := game.ParseKey(cfg.Window.StartKey)
	cx, cy := float64(cfg.Window.Width)/2, float64(cfg.Window.Height)/2
	began := time.Now()

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			phase := 2 * math.Pi * now.Sub(began).Seconds() / d.period.Seconds()
			// a wobble on the radius sweeps the conker through the arena
			r := d.radius * (0.6 + 0.4*math.Sin(phase/7))
			d.rt.World.OnPointerMove(cx+r*math.Cos(phase), cy+r*math.Sin(phase))

			if d.snapshot().State != game.StateRunning {
				d.rt.World.OnKeyRelease(startKey)
			}
		}
	}
}

func (d *driver) report(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s := d.snapshot()
			d.log.Info("simulation summary",
				zap.Stringer("state", s.State),
				zap.Int64("score", s.Score),
				zap.Int("hazards", s.Hazards),
				zap.Float64("health", s.Health),
				zap.Uint64("steps", s.Steps),
				zap.Float64("sim_time", s.SimTime),
				zap.Float64("behind", d.rt.Loop.RealTime()-s.SimTime))
		}
	}
}

type snapshot struct {
	State   game.State
	Score   int64
	Hazards int
	Health  float64
	Steps   uint64
	SimTime float64
}

func (d *driver) snapshot() snapshot {
	loop, w := d.rt.Loop, d.rt.World
	loop.AcquireReadAccess()
	defer loop.ReleaseReadAccess()
	return snapshot{
		State:   w.State(),
		Score:   w.Score(),
		Hazards: w.LiveHazards(),
		Health:  w.Player().Health(),
		Steps:   loop.Steps(),
		SimTime: loop.LastSimTime(),
	}
}
