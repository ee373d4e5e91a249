// Package simloop runs a world at a fixed simulation rate on its own goroutine
// and lets a render goroutine sample it between completed steps.
package simloop

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultSlack is the idle threshold used when Options.Slack is zero
const DefaultSlack = 2 * time.Millisecond

var (
	ErrAlreadyStarted = errors.New("simloop: already started")
	ErrNotStarted     = errors.New("simloop: not started")
	ErrInvalidStep    = errors.New("simloop: step must be a positive number of seconds")
)

// World is stepped by the loop. All three methods are called from the loop's
// goroutine except Init, which runs on the goroutine calling Start.
type World interface {
	Init() error
	Step(t, dt float64)
	Cleanup()
}

// Observer receives the wall duration of every completed step
type Observer interface {
	ObserveStep(d time.Duration)
}

// Options configures a Loop
type Options struct {
	// Dt is the fixed simulation step in seconds
	Dt float64

	// Slack is how far ahead of the next due step the loop may be before it
	// sleeps instead of yielding. Zero selects DefaultSlack.
	Slack time.Duration

	// Clock supplies wall time; nil selects a WallClock
	Clock Clock

	// Logger receives lifecycle events; nil disables logging
	Logger *zap.Logger

	// Observer is optional
	Observer Observer

	// LagSteps is the catch-up burst length above which OnLag fires; zero disables it
	LagSteps int

	// OnLag is called outside the exclusion lock with the burst length
	OnLag func(steps int)
}

type phase int

const (
	phaseIdle phase = iota
	phaseRunning
	phaseStopped
)

// Loop advances a World in fixed steps of Dt seconds, catching up with wall
// time. Simulation time is steps×Dt and only advances while the exclusion
// lock is held by the stepping goroutine.
//
// Reader priority: before locking for a new step the stepping goroutine yields
// while any reader is pending, so a reader waits for at most the step in
// flight even during a long catch-up burst.
type Loop struct {
	world    World
	dt       float64
	slack    float64
	clock    Clock
	log      *zap.Logger
	observer Observer
	lagSteps int
	onLag    func(int)

	steps   atomic.Uint64
	running atomic.Bool

	mu      sync.Mutex
	readers atomic.Int32

	lifeMu sync.Mutex
	phase  phase
	done   chan struct{}
}

// New creates a stopped loop around world
func New(world World, opts Options) (*Loop, error) {
	if !(opts.Dt > 0) || math.IsInf(opts.Dt, 0) {
		return nil, ErrInvalidStep
	}
	if opts.Slack == 0 {
		opts.Slack = DefaultSlack
	}
	if opts.Clock == nil {
		opts.Clock = NewWallClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Loop{
		world:    world,
		dt:       opts.Dt,
		slack:    opts.Slack.Seconds(),
		clock:    opts.Clock,
		log:      opts.Logger,
		observer: opts.Observer,
		lagSteps: opts.LagSteps,
		onLag:    opts.OnLag,
		done:     make(chan struct{}),
	}, nil
}

// Start initializes the world and launches the stepping goroutine.
// A failed Init leaves the loop permanently stopped.
func (l *Loop) Start() error {
	l.lifeMu.Lock()
	defer l.lifeMu.Unlock()

	if l.phase != phaseIdle {
		return ErrAlreadyStarted
	}
	if err := l.world.Init(); err != nil {
		l.phase = phaseStopped
		return fmt.Errorf("simloop: init world: %w", err)
	}

	l.phase = phaseRunning
	l.running.Store(true)
	go l.run()

	l.log.Info("simulation loop started", zap.Float64("dt", l.dt))
	return nil
}

// Stop asks the stepping goroutine to exit and waits until it has finished
// its final step and cleaned up the world. Calling Stop again is a no-op.
func (l *Loop) Stop() error {
	l.lifeMu.Lock()
	defer l.lifeMu.Unlock()

	switch l.phase {
	case phaseIdle:
		return ErrNotStarted
	case phaseStopped:
		return nil
	}

	l.running.Store(false)
	<-l.done
	l.phase = phaseStopped

	l.log.Info("simulation loop stopped",
		zap.Uint64("steps", l.steps.Load()),
		zap.Float64("sim_time", l.LastSimTime()))
	return nil
}

// Running reports whether the stepping goroutine is active
func (l *Loop) Running() bool {
	return l.running.Load()
}

// AcquireReadAccess blocks until no step is in progress and holds off further
// steps until ReleaseReadAccess.
func (l *Loop) AcquireReadAccess() {
	l.readers.Add(1)
	l.mu.Lock()
	l.readers.Add(-1)
}

// ReleaseReadAccess lets the stepping goroutine continue
func (l *Loop) ReleaseReadAccess() {
	l.mu.Unlock()
}

// Steps returns the number of completed steps
func (l *Loop) Steps() uint64 {
	return l.steps.Load()
}

// LastSimTime returns the simulation time reached by the last completed step
func (l *Loop) LastSimTime() float64 {
	return float64(l.steps.Load()) * l.dt
}

// RealTime returns the loop clock's current wall time in seconds
func (l *Loop) RealTime() float64 {
	return l.clock.Now()
}

// Dt returns the fixed step
func (l *Loop) Dt() float64 {
	return l.dt
}

func (l *Loop) run() {
	defer close(l.done)
	defer l.world.Cleanup()
	defer func() {
		if r := recover(); r != nil {
			l.log.Fatal("simulation step panicked",
				zap.Any("panic", r),
				zap.Uint64("step", l.steps.Load()),
				zap.Stack("stack"))
		}
	}()

	for l.running.Load() {
		realTime := l.clock.Now()

		burst := 0
		for l.due(realTime) && l.running.Load() {
			for l.readers.Load() > 0 {
				runtime.Gosched()
			}
			l.step()
			burst++
		}

		if l.lagSteps > 0 && burst > l.lagSteps {
			l.log.Warn("simulation fell behind wall clock",
				zap.Int("catch_up_steps", burst),
				zap.Float64("sim_time", l.LastSimTime()))
			if l.onLag != nil {
				l.onLag(burst)
			}
		}

		l.idle()
	}
}

// due reports whether realTime is more than one dt past the last completed
// step. Comparing in whole steps keeps the loop exactly one step behind
// instead of catching up on subtraction error.
func (l *Loop) due(realTime float64) bool {
	return float64(l.steps.Load()+1)*l.dt < realTime
}

// idle waits for the next step to fall due. The clock is read again here since
// a catch-up burst may have taken long enough to leave the loop behind.
func (l *Loop) idle() {
	wait := float64(l.steps.Load()+1)*l.dt - l.clock.Now()
	if wait > l.slack {
		time.Sleep(time.Duration((wait - l.slack) * float64(time.Second)))
	} else {
		runtime.Gosched()
	}
}

// step runs exactly one world step under the exclusion lock
func (l *Loop) step() {
	l.mu.Lock()
	start := time.Now()
	l.world.Step(l.LastSimTime(), l.dt)
	l.steps.Add(1)
	l.mu.Unlock()

	if l.observer != nil {
		l.observer.ObserveStep(time.Since(start))
	}
}
