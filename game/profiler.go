package game

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrProfileCooldown = errors.New("profile capture on cooldown")
	ErrProfileBusy     = errors.New("already profiling")
)

// Profiler captures a CPU profile and an execution trace when the simulation
// falls behind wall time
type Profiler struct {
	mu              sync.Mutex
	log             *zap.Logger
	isProfiling     bool
	lastCaptureTime time.Time
	captureCooldown time.Duration
	profilesDir     string
	captureDuration time.Duration
	done            sync.WaitGroup
}

// NewProfiler creates a profiler writing into cfg.Dir
func NewProfiler(cfg ProfileConfig, log *zap.Logger) (*Profiler, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profiles dir: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Profiler{
		log:             log,
		captureCooldown: cfg.Cooldown,
		profilesDir:     cfg.Dir,
		captureDuration: cfg.Duration,
	}, nil
}

// OnLag is the scheduler hook; it starts a capture unless one is running or
// the cooldown has not elapsed
func (p *Profiler) OnLag(steps int) {
	if err := p.CaptureProfile(fmt.Sprintf("lag%d", steps)); err != nil {
		p.log.Debug("profile capture skipped", zap.Error(err))
	}
}

// CaptureProfile starts capturing in the background and returns at once
func (p *Profiler) CaptureProfile(reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isProfiling {
		return ErrProfileBusy
	}
	if !p.lastCaptureTime.IsZero() && time.Since(p.lastCaptureTime) < p.captureCooldown {
		return fmt.Errorf("%w (last capture was %v ago)", ErrProfileCooldown, time.Since(p.lastCaptureTime))
	}

	p.isProfiling = true
	p.lastCaptureTime = time.Now()

	timestamp := time.Now().Format("20060102-150405")
	baseName := fmt.Sprintf("%s-%s", timestamp, reason)
	p.log.Info("capturing performance profile",
		zap.String("reason", reason),
		zap.Duration("duration", p.captureDuration))

	p.done.Add(1)
	go func() {
		defer p.done.Done()
		defer func() {
			p.mu.Lock()
			p.isProfiling = false
			p.mu.Unlock()
		}()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := p.captureCPUProfile(baseName); err != nil {
				p.log.Warn("cpu profile failed", zap.Error(err))
			}
		}()
		go func() {
			defer wg.Done()
			if err := p.captureTrace(baseName); err != nil {
				p.log.Warn("trace failed", zap.Error(err))
			}
		}()
		wg.Wait()

		p.analyzeProfile(baseName)
	}()

	return nil
}

// Wait blocks until any capture in flight has been written
func (p *Profiler) Wait() {
	p.done.Wait()
}

// IsProfiling returns whether a profile capture is currently in progress
func (p *Profiler) IsProfiling() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isProfiling
}

func (p *Profiler) captureCPUProfile(baseName string) error {
	profilePath := filepath.Join(p.profilesDir, baseName+".cpu.prof")

	file, err := os.Create(profilePath)
	if err != nil {
		return fmt.Errorf("create profile file: %w", err)
	}
	defer file.Close()

	if err := pprof.StartCPUProfile(file); err != nil {
		return fmt.Errorf("start CPU profile: %w", err)
	}
	time.Sleep(p.captureDuration)
	pprof.StopCPUProfile()

	p.log.Info("cpu profile saved", zap.String("path", profilePath))
	return nil
}

func (p *Profiler) captureTrace(baseName string) error {
	tracePath := filepath.Join(p.profilesDir, baseName+".trace")

	file, err := os.Create(tracePath)
	if err != nil {
		return fmt.Errorf("create trace file: %w", err)
	}
	defer file.Close()

	if err := trace.Start(file); err != nil {
		return fmt.Errorf("start trace: %w", err)
	}
	time.Sleep(p.captureDuration)
	trace.Stop()

	p.log.Info("trace saved", zap.String("path", tracePath))
	return nil
}

// analyzeProfile logs where the capture went and the heap state right after it
func (p *Profiler) analyzeProfile(baseName string) {
	profilePath := filepath.Join(p.profilesDir, baseName+".cpu.prof")

	info, err := os.Stat(profilePath)
	if err != nil {
		p.log.Warn("could not analyze profile", zap.Error(err))
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	p.log.Info("performance profile captured",
		zap.String("profile", profilePath),
		zap.Float64("size_kb", float64(info.Size())/1024),
		zap.String("view", "go tool pprof -http=:8080 "+profilePath),
		zap.Uint64("alloc_kb", m.Alloc/1024),
		zap.Uint64("total_alloc_kb", m.TotalAlloc/1024),
		zap.Uint64("sys_kb", m.Sys/1024),
		zap.Uint32("num_gc", m.NumGC),
		zap.Uint64("heap_objects", m.HeapObjects))
}
