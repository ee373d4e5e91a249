package game

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"conkers/logging"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// MinWindowSize is the smallest accepted window edge in pixels
const MinWindowSize = 300

// Config holds every tunable of the game. Zero sections in a YAML file keep
// their defaults.
type Config struct {
	Window  WindowConfig   `yaml:"window"`
	World   WorldConfig    `yaml:"world"`
	Spawn   SpawnConfig    `yaml:"spawn"`
	Player  PlayerConfig   `yaml:"player"`
	Weapon  WeaponConfig   `yaml:"weapon"`
	Camera  CameraConfig   `yaml:"camera"`
	Log     logging.Config `yaml:"log"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Profile ProfileConfig  `yaml:"profile"`
}

// WindowConfig describes the presentation surface
type WindowConfig struct {
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Title    string `yaml:"title"`
	StartKey string `yaml:"start_key"`
}

// WorldConfig holds the simulation constants
type WorldConfig struct {
	// StepRate is the number of fixed steps per simulated second
	StepRate float64 `yaml:"step_rate"`

	// Damping is the fraction of velocity bodies keep per second
	Damping float64 `yaml:"damping"`

	// Width and Height of the walled arena in world units, centred on the origin
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	// DamageFactor scales relative impact speed into health lost
	DamageFactor float64 `yaml:"damage_factor"`

	// FadeDuration is how long a dead entity lingers before reclamation
	FadeDuration float64 `yaml:"fade_duration"`

	// FlashDuration is how long the background flashes after the player is hit
	FlashDuration float64 `yaml:"flash_duration"`

	// Seed phrase for spawn placement; empty picks one from the clock
	Seed string `yaml:"seed"`
}

// SpawnConfig controls the hazard density target
type SpawnConfig struct {
	BaseRate        float64 `yaml:"base_rate"`
	ScorePerHazard  int64   `yaml:"score_per_hazard"`
	MaxHazards      int     `yaml:"max_hazards"`
	ClearanceRadius float64 `yaml:"clearance_radius"`
	HomingFactor    float64 `yaml:"homing_factor"`
	DeadGravity     float64 `yaml:"dead_gravity"`
}

// PlayerConfig describes the pointer-driven player disc
type PlayerConfig struct {
	Radius          float64 `yaml:"radius"`
	Mass            float64 `yaml:"mass"`
	Health          float64 `yaml:"health"`
	Friction        float64 `yaml:"friction"`
	PointerMaxForce float64 `yaml:"pointer_max_force"`
}

// WeaponConfig describes the conker swung on a string behind the player
type WeaponConfig struct {
	Size         float64 `yaml:"size"`
	Mass         float64 `yaml:"mass"`
	Friction     float64 `yaml:"friction"`
	StringLength float64 `yaml:"string_length"`
}

// CameraConfig tunes pointer smoothing and the follow camera
type CameraConfig struct {
	UnitsAcross  float64 `yaml:"units_across"`
	PointerBlend float64 `yaml:"pointer_blend"`
	FollowGain   float64 `yaml:"follow_gain"`
	DeadZone     float64 `yaml:"dead_zone"`
}

// MetricsConfig enables the Prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// ProfileConfig enables automatic CPU profile and trace capture on lag bursts
type ProfileConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Dir      string        `yaml:"dir"`
	LagSteps int           `yaml:"lag_steps"`
	Cooldown time.Duration `yaml:"cooldown"`
	Duration time.Duration `yaml:"duration"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			Width:    1280,
			Height:   800,
			Title:    "CONKERS",
			StartKey: "space",
		},
		World: WorldConfig{
			StepRate:      120,
			Damping:       0.8,
			Width:         320,
			Height:        200,
			DamageFactor:  0.10,
			FadeDuration:  1.0,
			FlashDuration: 0.25,
		},
		Spawn: SpawnConfig{
			BaseRate:        0.5,
			ScorePerHazard:  400,
			MaxHazards:      12,
			ClearanceRadius: 40,
			HomingFactor:    0.75,
			DeadGravity:     100,
		},
		Player: PlayerConfig{
			Radius:          3,
			Mass:            1,
			Health:          100,
			Friction:        0.1,
			PointerMaxForce: 5000,
		},
		Weapon: WeaponConfig{
			Size:         4,
			Mass:         2,
			Friction:     0.8,
			StringLength: 14,
		},
		Camera: CameraConfig{
			UnitsAcross:  100,
			PointerBlend: 0.99,
			FollowGain:   0.05,
			DeadZone:     0.25,
		},
		Log: logging.Config{
			Level:  "info",
			Format: "console",
		},
		Profile: ProfileConfig{
			Dir:      "profiles",
			LagSteps: 30,
			Cooldown: 10 * time.Second,
			Duration: 5 * time.Second,
		},
	}
}

// LoadConfig reads a YAML file layered over DefaultConfig
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// DecodeConfig decodes YAML from r over DefaultConfig and validates the result
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the simulation cannot run with
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Window.Width >= MinWindowSize && c.Window.Height >= MinWindowSize,
		"window must be at least %dx%d, got %dx%d", MinWindowSize, MinWindowSize, c.Window.Width, c.Window.Height)
	_, keyOK := ParseKey(c.Window.StartKey)
	check(keyOK, "unknown start key %q", c.Window.StartKey)

	w := c.World
	check(w.StepRate > 0 && !math.IsInf(w.StepRate, 0), "world.step_rate must be positive, got %v", w.StepRate)
	check(w.Damping > 0 && w.Damping <= 1, "world.damping must be in (0, 1], got %v", w.Damping)
	check(w.Width > 0 && w.Height > 0, "world bounds must be positive, got %vx%v", w.Width, w.Height)
	check(w.DamageFactor >= 0, "world.damage_factor must not be negative")
	check(w.FadeDuration >= 0, "world.fade_duration must not be negative")

	s := c.Spawn
	check(s.BaseRate >= 0, "spawn.base_rate must not be negative")
	check(s.ScorePerHazard > 0, "spawn.score_per_hazard must be positive")
	check(s.MaxHazards >= 1, "spawn.max_hazards must be at least 1, got %d", s.MaxHazards)
	// rejection sampling needs placement area left outside the clearance disc
	// wherever the player stands
	room := (math.Min(w.Width, w.Height) - maxHazardSize()) / 2
	check(s.ClearanceRadius >= 0 && s.ClearanceRadius < room,
		"spawn.clearance_radius %v must be below %v for a %vx%v world", s.ClearanceRadius, room, w.Width, w.Height)

	check(c.Player.Radius > 0 && c.Player.Mass > 0 && c.Player.Health > 0, "player radius, mass and health must be positive")
	check(c.Weapon.Size > 0 && c.Weapon.Mass > 0, "weapon size and mass must be positive")
	check(c.Weapon.StringLength > 0, "weapon.string_length must be positive")

	cam := c.Camera
	check(cam.UnitsAcross > 0, "camera.units_across must be positive")
	check(cam.PointerBlend > 0 && cam.PointerBlend <= 1, "camera.pointer_blend must be in (0, 1]")
	check(cam.FollowGain >= 0 && cam.FollowGain <= 1, "camera.follow_gain must be in [0, 1]")
	check(cam.DeadZone > 0 && cam.DeadZone <= 0.5, "camera.dead_zone must be in (0, 0.5]")

	if c.Profile.Enabled {
		check(c.Profile.Dir != "", "profile.dir is required when profiling is enabled")
		check(c.Profile.LagSteps > 0, "profile.lag_steps must be positive when profiling is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Dt returns the fixed simulation step in seconds
func (c Config) Dt() float64 {
	return 1 / c.World.StepRate
}

// SeedValue hashes the seed phrase into a PCG seed
func (w WorldConfig) SeedValue() uint64 {
	if w.Seed == "" {
		return uint64(time.Now().UnixNano())
	}
	return xxhash.Sum64String(w.Seed)
}
