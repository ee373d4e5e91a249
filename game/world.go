package game

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
)

var ErrAlreadyInitialized = errors.New("game: world already initialized")

// State is the round state machine
type State int

const (
	StateWaiting State = iota
	StateRunning
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateRunning:
		return "running"
	case StateGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Bounds is an axis-aligned box in world units
type Bounds struct {
	Min, Max cp.Vector
}

// CenteredBounds returns a width x height box centred on the origin
func CenteredBounds(width, height float64) Bounds {
	half := cp.Vector{X: width / 2, Y: height / 2}
	return Bounds{Min: half.Neg(), Max: half}
}

func (b Bounds) Width() float64  { return b.Max.X - b.Min.X }
func (b Bounds) Height() float64 { return b.Max.Y - b.Min.Y }

// Inset shrinks the box by d on every side
func (b Bounds) Inset(d float64) Bounds {
	return Bounds{
		Min: cp.Vector{X: b.Min.X + d, Y: b.Min.Y + d},
		Max: cp.Vector{X: b.Max.X - d, Y: b.Max.Y - d},
	}
}

// Contains reports whether p lies inside the box, edges included
func (b Bounds) Contains(p cp.Vector) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Option configures a World
type Option func(*World)

// WithLogger sets the world's logger
func WithLogger(l *zap.Logger) Option {
	return func(w *World) {
		if l != nil {
			w.log = l
		}
	}
}

// WithRecorder routes bookkeeping events to r
func WithRecorder(r Recorder) Option {
	return func(w *World) {
		if r != nil {
			w.rec = r
		}
	}
}

// WithSeed overrides the configured spawn seed
func WithSeed(seed uint64) Option {
	return func(w *World) {
		w.seed = seed
	}
}

// World owns the physics space and every entity in it. The first two slots of
// the entity table always hold the player and its weapon; the rest are
// hazards.
//
// Every method except OnPointerMove and OnKeyRelease must be called either
// from the stepping goroutine or while holding the scheduler's read access.
type World struct {
	cfg   Config
	log   *zap.Logger
	rec   Recorder
	rules DamageRules
	seed  uint64

	space    *Space
	entities []Entity
	byID     map[EntityID]Entity
	nextID   EntityID

	pointerBody  *cp.Body
	pointerJoint *cp.Constraint
	pointer      PointerTracker
	camera       *Camera
	bounds       Bounds
	rng          *rand.Rand
	startKey     ebiten.Key

	t          float64
	state      State
	score      int64
	lastDamage float64
	round      uuid.UUID
	roundStart float64

	initialized bool
	input       inputState
}

// NewWorld creates an uninitialized world. cfg is assumed to be validated.
func NewWorld(cfg Config, opts ...Option) *World {
	startKey, _ := ParseKey(cfg.Window.StartKey)
	w := &World{
		cfg: cfg,
		log: zap.NewNop(),
		rec: nopRecorder{},
		rules: DamageRules{
			Factor: cfg.World.DamageFactor,
			Fade:   cfg.World.FadeDuration,
		},
		seed:       cfg.World.SeedValue(),
		camera:     NewCamera(float64(cfg.Window.Width), float64(cfg.Window.Height), cfg.Camera.UnitsAcross),
		bounds:     CenteredBounds(cfg.World.Width, cfg.World.Height),
		startKey:   startKey,
		lastDamage: math.Inf(-1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Init builds the physics space, walls, pointer body, player and weapon
func (w *World) Init() error {
	if w.initialized {
		return ErrAlreadyInitialized
	}
	w.initialized = true

	w.rng = rand.New(rand.NewPCG(w.seed, w.seed^0x9e3779b97f4a7c15))
	w.space = NewSpace(w.cfg.World.Damping)
	w.space.AddWalls(w.bounds, 1)
	for _, pair := range contactPairs {
		w.space.OnContact(pair[0], pair[1], w.resolveContact)
	}

	w.byID = make(map[EntityID]Entity)
	w.pointerBody = cp.NewKinematicBody()
	w.space.AddBody(w.pointerBody)

	cx, cy := w.camera.Width/2, w.camera.Height/2
	w.pointer = PointerTracker{X: cx, Y: cy, Blend: w.cfg.Camera.PointerBlend}
	w.input.storePointer(cx, cy)

	w.spawnReserved()

	w.log.Info("world initialized",
		zap.Float64("width", w.bounds.Width()),
		zap.Float64("height", w.bounds.Height()),
		zap.Uint64("seed", w.seed))
	return nil
}

// Step advances the world by one fixed step starting at simulation time t
func (w *World) Step(t, dt float64) {
	w.t = t
	started := w.applyInput()

	// a round is first seen with only the player and weapon
	if w.state == StateRunning && !started {
		w.spawn(dt)
	}

	for _, e := range w.entities {
		e.Simulate(t, dt)
	}

	w.updateCamera(dt)
	w.space.Step(dt)
	w.reclaim()
	w.transition()

	w.rec.SetLiveHazards(w.LiveHazards())
	w.rec.SetScore(w.score)
}

// Cleanup releases the space and every entity. The world is unusable afterwards.
func (w *World) Cleanup() {
	if w.space == nil {
		return
	}
	if w.state == StateRunning {
		w.finishRound(OutcomeAbandoned)
	}
	w.clearEntities()
	w.space.RemoveBody(w.pointerBody)
	w.space = nil
	w.byID = nil
	w.log.Info("world cleaned up", zap.Float64("sim_time", w.t))
}

// applyInput consumes the key release queued since the previous step and
// reports whether it started a round
func (w *World) applyInput() bool {
	if !w.input.takeRelease() {
		return false
	}
	switch w.state {
	case StateWaiting:
		w.startRound()
		return true
	case StateGameOver:
		w.state = StateWaiting
		w.log.Info("waiting for next round")
	}
	return false
}

func (w *World) startRound() {
	w.clearEntities()
	w.spawnReserved()

	w.score = 0
	w.lastDamage = math.Inf(-1)
	w.round = uuid.New()
	w.roundStart = w.t
	w.state = StateRunning

	w.log.Info("round started", zap.String("round", w.round.String()), zap.Float64("sim_time", w.t))
}

func (w *World) finishRound(outcome string) {
	w.rec.RoundFinished(outcome)
	w.log.Info("round finished",
		zap.String("round", w.round.String()),
		zap.String("outcome", outcome),
		zap.Int64("score", w.score),
		zap.Float64("duration", w.t-w.roundStart))
}

// transition ends the round once the player has died. Every hazard, dead
// or alive, restarts its fade at the same instant.
func (w *World) transition() {
	if w.state != StateRunning || w.Player().Alive() {
		return
	}
	for _, e := range w.entities[2:] {
		e.Base().Fade(w.t)
	}
	w.pointerJoint.SetMaxForce(0)
	w.state = StateGameOver
	w.finishRound(OutcomeGameOver)
}

// spawnReserved creates the player and weapon in the two reserved slots and
// hooks the player to the pointer body
func (w *World) spawnReserved() {
	player := NewPlayer(w.newID(), cp.Vector{}, w.cfg.Player, w.rules)
	player.Init(w.space)
	w.add(player)

	weapon := NewWeapon(w.newID(), player, w.cfg.Weapon, w.rules)
	weapon.Init(w.space)
	w.add(weapon)

	w.pointerBody.SetPosition(player.Body().Position())
	w.pointerBody.SetVelocityVector(cp.Vector{})
	joint := cp.NewPivotJoint(w.pointerBody, player.Body(), player.Body().Position())
	joint.SetMaxForce(w.cfg.Player.PointerMaxForce)
	joint.SetErrorBias(math.Pow(1-0.15, 60))
	w.pointerJoint = w.space.AddConstraint(joint)
}

// clearEntities destroys every entity, newest first so joints go before the
// bodies they connect
func (w *World) clearEntities() {
	if w.pointerJoint != nil {
		w.space.RemoveConstraint(w.pointerJoint)
		w.pointerJoint = nil
	}
	for i := len(w.entities) - 1; i >= 0; i-- {
		w.entities[i].Destroy(w.space)
	}
	w.entities = w.entities[:0]
	clear(w.byID)
}

// reclaim removes hazards whose fade has elapsed
func (w *World) reclaim() {
	kept := w.entities[:2]
	removed := 0
	for _, e := range w.entities[2:] {
		if e.Base().Expired(w.t) {
			e.Destroy(w.space)
			delete(w.byID, e.Base().ID())
			removed++
			continue
		}
		kept = append(kept, e)
	}
	clear(w.entities[len(kept):])
	w.entities = kept
	w.rec.HazardsReclaimed(removed)
}

func (w *World) updateCamera(dt float64) {
	x, y := w.input.loadPointer()
	w.pointer.Track(x, y)
	w.camera.Follow(w.Player().Body().Position(), w.cfg.Camera.DeadZone, w.cfg.Camera.FollowGain)

	// the space integrates the kinematic body, landing it on target at the
	// end of this step
	target := w.camera.ScreenToWorld(w.pointer.X, w.pointer.Y)
	w.pointerBody.SetVelocityVector(target.Sub(w.pointerBody.Position()).Mult(1 / dt))
}

func (w *World) newID() EntityID {
	w.nextID++
	return w.nextID
}

func (w *World) add(e Entity) {
	w.entities = append(w.entities, e)
	w.byID[e.Base().ID()] = e
}

// Lookup resolves a handle, returning nil for entities no longer in the world
func (w *World) Lookup(id EntityID) Entity {
	return w.byID[id]
}

// Player returns the entity in the first reserved slot
func (w *World) Player() *Player {
	if len(w.entities) < 2 {
		panic("game: reserved player and weapon slots are missing")
	}
	p, ok := w.entities[0].(*Player)
	if !ok {
		panic("game: reserved slot 0 does not hold the player")
	}
	return p
}

// Weapon returns the entity in the second reserved slot
func (w *World) Weapon() *Weapon {
	if len(w.entities) < 2 {
		panic("game: reserved player and weapon slots are missing")
	}
	wp, ok := w.entities[1].(*Weapon)
	if !ok {
		panic("game: reserved slot 1 does not hold the weapon")
	}
	return wp
}

// Entities returns the entity table; callers must not retain or modify it
func (w *World) Entities() []Entity { return w.entities }

// LiveHazards counts hazards that are still alive
func (w *World) LiveHazards() int {
	n := 0
	for _, e := range w.entities[min(2, len(w.entities)):] {
		if e.Base().Alive() {
			n++
		}
	}
	return n
}

func (w *World) State() State                 { return w.state }
func (w *World) Score() int64                 { return w.score }
func (w *World) Camera() *Camera              { return w.camera }
func (w *World) Bounds() Bounds               { return w.bounds }
func (w *World) LastDamageTime() float64      { return w.lastDamage }
func (w *World) Round() uuid.UUID             { return w.round }
func (w *World) Time() float64                { return w.t }
func (w *World) Config() Config               { return w.cfg }
func (w *World) PointerJoint() *cp.Constraint { return w.pointerJoint }
