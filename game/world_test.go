package game

import (
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeRecorder struct {
	mu        sync.Mutex
	spawned   map[HazardKind]int
	reclaimed int
	live      int
	score     int64
	rounds    []string
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{spawned: map[HazardKind]int{}}
}

func (r *fakeRecorder) HazardSpawned(kind HazardKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spawned[kind]++
}

func (r *fakeRecorder) HazardsReclaimed(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reclaimed += n
}

func (r *fakeRecorder) SetLiveHazards(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live = n
}

func (r *fakeRecorder) SetScore(score int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.score = score
}

func (r *fakeRecorder) RoundFinished(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds = append(r.rounds, outcome)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.World.Seed = "test"
	return cfg
}

// testWorld steps a world the way the scheduler does: t is always steps*dt
type testWorld struct {
	*World
	rec   *fakeRecorder
	steps int
	dt    float64
}

func newTestWorld(t *testing.T, cfg Config, opts ...Option) *testWorld {
	t.Helper()
	require.NoError(t, cfg.Validate())
	rec := newFakeRecorder()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), WithRecorder(rec)}, opts...)
	w := NewWorld(cfg, opts...)
	require.NoError(t, w.Init())
	t.Cleanup(w.Cleanup)
	return &testWorld{World: w, rec: rec, dt: cfg.Dt()}
}

func (w *testWorld) step(n int) {
	for range n {
		w.Step(float64(w.steps)*w.dt, w.dt)
		w.steps++
	}
}

func (w *testWorld) pressStart() {
	w.OnKeyRelease(ebiten.KeySpace)
	w.step(1)
}

// addHazard places a hazard directly, bypassing the spawner
func (w *testWorld) addHazard(kind HazardKind, pos cp.Vector) *Hazard {
	h := NewHazard(w.newID(), kind, pos, w.Player().ID(), w.Lookup, w.cfg.Spawn, w.rules)
	h.Init(w.space)
	w.add(h)
	return h
}

func TestWorld_InitReservesPlayerAndWeapon(t *testing.T) {
	w := newTestWorld(t, testConfig())

	require.Equal(t, StateWaiting, w.State())
	require.Len(t, w.Entities(), 2)
	require.Equal(t, KindPlayer, w.Player().Kind())
	require.Equal(t, KindWeapon, w.Weapon().Kind())
	require.Same(t, w.Player(), w.Lookup(w.Player().ID()))
	require.Zero(t, w.LiveHazards())
	require.ErrorIs(t, w.Init(), ErrAlreadyInitialized)
}

func TestWorld_WaitingNeverSpawns(t *testing.T) {
	cfg := testConfig()
	cfg.Spawn.BaseRate = 1000
	w := newTestWorld(t, cfg)

	w.step(240)
	require.Equal(t, StateWaiting, w.State())
	require.Len(t, w.Entities(), 2)
	require.Zero(t, w.Score())
}

func TestWorld_OnlyStartKeyStartsRound(t *testing.T) {
	w := newTestWorld(t, testConfig())

	w.OnKeyRelease(ebiten.KeyA)
	w.step(1)
	require.Equal(t, StateWaiting, w.State())

	oldPlayer := w.Player().ID()
	w.pressStart()
	require.Equal(t, StateRunning, w.State())
	require.NotEqual(t, uuid.Nil, w.Round())
	require.NotEqual(t, oldPlayer, w.Player().ID())
	require.Nil(t, w.Lookup(oldPlayer))
	require.Zero(t, w.Score())
	require.Len(t, w.Entities(), 2)
}

func TestWorld_FirstStepAfterStartSpawns(t *testing.T) {
	cfg := testConfig()
	cfg.Spawn.BaseRate = 1000
	w := newTestWorld(t, cfg)

	// the starting step itself never spawns, however high the rate
	w.pressStart()
	require.Equal(t, StateRunning, w.State())
	require.Len(t, w.Entities(), 2)
	require.Zero(t, w.LiveHazards())

	w.step(1)
	require.Equal(t, 1, w.LiveHazards())
	require.Len(t, w.Entities(), 3)

	h, ok := w.Entities()[2].(*Hazard)
	require.True(t, ok)
	require.GreaterOrEqual(t, h.Body().Position().Distance(w.Player().Body().Position()), cfg.Spawn.ClearanceRadius-1)
	require.Equal(t, 1, w.rec.spawned[HazardButter]+w.rec.spawned[HazardSlab])
}

func TestWorld_LiveHazardsStayUnderTarget(t *testing.T) {
	cfg := testConfig()
	cfg.Spawn.BaseRate = 1000
	cfg.Spawn.MaxHazards = 3
	cfg.World.DamageFactor = 0
	w := newTestWorld(t, cfg)

	w.pressStart()
	for range 600 {
		w.step(1)
		require.LessOrEqual(t, w.LiveHazards(), HazardTarget(w.Score(), cfg.Spawn))
		require.LessOrEqual(t, w.LiveHazards(), cfg.Spawn.MaxHazards)
	}
	require.Equal(t, StateRunning, w.State())
}

func TestWorld_PlayerDeathEndsRound(t *testing.T) {
	cfg := testConfig()
	cfg.Spawn.BaseRate = 0
	w := newTestWorld(t, cfg)
	w.pressStart()

	hs := []*Hazard{
		w.addHazard(HazardButter, cp.Vector{X: 120, Y: 70}),
		w.addHazard(HazardSlab, cp.Vector{X: -120, Y: -70}),
	}
	w.step(1)
	require.Equal(t, StateRunning, w.State())

	// already fading before the round ends
	hs[0].Kill(w.Time())
	w.step(30)

	w.Player().Kill(w.Time())
	w.step(1)
	end := w.Time()

	require.Equal(t, StateGameOver, w.State())
	require.Equal(t, []string{OutcomeGameOver}, w.rec.rounds)
	require.Zero(t, w.PointerJoint().MaxForce())
	require.Zero(t, w.LiveHazards())
	for _, h := range hs {
		require.False(t, h.Alive())
		require.Equal(t, end+w.cfg.World.FadeDuration, h.ExpireTime())
	}

	// dead hazards linger for the fade, then go
	w.step(110)
	require.Len(t, w.Entities(), 4)
	w.step(15)
	require.Len(t, w.Entities(), 2)
	for _, h := range hs {
		require.Nil(t, w.Lookup(h.ID()))
	}
	require.Equal(t, 2, w.rec.reclaimed)
}

func TestWorld_GameOverReturnsToWaiting(t *testing.T) {
	w := newTestWorld(t, testConfig())
	w.pressStart()
	first := w.Round()

	w.addHazard(HazardButter, cp.Vector{X: 120, Y: 70})
	w.Player().Kill(w.Time())
	w.step(1)
	require.Equal(t, StateGameOver, w.State())

	w.pressStart()
	require.Equal(t, StateWaiting, w.State())
	w.pressStart()
	require.Equal(t, StateRunning, w.State())
	require.NotEqual(t, first, w.Round())
	require.True(t, w.Player().Alive())
	require.Equal(t, w.cfg.Player.Health, w.Player().Health())
	require.Positive(t, w.PointerJoint().MaxForce())
	require.Len(t, w.Entities(), 2)
}

func TestWorld_CleanupAbandonsRunningRound(t *testing.T) {
	rec := newFakeRecorder()
	w := NewWorld(testConfig(), WithRecorder(rec))
	require.NoError(t, w.Init())
	w.OnKeyRelease(ebiten.KeySpace)
	w.Step(0, w.cfg.Dt())

	w.Cleanup()
	require.Equal(t, []string{OutcomeAbandoned}, rec.rounds)
	require.Empty(t, w.Entities())
	w.Cleanup()
}

func TestWorld_PlayerFollowsPointer(t *testing.T) {
	w := newTestWorld(t, testConfig())
	cam := w.Camera()

	// a point a few units right of the player, well inside the dead zone
	sx, sy := cam.WorldToScreen(cp.Vector{X: 10, Y: 5})
	w.OnPointerMove(sx, sy)
	w.step(240)

	pos := w.Player().Body().Position()
	require.InDelta(t, 10, pos.X, 0.5)
	require.InDelta(t, 5, pos.Y, 0.5)

	// the pointer body rests on the target instead of swinging past it
	for range 5 {
		w.step(1)
		p := w.pointerBody.Position()
		require.InDelta(t, 10, p.X, 1e-6)
		require.InDelta(t, 5, p.Y, 1e-6)
	}
}

func TestWorld_HazardStrikesPlayerThroughPhysics(t *testing.T) {
	cfg := testConfig()
	cfg.Spawn.BaseRate = 0
	w := newTestWorld(t, cfg)
	w.pressStart()

	h := w.addHazard(HazardButter, cp.Vector{X: 0, Y: 14})
	h.Body().SetVelocity(0, -60)

	w.step(60)
	require.Less(t, w.Player().Health(), cfg.Player.Health)
	require.Less(t, h.Health(), GetHazardKindConfig(HazardButter).Health)
	require.Positive(t, w.Score())
	require.False(t, math.IsInf(w.LastDamageTime(), -1))
}

func TestWorld_WallDamagesHazardWithoutScore(t *testing.T) {
	cfg := testConfig()
	cfg.Spawn.BaseRate = 0
	w := newTestWorld(t, cfg)
	w.pressStart()

	h := w.addHazard(HazardButter, cp.Vector{X: 0, Y: -90})
	h.Body().SetVelocity(0, -100)

	w.step(30)
	require.Less(t, h.Health(), GetHazardKindConfig(HazardButter).Health)
	require.Zero(t, w.Score())
	require.Equal(t, cfg.Player.Health, w.Player().Health())
}

func TestWorld_SameSeedSameSpawns(t *testing.T) {
	run := func(opts ...Option) []cp.Vector {
		cfg := testConfig()
		cfg.Spawn.BaseRate = 1000
		w := newTestWorld(t, cfg, opts...)
		w.pressStart()
		w.step(60)
		var out []cp.Vector
		for _, e := range w.Entities()[2:] {
			out = append(out, e.Base().Body().Position())
		}
		return out
	}
	require.Equal(t, run(), run())
	require.Equal(t, run(WithSeed(42)), run(WithSeed(42)))
	require.NotEqual(t, run(WithSeed(42)), run(WithSeed(43)))
}

func TestBounds(t *testing.T) {
	b := CenteredBounds(320, 200)
	require.Equal(t, 320.0, b.Width())
	require.Equal(t, 200.0, b.Height())
	require.True(t, b.Contains(cp.Vector{X: 160, Y: -100}))
	require.False(t, b.Contains(cp.Vector{X: 161, Y: 0}))

	in := b.Inset(10)
	require.Equal(t, 300.0, in.Width())
	require.Equal(t, cp.Vector{X: -150, Y: -90}, in.Min)
}
