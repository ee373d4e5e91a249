package game

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/require"
)

// impact has speed 50, so a default hit costs 5 health
var impact = cp.Vector{X: 30, Y: 40}

func newContactWorld(t *testing.T, state State) (*testWorld, *Hazard, *Hazard) {
	t.Helper()
	cfg := testConfig()
	cfg.Spawn.BaseRate = 0
	w := newTestWorld(t, cfg)
	a := w.addHazard(HazardButter, cp.Vector{X: 100, Y: 50})
	b := w.addHazard(HazardSlab, cp.Vector{X: -100, Y: -50})
	w.state = state
	w.t = 7
	return w, a, b
}

func TestContact_PlayerAndLiveHazard(t *testing.T) {
	w, h, _ := newContactWorld(t, StateRunning)

	w.resolveContact(h, w.Player(), impact)

	require.InDelta(t, 95, w.Player().Health(), 1e-9)
	require.InDelta(t, 95, h.Health(), 1e-9)
	require.Equal(t, int64(50), w.Score())
	require.Equal(t, 7.0, w.LastDamageTime())
}

func TestContact_PlayerFirstOrSecondIsSymmetric(t *testing.T) {
	w, h, _ := newContactWorld(t, StateRunning)

	w.resolveContact(w.Player(), h, impact)

	require.InDelta(t, 95, w.Player().Health(), 1e-9)
	require.InDelta(t, 95, h.Health(), 1e-9)
	require.Equal(t, int64(50), w.Score())
}

func TestContact_DeadHazardOnlyHurtsPlayer(t *testing.T) {
	w, h, _ := newContactWorld(t, StateRunning)
	h.Kill(6)

	w.resolveContact(h, w.Player(), impact)

	require.InDelta(t, 95, w.Player().Health(), 1e-9)
	require.Equal(t, 100.0, h.Health())
	require.Zero(t, w.Score())
}

func TestContact_DeadPlayerDoesNotFlash(t *testing.T) {
	w, h, _ := newContactWorld(t, StateGameOver)
	w.Player().Kill(6)

	w.resolveContact(w.Player(), h, impact)

	require.True(t, math.IsInf(w.LastDamageTime(), -1))
}

func TestContact_HazardsDamageEachOther(t *testing.T) {
	w, a, b := newContactWorld(t, StateRunning)

	w.resolveContact(a, b, impact)

	require.InDelta(t, 95, a.Health(), 1e-9)
	require.InDelta(t, 95, b.Health(), 1e-9)
	require.Equal(t, int64(100), w.Score())
	require.True(t, math.IsInf(w.LastDamageTime(), -1))
}

func TestContact_ScoreOnlyWhileRunning(t *testing.T) {
	w, a, b := newContactWorld(t, StateWaiting)

	w.resolveContact(a, b, impact)
	w.resolveContact(a, w.Player(), impact)

	require.InDelta(t, 90, a.Health(), 1e-9)
	require.Zero(t, w.Score())
}

func TestContact_WallHurtsHazardWithoutScore(t *testing.T) {
	w, h, _ := newContactWorld(t, StateRunning)

	w.resolveContact(nil, h, impact)
	w.resolveContact(h, nil, impact)

	require.InDelta(t, 90, h.Health(), 1e-9)
	require.Zero(t, w.Score())
	require.Equal(t, 100.0, w.Player().Health())
}

func TestContact_WeaponIsInert(t *testing.T) {
	w, h, _ := newContactWorld(t, StateRunning)

	w.resolveContact(w.Weapon(), h, impact)
	w.resolveContact(h, w.Weapon(), impact)
	w.resolveContact(nil, w.Weapon(), impact)

	require.Equal(t, 100.0, h.Health())
	require.True(t, w.Weapon().Alive())
	require.Zero(t, w.Score())
}

func TestContact_LethalHitStartsFall(t *testing.T) {
	w, h, _ := newContactWorld(t, StateRunning)

	w.resolveContact(h, w.Player(), cp.Vector{X: 2000})

	require.False(t, h.Alive())
	require.Equal(t, 7+w.cfg.World.FadeDuration, h.ExpireTime())
	require.Less(t, h.Body().Force().Y, 0.0)
	require.Equal(t, int64(2000), w.Score())
}

func TestHazard_HomesOnTarget(t *testing.T) {
	w, h, _ := newContactWorld(t, StateRunning)
	w.Player().Body().SetPosition(cp.Vector{})

	h.Simulate(w.t, w.dt)
	want := cp.Vector{X: -100, Y: -50}.Mult(w.cfg.Spawn.HomingFactor * h.Body().Mass())
	require.InDelta(t, want.X, h.Body().Force().X, 1e-9)
	require.InDelta(t, want.Y, h.Body().Force().Y, 1e-9)
}

func TestHazard_LostTargetStopsHoming(t *testing.T) {
	h := NewHazard(10, HazardButter, cp.Vector{X: 5}, 999, func(EntityID) Entity { return nil }, DefaultConfig().Spawn, testRules)
	h.Body().SetForce(cp.Vector{X: 3, Y: 3})

	h.Simulate(0, 1.0/120)
	require.Equal(t, cp.Vector{}, h.Body().Force())
}

func TestHazard_DeadFalls(t *testing.T) {
	cfg := DefaultConfig().Spawn
	h := NewHazard(10, HazardSlab, cp.Vector{}, 1, nil, cfg, testRules)
	h.Kill(0)

	h.Simulate(0.5, 1.0/120)
	require.Equal(t, cp.Vector{X: 0, Y: -cfg.DeadGravity * h.Body().Mass()}, h.Body().Force())
}
