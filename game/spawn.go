package game

import (
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
)

// HazardTarget is the number of live hazards the spawner aims for at score.
// It starts at one and grows by one every ScorePerHazard points up to
// MaxHazards.
func HazardTarget(score int64, cfg SpawnConfig) int {
	n := 1 + max(score, 0)/cfg.ScorePerHazard
	return int(min(n, int64(cfg.MaxHazards)))
}

// spawn adds at most one hazard per step while the live count is below target.
// The expected rate is target × BaseRate per simulated second.
func (w *World) spawn(dt float64) {
	target := HazardTarget(w.score, w.cfg.Spawn)
	if w.LiveHazards() >= target {
		return
	}
	if w.rng.Float64() >= float64(target)*w.cfg.Spawn.BaseRate*dt {
		return
	}

	kind := PickHazardKind(w.rng)
	pos := w.placement(GetHazardKindConfig(kind).Size / 2)
	h := NewHazard(w.newID(), kind, pos, w.Player().ID(), w.Lookup, w.cfg.Spawn, w.rules)
	h.Init(w.space)
	w.add(h)

	w.rec.HazardSpawned(kind)
	w.log.Debug("hazard spawned",
		zap.Stringer("kind", kind),
		zap.Uint64("id", uint64(h.ID())),
		zap.Float64("x", pos.X),
		zap.Float64("y", pos.Y),
		zap.Int("target", target))
}

// placement draws a uniform point inside the bounds inset by half, rejecting
// points within the clearance radius of the player. Config validation keeps
// placement area available wherever the player stands.
func (w *World) placement(half float64) cp.Vector {
	area := w.bounds.Inset(half)
	player := w.Player().Body().Position()
	clearance := w.cfg.Spawn.ClearanceRadius
	for {
		p := cp.Vector{
			X: area.Min.X + w.rng.Float64()*area.Width(),
			Y: area.Min.Y + w.rng.Float64()*area.Height(),
		}
		if p.Distance(player) >= clearance {
			return p
		}
	}
}
