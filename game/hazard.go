package game

import (
	"image/color"
	"math"

	"github.com/jakecoffman/cp"
)

// Resolver looks up a live entity by handle, returning nil once it is gone
type Resolver func(EntityID) Entity

// Hazard is a square that homes on its target and falls once dead
type Hazard struct {
	Object
	kind     HazardKind
	size     float64
	friction float64

	target  EntityID
	resolve Resolver
	homing  float64
	gravity float64
}

// NewHazard creates a hazard of kind at pos chasing target
func NewHazard(id EntityID, kind HazardKind, pos cp.Vector, target EntityID, resolve Resolver, cfg SpawnConfig, rules DamageRules) *Hazard {
	kc := GetHazardKindConfig(kind)
	body := cp.NewBody(kc.Mass, cp.MomentForBox(kc.Mass, kc.Size, kc.Size))
	body.SetPosition(pos)
	return &Hazard{
		Object:   newObject(id, KindHazard, GroupEnemy, body, kc.Health, rules),
		kind:     kind,
		size:     kc.Size,
		friction: 0.1,
		target:   target,
		resolve:  resolve,
		homing:   cfg.HomingFactor,
		gravity:  cfg.DeadGravity,
	}
}

func (h *Hazard) Init(space *Space) {
	h.attach(space, h)
	h.addShape(space, h, cp.NewBox(h.body, h.size, h.size, 0), h.friction)
	h.addConstraint(space, cp.NewDampedRotarySpring(space.StaticBody(), h.body, math.Pi/4, 1000, 0.8))
}

// HazardKind returns the hazard's kind
func (h *Hazard) HazardKind() HazardKind { return h.kind }

// Size is the edge length of the hazard's square
func (h *Hazard) Size() float64 { return h.size }

// Simulate pulls a living hazard toward its target and lets a dead one fall.
// Forces are cleared by every physics step, so both are reapplied each step.
func (h *Hazard) Simulate(t, dt float64) {
	if !h.alive {
		h.fall()
		return
	}
	h.body.SetForce(cp.Vector{})
	if h.resolve == nil {
		return
	}
	target := h.resolve(h.target)
	if target == nil {
		return
	}
	delta := target.Base().Body().Position().Sub(h.body.Position())
	h.body.SetForce(delta.Mult(h.homing * h.body.Mass()))
}

// OnDamagingContact applies the shared rule and starts the fall on death
func (h *Hazard) OnDamagingContact(other Entity, relVel cp.Vector, t float64) {
	h.Damage(relVel, t)
	if !h.alive {
		h.fall()
	}
}

func (h *Hazard) fall() {
	h.body.SetForce(cp.Vector{X: 0, Y: -h.gravity}.Mult(h.body.Mass()))
}

// Render strokes the outline, fading out over the remaining time to live
func (h *Hazard) Render(c *Canvas, t, dt float64) {
	base := GetGroupConfig(GroupEnemy).Color
	alpha := float64(base.A)
	if !h.alive {
		alpha *= clamp(h.expireTime-t, 0, 1)
	}
	const lineWidth = 1.5
	s := float32(h.size)
	c.StrokeRect(-s/2+lineWidth/2, -s/2+lineWidth/2, s-lineWidth, s-lineWidth, lineWidth,
		color.NRGBA{base.R, base.G, base.B, uint8(alpha)})
}
