package game

import (
	"github.com/jakecoffman/cp"
)

// Weapon is the conker: an inert box dragged behind the player on a string.
// It shares the player's filter group so the two never touch each other.
type Weapon struct {
	Object
	holder   *Player
	size     float64
	friction float64
	length   float64
}

// NewWeapon creates a weapon hanging off holder
func NewWeapon(id EntityID, holder *Player, cfg WeaponConfig, rules DamageRules) *Weapon {
	body := cp.NewBody(cfg.Mass, cp.MomentForBox(cfg.Mass, cfg.Size, cfg.Size))
	body.SetPosition(holder.Body().Position().Add(cp.Vector{X: cfg.StringLength / 2}))
	return &Weapon{
		Object:   newObject(id, KindWeapon, GroupPlayer, body, 0, rules),
		holder:   holder,
		size:     cfg.Size,
		friction: cfg.Friction,
		length:   cfg.StringLength,
	}
}

func (w *Weapon) Init(space *Space) {
	w.attach(space, w)
	shape := w.addShape(space, w, cp.NewBox(w.body, w.size, w.size, 0), w.friction)
	shape.SetFilter(cp.NewShapeFilter(playerFilterGroup, cp.ALL_CATEGORIES, cp.ALL_CATEGORIES))
	w.addConstraint(space, cp.NewSlideJoint(w.holder.Body(), w.body, cp.Vector{}, cp.Vector{}, 0, w.length))
}

// OnDamagingContact does nothing; the weapon is a pure obstacle
func (w *Weapon) OnDamagingContact(Entity, cp.Vector, float64) {}

func (w *Weapon) Render(c *Canvas, t, dt float64) {
	s := float32(w.size)
	c.FillRect(-s/2, -s/2, s, s, GetGroupConfig(GroupPlayer).Color)
}
