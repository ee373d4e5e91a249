package game

import (
	"image/color"
	"math"

	"github.com/jakecoffman/cp"
)

// playerFilterGroup keeps the player and its weapon from colliding with each other
const playerFilterGroup uint = 1

// Player is the pointer-driven disc. It has no behaviour of its own; the
// pointer joint owned by the world pulls it around.
type Player struct {
	Object
	radius   float64
	friction float64
}

// NewPlayer creates a player at pos. The body joins a space on Init.
func NewPlayer(id EntityID, pos cp.Vector, cfg PlayerConfig, rules DamageRules) *Player {
	body := cp.NewBody(cfg.Mass, cp.MomentForCircle(cfg.Mass, 0, cfg.Radius, cp.Vector{}))
	body.SetPosition(pos)
	return &Player{
		Object:   newObject(id, KindPlayer, GroupPlayer, body, cfg.Health, rules),
		radius:   cfg.Radius,
		friction: cfg.Friction,
	}
}

func (p *Player) Init(space *Space) {
	p.attach(space, p)
	shape := p.addShape(space, p, cp.NewCircle(p.body, p.radius, cp.Vector{}), p.friction)
	shape.SetFilter(cp.NewShapeFilter(playerFilterGroup, cp.ALL_CATEGORIES, cp.ALL_CATEGORIES))
}

// Radius of the player disc in world units
func (p *Player) Radius() float64 { return p.radius }

// Render draws the health pie upright regardless of the body's spin
func (p *Player) Render(c *Canvas, t, dt float64) {
	upright := c.Rotated(math.Pi/2 - p.body.Angle())
	frac := p.health / p.maxHealth
	r := float32(p.radius)
	sweep := float32(2 * math.Pi * frac)

	if frac < 1 {
		upright.FillPie(0, 0, r, sweep, 2*math.Pi, color.NRGBA{51, 51, 51, 51})
	}
	if frac > 0 {
		upright.FillPie(0, 0, r, 0, sweep, GetGroupConfig(GroupPlayer).Color)
	}
}
