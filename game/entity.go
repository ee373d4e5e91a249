package game

import (
	"math"

	"github.com/jakecoffman/cp"
)

// EntityID is a stable handle into the world's entity table. IDs are never
// reused within a world, so a handle to a removed entity simply stops
// resolving.
type EntityID uint64

// Kind identifies the entity variant
type Kind int

const (
	KindPlayer Kind = iota
	KindWeapon
	KindHazard
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindWeapon:
		return "weapon"
	case KindHazard:
		return "hazard"
	default:
		return "unknown"
	}
}

// Entity is a simulation object owning one physics body
type Entity interface {
	// Base returns the shared state every variant embeds
	Base() *Object

	// Init registers the body, shapes and constraints into space
	Init(space *Space)

	// Simulate applies variant behaviour for the step starting at t
	Simulate(t, dt float64)

	// Render draws in a frame already placed at the entity's pose
	Render(c *Canvas, t, dt float64)

	// OnDamagingContact applies a hit from other with the given relative velocity
	OnDamagingContact(other Entity, relVel cp.Vector, t float64)

	// Destroy removes everything Init added to space
	Destroy(space *Space)
}

// Object is the state and default behaviour shared by all entities
type Object struct {
	id    EntityID
	kind  Kind
	group Group

	body        *cp.Body
	shapes      []*cp.Shape
	constraints []*cp.Constraint

	alive      bool
	expireTime float64
	health     float64
	maxHealth  float64

	damageFactor float64
	fadeDuration float64
}

func newObject(id EntityID, kind Kind, group Group, body *cp.Body, health float64, rules DamageRules) Object {
	return Object{
		id:           id,
		kind:         kind,
		group:        group,
		body:         body,
		alive:        true,
		health:       health,
		maxHealth:    health,
		damageFactor: rules.Factor,
		fadeDuration: rules.Fade,
	}
}

// DamageRules parameterises the damage rule shared by every entity
type DamageRules struct {
	Factor float64
	Fade   float64
}

// Base returns o
func (o *Object) Base() *Object { return o }

func (o *Object) ID() EntityID        { return o.id }
func (o *Object) Kind() Kind          { return o.kind }
func (o *Object) Group() Group        { return o.group }
func (o *Object) Body() *cp.Body      { return o.body }
func (o *Object) Alive() bool         { return o.alive }
func (o *Object) ExpireTime() float64 { return o.expireTime }
func (o *Object) Health() float64     { return o.health }
func (o *Object) MaxHealth() float64  { return o.maxHealth }

// TimeToLive returns the fade time left at t, zero once expired
func (o *Object) TimeToLive(t float64) float64 {
	return math.Max(o.expireTime-t, 0)
}

// Expired reports whether a dead entity's fade has elapsed at t
func (o *Object) Expired(t float64) bool {
	return !o.alive && o.expireTime <= t
}

// Damage reduces health by the impact speed scaled by the damage factor.
// Health stays within [0, maxHealth]; the hit that empties it kills the entity
// and starts its fade.
func (o *Object) Damage(relVel cp.Vector, t float64) {
	o.health = clamp(o.health-o.damageFactor*relVel.Length(), 0, o.maxHealth)
	if o.alive && o.health == 0 {
		o.Kill(t)
	}
}

// Kill marks a living entity dead with its fade starting at t
func (o *Object) Kill(t float64) {
	if !o.alive {
		return
	}
	o.alive = false
	o.expireTime = t + o.fadeDuration
}

// Fade marks the entity dead and restarts its fade at t, even if it was
// already fading
func (o *Object) Fade(t float64) {
	o.alive = false
	o.expireTime = t + o.fadeDuration
}

// OnDamagingContact applies the shared damage rule
func (o *Object) OnDamagingContact(_ Entity, relVel cp.Vector, t float64) {
	o.Damage(relVel, t)
}

// Simulate does nothing by default
func (o *Object) Simulate(t, dt float64) {}

// Destroy removes constraints, shapes and finally the body from space
func (o *Object) Destroy(space *Space) {
	for _, c := range o.constraints {
		space.RemoveConstraint(c)
	}
	for _, s := range o.shapes {
		space.RemoveShape(s)
	}
	if o.body != nil {
		space.RemoveBody(o.body)
	}
	o.constraints = nil
	o.shapes = nil
}

// attach registers the body and tags it with its owner
func (o *Object) attach(space *Space, owner Entity) {
	o.body.UserData = owner
	space.AddBody(o.body)
}

// addShape registers a shape, tags it with the owner and sets its collision group
func (o *Object) addShape(space *Space, owner Entity, shape *cp.Shape, friction float64) *cp.Shape {
	shape.SetFriction(friction)
	shape.SetCollisionType(o.group.CollisionType())
	shape.UserData = owner
	space.AddShape(shape)
	o.shapes = append(o.shapes, shape)
	return shape
}

func (o *Object) addConstraint(space *Space, c *cp.Constraint) *cp.Constraint {
	space.AddConstraint(c)
	o.constraints = append(o.constraints, c)
	return c
}

// Pose returns position and angle linearly extrapolated by frac seconds
func (o *Object) Pose(frac float64) (cp.Vector, float64) {
	pos := o.body.Position().Add(o.body.Velocity().Mult(frac))
	angle := o.body.Angle() + o.body.AngularVelocity()*frac
	return pos, angle
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
