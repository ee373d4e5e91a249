package game

import (
	"github.com/jakecoffman/cp"
)

// ContactFunc receives the entities behind a new contact. Either side is nil
// for static geometry such as walls.
type ContactFunc func(a, b Entity, relVel cp.Vector)

// Space wraps the physics world the simulation steps
type Space struct {
	space *cp.Space
	walls []*cp.Shape
}

// NewSpace creates a physics world with the given per-second velocity damping
func NewSpace(damping float64) *Space {
	s := cp.NewSpace()
	s.SetDamping(damping)
	return &Space{space: s}
}

// StaticBody is the world's immovable body
func (s *Space) StaticBody() *cp.Body {
	return s.space.StaticBody
}

func (s *Space) AddBody(b *cp.Body) *cp.Body { return s.space.AddBody(b) }

func (s *Space) AddShape(sh *cp.Shape) *cp.Shape { return s.space.AddShape(sh) }

func (s *Space) AddConstraint(c *cp.Constraint) *cp.Constraint { return s.space.AddConstraint(c) }

func (s *Space) RemoveBody(b *cp.Body) { s.space.RemoveBody(b) }

func (s *Space) RemoveShape(sh *cp.Shape) { s.space.RemoveShape(sh) }

func (s *Space) RemoveConstraint(c *cp.Constraint) { s.space.RemoveConstraint(c) }

// Step advances the physics world, delivering contacts before it returns
func (s *Space) Step(dt float64) {
	s.space.Step(dt)
}

// AddWalls encloses bounds with static segments in the environment group
func (s *Space) AddWalls(b Bounds, radius float64) {
	corners := []cp.Vector{
		{X: b.Min.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Max.Y},
	}
	for i := range corners {
		wall := cp.NewSegment(s.space.StaticBody, corners[i], corners[(i+1)%len(corners)], radius)
		wall.SetFriction(1)
		wall.SetElasticity(0.5)
		wall.SetCollisionType(GroupEnvironment.CollisionType())
		s.space.AddShape(wall)
		s.walls = append(s.walls, wall)
	}
}

// OnContact reports the first touch of every shape pair in groups a and b.
// The physical response is always processed.
func (s *Space) OnContact(a, b Group, fn ContactFunc) {
	handler := s.space.NewCollisionHandler(a.CollisionType(), b.CollisionType())
	handler.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
		shapeA, shapeB := arb.Shapes()
		ea, _ := shapeA.UserData.(Entity)
		eb, _ := shapeB.UserData.(Entity)
		relVel := shapeA.Body().Velocity().Sub(shapeB.Body().Velocity())
		fn(ea, eb, relVel)
		return true
	}
}
