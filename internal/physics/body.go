package physics

import (
	"errors"
	"fmt"

	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// ErrBodyDestroyed is returned when a handle outlived its body.
var ErrBodyDestroyed = errors.New("physics: body destroyed")

type FixtureDef struct {
	// Vertices in body-local coordinates; the engine keeps their convex hull.
	Vertices []mgl64.Vec2
	Density  float64
	Friction float64
}

// Body is a handle to one rigid body.
type Body struct {
	id BodyID
	b  *box2d.B2Body
}

func (b *Body) ID() BodyID { return b.id }

// Valid reports whether the body still exists in its engine.
func (b *Body) Valid() bool { return b != nil && b.b != nil }

// CreateFixture attaches a polygon fixture.
func (b *Body) CreateFixture(def FixtureDef) error {
	if !b.Valid() {
		return ErrBodyDestroyed
	}
	if len(def.Vertices) < 3 || len(def.Vertices) > box2d.B2_maxPolygonVertices {
		return fmt.Errorf("physics: polygon needs 3..%d vertices, got %d", box2d.B2_maxPolygonVertices, len(def.Vertices))
	}
	if def.Density <= 0 {
		return fmt.Errorf("physics: density must be positive, got %f", def.Density)
	}

	for i := range def.Vertices {
		for j := i + 1; j < len(def.Vertices); j++ {
			if def.Vertices[i].Sub(def.Vertices[j]).Len() < box2d.B2_linearSlop {
				return fmt.Errorf("physics: polygon vertices %d and %d are welded together", i, j)
			}
		}
	}

	verts := make([]box2d.B2Vec2, len(def.Vertices))
	for i, v := range def.Vertices {
		verts[i] = toB2(v)
	}
	shape := box2d.MakeB2PolygonShape()
	shape.Set(verts, len(verts))

	fd := box2d.MakeB2FixtureDef()
	fd.Shape = &shape
	fd.Density = def.Density
	fd.Friction = def.Friction
	b.b.CreateFixtureFromDef(&fd)
	return nil
}

// Transform returns (x, y, angle) of the body origin.
func (b *Body) Transform() dynamo.Vec3 {
	if !b.Valid() {
		return dynamo.Vec3{}
	}
	p := b.b.GetPosition()
	return dynamo.Vec3{p.X, p.Y, b.b.GetAngle()}
}

// Velocity returns the world-frame velocity of the body origin. Box2D stores
// the velocity of the center of mass, which differs once the body rotates.
func (b *Body) Velocity() dynamo.Vec3 {
	if !b.Valid() {
		return dynamo.Vec3{}
	}
	v := b.b.GetLinearVelocityFromWorldPoint(b.b.GetPosition())
	return dynamo.Vec3{v.X, v.Y, b.b.GetAngularVelocity()}
}

func (b *Body) Mass() float64 {
	if !b.Valid() {
		return 0
	}
	return b.b.GetMass()
}

// Inertia returns the rotational inertia about the center of mass.
func (b *Body) Inertia() float64 {
	if !b.Valid() {
		return 0
	}
	c := b.b.GetLocalCenter()
	return b.b.GetInertia() - b.b.GetMass()*(c.X*c.X+c.Y*c.Y)
}

// LocalCenter returns the center of mass in body coordinates.
func (b *Body) LocalCenter() mgl64.Vec2 {
	if !b.Valid() {
		return mgl64.Vec2{}
	}
	return fromB2(b.b.GetLocalCenter())
}

// WorldPoint maps a body-local point to world coordinates.
func (b *Body) WorldPoint(local mgl64.Vec2) mgl64.Vec2 {
	return fromB2(b.b.GetWorldPoint(toB2(local)))
}

// WorldVector rotates a body-local direction into the world frame.
func (b *Body) WorldVector(local mgl64.Vec2) mgl64.Vec2 {
	return fromB2(b.b.GetWorldVector(toB2(local)))
}

// PointVelocity returns the world-frame velocity of a world point attached to the body.
func (b *Body) PointVelocity(world mgl64.Vec2) mgl64.Vec2 {
	return fromB2(b.b.GetLinearVelocityFromWorldPoint(toB2(world)))
}

// ApplyForce applies a world-frame force at a world point. It is meant for
// pre-step actuation only; the force is consumed by the next engine step.
func (b *Body) ApplyForce(force, point mgl64.Vec2) {
	if !b.Valid() || (force.X() == 0 && force.Y() == 0) {
		return
	}
	b.b.ApplyForce(toB2(force), toB2(point), true)
}

// SetUserData attaches an opaque value to the body.
func (b *Body) SetUserData(v any) {
	if b.Valid() {
		b.b.SetUserData(v)
	}
}

func (b *Body) UserData() any {
	if !b.Valid() {
		return nil
	}
	return b.b.GetUserData()
}
