package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/mv2dsim/internal/physics"
)

// Wheel is a contact point fixed to the chassis.
type Wheel struct {
	// Pos is the contact point in chassis coordinates.
	Pos    mgl64.Vec2
	Radius float64
	// Steer is the wheel angle relative to the chassis x axis.
	Steer float64
	// Spin is the wheel angular speed in rad/s and Phi its integrated angle.
	Spin float64
	Phi  float64
}

// frictionModel turns per-wheel target contact velocities into forces on the
// chassis. Each wheel removes its share of the velocity error within one
// step, weighted by the effective mass seen at that point, and never pushes
// harder than mu * g times its share of the vehicle mass.
type frictionModel struct {
	mu float64
}

// apply takes desired contact velocities in chassis coordinates, one per wheel.
func (f frictionModel) apply(chassis *physics.Body, wheels []Wheel, desired []mgl64.Vec2, dt float64) {
	n := float64(len(wheels))
	if n == 0 || dt <= 0 {
		return
	}
	mass, inertia := chassis.Mass(), chassis.Inertia()
	if mass <= 0 {
		return
	}
	center := chassis.LocalCenter()
	toLocal := mgl64.Rotate2D(-chassis.Transform().Yaw())
	maxForce := f.mu * physics.StandardGravity * mass / n

	for i, w := range wheels {
		world := chassis.WorldPoint(w.Pos)
		actual := toLocal.Mul2x1(chassis.PointVelocity(world))
		dv := desired[i].Sub(actual)

		r := w.Pos.Sub(center)
		force := mgl64.Vec2{
			effectiveMass(mass, inertia, -r.Y()) * dv.X(),
			effectiveMass(mass, inertia, r.X()) * dv.Y(),
		}.Mul(1 / (n * dt))

		if l := force.Len(); l > maxForce {
			force = force.Mul(maxForce / l)
		}
		chassis.ApplyForce(chassis.WorldVector(force), world)
	}
}

// effectiveMass is the mass a point impulse feels when its lever arm about
// the center of mass is arm.
func effectiveMass(mass, inertia, arm float64) float64 {
	inv := 1 / mass
	if inertia > 0 {
		inv += arm * arm / inertia
	}
	return 1 / inv
}

// spinFromSpeed returns the rolling wheel rate for a contact speed.
func spinFromSpeed(v, radius float64) float64 {
	if radius <= 0 {
		return 0
	}
	return v / radius
}

func clamp(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	return math.Max(-limit, math.Min(limit, v))
}
