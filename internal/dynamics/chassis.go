package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/mv2dsim/internal/confnode"
	"github.com/san-kum/mv2dsim/internal/control"
	"github.com/san-kum/mv2dsim/internal/dynamo"
	"github.com/san-kum/mv2dsim/internal/physics"
)

const defaultFriction = 0.8

// chassisParams are the parameters every model shares.
type chassisParams struct {
	Mass       float64
	Friction   float64
	Outline    confnode.Outline
	Controller control.Controller
}

func loadChassis(n confnode.Node) (chassisParams, error) {
	var p chassisParams
	var err error

	if p.Mass, err = confnode.Positive(n, "mass"); err != nil {
		return p, err
	}
	if p.Friction, err = confnode.FloatOr(n, "friction", defaultFriction); err != nil {
		return p, err
	}
	if p.Friction < 0 {
		return p, dynamo.Malformed(n.Tag(), "friction", "", "must not be negative")
	}
	if p.Outline, err = confnode.ParseOutline(n); err != nil {
		return p, err
	}
	if p.Controller, err = control.FromNode(n.Child("controller")); err != nil {
		return p, err
	}
	return p, nil
}

// createChassis builds the single chassis body with one polygon fixture whose
// density yields the configured mass. The engine builds the convex hull of the
// outline, so density is taken over the hull area.
func createChassis(f physics.BodyFactory, p chassisParams, q0, dq0 dynamo.Vec3) (*physics.Body, error) {
	body, err := f.CreateBody(physics.BodyDef{
		Position:        mgl64.Vec2{q0.X(), q0.Y()},
		Angle:           q0.Yaw(),
		LinearVelocity:  mgl64.Vec2{dq0.X(), dq0.Y()},
		AngularVelocity: dq0.Yaw(),
	})
	if err != nil {
		return nil, err
	}

	verts := make([]mgl64.Vec2, len(p.Outline.Vertices))
	for i, v := range p.Outline.Vertices {
		verts[i] = mgl64.Vec2(v)
	}
	err = body.CreateFixture(physics.FixtureDef{
		Vertices: verts,
		Density:  p.Mass / p.Outline.HullArea,
		Friction: p.Friction,
	})
	if err != nil {
		f.DestroyBody(body)
		return nil, err
	}
	return body, nil
}

func bodyState(b *physics.Body) dynamo.State {
	return dynamo.NewState(b.Transform(), b.Velocity())
}
