package dynamics

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/mv2dsim/internal/confnode"
	"github.com/san-kum/mv2dsim/internal/dynamo"
	"github.com/san-kum/mv2dsim/internal/physics"
	"github.com/san-kum/mv2dsim/internal/vehicle"
)

const DifferentialClass = "differential"

type differentialParams struct {
	chassisParams
	WheelSeparation float64
	WheelRadius     float64
	MaxWheelSpeed   float64
}

// Differential is a two-wheel differential drive. Its native actuation is
// Control{w_left, w_right} in rad/s.
type Differential struct {
	params differentialParams
	wheels []Wheel
	odo    Odometry

	mu      sync.Mutex
	command dynamo.Control
	applied dynamo.Control
}

func NewDifferential(parent vehicle.Parent, node confnode.Node) (vehicle.Model, error) {
	return &Differential{command: dynamo.Control{0, 0}}, nil
}

func (d *Differential) LoadDynamicsParams(n confnode.Node) error {
	var p differentialParams
	var err error

	if p.WheelSeparation, err = confnode.Positive(n, "wheel_separation"); err != nil {
		return err
	}
	if p.WheelRadius, err = confnode.Positive(n, "wheel_radius"); err != nil {
		return err
	}
	if p.MaxWheelSpeed, err = confnode.FloatOr(n, "max_wheel_speed", 0); err != nil {
		return err
	}
	if p.chassisParams, err = loadChassis(n); err != nil {
		return err
	}

	d.params = p
	d.wheels = []Wheel{
		{Pos: mgl64.Vec2{0, p.WheelSeparation / 2}, Radius: p.WheelRadius},
		{Pos: mgl64.Vec2{0, -p.WheelSeparation / 2}, Radius: p.WheelRadius},
	}
	return nil
}

func (d *Differential) CreateMultibodySystem(f physics.BodyFactory, q0, dq0 dynamo.Vec3) (*physics.Body, error) {
	d.odo.Pose = q0
	return createChassis(f, d.params.chassisParams, q0, dq0)
}

// SetWheelSpeeds sets the command used when the tick carries no input and no
// controller is configured. It may be called from another goroutine.
func (d *Differential) SetWheelSpeeds(left, right float64) {
	d.mu.Lock()
	d.command = dynamo.Control{left, right}
	d.mu.Unlock()
}

// WheelSpeedsFromTwist converts forward speed v and yaw rate w to wheel rates.
func (d *Differential) WheelSpeedsFromTwist(v, w float64) (left, right float64) {
	r, l := d.params.WheelRadius, d.params.WheelSeparation
	return (v - w*l/2) / r, (v + w*l/2) / r
}

// PreStep picks the wheel rates (tick input, then controller, then the stored
// command) and drives the chassis towards the matching contact velocities.
func (d *Differential) PreStep(ctx dynamo.SimulContext, chassis *physics.Body) error {
	var wl, wr float64
	switch {
	case len(ctx.Input) >= 2:
		wl, wr = ctx.Input[0], ctx.Input[1]
	case d.params.Controller != nil:
		u := d.params.Controller.Compute(bodyState(chassis), ctx.Time)
		wl, wr = d.WheelSpeedsFromTwist(u[0], u[1])
	default:
		d.mu.Lock()
		wl, wr = d.command[0], d.command[1]
		d.mu.Unlock()
	}
	wl = clamp(wl, d.params.MaxWheelSpeed)
	wr = clamp(wr, d.params.MaxWheelSpeed)

	d.wheels[0].Spin, d.wheels[1].Spin = wl, wr
	desired := []mgl64.Vec2{
		{wl * d.params.WheelRadius, 0},
		{wr * d.params.WheelRadius, 0},
	}
	frictionModel{mu: d.params.Friction}.apply(chassis, d.wheels, desired, ctx.Dt)

	d.applied = dynamo.Control{wl, wr}
	return nil
}

// PostStep advances wheel angles and odometry.
func (d *Differential) PostStep(ctx dynamo.SimulContext, q, dq dynamo.Vec3) error {
	wl, wr := d.wheels[0].Spin, d.wheels[1].Spin
	for i := range d.wheels {
		d.wheels[i].Phi += d.wheels[i].Spin * ctx.Dt
	}
	r, l := d.params.WheelRadius, d.params.WheelSeparation
	d.odo.update(ctx.Dt, r*(wl+wr)/2, r*(wr-wl)/l, dq.Speed())
	return nil
}

func (d *Differential) Actuation() dynamo.Control { return d.applied.Clone() }

func (d *Differential) Wheels() []Wheel {
	out := make([]Wheel, len(d.wheels))
	copy(out, d.wheels)
	return out
}

func (d *Differential) Odometry() Odometry { return d.odo }

// Outline returns the chassis polygon in the body frame.
func (d *Differential) Outline() [][2]float64 { return d.params.Outline.Vertices }
