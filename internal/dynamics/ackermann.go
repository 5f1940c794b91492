package dynamics

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/mv2dsim/internal/confnode"
	"github.com/san-kum/mv2dsim/internal/dynamo"
	"github.com/san-kum/mv2dsim/internal/physics"
	"github.com/san-kum/mv2dsim/internal/vehicle"
)

const AckermannClass = "ackermann"

const defaultAckermannWheelRadius = 0.3

// Wheel order in Ackermann.Wheels.
const (
	RearLeft = iota
	RearRight
	FrontLeft
	FrontRight
)

type ackermannParams struct {
	chassisParams
	Wheelbase   float64
	TrackWidth  float64
	MaxSteer    float64
	WheelRadius float64
}

// Ackermann is a car-like vehicle with the rear axle at the chassis origin.
// Its native actuation is Control{v, steer}: rear axle speed in m/s and the
// virtual center steering angle in rad.
type Ackermann struct {
	params ackermannParams
	wheels []Wheel
	odo    Odometry

	mu      sync.Mutex
	command dynamo.Control
	applied dynamo.Control
}

func NewAckermann(parent vehicle.Parent, node confnode.Node) (vehicle.Model, error) {
	return &Ackermann{command: dynamo.Control{0, 0}}, nil
}

func (a *Ackermann) LoadDynamicsParams(n confnode.Node) error {
	var p ackermannParams
	var err error

	if p.Wheelbase, err = confnode.Positive(n, "wheelbase"); err != nil {
		return err
	}
	if p.TrackWidth, err = confnode.Positive(n, "track_width"); err != nil {
		return err
	}
	maxSteerDeg, err := confnode.Positive(n, "max_steer")
	if err != nil {
		return err
	}
	if maxSteerDeg >= 90 {
		return dynamo.Malformed(n.Tag(), "max_steer", "", "must be below 90 degrees")
	}
	p.MaxSteer = dynamo.Deg2Rad(maxSteerDeg)
	if p.WheelRadius, err = confnode.FloatOr(n, "wheel_radius", defaultAckermannWheelRadius); err != nil {
		return err
	}
	if p.WheelRadius <= 0 {
		return dynamo.Malformed(n.Tag(), "wheel_radius", "", "must be positive")
	}
	if p.chassisParams, err = loadChassis(n); err != nil {
		return err
	}

	a.params = p
	l, t := p.Wheelbase, p.TrackWidth/2
	a.wheels = []Wheel{
		RearLeft:   {Pos: mgl64.Vec2{0, t}, Radius: p.WheelRadius},
		RearRight:  {Pos: mgl64.Vec2{0, -t}, Radius: p.WheelRadius},
		FrontLeft:  {Pos: mgl64.Vec2{l, t}, Radius: p.WheelRadius},
		FrontRight: {Pos: mgl64.Vec2{l, -t}, Radius: p.WheelRadius},
	}
	return nil
}

func (a *Ackermann) CreateMultibodySystem(f physics.BodyFactory, q0, dq0 dynamo.Vec3) (*physics.Body, error) {
	a.odo.Pose = q0
	return createChassis(f, a.params.chassisParams, q0, dq0)
}

// SetCommand sets the speed and steering angle used when the tick carries no
// input and no controller is configured.
func (a *Ackermann) SetCommand(v, steer float64) {
	a.mu.Lock()
	a.command = dynamo.Control{v, steer}
	a.mu.Unlock()
}

// SteerFromTwist returns the steering angle that yields yaw rate w at speed v.
func (a *Ackermann) SteerFromTwist(v, w float64) float64 {
	if v == 0 {
		return 0
	}
	return math.Atan(w * a.params.Wheelbase / v)
}

// WheelAngles returns the left and right front wheel angles that share the
// turning center of the virtual center wheel at steer.
func (a *Ackermann) WheelAngles(steer float64) (left, right float64) {
	if steer == 0 {
		return 0, 0
	}
	l, t := a.params.Wheelbase, a.params.TrackWidth/2
	radius := l / math.Tan(steer)
	return math.Atan(l / (radius - t)), math.Atan(l / (radius + t))
}

func (a *Ackermann) PreStep(ctx dynamo.SimulContext, chassis *physics.Body) error {
	var v, steer float64
	switch {
	case len(ctx.Input) >= 2:
		v, steer = ctx.Input[0], ctx.Input[1]
	case a.params.Controller != nil:
		u := a.params.Controller.Compute(bodyState(chassis), ctx.Time)
		v, steer = u[0], a.SteerFromTwist(u[0], u[1])
	default:
		a.mu.Lock()
		v, steer = a.command[0], a.command[1]
		a.mu.Unlock()
	}
	steer = clamp(steer, a.params.MaxSteer)

	w := v * math.Tan(steer) / a.params.Wheelbase
	a.wheels[FrontLeft].Steer, a.wheels[FrontRight].Steer = a.WheelAngles(steer)

	desired := make([]mgl64.Vec2, len(a.wheels))
	for i, wh := range a.wheels {
		// Rigid body motion about the rear axle center.
		desired[i] = mgl64.Vec2{v - w*wh.Pos.Y(), w * wh.Pos.X()}
		a.wheels[i].Spin = spinFromSpeed(math.Copysign(desired[i].Len(), v), wh.Radius)
	}
	frictionModel{mu: a.params.Friction}.apply(chassis, a.wheels, desired, ctx.Dt)

	a.applied = dynamo.Control{v, steer}
	return nil
}

// PostStep advances wheel angles and odometry.
func (a *Ackermann) PostStep(ctx dynamo.SimulContext, q, dq dynamo.Vec3) error {
	for i := range a.wheels {
		a.wheels[i].Phi += a.wheels[i].Spin * ctx.Dt
	}
	var v, w float64
	if len(a.applied) == 2 {
		v = a.applied[0]
		w = v * math.Tan(a.applied[1]) / a.params.Wheelbase
	}
	a.odo.update(ctx.Dt, v, w, dq.Speed())
	return nil
}

func (a *Ackermann) Actuation() dynamo.Control { return a.applied.Clone() }

func (a *Ackermann) Wheels() []Wheel {
	out := make([]Wheel, len(a.wheels))
	copy(out, a.wheels)
	return out
}

func (a *Ackermann) Odometry() Odometry { return a.odo }

func (a *Ackermann) MaxSteer() float64 { return a.params.MaxSteer }

func (a *Ackermann) Outline() [][2]float64 { return a.params.Outline.Vertices }
