package vehicle

import (
	"fmt"

	"github.com/san-kum/mv2dsim/internal/dynamo"
	"github.com/san-kum/mv2dsim/internal/physics"
)

// Vehicle is one actor in the world. It is not safe for concurrent use; the
// world calls its hooks from a single goroutine.
type Vehicle struct {
	name   string
	class  string
	parent Parent
	model  Model

	q  dynamo.Vec3
	dq dynamo.Vec3

	chassis *physics.Body
}

func newVehicle(class string, parent Parent, m Model) *Vehicle {
	return &Vehicle{class: class, parent: parent, model: m}
}

func (v *Vehicle) Name() string  { return v.name }
func (v *Vehicle) Class() string { return v.class }
func (v *Vehicle) Model() Model  { return v.model }
func (v *Vehicle) Parent() Parent {
	return v.parent
}

// Pose returns q: the configured pose before the first tick, afterwards the
// chassis pose as of the last completed tick.
func (v *Vehicle) Pose() dynamo.Vec3 { return v.q }

// Velocity returns dq, with the same freshness as Pose.
func (v *Vehicle) Velocity() dynamo.Vec3 { return v.dq }

func (v *Vehicle) State() dynamo.State { return dynamo.NewState(v.q, v.dq) }

// Chassis returns the primary body, nil before CreateMultibodySystem or after Destroy.
func (v *Vehicle) Chassis() *physics.Body { return v.chassis }

// Actuation returns the model's last applied control, if it reports one.
func (v *Vehicle) Actuation() dynamo.Control {
	if a, ok := v.model.(Actuated); ok {
		return a.Actuation()
	}
	return nil
}

// CreateMultibodySystem asks the model to build its bodies and takes
// ownership of the chassis. It may succeed only once.
func (v *Vehicle) CreateMultibodySystem(f physics.BodyFactory) error {
	if v.chassis != nil {
		return fmt.Errorf("%w: %s: multibody system already created", dynamo.ErrContractViolation, v.name)
	}
	body, err := v.model.CreateMultibodySystem(f, v.q, v.dq)
	if err != nil {
		if body.Valid() {
			f.DestroyBody(body)
		}
		return fmt.Errorf("vehicle %s: create multibody system: %w", v.name, err)
	}
	if !body.Valid() {
		return fmt.Errorf("%w: %s: model did not provide a chassis body", dynamo.ErrContractViolation, v.name)
	}
	body.SetUserData(v.name)
	v.chassis = body
	return nil
}

// PreStep runs the model's actuation hook, if any.
func (v *Vehicle) PreStep(ctx dynamo.SimulContext) error {
	if v.chassis == nil {
		return fmt.Errorf("%w: %s: pre-step without chassis", dynamo.ErrContractViolation, v.name)
	}
	if p, ok := v.model.(PreStepper); ok {
		return p.PreStep(ctx, v.chassis)
	}
	return nil
}

// PostStepCommon overwrites q and dq with the chassis state. Calling it again
// without an engine step in between leaves q and dq unchanged.
func (v *Vehicle) PostStepCommon(ctx dynamo.SimulContext) error {
	if !v.chassis.Valid() {
		return fmt.Errorf("%w: %s: state extraction without chassis", dynamo.ErrContractViolation, v.name)
	}
	q, dq := v.chassis.Transform(), v.chassis.Velocity()
	if !q.IsValid() || !dq.IsValid() {
		return fmt.Errorf("%w: vehicle %s at step %d", dynamo.ErrInvalidState, v.name, ctx.Step)
	}
	v.q, v.dq = q, dq
	return nil
}

// PostStep runs the model's bookkeeping hook, if any.
func (v *Vehicle) PostStep(ctx dynamo.SimulContext) error {
	if p, ok := v.model.(PostStepper); ok {
		return p.PostStep(ctx, v.q, v.dq)
	}
	return nil
}

// Destroy releases the chassis. The handle is invalid afterwards; q and dq
// keep their last values.
func (v *Vehicle) Destroy(d BodyDestroyer) {
	if v.chassis == nil {
		return
	}
	d.DestroyBody(v.chassis)
	v.chassis = nil
}
