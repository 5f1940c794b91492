package vehicle

import (
	"github.com/rs/zerolog"

	"github.com/san-kum/mv2dsim/internal/confnode"
	"github.com/san-kum/mv2dsim/internal/dynamo"
	"github.com/san-kum/mv2dsim/internal/physics"
)

// Parent is the non-owning view a vehicle keeps of its world.
type Parent interface {
	Time() float64
	Logger() *zerolog.Logger
}

// Model is a concrete kinematic model.
type Model interface {
	// LoadDynamicsParams parses the <dynamics> element. It must leave the model
	// untouched when it returns an error.
	LoadDynamicsParams(node confnode.Node) error

	// CreateMultibodySystem builds the model's bodies at pose q0 with velocity
	// dq0 and returns the chassis.
	CreateMultibodySystem(f physics.BodyFactory, q0, dq0 dynamo.Vec3) (*physics.Body, error)
}

// PreStepper applies actuation before the engine integrates.
type PreStepper interface {
	PreStep(ctx dynamo.SimulContext, chassis *physics.Body) error
}

// PostStepper runs bookkeeping after q and dq have been refreshed.
type PostStepper interface {
	PostStep(ctx dynamo.SimulContext, q, dq dynamo.Vec3) error
}

// Actuated models report the control they applied in the last pre-step.
type Actuated interface {
	Actuation() dynamo.Control
}

// BodyDestroyer releases bodies at teardown.
type BodyDestroyer interface {
	DestroyBody(b *physics.Body)
}
