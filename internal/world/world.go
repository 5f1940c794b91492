package world

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/san-kum/mv2dsim/internal/dynamo"
	"github.com/san-kum/mv2dsim/internal/physics"
	"github.com/san-kum/mv2dsim/internal/vehicle"
)

type Config struct {
	Dt                 float64
	Gravity            [2]float64
	VelocityIterations int
	PositionIterations int
}

func DefaultConfig() Config {
	pc := physics.DefaultConfig()
	return Config{
		Dt:                 0.01,
		VelocityIterations: pc.VelocityIterations,
		PositionIterations: pc.PositionIterations,
	}
}

type Option func(*World)

// WithRegistry selects the vehicle registry used by the Load methods.
func WithRegistry(r *vehicle.Registry) Option {
	return func(w *World) { w.registry = r }
}

func WithLogger(log zerolog.Logger) Option {
	return func(w *World) { w.log = log }
}

// MetricFactory returns a fresh metric set for one vehicle. It is called by
// Run after the vehicle's bodies exist.
type MetricFactory func(v *vehicle.Vehicle) []dynamo.Metric

// WithMetrics installs the metrics Run computes for every vehicle.
func WithMetrics(factory MetricFactory) Option {
	return func(w *World) { w.metrics = factory }
}

type World struct {
	cfg      Config
	engine   *physics.Engine
	registry *vehicle.Registry
	log      zerolog.Logger
	metrics  MetricFactory

	vehicles []*vehicle.Vehicle
	byName   map[string]*vehicle.Vehicle
	// bodies relates engine bodies to the vehicle owning them. It never holds
	// a body handle.
	bodies map[physics.BodyID]string
	inputs map[string]dynamo.Control

	time        float64
	step        int
	initialized bool
	failed      error
}

func New(cfg Config, opts ...Option) *World {
	if cfg.Dt <= 0 {
		cfg.Dt = DefaultConfig().Dt
	}
	w := &World{
		cfg: cfg,
		engine: physics.NewEngine(physics.Config{
			Gravity:            mgl64.Vec2(cfg.Gravity),
			VelocityIterations: cfg.VelocityIterations,
			PositionIterations: cfg.PositionIterations,
		}),
		registry: vehicle.Default,
		log:      zerolog.Nop(),
		vehicles: make([]*vehicle.Vehicle, 0),
		byName:   make(map[string]*vehicle.Vehicle),
		bodies:   make(map[physics.BodyID]string),
		inputs:   make(map[string]dynamo.Control),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Time returns the simulation time of the last completed tick.
func (w *World) Time() float64 { return w.time }

// StepIndex returns the number of completed ticks.
func (w *World) StepIndex() int { return w.step }

func (w *World) Dt() float64 { return w.cfg.Dt }

// SetDt changes the time step. It is only allowed before the first tick.
func (w *World) SetDt(dt float64) error {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: time step must be positive, got %g", dynamo.ErrContractViolation, dt)
	}
	if w.step > 0 {
		return fmt.Errorf("%w: cannot change the time step of a running world", dynamo.ErrContractViolation)
	}
	w.cfg.Dt = dt
	return nil
}

func (w *World) Logger() *zerolog.Logger { return &w.log }

// Failed returns the error that stopped the world, if any.
func (w *World) Failed() error { return w.failed }

// BodyCount reports the number of bodies in the engine.
func (w *World) BodyCount() int { return w.engine.BodyCount() }

// AddVehicle adds a configured vehicle. Names must be unique. Once the world
// is initialized the vehicle's bodies are created right away.
func (w *World) AddVehicle(v *vehicle.Vehicle) error {
	if v == nil {
		return fmt.Errorf("world: nil vehicle")
	}
	if _, ok := w.byName[v.Name()]; ok {
		return dynamo.Malformed("vehicle", "name", v.Name(), "duplicate vehicle name")
	}
	if w.initialized {
		if err := w.createBodies(v); err != nil {
			return err
		}
	}
	w.vehicles = append(w.vehicles, v)
	w.byName[v.Name()] = v
	w.log.Debug().Str("vehicle", v.Name()).Str("class", v.Class()).Msg("vehicle added")
	return nil
}

func (w *World) Vehicle(name string) (*vehicle.Vehicle, bool) {
	v, ok := w.byName[name]
	return v, ok
}

// Vehicles returns the vehicles in tick order.
func (w *World) Vehicles() []*vehicle.Vehicle {
	out := make([]*vehicle.Vehicle, len(w.vehicles))
	copy(out, w.vehicles)
	return out
}

// VehicleForBody resolves an engine body to the vehicle owning it.
func (w *World) VehicleForBody(id physics.BodyID) (*vehicle.Vehicle, bool) {
	name, ok := w.bodies[id]
	if !ok {
		return nil, false
	}
	return w.Vehicle(name)
}

// SetInput sets the control handed to a vehicle's pre-step on every
// following tick. A nil control clears it.
func (w *World) SetInput(name string, u dynamo.Control) error {
	if _, ok := w.byName[name]; !ok {
		return fmt.Errorf("%w: %q", dynamo.ErrUnknownVehicle, name)
	}
	if u == nil {
		delete(w.inputs, name)
		return nil
	}
	w.inputs[name] = u.Clone()
	return nil
}

// RemoveVehicle takes a vehicle out of the world between ticks. The body
// relation is dropped before the chassis is destroyed.
func (w *World) RemoveVehicle(name string) error {
	v, ok := w.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", dynamo.ErrUnknownVehicle, name)
	}
	if c := v.Chassis(); c != nil {
		delete(w.bodies, c.ID())
	}
	v.Destroy(w.engine)

	delete(w.byName, name)
	delete(w.inputs, name)
	for i, other := range w.vehicles {
		if other == v {
			w.vehicles = append(w.vehicles[:i], w.vehicles[i+1:]...)
			break
		}
	}
	w.log.Debug().Str("vehicle", name).Msg("vehicle removed")
	return nil
}

// Close removes every vehicle, last added first.
func (w *World) Close() error {
	for i := len(w.vehicles) - 1; i >= 0; i-- {
		if err := w.RemoveVehicle(w.vehicles[i].Name()); err != nil {
			return err
		}
	}
	return nil
}
