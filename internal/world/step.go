package world

import (
	"fmt"

	"github.com/san-kum/mv2dsim/internal/dynamo"
	"github.com/san-kum/mv2dsim/internal/vehicle"
)

// Init creates the bodies of every vehicle that has none yet. Poses keep
// their configured values until the first tick.
func (w *World) Init() error {
	for _, v := range w.vehicles {
		if v.Chassis() != nil {
			continue
		}
		if err := w.createBodies(v); err != nil {
			return err
		}
	}
	w.initialized = true
	return nil
}

func (w *World) createBodies(v *vehicle.Vehicle) error {
	if err := v.CreateMultibodySystem(w.engine); err != nil {
		return err
	}
	w.bodies[v.Chassis().ID()] = v.Name()
	return nil
}

// Step advances the world by one tick.
func (w *World) Step() error {
	if w.failed != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrTickFailed, w.failed)
	}
	if !w.initialized {
		if err := w.Init(); err != nil {
			return err
		}
	}

	ctx := dynamo.SimulContext{Time: w.time, Dt: w.cfg.Dt, Step: w.step}
	for _, v := range w.vehicles {
		ctx.Input = w.inputs[v.Name()]
		if err := v.PreStep(ctx); err != nil {
			return w.fail("pre-step", v.Name(), err)
		}
	}

	if err := w.engine.Step(w.cfg.Dt); err != nil {
		return w.fail("engine step", "", err)
	}

	ctx = dynamo.SimulContext{Time: w.time + w.cfg.Dt, Dt: w.cfg.Dt, Step: w.step}
	for _, v := range w.vehicles {
		if err := v.PostStepCommon(ctx); err != nil {
			return w.fail("post-step-common", v.Name(), err)
		}
	}
	for _, v := range w.vehicles {
		ctx.Input = w.inputs[v.Name()]
		if err := v.PostStep(ctx); err != nil {
			return w.fail("post-step", v.Name(), err)
		}
	}

	w.time += w.cfg.Dt
	w.step++
	return nil
}

func (w *World) fail(phase, name string, err error) error {
	simErr := &dynamo.SimulationError{
		Step:    w.step,
		Time:    w.time,
		Vehicle: name,
		Phase:   phase,
		Wrapped: err,
	}
	w.failed = simErr
	w.log.Error().Err(err).Int("step", w.step).Str("phase", phase).Str("vehicle", name).Msg("tick failed")
	return fmt.Errorf("%w: %w", dynamo.ErrTickFailed, simErr)
}
