package world

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// Run advances the world for duration seconds, recording every vehicle's
// state after each tick. Cancellation is checked between ticks; on
// cancellation the partial result is returned with the context error.
func (w *World) Run(ctx context.Context, duration float64, observers ...dynamo.Observer) (*dynamo.Result, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %f", duration)
	}
	if err := w.Init(); err != nil {
		return nil, err
	}

	steps := int(math.Round(duration / w.cfg.Dt))
	result := &dynamo.Result{
		Dt:           w.cfg.Dt,
		Duration:     duration,
		Trajectories: make([]dynamo.Trajectory, len(w.vehicles)),
		Metrics:      make(map[string]float64),
	}

	index := make(map[string]int, len(w.vehicles))
	metrics := make(map[string][]dynamo.Metric, len(w.vehicles))
	for i, v := range w.vehicles {
		index[v.Name()] = i
		result.Trajectories[i] = dynamo.Trajectory{
			Vehicle:  v.Name(),
			Class:    v.Class(),
			Times:    append(make([]float64, 0, steps+1), w.time),
			States:   append(make([]dynamo.State, 0, steps+1), v.State()),
			Controls: make([]dynamo.Control, 0, steps),
		}
		if w.metrics != nil {
			metrics[v.Name()] = w.metrics(v)
		}
	}

	w.log.Info().Int("steps", steps).Float64("dt", w.cfg.Dt).Int("vehicles", len(w.vehicles)).Msg("run started")

	var runErr error
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		if err := w.Step(); err != nil {
			runErr = err
			break
		}
		result.StepsTaken++

		for _, v := range w.vehicles {
			x, u := v.State(), v.Actuation()
			if j, ok := index[v.Name()]; ok {
				tr := &result.Trajectories[j]
				tr.Times = append(tr.Times, w.time)
				tr.States = append(tr.States, x)
				tr.Controls = append(tr.Controls, u)
			}
			for _, m := range metrics[v.Name()] {
				m.Observe(x, u, w.time)
			}
			for _, obs := range observers {
				obs.OnStep(v.Name(), x, u, w.time)
			}
		}
	}

	for name, ms := range metrics {
		for _, m := range ms {
			result.Metrics[name+"."+m.Name()] = m.Value()
		}
	}

	if runErr != nil {
		w.log.Warn().Err(runErr).Int("steps", result.StepsTaken).Msg("run stopped early")
		return result, runErr
	}
	w.log.Info().Int("steps", result.StepsTaken).Float64("time", w.time).Msg("run finished")
	return result, nil
}
