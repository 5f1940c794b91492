package metrics

import (
	"fmt"

	"github.com/san-kum/mv2dsim/internal/dynamo"
	"github.com/san-kum/mv2dsim/internal/vehicle"
)

// Names lists the metrics Factory understands.
var Names = []string{"distance", "max_speed", "control_effort", "kinetic_energy", "out_of_bounds"}

// Factory returns a per-vehicle metric constructor for the given names.
// arena is the half size used by out_of_bounds.
func Factory(names []string, arena float64) (func(v *vehicle.Vehicle) []dynamo.Metric, error) {
	for _, n := range names {
		switch n {
		case "distance", "max_speed", "control_effort", "kinetic_energy", "out_of_bounds":
		default:
			return nil, fmt.Errorf("unknown metric: %s", n)
		}
	}

	return func(v *vehicle.Vehicle) []dynamo.Metric {
		out := make([]dynamo.Metric, 0, len(names))
		for _, n := range names {
			switch n {
			case "distance":
				out = append(out, NewDistance())
			case "max_speed":
				out = append(out, NewMaxSpeed())
			case "control_effort":
				out = append(out, NewControlEffort())
			case "kinetic_energy":
				var mass, inertia float64
				if v != nil && v.Chassis() != nil {
					mass, inertia = v.Chassis().Mass(), v.Chassis().Inertia()
				}
				out = append(out, NewKineticEnergy(mass, inertia))
			case "out_of_bounds":
				out = append(out, NewBounds(arena, arena))
			}
		}
		return out
	}, nil
}
