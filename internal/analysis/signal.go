package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// Signals lists the state channels Signal understands besides u0, u1, ...
var Signals = []string{"x", "y", "yaw", "vx", "vy", "w", "speed"}

// Signal extracts the named channel of tr, one sample per recorded state.
// Control channels uN have one sample per recorded control.
func Signal(tr *dynamo.Trajectory, name string) ([]float64, error) {
	if idx, ok := strings.CutPrefix(name, "u"); ok && idx != "" {
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 {
			return nil, fmt.Errorf("unknown signal: %s", name)
		}
		out := make([]float64, 0, len(tr.Controls))
		for _, u := range tr.Controls {
			if i >= len(u) {
				return nil, fmt.Errorf("signal %s: vehicle %s has %d control channels", name, tr.Vehicle, len(u))
			}
			out = append(out, u[i])
		}
		return out, nil
	}

	var pick func(s dynamo.State) float64
	switch name {
	case "x":
		pick = func(s dynamo.State) float64 { return s.Pose().X() }
	case "y":
		pick = func(s dynamo.State) float64 { return s.Pose().Y() }
	case "yaw":
		pick = func(s dynamo.State) float64 { return s.Pose().Yaw() }
	case "vx":
		pick = func(s dynamo.State) float64 { return s.Velocity().X() }
	case "vy":
		pick = func(s dynamo.State) float64 { return s.Velocity().Y() }
	case "w":
		pick = func(s dynamo.State) float64 { return s.Velocity().Yaw() }
	case "speed":
		pick = func(s dynamo.State) float64 { return s.Velocity().Speed() }
	default:
		return nil, fmt.Errorf("unknown signal: %s", name)
	}

	out := make([]float64, len(tr.States))
	for i, s := range tr.States {
		out[i] = pick(s)
	}
	return out, nil
}
