package control

import "github.com/san-kum/mv2dsim/internal/dynamo"

// LQR is a static state-feedback law u = -K (x - Target).
type LQR struct {
	K      [][]float64
	Target dynamo.State
}

func NewLQR(k [][]float64, target dynamo.State) *LQR {
	return &LQR{K: k, Target: target}
}

func (l *LQR) Compute(x dynamo.State, t float64) dynamo.Control {
	u := make(dynamo.Control, len(l.K))
	for i := range u {
		for j := range x {
			target := 0.0
			if j < len(l.Target) {
				target = l.Target[j]
			}
			if j < len(l.K[i]) {
				u[i] -= l.K[i][j] * (x[j] - target)
			}
		}
	}
	return u
}

// LineFollower keeps a vehicle on the horizontal line y = Y while driving
// along +x at speed V. The yaw rate comes from gains on lateral offset and yaw.
type LineFollower struct {
	V   float64
	lqr *LQR
}

func NewLineFollower(v, y, ky, kyaw float64) *LineFollower {
	return &LineFollower{
		V:   v,
		lqr: NewLQR([][]float64{{0, ky, kyaw}}, dynamo.State{0, y, 0}),
	}
}

func (f *LineFollower) Compute(x dynamo.State, t float64) dynamo.Control {
	if len(x) < 3 {
		return dynamo.Control{0, 0}
	}
	pose := dynamo.State{x[0], x[1], dynamo.NormalizeAngle(x[2])}
	return dynamo.Control{f.V, f.lqr.Compute(pose, t)[0]}
}
