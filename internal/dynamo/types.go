package dynamo

import (
	"math"
)

// Vec3 is a planar pose (x, y, yaw) or velocity (vx, vy, w) in world coordinates.
// Yaw and w are in radians and rad/s.
type Vec3 [3]float64

func (v Vec3) X() float64   { return v[0] }
func (v Vec3) Y() float64   { return v[1] }
func (v Vec3) Yaw() float64 { return v[2] }

func (v Vec3) IsValid() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Slice returns the components as a slice.
func (v Vec3) Slice() []float64 { return []float64{v[0], v[1], v[2]} }

// Speed returns the norm of the linear part.
func (v Vec3) Speed() float64 {
	return math.Hypot(v[0], v[1])
}

// State is the (q, dq) six-vector recorded per vehicle and tick.
type State []float64

// NewState packs a pose and a velocity.
func NewState(q, dq Vec3) State {
	return State{q[0], q[1], q[2], dq[0], dq[1], dq[2]}
}

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Pose returns the q part of a six-vector state.
func (s State) Pose() Vec3 {
	var q Vec3
	copy(q[:], s)
	return q
}

// Velocity returns the dq part of a six-vector state.
func (s State) Velocity() Vec3 {
	var dq Vec3
	if len(s) >= 6 {
		copy(dq[:], s[3:6])
	}
	return dq
}

// Control is an actuation vector. Its meaning depends on the consuming model.
type Control []float64

func (c Control) Clone() Control {
	if c == nil {
		return nil
	}
	out := make(Control, len(c))
	copy(out, c)
	return out
}

// SimulContext is handed by the world to each vehicle hook.
type SimulContext struct {
	Time float64
	Dt   float64
	Step int
	// Input is the externally supplied control for the receiving vehicle, nil if none.
	Input Control
}

// Metric accumulates a scalar over a run.
type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

// Observer is notified after every completed tick.
type Observer interface {
	OnStep(vehicle string, x State, u Control, t float64)
}

// Trajectory is the recorded history of one vehicle.
type Trajectory struct {
	Vehicle  string
	Class    string
	Times    []float64
	States   []State
	Controls []Control
}

type Result struct {
	Dt           float64
	Duration     float64
	StepsTaken   int
	Trajectories []Trajectory
	Metrics      map[string]float64
}

// Trajectory returns the recorded history for a vehicle name.
func (r *Result) Trajectory(name string) (*Trajectory, bool) {
	for i := range r.Trajectories {
		if r.Trajectories[i].Vehicle == name {
			return &r.Trajectories[i], true
		}
	}
	return nil, false
}

// NormalizeAngle wraps an angle to (-pi, pi].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

func Deg2Rad(d float64) float64 { return d * math.Pi / 180 }
func Rad2Deg(r float64) float64 { return r * 180 / math.Pi }
