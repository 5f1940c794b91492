package control

import (
	"math"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd float64) *PID {
	return &PID{
		Kp:    kp,
		Ki:    ki,
		Kd:    kd,
		first: true,
	}
}

// Update feeds the error observed at time t and returns the control effort.
func (p *PID) Update(err, t float64) float64 {
	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return p.Kp * err
	}

	dt := t - p.prevT
	if dt > 0 {
		p.integral += err * dt
		derivative := (err - p.prevErr) / dt

		u := p.Kp*err + p.Ki*p.integral + p.Kd*derivative

		p.prevErr = err
		p.prevT = t

		return u
	}
	return p.Kp * err
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// Heading drives at constant speed V towards the world heading Target (rad).
// MaxRate bounds the commanded yaw rate when positive.
type Heading struct {
	V       float64
	Target  float64
	MaxRate float64
	pid     *PID
}

func NewHeading(v, target float64, pid *PID) *Heading {
	return &Heading{V: v, Target: target, pid: pid}
}

func (h *Heading) Compute(x dynamo.State, t float64) dynamo.Control {
	if len(x) < 3 {
		return dynamo.Control{0, 0}
	}
	err := dynamo.NormalizeAngle(h.Target - x[2])
	w := h.pid.Update(err, t)
	if h.MaxRate > 0 {
		w = math.Max(-h.MaxRate, math.Min(h.MaxRate, w))
	}
	return dynamo.Control{h.V, w}
}

func (h *Heading) Reset() { h.pid.Reset() }
