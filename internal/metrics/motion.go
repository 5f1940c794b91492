package metrics

import (
	"math"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// Distance is the path length of the reference point.
type Distance struct {
	last  [2]float64
	first bool
	total float64
}

func NewDistance() *Distance { return &Distance{first: true} }

func (d *Distance) Name() string { return "distance" }

func (d *Distance) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) < 2 {
		return
	}
	if !d.first {
		d.total += math.Hypot(x[0]-d.last[0], x[1]-d.last[1])
	}
	d.last = [2]float64{x[0], x[1]}
	d.first = false
}

func (d *Distance) Value() float64 { return d.total }

func (d *Distance) Reset() {
	d.total = 0
	d.first = true
}

// MaxSpeed is the largest linear speed observed.
type MaxSpeed struct {
	max float64
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (m *MaxSpeed) Name() string { return "max_speed" }

func (m *MaxSpeed) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if s := x.Velocity().Speed(); s > m.max {
		m.max = s
	}
}

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { m.max = 0 }
