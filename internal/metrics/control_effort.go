package metrics

import (
	"math"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// ControlEffort is the RMS norm of the applied actuation vector.
type ControlEffort struct {
	name    string
	sumSq   float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	for _, val := range u {
		c.sumSq += val * val
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return math.Sqrt(c.sumSq / float64(c.samples))
}

func (c *ControlEffort) Reset() {
	c.sumSq = 0
	c.samples = 0
}
