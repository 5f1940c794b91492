package control

import "github.com/san-kum/mv2dsim/internal/dynamo"

type None struct{}

func NewNone() *None {
	return &None{}
}

func (n *None) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.Control{0, 0}
}

// Twist returns a fixed command until changed with Set.
type Twist struct {
	V float64
	W float64
}

func NewTwist(v, w float64) *Twist {
	return &Twist{V: v, W: w}
}

func (c *Twist) Set(v, w float64) {
	c.V, c.W = v, w
}

func (c *Twist) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.Control{c.V, c.W}
}
