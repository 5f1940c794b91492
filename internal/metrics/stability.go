package metrics

import (
	"math"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// Bounds is the fraction of samples in which the vehicle was outside the
// axis-aligned arena |x| <= halfX, |y| <= halfY.
type Bounds struct {
	name       string
	halfX      float64
	halfY      float64
	violations int
	samples    int
}

func NewBounds(halfX, halfY float64) *Bounds {
	return &Bounds{
		name:  "out_of_bounds",
		halfX: halfX,
		halfY: halfY,
	}
}

func (b *Bounds) Name() string {
	return b.name
}

func (b *Bounds) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) < 2 {
		return
	}
	b.samples++
	if math.Abs(x[0]) > b.halfX || math.Abs(x[1]) > b.halfY {
		b.violations++
	}
}

func (b *Bounds) Value() float64 {
	if b.samples == 0 {
		return 0
	}
	return float64(b.violations) / float64(b.samples)
}

func (b *Bounds) Reset() {
	b.violations = 0
	b.samples = 0
}
