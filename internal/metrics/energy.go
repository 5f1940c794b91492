package metrics

import (
	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// KineticEnergy is the mean kinetic energy of a rigid chassis. Rotation is
// taken about the reference point, which is exact when it coincides with the
// center of mass.
type KineticEnergy struct {
	name        string
	mass        float64
	inertia     float64
	samples     int
	totalEnergy float64
}

func NewKineticEnergy(mass, inertia float64) *KineticEnergy {
	return &KineticEnergy{
		name:    "kinetic_energy",
		mass:    mass,
		inertia: inertia,
	}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) < 6 {
		return
	}
	vx, vy, w := x[3], x[4], x[5]
	e.totalEnergy += 0.5*e.mass*(vx*vx+vy*vy) + 0.5*e.inertia*w*w
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}
