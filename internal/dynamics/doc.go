// Package dynamics provides the built-in vehicle models and registers them
// with [vehicle.Default] on import:
//
//   - "differential": two independently driven wheels on a common axle
//   - "ackermann": rear-driven car with Ackermann front steering
//
// Both models build a single chassis body from the configured outline and
// treat wheels as contact points on it. Each pre-step, every wheel pushes the
// chassis towards the contact velocity its command asks for, limited by
// Coulomb friction.
package dynamics

import "github.com/san-kum/mv2dsim/internal/vehicle"

func init() {
	vehicle.MustRegister(DifferentialClass, NewDifferential)
	vehicle.MustRegister(AckermannClass, NewAckermann)
}
