// Package control provides twist controllers for vehicles.
//
// A controller maps a vehicle state (x, y, yaw, vx, vy, w) to a twist
// command Control{v, w}: forward speed in m/s and yaw rate in rad/s. The
// dynamics models convert the twist into their native actuation (wheel
// speeds or speed and steering angle).
//
//   - [None]: zero twist
//   - [Twist]: constant twist, settable at runtime
//   - [Heading]: constant speed with a [PID] on heading error
//   - [LQR]: linear state feedback, used by [NewLineFollower]
//
// # Usage
//
//	ctrl, err := control.FromNode(dynamicsNode.Child("controller"))
//	u := ctrl.Compute(v.State(), t) // {v, w}
package control

import "github.com/san-kum/mv2dsim/internal/dynamo"

// Controller computes a twist command from a vehicle state.
type Controller interface {
	Compute(x dynamo.State, t float64) dynamo.Control
}
