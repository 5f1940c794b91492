package dynamics

import (
	"math"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// Odometry is dead reckoning from wheel rates, kept next to the distance the
// chassis actually travelled.
type Odometry struct {
	// Pose is integrated from the wheel rates starting at the initial pose.
	Pose dynamo.Vec3
	// Distance is the path length of the chassis origin.
	Distance float64
}

// update integrates body-frame speed v and yaw rate w over dt and adds the
// travelled chassis distance.
func (o *Odometry) update(dt, v, w, speed float64) {
	if dt <= 0 {
		return
	}
	yaw := o.Pose[2] + w*dt/2
	o.Pose[0] += v * math.Cos(yaw) * dt
	o.Pose[1] += v * math.Sin(yaw) * dt
	o.Pose[2] += w * dt
	o.Distance += speed * dt
}
