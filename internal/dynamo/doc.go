// Package dynamo provides the core simulation primitives shared by vehicles,
// dynamics models and the world loop.
//
//   - [Vec3]: planar pose (x, y, yaw) or velocity (vx, vy, w) in world coordinates
//   - [State]: the six-vector (q, dq) recorded for each vehicle
//   - [Control]: actuation vector consumed by a dynamics model in its pre-step hook
//   - [SimulContext]: per-tick information handed to every hook
//   - [Result]: trajectories and metrics collected by a run
//
// # Errors
//
// Every failure surfaced by the core wraps one of the sentinel errors in this
// package, so callers can classify it with errors.Is:
//
//	v, err := vehicle.Factory(w, node)
//	if errors.Is(err, dynamo.ErrUnknownVehicleType) {
//	    // class attribute names no registered model
//	}
//
// # Thread Safety
//
// None of the types here synchronize access. The simulation is advanced by a
// single goroutine, one tick at a time.
package dynamo
