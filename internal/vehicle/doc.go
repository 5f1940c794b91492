// Package vehicle implements the vehicle actor: construction from a
// configuration node through a [Registry], common parameter loading, and the
// per-tick hook protocol driven by the world loop.
//
// A concrete kinematic model plugs in by implementing [Model] and, when it
// needs actuation or bookkeeping, [PreStepper] and [PostStepper]. The
// [Vehicle] owns the pose q, the velocity dq and the chassis body handle;
// models never write q or dq themselves.
//
// # Example
//
//	v, err := vehicle.FactoryFromText(world, `<vehicle class="differential" pose="0 0 0">...</vehicle>`)
//	if err != nil {
//		return err
//	}
//	if err := v.CreateMultibodySystem(engine); err != nil {
//		return err
//	}
package vehicle
