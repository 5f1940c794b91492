// Package world owns the physics engine, the vehicles living in it and the
// simulation clock, and drives the per-tick hook protocol.
//
// Every [World.Step] runs four phases over all vehicles in insertion order:
//
//  1. PreStep of every vehicle (actuation)
//  2. one engine step
//  3. PostStepCommon of every vehicle (pose and velocity extraction)
//  4. PostStep of every vehicle (bookkeeping)
//
// A failing phase aborts the tick without advancing the clock and leaves the
// world failed; later calls to Step return [dynamo.ErrTickFailed].
//
// A World is not safe for concurrent use. Independent worlds can run in
// parallel, see [Ensemble].
//
// # Example
//
//	w := world.New(world.DefaultConfig())
//	if err := w.LoadWorldText(text); err != nil {
//		return err
//	}
//	defer w.Close()
//	res, err := w.Run(ctx, 10.0)
package world
