// Package physics adapts the Box2D port (github.com/ByteArena/box2d) to the
// small capability set the simulator consumes: create bodies and polygon
// fixtures, step the world, and read body transforms and velocities.
//
// The [Engine] is owned by the world loop, which is the only caller of
// [Engine.Step]. Vehicles see the engine through [BodyFactory] while they build
// their multibody system, and afterwards only through the [Body] handles they own.
package physics
