// Package viz draws a running world top-down in the terminal.
//
// Vehicles are rendered as their chassis outlines on a braille [Canvas], with
// fading trails and a side panel of per-vehicle state. The view is a Bubble
// Tea program; see [Run].
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	Tab     - Select next vehicle
//	F       - Follow the selected vehicle
//	A       - Fit all vehicles in view
//	+/-     - Zoom
//	Arrows  - Pan
//	C       - Clear trails
//	T       - Cycle color themes
//	?       - Show help overlay
package viz
