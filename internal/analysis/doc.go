// Package analysis post-processes recorded vehicle trajectories.
//
//   - [Signal]: extracts one named channel (x, yaw, speed, u0, ...) from a trajectory
//   - [PowerSpectrum], [DominantFrequency]: oscillation analysis of a channel
//   - [PathsToASCII]: top-down plot of several vehicle paths
//
// A weaving controller, for instance, shows up as a clear peak in the yaw
// rate spectrum:
//
//	w, _ := analysis.Signal(tr, "w")
//	f, _ := analysis.DominantFrequency(w, result.Dt)
package analysis
