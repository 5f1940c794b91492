// Package confnode exposes configuration text as a read-only tree of nodes
// with named attributes and tagged children.
//
// Two encodings are accepted and auto-detected by [Parse]: XML (the classic
// world-file format) and YAML. Both map onto the same [Node] view, so the
// loaders above this package never care which one was used:
//
//	<vehicle class="differential" pose="0 0 90">
//	  <dynamics wheel_separation="0.3" .../>
//	</vehicle>
//
//	vehicle:
//	  class: differential
//	  pose: [0, 0, 90]
//	  dynamics: {wheel_separation: 0.3, ...}
//
// A parsed [Document] must be released once the caller has extracted what it
// needs; nodes obtained from it must not be used afterwards.
package confnode
