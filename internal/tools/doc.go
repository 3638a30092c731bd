// Package tools is the editing state machine.
//
// A Machine holds exactly one active Tool. Selecting a mode exits the current
// tool (which drops its uncommitted objects), records a history snapshot and
// enters the new one. Measuring modes are guarded: until the scale is
// calibrated they refuse to activate, raise one notice and leave the previous
// tool in place.
//
// Pointer events carry both document and screen positions. Drawing tools use
// the document position; the pan/zoom tool uses the screen position.
//
// History granularity:
//   - tool entry: one snapshot of the state before the tool's first edit
//   - freehand and eraser: one at stroke start and one at completion
//   - lines, arcs, arrows, measurements, moves: one on completion
//
// Zero-length drags are discarded.
package tools
