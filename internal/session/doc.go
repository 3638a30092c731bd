// Package session ties the markup engines to one loaded document.
//
// A Session owns the scene, its undo history, the calibration engine, the
// view transform and the tool state machine. Hosts drive it with pointer,
// wheel and key events in document pixels and read back State, Objects and
// the notices raised along the way. Preview and Export composite the scene
// over the page.
//
// Document pixels are page points scaled by the fit factor chosen at load,
// so a page fills 90% of the viewport width or 85% of its height.
package session
