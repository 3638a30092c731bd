// Package scene holds the annotation overlay: a closed set of vector object
// variants and the ordered Document that owns them.
//
// # Objects
//
// Object is a sealed interface implemented by Freehand, Line, Measurement,
// Arc, Marker, Rect, Ellipse, Text, Arrow and Group. Every object carries a
// Base with a UUID identity, a Style and two interaction flags:
//   - Selectable: the object can be picked by HitTest
//   - Erasable: the eraser may remove it
//
// Geometry is stored in document pixel space (see package geom).
//
// # Ordering
//
// The Document is a back-to-front list. MoveForward and MoveBackward shift one
// object by exactly one slot; BringToFront and SendToBack move it to an end.
// Group takes its members out of the top level and Ungroup puts them back.
//
// # Snapshots
//
// Serialize produces versioned JSON that Restore reads back losslessly.
// Restore validates the whole snapshot before touching the document, so a
// corrupt snapshot returns a *FormatError and leaves the contents intact.
//
// Document is not safe for concurrent use.
package scene
