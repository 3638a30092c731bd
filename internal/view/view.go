// Package view is the pan/zoom transform of the display surface.
//
// The transform is presentation only. It maps screen points to document
// points for pointer input and never changes object geometry, so export is
// always computed in document space.
package view

import (
	"fmt"
	"math"

	"github.com/ironsheep/pdf-markup-mcp/internal/geom"
)

// Zoom limits and wheel step.
const (
	MinZoom  = 0.5
	MaxZoom  = 3.0
	ZoomStep = 0.1
)

// Transform maps document space to screen space as
// screen = doc*Zoom + Offset.
type Transform struct {
	Offset geom.Point `json:"offset"`
	Zoom   float64    `json:"zoom"`
}

// New returns the identity transform.
func New() *Transform {
	return &Transform{Zoom: 1}
}

// Reset restores offset (0,0) and zoom 1.
func (t *Transform) Reset() {
	t.Offset = geom.Point{}
	t.Zoom = 1
}

// PanBy accumulates a screen-space drag delta.
func (t *Transform) PanBy(dx, dy float64) {
	t.Offset.X += dx
	t.Offset.Y += dy
}

// ZoomAt applies one wheel notch at the screen point p. deltaY > 0 zooms out,
// deltaY < 0 zooms in. The document point under p stays fixed. Steps that
// would leave [MinZoom, MaxZoom] are ignored; ZoomAt reports whether the zoom
// changed.
func (t *Transform) ZoomAt(p geom.Point, deltaY float64) bool {
	if deltaY == 0 {
		return false
	}
	step := ZoomStep
	if deltaY > 0 {
		step = -ZoomStep
	}
	// Round to the step grid so repeated notches do not drift.
	next := math.Round((t.Zoom+step)*10) / 10
	if next < MinZoom || next > MaxZoom {
		return false
	}

	ratio := next / t.Zoom
	t.Offset = geom.Point{
		X: p.X - (p.X-t.Offset.X)*ratio,
		Y: p.Y - (p.Y-t.Offset.Y)*ratio,
	}
	t.Zoom = next
	return true
}

// ToDocument maps a screen point to document space.
func (t *Transform) ToDocument(p geom.Point) geom.Point {
	return geom.Point{X: (p.X - t.Offset.X) / t.Zoom, Y: (p.Y - t.Offset.Y) / t.Zoom}
}

// ToScreen maps a document point to screen space.
func (t *Transform) ToScreen(p geom.Point) geom.Point {
	return geom.Point{X: p.X*t.Zoom + t.Offset.X, Y: p.Y*t.Zoom + t.Offset.Y}
}

// CSS renders the transform as a CSS transform value with origin 0 0.
func (t *Transform) CSS() string {
	return fmt.Sprintf("translate(%gpx, %gpx) scale(%g)", t.Offset.X, t.Offset.Y, t.Zoom)
}
