package geom

import (
	"math"
	"strconv"
)

const (
	// LabelOffset is the perpendicular distance between a measured segment and
	// its label anchor.
	LabelOffset = 10.0

	// SnapStep is the angle increment used by SnapAngle (45°).
	SnapStep = math.Pi / 4

	// ArrowHeadLength is the distance from the arrow tip back to the two base
	// vertices of its head.
	ArrowHeadLength = 15.0

	// ArrowHeadSpread is the rotation of each base vertex away from the shaft.
	ArrowHeadSpread = math.Pi / 6
)

// Angle returns the direction of the vector from a to b.
func Angle(a, b Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// LabelAnchor returns where the label of segment a-b is placed: the segment
// midpoint pushed offset pixels along the left-hand normal (-dy, dx).
// A zero-length segment gets no offset.
func LabelAnchor(a, b Point, offset float64) Point {
	dx := b.X - a.X
	dy := b.Y - a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		length = 1
	}
	mid := Midpoint(a, b)
	return Point{
		X: mid.X + (-dy/length)*offset,
		Y: mid.Y + (dx/length)*offset,
	}
}

// FormatLength renders a real-world length with one decimal and a unit suffix,
// e.g. "30.0 mm". The stored binary value is rounded once, so 0.15 reads
// "0.1"; exact halves such as 0.25 round away from zero.
func FormatLength(v float64, unit string) string {
	if math.Mod(math.Abs(v)*4, 2) == 1 {
		v = math.Nextafter(v, math.Copysign(math.Inf(1), v))
	}
	s := strconv.FormatFloat(v, 'f', 1, 64)
	if unit == "" {
		return s
	}
	return s + " " + unit
}

// SnapAngle moves to onto the nearest multiple of SnapStep as seen from
// from, keeping the original radius.
func SnapAngle(from, to Point) Point {
	r := from.Distance(to)
	a := Angle(from, to)
	// math.Floor(x+0.5) rounds ties upward, matching pointer-driven UIs.
	snapped := math.Floor(a/SnapStep+0.5) * SnapStep
	return Point{
		X: from.X + math.Cos(snapped)*r,
		Y: from.Y + math.Sin(snapped)*r,
	}
}

// ArrowHead returns the triangle of an arrow pointing from tail to head:
// the first base vertex, the tip, and the second base vertex.
func ArrowHead(tail, head Point, length float64) [3]Point {
	a := Angle(tail, head)
	return [3]Point{
		{
			X: head.X - length*math.Cos(a-ArrowHeadSpread),
			Y: head.Y - length*math.Sin(a-ArrowHeadSpread),
		},
		head,
		{
			X: head.X - length*math.Cos(a+ArrowHeadSpread),
			Y: head.Y - length*math.Sin(a+ArrowHeadSpread),
		},
	}
}
