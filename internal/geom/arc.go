package geom

import "math"

// ArcPath is an SVG-style circular arc command: from From to To on a circle of
// Radius, choosing the candidate arc with the LargeArc and Sweep flags.
type ArcPath struct {
	From     Point   `json:"from"`
	To       Point   `json:"to"`
	Radius   float64 `json:"radius"`
	LargeArc bool    `json:"large_arc"`
	Sweep    bool    `json:"sweep"`
}

// DragArc builds the arc for a drag that starts at center and ends at end.
// The arc starts at angle 0 on the circle through end and runs to end's angle
// with a fixed clockwise sweep.
//
// The large-arc flag compares the raw atan2 angle with π. atan2 never leaves
// [-π, π], so the flag is always false and drags ending above the center
// produce the short arc around a different center. Kept as is until the
// intended output is confirmed.
func DragArc(center, end Point) ArcPath {
	r := center.Distance(end)
	endAngle := Angle(center, end)
	return ArcPath{
		From:     Point{X: center.X + r, Y: center.Y},
		To:       Point{X: center.X + r*math.Cos(endAngle), Y: center.Y + r*math.Sin(endAngle)},
		Radius:   r,
		LargeArc: math.Abs(endAngle) > math.Pi,
		Sweep:    true,
	}
}

// ArcCenter is the center parameterization of an ArcPath.
type ArcCenter struct {
	Center Point
	Radius float64
	Start  float64 // angle of From
	Delta  float64 // signed sweep; positive is clockwise on screen
}

// Center converts the arc from endpoint to center parameterization following
// the SVG implementation notes (F.6.5) with equal radii and no rotation.
// ok is false when the arc is degenerate and draws nothing.
func (a ArcPath) Center() (c ArcCenter, ok bool) {
	r := math.Abs(a.Radius)
	if r == 0 || a.From == a.To {
		return ArcCenter{}, false
	}

	x1 := (a.From.X - a.To.X) / 2
	y1 := (a.From.Y - a.To.Y) / 2

	// Radii too small to span the chord are scaled up.
	if lambda := (x1*x1 + y1*y1) / (r * r); lambda > 1 {
		r *= math.Sqrt(lambda)
	}

	num := r*r*r*r - r*r*y1*y1 - r*r*x1*x1
	den := r*r*y1*y1 + r*r*x1*x1
	sq := math.Sqrt(math.Max(0, num/den))
	if a.LargeArc == a.Sweep {
		sq = -sq
	}
	cx := sq * y1
	cy := -sq * x1

	u := Point{X: (x1 - cx) / r, Y: (y1 - cy) / r}
	v := Point{X: (-x1 - cx) / r, Y: (-y1 - cy) / r}
	start := vectorAngle(Point{X: 1}, u)
	delta := math.Mod(vectorAngle(u, v), 2*math.Pi)
	if !a.Sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if a.Sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	return ArcCenter{
		Center: Point{
			X: cx + (a.From.X+a.To.X)/2,
			Y: cy + (a.From.Y+a.To.Y)/2,
		},
		Radius: r,
		Start:  start,
		Delta:  delta,
	}, true
}

// Points samples the arc into a polyline of n+1 points.
func (c ArcCenter) Points(n int) []Point {
	if n < 1 {
		n = 1
	}
	pts := make([]Point, 0, n+1)
	for i := 0; i <= n; i++ {
		t := c.Start + c.Delta*float64(i)/float64(n)
		pts = append(pts, Point{
			X: c.Center.X + c.Radius*math.Cos(t),
			Y: c.Center.Y + c.Radius*math.Sin(t),
		})
	}
	return pts
}

func vectorAngle(u, v Point) float64 {
	return math.Atan2(u.X*v.Y-u.Y*v.X, u.X*v.X+u.Y*v.Y)
}

// EllipsePoints samples the outline of an axis-aligned ellipse.
func EllipsePoints(center Point, rx, ry float64, n int) []Point {
	if n < 3 {
		n = 3
	}
	pts := make([]Point, 0, n+1)
	for i := 0; i <= n; i++ {
		t := 2 * math.Pi * float64(i) / float64(n)
		pts = append(pts, Point{X: center.X + rx*math.Cos(t), Y: center.Y + ry*math.Sin(t)})
	}
	return pts
}
