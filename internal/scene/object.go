package scene

import (
	"math"

	"github.com/google/uuid"

	"github.com/ironsheep/pdf-markup-mcp/internal/geom"
)

// Kind identifies the variant of an Object.
type Kind string

// The closed set of scene object variants.
const (
	KindFreehand    Kind = "freehand"
	KindLine        Kind = "line"
	KindMeasurement Kind = "measurement"
	KindArc         Kind = "arc"
	KindMarker      Kind = "marker"
	KindRect        Kind = "rect"
	KindEllipse     Kind = "ellipse"
	KindText        Kind = "text"
	KindArrow       Kind = "arrow"
	KindGroup       Kind = "group"
)

// Style holds the paint attributes of an object. Colors are CSS-style hex
// strings ("#000", "#0000ff"). An empty Fill means no fill.
type Style struct {
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
	Fill        string  `json:"fill,omitempty"`
	FillOpacity float64 `json:"fill_opacity,omitempty"`
	FontSize    float64 `json:"font_size,omitempty"`
}

// Base carries the attributes shared by every variant.
type Base struct {
	ID         string `json:"id"`
	Style      Style  `json:"style"`
	Selectable bool   `json:"selectable"`
	Erasable   bool   `json:"erasable"`
}

// Meta gives access to the shared attributes.
func (b *Base) Meta() *Base { return b }

func (b *Base) sealed() {}

// NewBase returns attributes with a fresh identity.
func NewBase(style Style, selectable, erasable bool) Base {
	return Base{ID: uuid.NewString(), Style: style, Selectable: selectable, Erasable: erasable}
}

// Object is one element of the annotation overlay. The set of implementations
// is closed; switch on the concrete type or on Kind.
type Object interface {
	Kind() Kind
	Meta() *Base
	// Bounds returns the axis-aligned box of the geometry, stroke excluded.
	Bounds() geom.Rect
	// Hit reports whether p lies on the painted geometry within tol pixels.
	Hit(p geom.Point, tol float64) bool
	// Translate moves the geometry by d.
	Translate(d geom.Point)
	// Clone returns a deep copy with the same identity.
	Clone() Object
	sealed()
}

func halfWidth(s Style) float64 { return s.StrokeWidth / 2 }

// Freehand is an ink stroke sampled from pointer positions.
type Freehand struct {
	Base
	Points []geom.Point `json:"points"`
}

func (o *Freehand) Kind() Kind        { return KindFreehand }
func (o *Freehand) Bounds() geom.Rect { return geom.BoundsOf(o.Points...) }
func (o *Freehand) Hit(p geom.Point, tol float64) bool {
	return geom.PolylineDistance(p, o.Points) <= tol+halfWidth(o.Style)
}
func (o *Freehand) Translate(d geom.Point) {
	for i := range o.Points {
		o.Points[i] = o.Points[i].Add(d)
	}
}
func (o *Freehand) Clone() Object {
	c := *o
	c.Points = append([]geom.Point(nil), o.Points...)
	return &c
}

// Line is a plain straight segment.
type Line struct {
	Base
	From geom.Point `json:"from"`
	To   geom.Point `json:"to"`
}

func (o *Line) Kind() Kind        { return KindLine }
func (o *Line) Bounds() geom.Rect { return geom.BoundsOf(o.From, o.To) }
func (o *Line) Hit(p geom.Point, tol float64) bool {
	return geom.SegmentDistance(p, o.From, o.To) <= tol+halfWidth(o.Style)
}
func (o *Line) Translate(d geom.Point) {
	o.From, o.To = o.From.Add(d), o.To.Add(d)
}
func (o *Line) Clone() Object { c := *o; return &c }

// Measurement is a dimension line with its derived label. Label and LabelAt
// are computed once when the line is committed.
type Measurement struct {
	Base
	From       geom.Point `json:"from"`
	To         geom.Point `json:"to"`
	Label      string     `json:"label"`
	LabelAt    geom.Point `json:"label_at"`
	LabelColor string     `json:"label_color,omitempty"`
}

func (o *Measurement) Kind() Kind { return KindMeasurement }
func (o *Measurement) Bounds() geom.Rect {
	return geom.BoundsOf(o.From, o.To).Union(o.labelBox())
}
func (o *Measurement) Hit(p geom.Point, tol float64) bool {
	if geom.SegmentDistance(p, o.From, o.To) <= tol+halfWidth(o.Style) {
		return true
	}
	return o.labelBox().Inset(tol).Contains(p)
}
func (o *Measurement) Translate(d geom.Point) {
	o.From, o.To, o.LabelAt = o.From.Add(d), o.To.Add(d), o.LabelAt.Add(d)
}
func (o *Measurement) Clone() Object { c := *o; return &c }

// labelBox is centered on LabelAt.
func (o *Measurement) labelBox() geom.Rect {
	w, h := TextExtent(o.Label, o.Style.FontSize)
	return geom.Rect{X: o.LabelAt.X - w/2, Y: o.LabelAt.Y - h/2, Width: w, Height: h}
}

// Arc is a circular arc drawn by the arc tool.
type Arc struct {
	Base
	Path geom.ArcPath `json:"path"`
}

func (o *Arc) Kind() Kind { return KindArc }
func (o *Arc) polyline() []geom.Point {
	c, ok := o.Path.Center()
	if !ok {
		return []geom.Point{o.Path.From}
	}
	return c.Points(48)
}
func (o *Arc) Bounds() geom.Rect { return geom.BoundsOf(o.polyline()...) }
func (o *Arc) Hit(p geom.Point, tol float64) bool {
	return geom.PolylineDistance(p, o.polyline()) <= tol+halfWidth(o.Style)
}
func (o *Arc) Translate(d geom.Point) {
	o.Path.From, o.Path.To = o.Path.From.Add(d), o.Path.To.Add(d)
}
func (o *Arc) Clone() Object { c := *o; return &c }

// Marker is a transient dot marking a picked point.
type Marker struct {
	Base
	At     geom.Point `json:"at"`
	Radius float64    `json:"radius"`
}

func (o *Marker) Kind() Kind { return KindMarker }
func (o *Marker) Bounds() geom.Rect {
	return geom.Rect{X: o.At.X - o.Radius, Y: o.At.Y - o.Radius, Width: 2 * o.Radius, Height: 2 * o.Radius}
}
func (o *Marker) Hit(p geom.Point, tol float64) bool { return p.Distance(o.At) <= o.Radius+tol }
func (o *Marker) Translate(d geom.Point)             { o.At = o.At.Add(d) }
func (o *Marker) Clone() Object                      { c := *o; return &c }

// Rect is an axis-aligned rectangle.
type Rect struct {
	Base
	Box geom.Rect `json:"box"`
}

func (o *Rect) Kind() Kind        { return KindRect }
func (o *Rect) Bounds() geom.Rect { return o.Box }
func (o *Rect) corners() []geom.Point {
	b := o.Box
	return []geom.Point{
		{X: b.X, Y: b.Y}, {X: b.X + b.Width, Y: b.Y},
		{X: b.X + b.Width, Y: b.Y + b.Height}, {X: b.X, Y: b.Y + b.Height},
		{X: b.X, Y: b.Y},
	}
}
func (o *Rect) Hit(p geom.Point, tol float64) bool {
	if o.Style.Fill != "" && o.Box.Inset(tol).Contains(p) {
		return true
	}
	return geom.PolylineDistance(p, o.corners()) <= tol+halfWidth(o.Style)
}
func (o *Rect) Translate(d geom.Point) { o.Box.X += d.X; o.Box.Y += d.Y }
func (o *Rect) Clone() Object          { c := *o; return &c }

// Ellipse is an axis-aligned ellipse given by center and radii.
type Ellipse struct {
	Base
	Center geom.Point `json:"center"`
	RX     float64    `json:"rx"`
	RY     float64    `json:"ry"`
}

func (o *Ellipse) Kind() Kind { return KindEllipse }
func (o *Ellipse) Bounds() geom.Rect {
	return geom.Rect{X: o.Center.X - o.RX, Y: o.Center.Y - o.RY, Width: 2 * o.RX, Height: 2 * o.RY}
}
func (o *Ellipse) Hit(p geom.Point, tol float64) bool {
	if o.Style.Fill != "" && o.RX+tol > 0 && o.RY+tol > 0 {
		nx := (p.X - o.Center.X) / (o.RX + tol)
		ny := (p.Y - o.Center.Y) / (o.RY + tol)
		if nx*nx+ny*ny <= 1 {
			return true
		}
	}
	return geom.PolylineDistance(p, geom.EllipsePoints(o.Center, o.RX, o.RY, 64)) <= tol+halfWidth(o.Style)
}
func (o *Ellipse) Translate(d geom.Point) { o.Center = o.Center.Add(d) }
func (o *Ellipse) Clone() Object          { c := *o; return &c }

// Text is a free text label anchored at its top-left corner.
type Text struct {
	Base
	At      geom.Point `json:"at"`
	Content string     `json:"content"`
}

func (o *Text) Kind() Kind { return KindText }
func (o *Text) Bounds() geom.Rect {
	w, h := TextExtent(o.Content, o.Style.FontSize)
	return geom.Rect{X: o.At.X, Y: o.At.Y, Width: w, Height: h}
}
func (o *Text) Hit(p geom.Point, tol float64) bool { return o.Bounds().Inset(tol).Contains(p) }
func (o *Text) Translate(d geom.Point)             { o.At = o.At.Add(d) }
func (o *Text) Clone() Object                      { c := *o; return &c }

// Arrow is a shaft with a filled triangular head at Head.
type Arrow struct {
	Base
	Tail   geom.Point    `json:"tail"`
	Head   geom.Point    `json:"head"`
	Points [3]geom.Point `json:"head_points"`
}

// SetHead moves the tip and recomputes the head triangle.
func (o *Arrow) SetHead(p geom.Point) {
	o.Head = p
	o.Points = geom.ArrowHead(o.Tail, o.Head, geom.ArrowHeadLength)
}

func (o *Arrow) Kind() Kind { return KindArrow }
func (o *Arrow) Bounds() geom.Rect {
	return geom.BoundsOf(o.Tail, o.Head, o.Points[0], o.Points[2])
}
func (o *Arrow) Hit(p geom.Point, tol float64) bool {
	if geom.SegmentDistance(p, o.Tail, o.Head) <= tol+halfWidth(o.Style) {
		return true
	}
	if geom.InPolygon(p, o.Points[:]) {
		return true
	}
	return geom.PolylineDistance(p, append(o.Points[:], o.Points[0])) <= tol
}
func (o *Arrow) Translate(d geom.Point) {
	o.Tail, o.Head = o.Tail.Add(d), o.Head.Add(d)
	for i := range o.Points {
		o.Points[i] = o.Points[i].Add(d)
	}
}
func (o *Arrow) Clone() Object { c := *o; return &c }

// Group owns an ordered list of children, back to front.
type Group struct {
	Base
	Children []Object `json:"-"`
}

func (o *Group) Kind() Kind { return KindGroup }
func (o *Group) Bounds() geom.Rect {
	r := geom.EmptyRect
	for _, c := range o.Children {
		r = r.Union(c.Bounds())
	}
	return r
}
func (o *Group) Hit(p geom.Point, tol float64) bool {
	for _, c := range o.Children {
		if c.Hit(p, tol) {
			return true
		}
	}
	return false
}
func (o *Group) Translate(d geom.Point) {
	for _, c := range o.Children {
		c.Translate(d)
	}
}
func (o *Group) Clone() Object {
	c := *o
	c.Children = make([]Object, len(o.Children))
	for i, child := range o.Children {
		c.Children[i] = child.Clone()
	}
	return &c
}

// TextExtent estimates the box of a single-line string at the given font size.
// The estimate only feeds hit testing and bounds; the renderer measures glyphs.
func TextExtent(s string, fontSize float64) (w, h float64) {
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	n := 0
	for range s {
		n++
	}
	return math.Max(1, float64(n)) * fontSize * 0.6, fontSize * 1.2
}

// DefaultFontSize applies to labels without an explicit size.
const DefaultFontSize = 14.0
