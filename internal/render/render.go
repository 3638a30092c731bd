package render

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ironsheep/pdf-markup-mcp/internal/geom"
	"github.com/ironsheep/pdf-markup-mcp/internal/imaging"
	"github.com/ironsheep/pdf-markup-mcp/internal/scene"
)

// MaxPixels bounds the size of a single raster.
const MaxPixels = 64 << 20

// Rasterizer paints scene objects onto transparent rasters.
//
// Font faces are cached per pixel size. A Rasterizer is safe for concurrent
// use; calls are serialized because truetype faces are not.
type Rasterizer struct {
	mu    sync.Mutex
	font  *truetype.Font
	faces map[float64]font.Face
	log   *logrus.Entry
}

// New parses the embedded label font and returns a ready rasterizer.
func New(log *logrus.Entry) (*Rasterizer, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Rasterizer{
		font:  f,
		faces: make(map[float64]font.Face),
		log:   log.WithField("component", "render"),
	}, nil
}

func (r *Rasterizer) face(size float64) font.Face {
	if f, ok := r.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(r.font, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	r.faces[size] = f
	return f
}

// Rasterize paints objs back to front on a transparent canvas covering a
// width x height page, supersampled by multiplier.
//
// Parameters:
//   - objs: Objects in paint order.
//   - width, height: Page size in document pixels.
//   - multiplier: Supersampling factor; values <= 0 are treated as 1.
//
// Returns:
//   - image.Image: An RGBA raster of ceil(width*multiplier) x
//     ceil(height*multiplier) pixels.
//   - error: Non-nil if the size is empty or too large.
func (r *Rasterizer) Rasterize(objs []scene.Object, width, height, multiplier float64) (image.Image, error) {
	if multiplier <= 0 {
		multiplier = 1
	}
	w := int(math.Ceil(width * multiplier))
	h := int(math.Ceil(height * multiplier))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid raster size %gx%g", width, height)
	}
	if w*h > MaxPixels {
		return nil, fmt.Errorf("raster of %dx%d pixels exceeds limit", w, h)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p := &painter{r: r, dc: gg.NewContext(w, h), mult: multiplier}
	p.dc.Scale(multiplier, multiplier)
	p.dc.SetLineCapRound()
	p.dc.SetLineJoinRound()
	for _, o := range objs {
		p.object(o)
	}

	r.log.WithFields(logrus.Fields{
		"objects":    len(objs),
		"width":      w,
		"height":     h,
		"multiplier": multiplier,
	}).Debug("scene rasterized")
	return p.dc.Image(), nil
}

// painter draws in document coordinates; the context matrix maps them to
// raster pixels. Line widths and text are scaled by hand since gg applies
// neither through the matrix.
type painter struct {
	r    *Rasterizer
	dc   *gg.Context
	mult float64
}

func (p *painter) object(o scene.Object) {
	st := o.Meta().Style
	switch o := o.(type) {
	case *scene.Freehand:
		if len(o.Points) == 0 {
			return
		}
		p.dc.MoveTo(o.Points[0].X, o.Points[0].Y)
		for _, pt := range o.Points[1:] {
			p.dc.LineTo(pt.X, pt.Y)
		}
		if len(o.Points) == 1 {
			p.dc.LineTo(o.Points[0].X, o.Points[0].Y)
		}
		p.stroke(st)
	case *scene.Line:
		p.dc.DrawLine(o.From.X, o.From.Y, o.To.X, o.To.Y)
		p.stroke(st)
	case *scene.Measurement:
		p.dc.DrawLine(o.From.X, o.From.Y, o.To.X, o.To.Y)
		p.stroke(st)
		c := o.LabelColor
		if c == "" {
			c = st.Stroke
		}
		p.text(o.Label, o.LabelAt, st.FontSize, c, 0.5, 0.5)
	case *scene.Arc:
		c, ok := o.Path.Center()
		if !ok {
			return
		}
		p.dc.NewSubPath()
		p.dc.DrawArc(c.Center.X, c.Center.Y, c.Radius, c.Start, c.Start+c.Delta)
		p.stroke(st)
	case *scene.Marker:
		p.dc.DrawCircle(o.At.X, o.At.Y, o.Radius)
		p.fillAndStroke(st)
	case *scene.Rect:
		p.dc.DrawRectangle(o.Box.X, o.Box.Y, o.Box.Width, o.Box.Height)
		p.fillAndStroke(st)
	case *scene.Ellipse:
		p.dc.DrawEllipse(o.Center.X, o.Center.Y, o.RX, o.RY)
		p.fillAndStroke(st)
	case *scene.Text:
		c := st.Stroke
		if c == "" {
			c = st.Fill
		}
		p.text(o.Content, o.At, st.FontSize, c, 0, 1)
	case *scene.Arrow:
		p.dc.DrawLine(o.Tail.X, o.Tail.Y, o.Head.X, o.Head.Y)
		p.stroke(st)
		p.dc.MoveTo(o.Points[0].X, o.Points[0].Y)
		p.dc.LineTo(o.Points[1].X, o.Points[1].Y)
		p.dc.LineTo(o.Points[2].X, o.Points[2].Y)
		p.dc.ClosePath()
		fill := st.Fill
		if fill == "" {
			fill = st.Stroke
		}
		p.dc.SetColor(imaging.MustParseColor(fill, opacity(st.FillOpacity)))
		p.dc.Fill()
	case *scene.Group:
		for _, c := range o.Children {
			p.object(c)
		}
	default:
		p.r.log.WithField("kind", o.Kind()).Warn("unknown object kind skipped")
	}
}

func (p *painter) stroke(st scene.Style) {
	if st.Stroke == "" || st.StrokeWidth <= 0 {
		p.dc.ClearPath()
		return
	}
	p.dc.SetColor(imaging.MustParseColor(st.Stroke, 1))
	p.dc.SetLineWidth(st.StrokeWidth * p.mult)
	p.dc.Stroke()
}

func (p *painter) fillAndStroke(st scene.Style) {
	if st.Fill != "" {
		p.dc.SetColor(imaging.MustParseColor(st.Fill, opacity(st.FillOpacity)))
		p.dc.FillPreserve()
	}
	p.stroke(st)
}

// text draws s anchored at (ax, ay) relative to at, in raster pixels.
func (p *painter) text(s string, at geom.Point, size float64, hex string, ax, ay float64) {
	if s == "" {
		return
	}
	if size <= 0 {
		size = scene.DefaultFontSize
	}
	if hex == "" {
		hex = "#000"
	}
	p.dc.Push()
	defer p.dc.Pop()
	p.dc.Identity()
	p.dc.SetFontFace(p.r.face(size * p.mult))
	p.dc.SetColor(imaging.MustParseColor(hex, 1))
	p.dc.DrawStringAnchored(s, at.X*p.mult, at.Y*p.mult, ax, ay)
}

// opacity maps an unset fill opacity to opaque.
func opacity(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}
