package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/ironsheep/pdf-markup-mcp/internal/imaging"
)

// DefaultGridColor is used when the requested grid color cannot be parsed.
var DefaultGridColor = color.NRGBA{255, 0, 0, 128}

const gridLabelSize = 9

// Grid draws a coordinate grid over a copy of img.
//
// Parameters:
//   - img: The raster to annotate. It is not modified.
//   - spacing: Distance between grid lines in raster pixels. Must be positive.
//   - origin: Document coordinate of the raster's top-left corner; labels
//     show document coordinates.
//   - scale: Raster pixels per document pixel; values <= 0 are treated as 1.
//   - showCoordinates: Label each intersection with its "x,y" position.
//   - gridColor: Line color as "#RGB" or "#RRGGBB", drawn at half opacity.
//
// Returns:
//   - image.Image: The annotated copy.
//   - error: Non-nil if spacing is not positive.
func (r *Rasterizer) Grid(img image.Image, spacing int, origin image.Point, scale float64, showCoordinates bool, gridColor string) (image.Image, error) {
	if spacing <= 0 {
		return nil, fmt.Errorf("grid spacing must be positive, got %d", spacing)
	}
	if scale <= 0 {
		scale = 1
	}
	lineColor, err := imaging.ParseColor(gridColor, 0.5)
	if err != nil {
		lineColor = DefaultGridColor
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b := img.Bounds()
	dc := gg.NewContextForImage(img)
	width, height := float64(b.Dx()), float64(b.Dy())

	dc.SetColor(lineColor)
	dc.SetLineWidth(1)
	for x := spacing; x < b.Dx(); x += spacing {
		dc.DrawLine(float64(x)+0.5, 0, float64(x)+0.5, height)
	}
	for y := spacing; y < b.Dy(); y += spacing {
		dc.DrawLine(0, float64(y)+0.5, width, float64(y)+0.5)
	}
	dc.Stroke()

	if showCoordinates {
		dc.SetFontFace(r.face(gridLabelSize))
		for y := spacing; y < b.Dy(); y += spacing {
			for x := spacing; x < b.Dx(); x += spacing {
				label := fmt.Sprintf("%d,%d",
					origin.X+int(float64(x)/scale), origin.Y+int(float64(y)/scale))
				drawLabel(dc, float64(x+2), float64(y+2), label)
			}
		}
	}

	return dc.Image(), nil
}

// drawLabel draws white text on a dark box with its top-left corner at (x,y).
func drawLabel(dc *gg.Context, x, y float64, text string) {
	w, h := dc.MeasureString(text)
	dc.SetColor(color.NRGBA{0, 0, 0, 180})
	dc.DrawRectangle(x-1, y-1, w+2, h+2)
	dc.Fill()
	dc.SetColor(color.White)
	dc.DrawStringAnchored(text, x, y, 0, 1)
}
