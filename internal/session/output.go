package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"

	"github.com/ironsheep/pdf-markup-mcp/internal/export"
	"github.com/ironsheep/pdf-markup-mcp/internal/geom"
	"github.com/ironsheep/pdf-markup-mcp/internal/imaging"
)

// PreviewRequest selects what Preview renders.
type PreviewRequest struct {
	// Region in document pixels; nil means the whole surface.
	Region *geom.Rect
	// Scale is output pixels per document pixel; values <= 0 mean 1.
	Scale float64
	// Grid is the grid spacing in document pixels; 0 draws no grid.
	Grid       int
	GridLabels bool
	GridColor  string
}

// MaxPreviewScale bounds the preview resolution.
const MaxPreviewScale = 8

// Preview renders the page with the scene on top, optionally cropped and
// overlaid with a coordinate grid, and encodes it as PNG.
func (s *Session) Preview(req PreviewRequest) (*imaging.CropResult, error) {
	if err := s.require("preview"); err != nil {
		return nil, err
	}
	scale := req.Scale
	if scale <= 0 {
		scale = 1
	}
	if scale > MaxPreviewScale {
		return nil, fmt.Errorf("preview scale %g exceeds %d", scale, MaxPreviewScale)
	}

	src := s.src
	page, err := surfacePage{src: src, previews: s.previews}.Render(scale)
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	overlay, err := s.raster.Rasterize(s.doc.Objects(), src.width, src.height, scale)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize annotations: %w", err)
	}
	flat, err := imaging.Flatten(page, overlay)
	if err != nil {
		return nil, err
	}

	b := flat.Bounds()
	x1, y1, x2, y2 := 0, 0, b.Dx(), b.Dy()
	if r := req.Region; r != nil {
		x1 = clamp(int(math.Floor(r.X*scale)), 0, b.Dx())
		y1 = clamp(int(math.Floor(r.Y*scale)), 0, b.Dy())
		x2 = clamp(int(math.Ceil((r.X+r.Width)*scale)), 0, b.Dx())
		y2 = clamp(int(math.Ceil((r.Y+r.Height)*scale)), 0, b.Dy())
	}

	var img image.Image = flat
	if req.Grid > 0 {
		spacing := max(1, int(math.Round(float64(req.Grid)*scale)))
		img, err = s.raster.Grid(flat, spacing, image.Point{}, scale, req.GridLabels, req.GridColor)
		if err != nil {
			return nil, err
		}
	}
	return imaging.Crop(img, x1, y1, x2, y2, 1)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Export mode names accepted by Export.
const (
	ExportAuto        = "auto"
	ExportHighQuality = string(export.HighQuality)
	ExportFlattened   = string(export.Flattened)
)

// Export produces the marked-up document. The auto mode tries the
// high-quality path and falls back to the flattened one when the original
// document cannot be re-read or embedding fails.
func (s *Session) Export(ctx context.Context, mode string) (*export.Result, error) {
	if err := s.require("export"); err != nil {
		return nil, err
	}
	src := s.exportSource()
	objs := s.doc.Objects()

	switch mode {
	case "", ExportAuto:
		res, err := s.export.ExportHighQuality(ctx, src, objs)
		if err == nil || ctx.Err() != nil {
			return res, err
		}
		s.log.WithError(err).Warn("high quality export failed, falling back to flattened")
		return s.export.ExportFlattened(ctx, src, objs)
	case ExportHighQuality:
		return s.export.ExportHighQuality(ctx, src, objs)
	case ExportFlattened:
		return s.export.ExportFlattened(ctx, src, objs)
	default:
		return nil, fmt.Errorf("unknown export mode %q", mode)
	}
}

// exportSource re-reads the original bytes so the export reflects the file
// as it is now; unreadable files leave Data nil.
func (s *Session) exportSource() *export.Source {
	src := s.src
	data, err := os.ReadFile(src.path)
	if err != nil {
		s.log.WithError(err).WithField("path", src.path).Warn("original document unavailable")
		data = nil
	}
	return &export.Source{
		Name:       src.path,
		Data:       data,
		Width:      src.width,
		Height:     src.height,
		PageWidth:  src.pageWidth,
		PageHeight: src.pageHeight,
		Page:       surfacePage{src: src, previews: s.previews},
	}
}

// IsStateError reports whether err comes from an operation that needs a
// loaded document.
func IsStateError(err error) bool {
	var se *export.StateError
	return errors.As(err, &se)
}
