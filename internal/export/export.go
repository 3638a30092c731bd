package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/pdf-markup-mcp/internal/imaging"
	"github.com/ironsheep/pdf-markup-mcp/internal/scene"
)

// DefaultMultiplier is the supersampling factor of the annotation raster.
const DefaultMultiplier = 4

// ErrSourceUnavailable is returned by ExportHighQuality when the original
// document bytes are missing. Callers fall back to ExportFlattened.
var ErrSourceUnavailable = errors.New("original document not available")

// StateError reports an export attempted without a loaded document.
type StateError struct {
	Op string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: no document loaded", e.Op)
}

// Mode names the two export paths.
type Mode string

const (
	HighQuality Mode = "high_quality"
	Flattened   Mode = "flattened"
)

// Rasterizer paints scene objects onto a transparent raster covering a
// width x height page at the given supersampling multiplier.
type Rasterizer interface {
	Rasterize(objs []scene.Object, width, height, multiplier float64) (image.Image, error)
}

// Encoder produces PDF bytes.
type Encoder interface {
	EmbedOverlay(ctx context.Context, src []byte, overlay image.Image) ([]byte, error)
	EncodeImage(ctx context.Context, img image.Image, width, height float64) ([]byte, error)
}

// PageRenderer renders the visible page at a scale.
type PageRenderer interface {
	Render(scale float64) (image.Image, error)
}

// Source describes the loaded document.
type Source struct {
	Name          string  // original file name; may be empty
	Data          []byte  // original bytes; nil when they cannot be re-read
	Width, Height float64 // drawing surface size in document pixels

	// PageWidth and PageHeight are the size of page 1 in PDF points. Zero
	// means the surface size.
	PageWidth, PageHeight float64

	// Page renders the page in document pixels; scale 1 is the surface size.
	Page PageRenderer
}

func (s *Source) pageSize() (float64, float64) {
	if s.PageWidth > 0 && s.PageHeight > 0 {
		return s.PageWidth, s.PageHeight
	}
	return s.Width, s.Height
}

// Result is an exported document.
type Result struct {
	Name string `json:"name"`
	Mode Mode   `json:"mode"`
	Data []byte `json:"-"`
}

// Compositor merges the scene with the source document.
type Compositor struct {
	raster     Rasterizer
	enc        Encoder
	multiplier float64
	log        *logrus.Entry

	// Now supplies the export date. Defaults to time.Now.
	Now func() time.Time
}

// New creates a compositor. A multiplier <= 0 selects DefaultMultiplier.
func New(r Rasterizer, e Encoder, multiplier float64, log *logrus.Entry) *Compositor {
	if multiplier <= 0 {
		multiplier = DefaultMultiplier
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Compositor{
		raster:     r,
		enc:        e,
		multiplier: multiplier,
		log:        log.WithField("component", "export"),
		Now:        time.Now,
	}
}

// Multiplier returns the supersampling factor.
func (c *Compositor) Multiplier() float64 { return c.multiplier }

// ExportHighQuality rasterizes the scene as a transparent supersampled PNG
// and embeds it over page 1 of the original document, scaled to the page.
func (c *Compositor) ExportHighQuality(ctx context.Context, src *Source, objs []scene.Object) (*Result, error) {
	if src == nil {
		return nil, &StateError{Op: "export"}
	}
	if len(src.Data) == 0 {
		return nil, ErrSourceUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	overlay, err := c.raster.Rasterize(objs, src.Width, src.Height, c.multiplier)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize annotations: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := c.enc.EmbedOverlay(ctx, src.Data, overlay)
	if err != nil {
		return nil, err
	}

	res := &Result{Name: FileName(src.Name, c.Now()), Mode: HighQuality, Data: data}
	c.log.WithFields(logrus.Fields{
		"name":    res.Name,
		"objects": len(objs),
		"bytes":   len(data),
	}).Info("document exported")
	return res, nil
}

// ExportFlattened composites the rendered page with the scene into one
// raster and encodes it as a new single-page document.
func (c *Compositor) ExportFlattened(ctx context.Context, src *Source, objs []scene.Object) (*Result, error) {
	if src == nil {
		return nil, &StateError{Op: "export"}
	}
	if src.Page == nil {
		return nil, fmt.Errorf("no page raster available")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := src.Page.Render(c.multiplier)
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	overlay, err := c.raster.Rasterize(objs, src.Width, src.Height, c.multiplier)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize annotations: %w", err)
	}
	flat, err := imaging.Flatten(page, overlay)
	if err != nil {
		return nil, fmt.Errorf("failed to flatten page: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, ph := src.pageSize()
	data, err := c.enc.EncodeImage(ctx, flat, pw, ph)
	if err != nil {
		return nil, err
	}

	res := &Result{Name: FileName(src.Name, c.Now()), Mode: Flattened, Data: data}
	c.log.WithFields(logrus.Fields{
		"name":    res.Name,
		"objects": len(objs),
		"bytes":   len(data),
	}).Info("document exported")
	return res, nil
}

// FileName returns "<base>_MarkUp-<YYYY-MM-DD>.pdf" for the source name.
// The base drops the directory and a trailing ".pdf" in any case, and is
// "final" when nothing is left. The date is the UTC calendar day.
func FileName(source string, now time.Time) string {
	base := ""
	if source != "" {
		base = filepath.Base(source)
		if strings.HasSuffix(strings.ToLower(base), ".pdf") {
			base = base[:len(base)-len(".pdf")]
		}
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "final"
	}
	return fmt.Sprintf("%s_MarkUp-%s.pdf", base, now.UTC().Format("2006-01-02"))
}
