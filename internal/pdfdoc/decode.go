package pdfdoc

import (
	"bytes"
	"fmt"
	"image"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/pdf-markup-mcp/internal/imaging"
)

// newConfiguration returns a pdfcpu configuration that never touches the
// user's config directory and tolerates minor spec violations.
func newConfiguration() *model.Configuration {
	api.DisableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Page is the first page of a decoded document.
type Page struct {
	Width, Height float64 // in PDF points
	Count         int     // pages in the document
}

// Size returns the page size in points.
func (p *Page) Size() (width, height float64) { return p.Width, p.Height }

// PageCount returns the number of pages in the document.
func (p *Page) PageCount() int { return p.Count }

// Render returns a blank paper raster at scale pixels per point. pdfcpu does
// not rasterize content streams; hosts that want the page visible pass a
// rendered preview image instead.
func (p *Page) Render(scale float64) (image.Image, error) {
	if scale <= 0 {
		scale = 1
	}
	w, h := int(p.Width*scale+0.5), int(p.Height*scale+0.5)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid page size %gx%g", p.Width, p.Height)
	}
	return imaging.Paper(w, h), nil
}

// Decoder reads page geometry from PDF bytes.
type Decoder struct {
	conf *model.Configuration
	log  *logrus.Entry
}

// NewDecoder creates a decoder.
func NewDecoder(log *logrus.Entry) *Decoder {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Decoder{conf: newConfiguration(), log: log.WithField("component", "pdfdoc")}
}

// Decode validates data as a PDF and returns its first page.
func (d *Decoder) Decode(data []byte) (*Page, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	dims, err := api.PageDims(bytes.NewReader(data), d.conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	p := &Page{Width: dims[0].Width, Height: dims[0].Height, Count: len(dims)}
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("page 1 has invalid size %gx%g", p.Width, p.Height)
	}

	d.log.WithFields(logrus.Fields{
		"width":  p.Width,
		"height": p.Height,
		"pages":  p.Count,
	}).Debug("document decoded")
	return p, nil
}
