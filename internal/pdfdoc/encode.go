package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/pdf-markup-mcp/internal/imaging"
)

// overlayDescriptor stretches the image watermark over the whole page,
// unrotated and fully opaque; transparency comes from the PNG itself.
const overlayDescriptor = "scale:1 rel, pos:c, rot:0, op:1"

// Encoder writes PDF output with pdfcpu.
type Encoder struct {
	conf *model.Configuration
	log  *logrus.Entry

	// TempDir holds the intermediate overlay image. Empty means os.TempDir.
	TempDir string
}

// NewEncoder creates an encoder.
func NewEncoder(log *logrus.Entry) *Encoder {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Encoder{conf: newConfiguration(), log: log.WithField("component", "pdfdoc")}
}

// EmbedOverlay stamps overlay on top of page 1 of src, scaled to the page,
// and returns the new document. The original content stays vector.
func (e *Encoder) EmbedOverlay(ctx context.Context, src []byte, overlay image.Image) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pngPath, err := e.writeTemp(overlay)
	if err != nil {
		return nil, err
	}
	defer os.Remove(pngPath)

	wm, err := pdfcpu.ParseImageWatermarkDetails(pngPath, overlayDescriptor, true, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("failed to parse overlay watermark: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(src), &out, []string{"1"}, wm, e.conf); err != nil {
		return nil, fmt.Errorf("failed to embed overlay: %w", err)
	}

	e.log.WithField("bytes", out.Len()).Debug("overlay embedded")
	return out.Bytes(), nil
}

// EncodeImage wraps img in a new single-page PDF of width x height points.
func (e *Encoder) EncodeImage(ctx context.Context, img image.Image, width, height float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid page size %gx%g", width, height)
	}

	data, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	imp := pdfcpu.DefaultImportConfig()
	imp.PageDim = &types.Dim{Width: width, Height: height}
	imp.UserDim = true
	// PageDim becomes the MediaBox only for positions other than Full.
	imp.Pos = types.Center
	imp.Scale = 1
	imp.ScaleAbs = false

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, []io.Reader{bytes.NewReader(data)}, imp, e.conf); err != nil {
		return nil, fmt.Errorf("failed to encode image as pdf: %w", err)
	}

	e.log.WithField("bytes", out.Len()).Debug("flattened page encoded")
	return out.Bytes(), nil
}

func (e *Encoder) writeTemp(img image.Image) (string, error) {
	f, err := os.CreateTemp(e.TempDir, "markup-overlay-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create overlay file: %w", err)
	}
	defer f.Close()

	data, err := imaging.EncodePNG(img)
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write overlay file: %w", err)
	}
	return f.Name(), nil
}
