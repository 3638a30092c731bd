package pdfdoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLog() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

// minimalPDF builds a one-page document with a width x height MediaBox.
func minimalPDF(t *testing.T, width, height int) []byte {
	t.Helper()
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << >> >>", width, height),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func overlay(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.SetNRGBA(x, height/2, color.NRGBA{255, 0, 0, 255})
	}
	return img
}

func TestDecode(t *testing.T) {
	d := NewDecoder(quietLog())

	page, err := d.Decode(minimalPDF(t, 612, 792))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if w, h := page.Size(); w != 612 || h != 792 {
		t.Errorf("Size: got %gx%g, want 612x792", w, h)
	}
	if page.Count != 1 {
		t.Errorf("Count: got %d, want 1", page.Count)
	}
}

func TestDecode_Errors(t *testing.T) {
	d := NewDecoder(quietLog())

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("hello world")},
		{"truncated", minimalPDF(t, 100, 100)[:40]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.Decode(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPage_Render(t *testing.T) {
	page := &Page{Width: 200, Height: 100, Count: 1}

	img, err := page.Render(1.5)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 150 {
		t.Errorf("size: got %dx%d, want 300x150", b.Dx(), b.Dy())
	}
	if r, g, b, a := img.At(10, 10).RGBA(); r>>8 != 255 || g>>8 != 255 || b>>8 != 255 || a>>8 != 255 {
		t.Error("paper is not opaque white")
	}

	if _, err := (&Page{}).Render(1); err == nil {
		t.Error("expected error for an empty page")
	}
}

func TestEncodeImage(t *testing.T) {
	e := NewEncoder(quietLog())
	e.TempDir = t.TempDir()

	tests := []struct {
		name         string
		imgW, imgH   int
		pageW, pageH float64
	}{
		{"supersampled 2x", 400, 200, 200, 100},
		{"letter at 4x", 2448, 3168, 612, 792},
		{"same size", 300, 150, 300, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := e.EncodeImage(context.Background(), overlay(tt.imgW, tt.imgH), tt.pageW, tt.pageH)
			if err != nil {
				t.Fatalf("EncodeImage failed: %v", err)
			}
			if !bytes.HasPrefix(data, []byte("%PDF")) {
				t.Fatal("output is not a pdf")
			}

			page, err := NewDecoder(quietLog()).Decode(data)
			if err != nil {
				t.Fatalf("Decode of encoded image failed: %v", err)
			}
			if math.Abs(page.Width-tt.pageW) > 1 || math.Abs(page.Height-tt.pageH) > 1 {
				t.Errorf("page size: got %gx%g, want %gx%g", page.Width, page.Height, tt.pageW, tt.pageH)
			}
		})
	}
}

func TestEmbedOverlay(t *testing.T) {
	e := NewEncoder(quietLog())
	e.TempDir = t.TempDir()
	src := minimalPDF(t, 300, 200)

	out, err := e.EmbedOverlay(context.Background(), src, overlay(1200, 800))
	if err != nil {
		t.Fatalf("EmbedOverlay failed: %v", err)
	}
	if len(out) <= len(src) {
		t.Errorf("output (%d bytes) not larger than source (%d bytes)", len(out), len(src))
	}

	page, err := NewDecoder(quietLog()).Decode(out)
	if err != nil {
		t.Fatalf("Decode of embedded output failed: %v", err)
	}
	if page.Width != 300 || page.Height != 200 {
		t.Errorf("page size changed: got %gx%g, want 300x200", page.Width, page.Height)
	}
}

func TestEncoder_Canceled(t *testing.T) {
	e := NewEncoder(quietLog())
	e.TempDir = t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.EmbedOverlay(ctx, minimalPDF(t, 10, 10), overlay(10, 10)); !errors.Is(err, context.Canceled) {
		t.Errorf("EmbedOverlay: got %v, want context.Canceled", err)
	}
	if _, err := e.EncodeImage(ctx, overlay(10, 10), 10, 10); !errors.Is(err, context.Canceled) {
		t.Errorf("EncodeImage: got %v, want context.Canceled", err)
	}
}
