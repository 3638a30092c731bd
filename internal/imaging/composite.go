package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blend"
	"github.com/disintegration/imaging"
)

// Paper returns an opaque white raster of the given size. It stands in for a
// page whose content cannot be rasterized locally.
func Paper(width, height int) *image.NRGBA {
	return imaging.New(width, height, color.White)
}

// Flatten composites overlay on top of page with normal (source-over)
// blending and returns an opaque raster the size of page.
//
// Parameters:
//   - page: The rendered source page. It defines the output size.
//   - overlay: The transparent annotation raster. A supersampled overlay is
//     resampled down to the page size first.
//
// Returns:
//   - *image.RGBA: The merged raster.
//   - error: Non-nil if either image is empty.
func Flatten(page, overlay image.Image) (*image.RGBA, error) {
	pb := page.Bounds()
	if pb.Empty() {
		return nil, fmt.Errorf("empty page raster")
	}
	if overlay.Bounds().Empty() {
		return nil, fmt.Errorf("empty overlay raster")
	}

	if ob := overlay.Bounds(); ob.Dx() != pb.Dx() || ob.Dy() != pb.Dy() {
		overlay = imaging.Resize(overlay, pb.Dx(), pb.Dy(), imaging.Lanczos)
	}

	// Both inputs are normalized to origin (0,0) so blend lines them up.
	bg := imaging.Clone(page)
	fg := imaging.Clone(overlay)
	return blend.Normal(bg, fg), nil
}
