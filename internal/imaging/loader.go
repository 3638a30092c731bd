package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	"github.com/disintegration/imaging"
)

// PreviewCache provides thread-safe caching of decoded page previews.
//
// A preview is the on-screen rendering of the source page, supplied by the
// host as a PNG, JPEG or GIF file. Previews are keyed by their file path and
// decoded once; subsequent Load() calls return the cached copy without disk
// I/O.
//
// # Memory Management
//
// Cached previews remain in memory until removed via Evict(). The
// session evicts the preview of a document when it is closed.
type PreviewCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewPreviewCache creates and initializes a new empty preview cache.
func NewPreviewCache() *PreviewCache {
	return &PreviewCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves a preview from the cache or decodes it from disk.
//
// Parameters:
//   - path: File path of the preview. Supported formats are PNG, JPEG and GIF.
//
// Returns:
//   - image.Image: The decoded preview.
//   - error: Non-nil if the file cannot be opened or decoded.
//
// The image is cached using the exact path string provided.
func (c *PreviewCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preview: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode preview: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// LoadFitted loads a preview and resamples it to exactly width x height
// pixels, the page size at scale 1. Previews rendered at a different zoom
// level thereby line up with document space.
//
// Parameters:
//   - path: File path of the preview.
//   - width, height: Target size in document pixels. Must be positive.
//
// Returns:
//   - image.Image: The preview at the target size. When the decoded preview
//     already has that size it is returned unchanged.
//   - error: Non-nil if the preview cannot be loaded or the size is invalid.
func (c *PreviewCache) LoadFitted(path string, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid preview size %dx%d", width, height)
	}
	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() == width && b.Dy() == height {
		return img, nil
	}
	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}

// Evict removes a specific preview from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
func (c *PreviewCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached previews.
func (c *PreviewCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}
