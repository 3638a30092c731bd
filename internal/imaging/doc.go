// Package imaging provides the raster plumbing around the annotation engine.
//
// It loads and caches page previews, parses the hex colors stored in object
// styles, composites the annotation raster over a page raster, and crops and
// encodes regions for previews. All operations work with standard Go
// image.Image types.
//
// # Coordinate System
//
// Rasters produced for a page share the document coordinate system at the
// chosen scale: (0,0) is the top-left corner, X increases rightward and Y
// increases downward. For regions, (x1,y1) is inclusive and (x2,y2) is
// exclusive.
//
// # Thread Safety
//
// PreviewCache is safe for concurrent use. The other functions are stateless.
//
// # Colors
//
// Styles store colors as "#RGB" or "#RRGGBB" strings with a separate opacity.
// ParseColor turns them into color.NRGBA values.
package imaging
