// Package render rasterizes scene objects with gg.
//
// Rasters are transparent so they can be blended over a page. The export
// path requests a supersampled raster (4x by default) and the compositor
// scales it back to page size; labels are drawn with Go Regular at the
// supersampled size so they stay sharp.
//
// Grid draws a labeled coordinate grid over a preview raster, which helps a
// host place pointer events precisely.
package render
