// Package export produces the marked-up PDF.
//
// The high-quality path keeps the original page and stamps a supersampled
// transparent rendering of the scene over it. The flattened path merges the
// rendered page and the scene into one raster and wraps it in a new page; it
// serves when the original bytes are gone.
package export
