// Package pdfdoc adapts pdfcpu to the markup engine.
//
// Decoder reads the size of page 1 in PDF points. Encoder produces the two
// export forms, an overlay embedded over the original page and a flattened
// single-image page.
package pdfdoc
