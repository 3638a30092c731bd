// Package calibration derives the pixel-to-real-world scale factor.
//
// The user picks two points on the page and enters the real length between
// them. The scale factor is length / distance(p1, p2), in units per document
// pixel. Until it is set every measuring tool must refuse to start; Require
// returns the *ValidationError those tools surface.
//
// User interaction goes through two collaborators: a Prompter for the length
// and a Notifier for blocking notices.
package calibration
