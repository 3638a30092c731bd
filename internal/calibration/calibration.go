package calibration

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/pdf-markup-mcp/internal/geom"
	"github.com/ironsheep/pdf-markup-mcp/internal/scene"
)

// ErrNotCalibrated is wrapped by the ValidationError returned by Require.
var ErrNotCalibrated = errors.New("scale not calibrated")

// ValidationError reports a rejected calibration input or a measurement
// attempted before calibration. Message is the user-facing notice.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Prompter asks the user for a value. ok is false when nothing was entered.
type Prompter interface {
	Prompt(message string) (value string, ok bool)
}

// PromptFunc adapts a function to Prompter.
type PromptFunc func(message string) (string, bool)

func (f PromptFunc) Prompt(message string) (string, bool) { return f(message) }

// Notifier shows a blocking notice to the user.
type Notifier interface {
	Notify(message string)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(message string)

func (f NotifyFunc) Notify(message string) { f(message) }

// Styles used for calibration artwork.
var (
	MarkerStyle = scene.Style{Fill: "#000"}
	LineStyle   = scene.Style{Stroke: "#000", StrokeWidth: 2, FontSize: 14}
	LabelColor  = "#ff0000"
)

// MarkerRadius is the radius of a picked-point marker.
const MarkerRadius = 3.0

// Engine owns the scale factor and the calibration gesture.
type Engine struct {
	doc    *scene.Document
	unit   string
	prompt Prompter
	notify Notifier
	log    *logrus.Entry

	scale float64 // units per document pixel, 0 when unset

	active  bool
	points  []geom.Point
	markers []*scene.Marker
}

// New returns an uncalibrated engine drawing into doc. unit is the suffix of
// real-world lengths, "mm" by default.
func New(doc *scene.Document, unit string, prompt Prompter, notify Notifier, log *logrus.Entry) *Engine {
	if unit == "" {
		unit = "mm"
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{
		doc:    doc,
		unit:   unit,
		prompt: prompt,
		notify: notify,
		log:    log.WithField("component", "calibration"),
	}
}

// Unit returns the real-world unit suffix.
func (e *Engine) Unit() string { return e.unit }

// ScaleFactor returns the real-world length of one document pixel. ok is
// false until a calibration has completed.
func (e *Engine) ScaleFactor() (scale float64, ok bool) {
	return e.scale, e.scale > 0
}

// Require returns a ValidationError unless the scale is set.
func (e *Engine) Require() error {
	if _, ok := e.ScaleFactor(); ok {
		return nil
	}
	return &ValidationError{
		Message: "Please calibrate the scale first before drawing lines.",
		Err:     ErrNotCalibrated,
	}
}

// Active reports whether a calibration gesture is in progress.
func (e *Engine) Active() bool { return e.active }

// Picked returns the number of points picked so far.
func (e *Engine) Picked() int { return len(e.points) }

// Begin starts a calibration gesture, discarding any picked points.
func (e *Engine) Begin() {
	e.discard()
	e.active = true
	e.say("Click two points of known real-world distance")
}

// Restart drops the picked points and their markers and keeps the gesture
// open for a fresh first point. It raises no notice.
func (e *Engine) Restart() {
	if !e.active {
		return
	}
	e.discard()
	e.log.Debug("calibration restarted")
}

// Cancel abandons the gesture and removes its markers. The scale factor is
// left as it was.
func (e *Engine) Cancel() {
	if e.active || len(e.markers) > 0 {
		e.log.Debug("calibration cancelled")
	}
	e.discard()
	e.active = false
}

// Reset forgets the scale factor and any gesture in progress.
func (e *Engine) Reset() {
	e.Cancel()
	e.scale = 0
}

// PickPoint records p. After the second point it prompts for the real-world
// length and completes the calibration; done reports that the gesture is
// over, successfully or not. A rejected length returns a *ValidationError,
// removes the markers and keeps the previous scale.
func (e *Engine) PickPoint(p geom.Point) (done bool, err error) {
	if !e.active {
		return false, fmt.Errorf("calibration not started")
	}

	e.points = append(e.points, p)
	m := &scene.Marker{Base: scene.NewBase(MarkerStyle, false, false), At: p, Radius: MarkerRadius}
	e.markers = append(e.markers, m)
	e.doc.Add(m)

	if len(e.points) < 2 {
		return false, nil
	}

	p1, p2 := e.points[0], e.points[1]
	e.discard()
	e.active = false

	pixels := p1.Distance(p2)
	if pixels == 0 {
		return true, e.reject("Calibration points must be distinct. Calibration cancelled.", nil)
	}

	length, err := e.askLength()
	if err != nil {
		return true, err
	}

	e.scale = length / pixels
	e.doc.Add(&scene.Measurement{
		Base:       scene.NewBase(LineStyle, true, true),
		From:       p1,
		To:         p2,
		Label:      geom.FormatLength(length, e.unit),
		LabelAt:    geom.LabelAnchor(p1, p2, geom.LabelOffset),
		LabelColor: LabelColor,
	})

	e.log.WithFields(logrus.Fields{
		"pixels": pixels,
		"length": length,
		"scale":  e.scale,
	}).Debug("scale calibrated")
	e.say(fmt.Sprintf("Scale set: 1 pixel = %s %s", strconv.FormatFloat(e.scale, 'f', 4, 64), e.unit))
	return true, nil
}

func (e *Engine) askLength() (float64, error) {
	var raw string
	ok := false
	if e.prompt != nil {
		raw, ok = e.prompt.Prompt(fmt.Sprintf("Enter real-world length in %s:", e.unit))
	}
	if !ok {
		return 0, e.reject("No length entered. Calibration cancelled.", nil)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, e.reject("Invalid length. Calibration cancelled.", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, e.reject("Invalid length. Calibration cancelled.", nil)
	}
	return v, nil
}

func (e *Engine) reject(msg string, cause error) error {
	e.log.WithError(cause).Debug(msg)
	e.say(msg)
	return &ValidationError{Message: msg, Err: cause}
}

func (e *Engine) discard() {
	for _, m := range e.markers {
		e.doc.Remove(m)
	}
	e.markers = nil
	e.points = nil
}

func (e *Engine) say(msg string) {
	if e.notify != nil {
		e.notify.Notify(msg)
	}
}
