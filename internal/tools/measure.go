package tools

import (
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/pdf-markup-mcp/internal/calibration"
	"github.com/ironsheep/pdf-markup-mcp/internal/geom"
	"github.com/ironsheep/pdf-markup-mcp/internal/scene"
)

// MeasureStyle is used for dimension lines; labels are painted in
// MeasureLabelColor.
var (
	MeasureStyle      = scene.Style{Stroke: "#000", StrokeWidth: 2, FontSize: 14}
	MeasureLabelColor = "#ff0000"
)

// newMeasurement builds a labelled dimension line from a to b using the
// calibrated scale.
func newMeasurement(env *Env, a, b geom.Point) (*scene.Measurement, error) {
	scale, ok := env.Calibration.ScaleFactor()
	if !ok {
		return nil, env.Calibration.Require()
	}
	pixels := a.Distance(b)
	m := &scene.Measurement{
		Base:       scene.NewBase(MeasureStyle, true, true),
		From:       a,
		To:         b,
		Label:      geom.FormatLength(pixels*scale, env.Calibration.Unit()),
		LabelAt:    geom.LabelAnchor(a, b, geom.LabelOffset),
		LabelColor: MeasureLabelColor,
	}
	env.Log.WithFields(logrus.Fields{
		"pixels": pixels,
		"scale":  scale,
		"label":  m.Label,
	}).Debug("measured")
	return m, nil
}

// measuring tools share the calibration guard.
type measuring struct{}

func (measuring) CanEnter(env *Env) error { return env.Calibration.Require() }

// angleMeasureTool drags a dimension line. With shift held the end point is
// snapped to the nearest 45° direction at the same radius.
type angleMeasureTool struct {
	base
	measuring
	pending
	line *scene.Line
}

func (t *angleMeasureTool) Mode() Mode { return ModeAngleMeasure }

func (t *angleMeasureTool) end(p Pointer) geom.Point {
	if p.Shift {
		return geom.SnapAngle(t.line.From, p.Doc)
	}
	return p.Doc
}

func (t *angleMeasureTool) Down(env *Env, p Pointer) error {
	t.line = &scene.Line{Base: scene.NewBase(MeasureStyle, false, false), From: p.Doc, To: p.Doc}
	t.start(env, t.line)
	return nil
}

func (t *angleMeasureTool) Move(env *Env, p Pointer) error {
	if t.live(env) {
		t.line.To = t.end(p)
	}
	return nil
}

func (t *angleMeasureTool) Up(env *Env, p Pointer) error {
	if !t.live(env) {
		return nil
	}
	from, to := t.line.From, t.end(p)
	t.drop(env)
	if from == to {
		return nil
	}

	m, err := newMeasurement(env, from, to)
	if err != nil {
		return err
	}
	env.Doc.Add(m)
	env.Snapshot()
	return nil
}

func (t *angleMeasureTool) Exit(env *Env) { t.drop(env) }

// clickMeasureTool places a dimension line with two clicks. The first click
// leaves a transient marker that Escape removes.
type clickMeasureTool struct {
	base
	measuring
	pending
	first geom.Point
}

func (t *clickMeasureTool) Mode() Mode { return ModeClickMeasure }

func (t *clickMeasureTool) Down(env *Env, p Pointer) error {
	if !t.live(env) {
		t.first = p.Doc
		t.start(env, &scene.Marker{
			Base:   scene.NewBase(calibration.MarkerStyle, false, false),
			At:     p.Doc,
			Radius: calibration.MarkerRadius,
		})
		return nil
	}

	t.drop(env)
	if t.first == p.Doc {
		return nil
	}
	m, err := newMeasurement(env, t.first, p.Doc)
	if err != nil {
		return err
	}
	env.Doc.Add(m)
	env.Snapshot()
	return nil
}

func (t *clickMeasureTool) Escape(env *Env) { t.drop(env) }
func (t *clickMeasureTool) Exit(env *Env)   { t.drop(env) }

// calibrateTool drives the calibration engine and returns to Select once two
// points have been picked.
type calibrateTool struct {
	base
	done bool
}

func (t *calibrateTool) Mode() Mode { return ModeCalibrate }

func (t *calibrateTool) Enter(env *Env) error {
	env.Calibration.Begin()
	return nil
}

func (t *calibrateTool) Down(env *Env, p Pointer) error {
	done, err := env.Calibration.PickPoint(p.Doc)
	t.done = done
	return err
}

func (t *calibrateTool) Finished() bool { return t.done }

func (t *calibrateTool) Escape(env *Env) {
	env.Calibration.Restart()
}

func (t *calibrateTool) Exit(env *Env) { env.Calibration.Cancel() }
