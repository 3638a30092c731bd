package tools

import (
	"math"

	"github.com/ironsheep/pdf-markup-mcp/internal/geom"
	"github.com/ironsheep/pdf-markup-mcp/internal/scene"
)

// InkStyle is the pen used by the drawing tools.
var InkStyle = scene.Style{Stroke: "#000", StrokeWidth: 2}

// ArrowStyle strokes the shaft and fills the head.
var ArrowStyle = scene.Style{Stroke: "#000", StrokeWidth: 2, Fill: "#000", FillOpacity: 1}

// freehandTool records ink strokes. It snapshots before the stroke so the
// first undo returns to the blank state, and again once it is complete.
type freehandTool struct {
	base
	pending
	stroke *scene.Freehand
}

func (t *freehandTool) Mode() Mode { return ModeFreehand }

func (t *freehandTool) Down(env *Env, p Pointer) error {
	env.Snapshot()
	t.stroke = &scene.Freehand{Base: scene.NewBase(InkStyle, true, true), Points: []geom.Point{p.Doc}}
	t.start(env, t.stroke)
	return nil
}

func (t *freehandTool) Move(env *Env, p Pointer) error {
	if !t.live(env) {
		return nil
	}
	if last := t.stroke.Points[len(t.stroke.Points)-1]; last != p.Doc {
		t.stroke.Points = append(t.stroke.Points, p.Doc)
	}
	return nil
}

func (t *freehandTool) Up(env *Env, p Pointer) error {
	if !t.live(env) {
		return nil
	}
	t.Move(env, p)
	if len(t.stroke.Points) < 2 {
		t.drop(env)
		return nil
	}
	t.commit()
	env.Snapshot()
	return nil
}

func (t *freehandTool) Exit(env *Env) { t.drop(env) }

// lineTool drags plain straight lines.
type lineTool struct {
	base
	pending
	line *scene.Line
}

func (t *lineTool) Mode() Mode { return ModeLine }

func (t *lineTool) Down(env *Env, p Pointer) error {
	t.line = &scene.Line{Base: scene.NewBase(InkStyle, true, true), From: p.Doc, To: p.Doc}
	t.start(env, t.line)
	return nil
}

func (t *lineTool) Move(env *Env, p Pointer) error {
	if t.live(env) {
		t.line.To = p.Doc
	}
	return nil
}

func (t *lineTool) Up(env *Env, p Pointer) error {
	if !t.live(env) {
		return nil
	}
	t.line.To = p.Doc
	if t.line.From == t.line.To {
		t.drop(env)
		return nil
	}
	t.commit()
	env.Snapshot()
	return nil
}

func (t *lineTool) Exit(env *Env) { t.drop(env) }

// arcTool drags a circular arc centered on the press point.
type arcTool struct {
	base
	pending
	arc    *scene.Arc
	center geom.Point
}

func (t *arcTool) Mode() Mode { return ModeArc }

func (t *arcTool) Down(env *Env, p Pointer) error {
	t.center = p.Doc
	t.arc = &scene.Arc{Base: scene.NewBase(InkStyle, true, true), Path: geom.DragArc(p.Doc, p.Doc)}
	t.start(env, t.arc)
	return nil
}

func (t *arcTool) Move(env *Env, p Pointer) error {
	if t.live(env) {
		t.arc.Path = geom.DragArc(t.center, p.Doc)
	}
	return nil
}

func (t *arcTool) Up(env *Env, p Pointer) error {
	if !t.live(env) {
		return nil
	}
	t.arc.Path = geom.DragArc(t.center, p.Doc)
	if t.arc.Path.Radius == 0 {
		t.drop(env)
		return nil
	}
	t.commit()
	env.Snapshot()
	return nil
}

func (t *arcTool) Exit(env *Env) { t.drop(env) }

// arrowTool drags an arrow from tail to head.
type arrowTool struct {
	base
	pending
	arrow *scene.Arrow
}

func (t *arrowTool) Mode() Mode { return ModeArrow }

func (t *arrowTool) Down(env *Env, p Pointer) error {
	t.arrow = &scene.Arrow{Base: scene.NewBase(ArrowStyle, true, true), Tail: p.Doc}
	t.arrow.SetHead(p.Doc)
	t.start(env, t.arrow)
	return nil
}

func (t *arrowTool) Move(env *Env, p Pointer) error {
	if t.live(env) {
		t.arrow.SetHead(p.Doc)
	}
	return nil
}

func (t *arrowTool) Up(env *Env, p Pointer) error {
	if !t.live(env) {
		return nil
	}
	t.arrow.SetHead(p.Doc)
	if t.arrow.Tail == t.arrow.Head {
		t.drop(env)
		return nil
	}
	t.commit()
	env.Snapshot()
	return nil
}

func (t *arrowTool) Exit(env *Env) { t.drop(env) }

// eraserTool removes erasable objects touched by a wide brush stroke.
type eraserTool struct {
	base
	stroke []geom.Point
}

func (t *eraserTool) Mode() Mode { return ModeEraser }

func (t *eraserTool) Down(env *Env, p Pointer) error {
	env.Snapshot()
	t.stroke = []geom.Point{p.Doc}
	return nil
}

func (t *eraserTool) Move(env *Env, p Pointer) error {
	if t.stroke != nil {
		t.stroke = append(t.stroke, p.Doc)
	}
	return nil
}

func (t *eraserTool) Up(env *Env, p Pointer) error {
	if t.stroke == nil {
		return nil
	}
	t.stroke = append(t.stroke, p.Doc)
	radius := env.Options.EraserWidth / 2
	samples := sampleStroke(t.stroke, math.Max(1, radius/2))
	t.stroke = nil

	erased := 0
	for _, o := range env.Doc.Objects() {
		if !o.Meta().Erasable {
			continue
		}
		for _, s := range samples {
			if o.Hit(s, radius) {
				env.Doc.Remove(o)
				env.Selection.Resolve(env.Doc)
				erased++
				break
			}
		}
	}
	env.Log.WithField("erased", erased).Debug("eraser stroke")
	if erased > 0 {
		env.Snapshot()
	}
	return nil
}

func (t *eraserTool) Exit(*Env) { t.stroke = nil }

// sampleStroke returns points along the polyline no further apart than step.
func sampleStroke(pts []geom.Point, step float64) []geom.Point {
	out := []geom.Point{pts[0]}
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		n := int(math.Ceil(a.Distance(b) / step))
		for k := 1; k <= n; k++ {
			f := float64(k) / float64(n)
			out = append(out, geom.Point{X: a.X + (b.X-a.X)*f, Y: a.Y + (b.Y-a.Y)*f})
		}
	}
	return out
}
