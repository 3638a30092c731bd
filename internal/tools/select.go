package tools

import (
	"github.com/ironsheep/pdf-markup-mcp/internal/geom"
)

// selectTool picks objects and drags the selection around.
type selectTool struct {
	base
	dragging bool
	moved    bool
	last     geom.Point
}

func (t *selectTool) Mode() Mode { return ModeSelect }

func (t *selectTool) Down(env *Env, p Pointer) error {
	hit := env.Doc.HitTest(p.Doc, env.Options.HitTolerance)
	if hit == nil {
		if !p.Shift {
			env.Selection.Clear()
		}
		return nil
	}

	id := hit.Meta().ID
	switch {
	case p.Shift:
		env.Selection.Toggle(id)
	case !env.Selection.Contains(id):
		env.Selection.Set(id)
	}
	if !env.Selection.Contains(id) {
		return nil
	}

	t.dragging, t.moved, t.last = true, false, p.Doc
	return nil
}

func (t *selectTool) Move(env *Env, p Pointer) error {
	if !t.dragging {
		return nil
	}
	d := p.Doc.Sub(t.last)
	if d == (geom.Point{}) {
		return nil
	}
	for _, o := range env.Selection.Resolve(env.Doc) {
		o.Translate(d)
	}
	t.last = p.Doc
	t.moved = true
	return nil
}

func (t *selectTool) Up(env *Env, p Pointer) error {
	if !t.dragging {
		return nil
	}
	t.Move(env, p)
	t.dragging = false
	if t.moved {
		env.Snapshot()
	}
	return nil
}

// panZoomTool drags the view and zooms it with the wheel. It works in screen
// coordinates and never touches the document.
type panZoomTool struct {
	base
	panning bool
	last    geom.Point
}

func (t *panZoomTool) Mode() Mode { return ModePanZoom }

func (t *panZoomTool) Down(env *Env, p Pointer) error {
	t.panning, t.last = true, p.Screen
	return nil
}

func (t *panZoomTool) Move(env *Env, p Pointer) error {
	if !t.panning {
		return nil
	}
	env.View.PanBy(p.Screen.X-t.last.X, p.Screen.Y-t.last.Y)
	t.last = p.Screen
	return nil
}

func (t *panZoomTool) Up(env *Env, p Pointer) error {
	t.Move(env, p)
	t.panning = false
	return nil
}

func (t *panZoomTool) Wheel(env *Env, screen geom.Point, deltaY float64) {
	if env.View.ZoomAt(screen, deltaY) {
		env.Log.WithField("zoom", env.View.Zoom).Debug("zoomed")
	}
}
