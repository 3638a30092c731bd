package tools

import (
	"github.com/ironsheep/pdf-markup-mcp/internal/geom"
	"github.com/ironsheep/pdf-markup-mcp/internal/scene"
)

// Stamp defaults.
var (
	RectStampStyle    = scene.Style{Stroke: "#000", StrokeWidth: 2, Fill: "#0000ff", FillOpacity: 0.2}
	EllipseStampStyle = scene.Style{Stroke: "#000", StrokeWidth: 2, Fill: "#ff0000", FillOpacity: 0.2}
	TextStampStyle    = scene.Style{Stroke: "#000", FontSize: 20}
)

// DefaultText is the placeholder content of a stamped text label.
const DefaultText = "Type.."

func stampRect() scene.Object {
	return &scene.Rect{
		Base: scene.NewBase(RectStampStyle, true, true),
		Box:  geom.Rect{X: 100, Y: 100, Width: 100, Height: 80},
	}
}

// stampEllipse is a circle of radius 40 whose box starts at (150,150).
func stampEllipse() scene.Object {
	return &scene.Ellipse{
		Base:   scene.NewBase(EllipseStampStyle, true, true),
		Center: geom.Pt(190, 190),
		RX:     40,
		RY:     40,
	}
}

func stampText() scene.Object {
	return &scene.Text{
		Base:    scene.NewBase(TextStampStyle, true, true),
		At:      geom.Pt(100, 200),
		Content: DefaultText,
	}
}

// stampTool inserts one preset object on entry, selects it and then behaves
// like the select tool so the stamp can be dragged into place.
type stampTool struct {
	selectTool
	mode  Mode
	stamp func() scene.Object
}

func (t *stampTool) Mode() Mode { return t.mode }

func (t *stampTool) Enter(env *Env) error {
	obj := t.stamp()
	env.Doc.Add(obj)
	env.Selection.Set(obj.Meta().ID)
	if obj.Kind() == scene.KindText {
		env.Editing = obj.Meta().ID
	}
	env.Snapshot()
	return nil
}
