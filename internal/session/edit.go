package session

import (
	"fmt"

	"github.com/ironsheep/pdf-markup-mcp/internal/geom"
	"github.com/ironsheep/pdf-markup-mcp/internal/scene"
	"github.com/ironsheep/pdf-markup-mcp/internal/view"
)

// Select replaces the selection with ids. Every id must name a selectable
// top-level object.
func (s *Session) Select(ids []string) error {
	if err := s.require("select"); err != nil {
		return err
	}
	for _, id := range ids {
		o := s.doc.Find(id)
		if o == nil {
			return fmt.Errorf("object %s not found", id)
		}
		if !o.Meta().Selectable {
			return fmt.Errorf("object %s is not selectable", id)
		}
	}
	s.env.Selection.Set(ids...)
	return nil
}

// SelectAll selects every selectable top-level object.
func (s *Session) SelectAll() error {
	if err := s.require("select_all"); err != nil {
		return err
	}
	var ids []string
	for _, o := range s.doc.Objects() {
		if o.Meta().Selectable {
			ids = append(ids, o.Meta().ID)
		}
	}
	s.env.Selection.Set(ids...)
	return nil
}

// Group merges the selection into one group, which becomes the selection.
func (s *Session) Group() (string, error) {
	if err := s.require("group"); err != nil {
		return "", err
	}
	g, err := s.doc.Group(s.env.Selection.IDs())
	if err != nil {
		return "", err
	}
	s.env.Selection.Set(g.ID)
	s.env.Snapshot()
	return g.ID, nil
}

// Ungroup dissolves the selected group; its children become the selection.
func (s *Session) Ungroup() ([]string, error) {
	if err := s.require("ungroup"); err != nil {
		return nil, err
	}
	sel := s.env.Selection.Resolve(s.doc)
	if len(sel) != 1 {
		return nil, fmt.Errorf("select exactly one group to ungroup, %d objects selected", len(sel))
	}
	children, err := s.doc.Ungroup(sel[0].Meta().ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(children))
	for i, c := range children {
		ids[i] = c.Meta().ID
	}
	s.env.Selection.Set(ids...)
	s.env.Snapshot()
	return ids, nil
}

// Layer directions.
const (
	Forward  = "forward"
	Backward = "backward"
	Front    = "front"
	Back     = "back"
)

// Layer restacks the selection. Objects keep their relative order. It
// reports whether anything moved.
func (s *Session) Layer(direction string) (bool, error) {
	if err := s.require("layer"); err != nil {
		return false, err
	}
	sel := s.env.Selection.Resolve(s.doc)

	var step func(scene.Object) bool
	reverse, ahead := false, 0
	switch direction {
	case Forward:
		step, reverse, ahead = s.doc.MoveForward, true, 1
	case Backward:
		step, ahead = s.doc.MoveBackward, -1
	case Front:
		step = s.doc.BringToFront
	case Back:
		step, reverse = s.doc.SendToBack, true
	default:
		return false, fmt.Errorf("unknown layer direction %q", direction)
	}

	// A selected object stuck at the boundary pins the selected run behind
	// it, so single steps never swap two selected objects.
	pinned := make(map[string]bool)
	moved := false
	for i := range sel {
		o := sel[i]
		if reverse {
			o = sel[len(sel)-1-i]
		}
		if ahead != 0 {
			objs := s.doc.Objects()
			if j := s.doc.IndexOf(o.Meta().ID) + ahead; j >= 0 && j < len(objs) && pinned[objs[j].Meta().ID] {
				pinned[o.Meta().ID] = true
				continue
			}
		}
		if step(o) {
			moved = true
		} else {
			pinned[o.Meta().ID] = true
		}
	}
	if moved {
		s.env.Snapshot()
	}
	return moved, nil
}

// EditText replaces the content of a text object and ends its editing.
func (s *Session) EditText(id, text string) error {
	if err := s.require("edit_text"); err != nil {
		return err
	}
	t, ok := s.doc.Find(id).(*scene.Text)
	if !ok {
		return fmt.Errorf("object %s is not a text object", id)
	}
	t.Content = text
	if s.env.Editing == id {
		s.env.Editing = ""
	}
	s.env.Snapshot()
	return nil
}

// ObjectInfo summarizes one scene object for hosts.
type ObjectInfo struct {
	ID         string       `json:"id"`
	Kind       scene.Kind   `json:"kind"`
	Bounds     geom.Rect    `json:"bounds"`
	Selectable bool         `json:"selectable"`
	Erasable   bool         `json:"erasable"`
	Text       string       `json:"text,omitempty"`
	Children   []ObjectInfo `json:"children,omitempty"`
}

func describe(o scene.Object) ObjectInfo {
	m := o.Meta()
	info := ObjectInfo{
		ID:         m.ID,
		Kind:       o.Kind(),
		Bounds:     o.Bounds(),
		Selectable: m.Selectable,
		Erasable:   m.Erasable,
	}
	switch o := o.(type) {
	case *scene.Measurement:
		info.Text = o.Label
	case *scene.Text:
		info.Text = o.Content
	case *scene.Group:
		for _, c := range o.Children {
			info.Children = append(info.Children, describe(c))
		}
	}
	return info
}

// Objects lists the scene back to front.
func (s *Session) Objects() []ObjectInfo {
	objs := s.doc.Objects()
	out := make([]ObjectInfo, 0, len(objs))
	for _, o := range objs {
		out = append(out, describe(o))
	}
	return out
}

// Surface describes the drawing surface of the loaded document.
type Surface struct {
	Path       string  `json:"path"`
	Pages      int     `json:"pages"`
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
	Fit        float64 `json:"fit"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Preview    string  `json:"preview,omitempty"`
}

// HistoryState is the position in the undo stack.
type HistoryState struct {
	Entries int  `json:"entries"`
	Cursor  int  `json:"cursor"`
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
}

// ViewState is the pan/zoom transform.
type ViewState struct {
	view.Transform
	CSS string `json:"css"`
}

// State is a snapshot of the session for hosts.
type State struct {
	Loaded      bool         `json:"loaded"`
	Surface     *Surface     `json:"surface,omitempty"`
	Tool        string       `json:"tool"`
	Unit        string       `json:"unit"`
	Scale       *float64     `json:"scale,omitempty"`
	Calibrating bool         `json:"calibrating"`
	View        ViewState    `json:"view"`
	History     HistoryState `json:"history"`
	Selection   []string     `json:"selection"`
	Editing     string       `json:"editing,omitempty"`
	Objects     int          `json:"objects"`

	// ExportMultiplier is the overlay supersampling of high quality exports.
	ExportMultiplier float64 `json:"export_multiplier"`
}

// State returns the current session state.
func (s *Session) State() State {
	h := s.env.History
	st := State{
		Loaded:      s.src != nil,
		Tool:        string(s.machine.Mode()),
		Unit:        s.env.Calibration.Unit(),
		Calibrating: s.env.Calibration.Active(),
		View:        ViewState{Transform: *s.env.View, CSS: s.env.View.CSS()},
		History: HistoryState{
			Entries: h.Len(),
			Cursor:  h.Cursor(),
			CanUndo: h.CanUndo(),
			CanRedo: h.CanRedo(),
		},
		Selection: s.env.Selection.IDs(),
		Editing:   s.env.Editing,
		Objects:   s.doc.Len(),

		ExportMultiplier: s.export.Multiplier(),
	}
	if st.Selection == nil {
		st.Selection = []string{}
	}
	if scale, ok := s.env.Calibration.ScaleFactor(); ok {
		st.Scale = &scale
	}
	if src := s.src; src != nil {
		st.Surface = &Surface{
			Path:       src.path,
			Pages:      src.pages,
			PageWidth:  src.pageWidth,
			PageHeight: src.pageHeight,
			Fit:        src.fit,
			Width:      src.width,
			Height:     src.height,
			Preview:    src.preview,
		}
	}
	return st
}
