package tools

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/pdf-markup-mcp/internal/calibration"
	"github.com/ironsheep/pdf-markup-mcp/internal/geom"
	"github.com/ironsheep/pdf-markup-mcp/internal/history"
	"github.com/ironsheep/pdf-markup-mcp/internal/scene"
	"github.com/ironsheep/pdf-markup-mcp/internal/view"
)

// Mode names a tool.
type Mode string

// Tool modes.
const (
	ModeSelect       Mode = "select"
	ModePanZoom      Mode = "pan_zoom"
	ModeFreehand     Mode = "freehand"
	ModeLine         Mode = "line"
	ModeAngleMeasure Mode = "angle_measure"
	ModeClickMeasure Mode = "click_measure"
	ModeEraser       Mode = "eraser"
	ModeArc          Mode = "arc"
	ModeStampRect    Mode = "rect"
	ModeStampEllipse Mode = "ellipse"
	ModeStampText    Mode = "text"
	ModeArrow        Mode = "arrow"
	ModeCalibrate    Mode = "calibrate"
)

var factories = map[Mode]func() Tool{
	ModeSelect:       func() Tool { return &selectTool{} },
	ModePanZoom:      func() Tool { return &panZoomTool{} },
	ModeFreehand:     func() Tool { return &freehandTool{} },
	ModeLine:         func() Tool { return &lineTool{} },
	ModeAngleMeasure: func() Tool { return &angleMeasureTool{} },
	ModeClickMeasure: func() Tool { return &clickMeasureTool{} },
	ModeEraser:       func() Tool { return &eraserTool{} },
	ModeArc:          func() Tool { return &arcTool{} },
	ModeStampRect:    func() Tool { return &stampTool{mode: ModeStampRect, stamp: stampRect} },
	ModeStampEllipse: func() Tool { return &stampTool{mode: ModeStampEllipse, stamp: stampEllipse} },
	ModeStampText:    func() Tool { return &stampTool{mode: ModeStampText, stamp: stampText} },
	ModeArrow:        func() Tool { return &arrowTool{} },
	ModeCalibrate:    func() Tool { return &calibrateTool{} },
}

// Modes lists every tool mode in name order.
func Modes() []Mode {
	out := make([]Mode, 0, len(factories))
	for m := range factories {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if _, ok := factories[m]; !ok {
		return "", fmt.Errorf("unknown tool %q", s)
	}
	return m, nil
}

// Pointer is one pointer event. Doc is the position in document space,
// Screen the position on the display surface before the view transform.
type Pointer struct {
	Doc    geom.Point
	Screen geom.Point
	Shift  bool
}

// Options tune tool behaviour.
type Options struct {
	HitTolerance float64 // pixels around geometry that still count as a hit
	EraserWidth  float64
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{HitTolerance: 4, EraserWidth: 40}
}

// Env is the session context shared by every tool.
type Env struct {
	Doc         *scene.Document
	History     *history.Manager
	Calibration *calibration.Engine
	View        *view.Transform
	Selection   *Selection
	Notify      func(string)
	Log         *logrus.Entry
	Options     Options

	// Editing is the ID of the text object awaiting its content, if any.
	Editing string
}

func (env *Env) notify(msg string) {
	if env.Notify != nil {
		env.Notify(msg)
	}
}

// Snapshot records a history entry. Failures are logged and the edit stands.
func (env *Env) Snapshot() {
	if _, err := env.History.Snapshot(); err != nil {
		env.Log.WithError(err).Warn("history snapshot failed")
	}
}

// Tool is one mode of the machine. A fresh Tool is created on every
// activation, so transient gesture state lives in the Tool value itself.
type Tool interface {
	Mode() Mode
	Enter(env *Env) error
	// Exit drops any uncommitted in-progress objects.
	Exit(env *Env)
	Down(env *Env, p Pointer) error
	Move(env *Env, p Pointer) error
	Up(env *Env, p Pointer) error
	// Escape cancels an in-progress multi-click gesture and keeps the tool.
	Escape(env *Env)
	Wheel(env *Env, screen geom.Point, deltaY float64)
}

// guarded tools refuse activation until a precondition holds.
type guarded interface {
	CanEnter(env *Env) error
}

// finisher tools hand control back to Select once their gesture completes.
type finisher interface {
	Finished() bool
}

// Machine keeps exactly one tool active.
type Machine struct {
	env     *Env
	current Tool
	pressed bool
}

// NewMachine returns a machine with no active tool.
func NewMachine(env *Env) *Machine {
	if env.Selection == nil {
		env.Selection = &Selection{}
	}
	if env.Log == nil {
		env.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Machine{env: env}
}

// Mode returns the active mode, or "" when none is active.
func (m *Machine) Mode() Mode {
	if m.current == nil {
		return ""
	}
	return m.current.Mode()
}

// Select activates mode. Guarded modes whose precondition fails surface a
// notice, return the error and leave the current tool active. Otherwise the
// current tool exits, a history snapshot is taken and the new tool enters.
func (m *Machine) Select(mode Mode) error {
	factory, ok := factories[mode]
	if !ok {
		return fmt.Errorf("unknown tool %q", mode)
	}
	next := factory()

	if g, ok := next.(guarded); ok {
		if err := g.CanEnter(m.env); err != nil {
			var ve *calibration.ValidationError
			if errors.As(err, &ve) {
				m.env.notify(ve.Message)
			}
			m.env.Log.WithField("tool", mode).WithError(err).Debug("tool refused")
			return err
		}
	}

	m.Deactivate()
	m.env.Snapshot()
	m.current = next
	m.env.Log.WithField("tool", mode).Debug("tool entered")
	return next.Enter(m.env)
}

// Deactivate exits the current tool without entering another.
func (m *Machine) Deactivate() {
	if m.current != nil {
		m.current.Exit(m.env)
		m.current = nil
	}
	m.pressed = false
	m.env.Editing = ""
}

// Down dispatches a button press.
func (m *Machine) Down(p Pointer) error {
	if m.current == nil {
		return nil
	}
	m.pressed = true
	err := m.current.Down(m.env, p)
	if f, ok := m.current.(finisher); ok && f.Finished() {
		m.pressed = false
		if serr := m.Select(ModeSelect); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}

// Move dispatches a drag sample. Moves without a pressed button are ignored.
func (m *Machine) Move(p Pointer) error {
	if m.current == nil || !m.pressed {
		return nil
	}
	return m.current.Move(m.env, p)
}

// Up dispatches a button release.
func (m *Machine) Up(p Pointer) error {
	if m.current == nil || !m.pressed {
		return nil
	}
	m.pressed = false
	return m.current.Up(m.env, p)
}

// Escape forwards the cancel key to the active tool.
func (m *Machine) Escape() {
	if m.current != nil {
		m.current.Escape(m.env)
	}
}

// Wheel forwards a wheel notch at a screen position.
func (m *Machine) Wheel(screen geom.Point, deltaY float64) {
	if m.current != nil {
		m.current.Wheel(m.env, screen, deltaY)
	}
}

// Selection is the set of selected top-level objects, kept by ID so it
// survives history restores.
type Selection struct {
	ids []string
}

// Set replaces the selection.
func (s *Selection) Set(ids ...string) { s.ids = append([]string(nil), ids...) }

// Toggle adds id, or removes it when already selected.
func (s *Selection) Toggle(id string) {
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return
		}
	}
	s.ids = append(s.ids, id)
}

// Clear empties the selection.
func (s *Selection) Clear() { s.ids = nil }

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Resolve returns the selected objects still present at the top level of
// doc, in paint order, and drops stale IDs.
func (s *Selection) Resolve(doc *scene.Document) []scene.Object {
	var out []scene.Object
	var live []string
	for _, o := range doc.Objects() {
		if s.Contains(o.Meta().ID) {
			out = append(out, o)
			live = append(live, o.Meta().ID)
		}
	}
	s.ids = live
	return out
}

// IDs returns the selected IDs.
func (s *Selection) IDs() []string { return append([]string(nil), s.ids...) }

// base supplies no-op handlers.
type base struct{}

func (base) Enter(*Env) error                { return nil }
func (base) Exit(*Env)                       {}
func (base) Down(*Env, Pointer) error        { return nil }
func (base) Move(*Env, Pointer) error        { return nil }
func (base) Up(*Env, Pointer) error          { return nil }
func (base) Escape(*Env)                     {}
func (base) Wheel(*Env, geom.Point, float64) {}

// pending tracks an in-progress object that is drawn live into the document.
type pending struct {
	obj scene.Object
}

// live reports whether the object is still in the document. Restores and
// clears replace the document contents and orphan it.
func (p *pending) live(env *Env) bool {
	return p.obj != nil && env.Doc.IndexOf(p.obj.Meta().ID) >= 0
}

func (p *pending) start(env *Env, obj scene.Object) {
	p.obj = obj
	env.Doc.Add(obj)
}

func (p *pending) drop(env *Env) {
	if p.obj != nil {
		env.Doc.Remove(p.obj)
		p.obj = nil
	}
}

func (p *pending) commit() { p.obj = nil }
