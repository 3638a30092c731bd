package session

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/pdf-markup-mcp/internal/calibration"
	"github.com/ironsheep/pdf-markup-mcp/internal/export"
	"github.com/ironsheep/pdf-markup-mcp/internal/geom"
	"github.com/ironsheep/pdf-markup-mcp/internal/history"
	"github.com/ironsheep/pdf-markup-mcp/internal/imaging"
	"github.com/ironsheep/pdf-markup-mcp/internal/scene"
	"github.com/ironsheep/pdf-markup-mcp/internal/tools"
	"github.com/ironsheep/pdf-markup-mcp/internal/view"
)

// Fractions of the viewport a loaded page is fitted into.
const (
	FitWidth  = 0.9
	FitHeight = 0.85
)

// Page is the first page of a decoded document.
type Page interface {
	// Size returns the page size in PDF points.
	Size() (width, height float64)
	// Render rasterizes the page at scale pixels per point.
	Render(scale float64) (image.Image, error)
}

// PageDecoder turns document bytes into a Page.
type PageDecoder interface {
	Decode(data []byte) (Page, error)
}

// DecoderFunc adapts a function to PageDecoder.
type DecoderFunc func(data []byte) (Page, error)

// Decode calls f(data).
func (f DecoderFunc) Decode(data []byte) (Page, error) { return f(data) }

// Rasterizer renders the scene for export and previews.
type Rasterizer interface {
	export.Rasterizer
	Grid(img image.Image, spacing int, origin image.Point, scale float64, showCoordinates bool, gridColor string) (image.Image, error)
}

// Options configure a session.
type Options struct {
	Unit             string
	ViewportWidth    float64
	ViewportHeight   float64
	ExportMultiplier float64
	OutputDir        string
	Tools            tools.Options
}

// Deps are the collaborators of a session.
type Deps struct {
	Decoder  PageDecoder
	Encoder  export.Encoder
	Raster   Rasterizer
	Previews *imaging.PreviewCache
}

// Session is one markup session: a loaded document, its scene and the
// engines working on it. A Session is not safe for concurrent use.
type Session struct {
	opts     Options
	decoder  PageDecoder
	raster   Rasterizer
	previews *imaging.PreviewCache
	export   *export.Compositor
	log      *logrus.Entry

	doc     *scene.Document
	env     *tools.Env
	machine *tools.Machine

	src     *source
	notices []string
	input   *string // calibration answer supplied with the current call
}

// source is the loaded document.
type source struct {
	path    string
	preview string
	page    Page
	pages   int

	pageWidth, pageHeight float64 // points
	fit                   float64 // document pixels per point
	width, height         float64 // drawing surface in document pixels
}

// New returns a session with no document loaded.
func New(opts Options, deps Deps, log *logrus.Entry) *Session {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.Tools == (tools.Options{}) {
		opts.Tools = tools.DefaultOptions()
	}
	if deps.Previews == nil {
		deps.Previews = imaging.NewPreviewCache()
	}

	s := &Session{
		opts:     opts,
		decoder:  deps.Decoder,
		raster:   deps.Raster,
		previews: deps.Previews,
		export:   export.New(deps.Raster, deps.Encoder, opts.ExportMultiplier, log),
		log:      log.WithField("component", "session"),
		doc:      scene.New(),
	}

	s.env = &tools.Env{
		Doc:     s.doc,
		History: history.New(s.doc),
		Calibration: calibration.New(s.doc, opts.Unit,
			calibration.PromptFunc(s.prompt), calibration.NotifyFunc(s.notify), log),
		View:      view.New(),
		Selection: &tools.Selection{},
		Notify:    s.notify,
		Log:       log.WithField("component", "tools"),
		Options:   opts.Tools,
	}
	s.machine = tools.NewMachine(s.env)
	return s
}

func (s *Session) notify(msg string) {
	s.notices = append(s.notices, msg)
}

// prompt answers the calibration length question with the input supplied
// alongside the current pointer event. The question itself is surfaced as a
// notice.
func (s *Session) prompt(msg string) (string, bool) {
	s.notify(msg)
	if s.input == nil {
		return "", false
	}
	return *s.input, true
}

// TakeNotices returns the notices raised since the last call and clears them.
func (s *Session) TakeNotices() []string {
	n := s.notices
	s.notices = nil
	return n
}

func (s *Session) require(op string) error {
	if s.src == nil {
		return &export.StateError{Op: op}
	}
	return nil
}

// Loaded reports whether a document is open.
func (s *Session) Loaded() bool { return s.src != nil }

// Load opens the PDF at path. The optional preview is a rendered image of
// page 1 used for previews and the flattened export. Any previous document,
// scene, history, calibration and view are discarded, the page is fitted to
// the viewport and the Select tool becomes active.
func (s *Session) Load(path, preview string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	page, err := s.decoder.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	pw, ph := page.Size()
	if pw <= 0 || ph <= 0 {
		return fmt.Errorf("page has invalid size %gx%g", pw, ph)
	}

	s.reset()

	fit := math.Min(s.opts.ViewportWidth*FitWidth/pw, s.opts.ViewportHeight*FitHeight/ph)
	if fit <= 0 || math.IsInf(fit, 0) || math.IsNaN(fit) {
		fit = 1
	}
	src := &source{
		path:       path,
		page:       page,
		pages:      1,
		pageWidth:  pw,
		pageHeight: ph,
		fit:        fit,
		width:      pw * fit,
		height:     ph * fit,
	}
	if c, ok := page.(interface{ PageCount() int }); ok {
		src.pages = c.PageCount()
	}

	if preview != "" {
		w, h := src.pixels(1)
		if _, err := s.previews.LoadFitted(preview, w, h); err != nil {
			s.log.WithError(err).WithField("preview", preview).Warn("preview unusable, rendering blank page")
			s.notify("Preview image could not be loaded; the page renders blank.")
		} else {
			src.preview = preview
		}
	}
	s.src = src

	if err := s.machine.Select(tools.ModeSelect); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"path":   path,
		"width":  src.width,
		"height": src.height,
		"fit":    fit,
	}).Info("document loaded")
	return nil
}

// Close discards the document and everything drawn on it.
func (s *Session) Close() error {
	if err := s.require("close"); err != nil {
		return err
	}
	s.reset()
	s.log.Info("document closed")
	return nil
}

func (s *Session) reset() {
	s.machine.Deactivate()
	s.env.Calibration.Reset()
	s.doc.Clear()
	s.env.Selection.Clear()
	s.env.History.Reset()
	s.env.View.Reset()
	if s.src != nil && s.src.preview != "" {
		s.previews.Evict(s.src.preview)
	}
	s.src = nil
}

// pixels returns the surface size at scale, rounded to whole pixels.
func (src *source) pixels(scale float64) (int, int) {
	return int(math.Round(src.width * scale)), int(math.Round(src.height * scale))
}

// surfacePage renders the page in document pixels, preferring the preview.
type surfacePage struct {
	src      *source
	previews *imaging.PreviewCache
}

func (p surfacePage) Render(scale float64) (image.Image, error) {
	if scale <= 0 {
		scale = 1
	}
	if p.src.preview != "" {
		w, h := p.src.pixels(scale)
		return p.previews.LoadFitted(p.src.preview, w, h)
	}
	return p.src.page.Render(p.src.fit * scale)
}

// SelectTool activates the named tool.
func (s *Session) SelectTool(name string) error {
	if err := s.require("select_tool"); err != nil {
		return err
	}
	mode, err := tools.ParseMode(name)
	if err != nil {
		return err
	}
	return handled(s.machine.Select(mode))
}

// Action is a pointer event type.
type Action string

// Pointer actions. Click is a press and release at the same spot.
const (
	Down  Action = "down"
	Move  Action = "move"
	Up    Action = "up"
	Click Action = "click"
)

// PointerEvent is one pointer event from the host.
type PointerEvent struct {
	Action Action
	Doc    geom.Point
	// Screen defaults to the view transform of Doc.
	Screen *geom.Point
	Shift  bool
	// Input answers a calibration prompt raised by this event.
	Input *string
}

// Pointer dispatches a pointer event to the active tool.
func (s *Session) Pointer(ev PointerEvent) error {
	if err := s.require("pointer"); err != nil {
		return err
	}
	p := tools.Pointer{Doc: ev.Doc, Shift: ev.Shift}
	if ev.Screen != nil {
		p.Screen = *ev.Screen
	} else {
		p.Screen = s.env.View.ToScreen(ev.Doc)
	}

	s.input = ev.Input
	defer func() { s.input = nil }()

	var err error
	switch ev.Action {
	case Down:
		err = s.machine.Down(p)
	case Move:
		err = s.machine.Move(p)
	case Up:
		err = s.machine.Up(p)
	case Click:
		if err = s.machine.Down(p); err == nil {
			err = s.machine.Up(p)
		}
	default:
		return fmt.Errorf("unknown pointer action %q", ev.Action)
	}
	return handled(err)
}

// handled drops validation errors; they have already been surfaced as
// notices and leave the state unchanged.
func handled(err error) error {
	var ve *calibration.ValidationError
	if errors.As(err, &ve) {
		return nil
	}
	return err
}

// Wheel forwards a wheel notch at a screen position.
func (s *Session) Wheel(screen geom.Point, deltaY float64) error {
	if err := s.require("wheel"); err != nil {
		return err
	}
	s.machine.Wheel(screen, deltaY)
	return nil
}

// Escape cancels the gesture in progress.
func (s *Session) Escape() error {
	if err := s.require("escape"); err != nil {
		return err
	}
	s.machine.Escape()
	return nil
}

// Undo steps back one history entry. It reports whether anything changed.
func (s *Session) Undo() (bool, error) {
	if err := s.require("undo"); err != nil {
		return false, err
	}
	ok, err := s.env.History.Undo()
	s.afterRestore()
	return ok, err
}

// Redo steps forward one history entry.
func (s *Session) Redo() (bool, error) {
	if err := s.require("redo"); err != nil {
		return false, err
	}
	ok, err := s.env.History.Redo()
	s.afterRestore()
	return ok, err
}

// afterRestore drops references to objects the restore replaced.
func (s *Session) afterRestore() {
	s.env.Selection.Resolve(s.doc)
	if s.env.Editing != "" && s.doc.Find(s.env.Editing) == nil {
		s.env.Editing = ""
	}
}

// Clear removes every object. The scale factor survives and the cleared
// scene is an undo step.
func (s *Session) Clear() error {
	if err := s.require("clear"); err != nil {
		return err
	}
	s.machine.Deactivate()
	s.env.Calibration.Cancel()
	s.doc.Clear()
	s.env.Selection.Clear()
	return s.machine.Select(tools.ModeSelect)
}

// WriteTo saves an export result under dir, or the configured output
// directory when dir is empty, and returns the file path.
func (s *Session) WriteTo(dir string, res *export.Result) (string, error) {
	if dir == "" {
		dir = s.opts.OutputDir
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, res.Name)
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	s.log.WithField("path", path).Info("export written")
	return path, nil
}
