package session

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/pdf-markup-mcp/internal/export"
	"github.com/ironsheep/pdf-markup-mcp/internal/geom"
	"github.com/ironsheep/pdf-markup-mcp/internal/imaging"
	"github.com/ironsheep/pdf-markup-mcp/internal/render"
	"github.com/ironsheep/pdf-markup-mcp/internal/scene"
)

type fakePage struct{ w, h float64 }

func (p fakePage) Size() (float64, float64) { return p.w, p.h }

func (p fakePage) Render(scale float64) (image.Image, error) {
	return imaging.Paper(int(p.w*scale+0.5), int(p.h*scale+0.5)), nil
}

type fakeEncoder struct {
	embeds, flats int
}

func (f *fakeEncoder) EmbedOverlay(_ context.Context, src []byte, _ image.Image) ([]byte, error) {
	f.embeds++
	return append([]byte("embedded:"), src...), nil
}

func (f *fakeEncoder) EncodeImage(_ context.Context, _ image.Image, _, _ float64) ([]byte, error) {
	f.flats++
	return []byte("flattened"), nil
}

type fixture struct {
	s    *Session
	enc  *fakeEncoder
	path string
}

// newFixture loads a 360x170 page into a 400x200 viewport, which fits at
// exactly 1 document pixel per point.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	entry := logrus.NewEntry(log)

	raster, err := render.New(entry)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	f := &fixture{enc: &fakeEncoder{}}
	f.s = New(Options{
		Unit:           "mm",
		ViewportWidth:  400,
		ViewportHeight: 200,
		OutputDir:      t.TempDir(),
	}, Deps{
		Decoder: DecoderFunc(func([]byte) (Page, error) { return fakePage{360, 170}, nil }),
		Encoder: f.enc,
		Raster:  raster,
	}, entry)
	f.s.export.Now = func() time.Time { return time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC) }

	f.path = filepath.Join(t.TempDir(), "Site Plan.pdf")
	if err := os.WriteFile(f.path, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := f.s.Load(f.path, ""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	f.s.TakeNotices()
	return f
}

func (f *fixture) tool(t *testing.T, name string) {
	t.Helper()
	if err := f.s.SelectTool(name); err != nil {
		t.Fatalf("SelectTool(%s): %v", name, err)
	}
}

func (f *fixture) pointer(t *testing.T, action Action, x, y float64, input *string) {
	t.Helper()
	if err := f.s.Pointer(PointerEvent{Action: action, Doc: geom.Pt(x, y), Input: input}); err != nil {
		t.Fatalf("Pointer(%s, %g, %g): %v", action, x, y, err)
	}
}

func (f *fixture) drag(t *testing.T, x1, y1, x2, y2 float64) {
	t.Helper()
	f.pointer(t, Down, x1, y1, nil)
	f.pointer(t, Move, (x1+x2)/2, (y1+y2)/2, nil)
	f.pointer(t, Up, x2, y2, nil)
}

func str(s string) *string { return &s }

// calibrate runs (0,0)-(100,0) = 50 mm.
func (f *fixture) calibrate(t *testing.T) {
	t.Helper()
	f.tool(t, "calibrate")
	f.pointer(t, Click, 0, 0, nil)
	f.pointer(t, Click, 100, 0, str("50"))
	f.s.TakeNotices()
}

func TestSession_RequiresDocument(t *testing.T) {
	s := New(Options{}, Deps{}, nil)

	ops := map[string]func() error{
		"select_tool": func() error { return s.SelectTool("line") },
		"pointer":     func() error { return s.Pointer(PointerEvent{Action: Click}) },
		"wheel":       func() error { return s.Wheel(geom.Pt(0, 0), -1) },
		"escape":      s.Escape,
		"undo":        func() error { _, err := s.Undo(); return err },
		"clear":       s.Clear,
		"close":       s.Close,
		"group":       func() error { _, err := s.Group(); return err },
		"layer":       func() error { _, err := s.Layer(Front); return err },
		"preview":     func() error { _, err := s.Preview(PreviewRequest{}); return err },
		"export":      func() error { _, err := s.Export(context.Background(), ""); return err },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			if err := op(); !IsStateError(err) {
				t.Errorf("got %v, want a state error", err)
			}
		})
	}

	if st := s.State(); st.Loaded || st.Tool != "" {
		t.Errorf("unexpected state %+v", st)
	}
}

func TestSession_Load(t *testing.T) {
	f := newFixture(t)
	st := f.s.State()

	if !st.Loaded || st.Tool != "select" || st.Scale != nil {
		t.Errorf("unexpected state %+v", st)
	}
	want := &Surface{Path: f.path, Pages: 1, PageWidth: 360, PageHeight: 170, Fit: 1, Width: 360, Height: 170}
	if diff := cmp.Diff(want, st.Surface); diff != "" {
		t.Errorf("surface mismatch (-want +got):\n%s", diff)
	}
	if st.History.Entries != 1 || st.History.CanUndo {
		t.Errorf("history after load: %+v", st.History)
	}
	if st.ExportMultiplier != export.DefaultMultiplier {
		t.Errorf("export multiplier: got %v, want %v", st.ExportMultiplier, export.DefaultMultiplier)
	}
}

func TestSession_LoadErrors(t *testing.T) {
	f := newFixture(t)
	if err := f.s.Load(filepath.Join(t.TempDir(), "missing.pdf"), ""); err == nil {
		t.Error("expected error for a missing file")
	}
	if !f.s.Loaded() {
		t.Error("failed load discarded the open document")
	}
}

func TestSession_LoadFitsViewport(t *testing.T) {
	tests := []struct {
		name    string
		vw, vh  float64
		pw, ph  float64
		wantFit float64
	}{
		{"height bound", 1600, 900, 612, 792, 900 * 0.85 / 792},
		{"width bound", 1000, 2000, 600, 400, 1000 * 0.9 / 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raster, _ := render.New(nil)
			s := New(Options{ViewportWidth: tt.vw, ViewportHeight: tt.vh}, Deps{
				Decoder: DecoderFunc(func([]byte) (Page, error) { return fakePage{tt.pw, tt.ph}, nil }),
				Raster:  raster,
			}, nil)
			path := filepath.Join(t.TempDir(), "a.pdf")
			os.WriteFile(path, []byte("x"), 0o644)
			if err := s.Load(path, ""); err != nil {
				t.Fatalf("Load: %v", err)
			}
			sf := s.State().Surface
			if sf.Fit != tt.wantFit || sf.Width != tt.pw*tt.wantFit || sf.Height != tt.ph*tt.wantFit {
				t.Errorf("surface %+v, want fit %g", sf, tt.wantFit)
			}
		})
	}
}

func TestSession_Calibrate(t *testing.T) {
	f := newFixture(t)
	f.tool(t, "calibrate")
	f.pointer(t, Click, 0, 0, nil)
	f.pointer(t, Click, 100, 0, str("50"))

	st := f.s.State()
	if st.Scale == nil || *st.Scale != 0.5 {
		t.Fatalf("scale: got %v, want 0.5", st.Scale)
	}
	if st.Tool != "select" {
		t.Errorf("tool after calibration: %s, want select", st.Tool)
	}
	want := []string{
		"Click two points of known real-world distance",
		"Enter real-world length in mm:",
		"Scale set: 1 pixel = 0.5000 mm",
	}
	if diff := cmp.Diff(want, f.s.TakeNotices()); diff != "" {
		t.Errorf("notices mismatch (-want +got):\n%s", diff)
	}

	objs := f.s.Objects()
	if len(objs) != 1 || objs[0].Text != "50.0 mm" {
		t.Errorf("objects after calibration: %+v", objs)
	}
}

func TestSession_CalibrateWithoutInput(t *testing.T) {
	f := newFixture(t)
	f.tool(t, "calibrate")
	f.pointer(t, Click, 0, 0, nil)
	f.pointer(t, Click, 100, 0, nil)

	if st := f.s.State(); st.Scale != nil {
		t.Errorf("scale set without input: %v", *st.Scale)
	}
	notices := f.s.TakeNotices()
	if got := notices[len(notices)-1]; got != "No length entered. Calibration cancelled." {
		t.Errorf("last notice: %q", got)
	}
	if n := len(f.s.Objects()); n != 0 {
		t.Errorf("%d objects left behind", n)
	}
}

func TestSession_MeasureNeedsCalibration(t *testing.T) {
	f := newFixture(t)

	if err := f.s.SelectTool("click_measure"); err != nil {
		t.Fatalf("refusal should surface as a notice, got %v", err)
	}
	if diff := cmp.Diff([]string{"Please calibrate the scale first before drawing lines."}, f.s.TakeNotices()); diff != "" {
		t.Errorf("notices mismatch (-want +got):\n%s", diff)
	}
	if tool := f.s.State().Tool; tool != "select" {
		t.Errorf("tool: got %s, want select", tool)
	}
}

func TestSession_ClickMeasure(t *testing.T) {
	f := newFixture(t)
	f.calibrate(t)
	f.tool(t, "click_measure")
	f.pointer(t, Click, 0, 0, nil)
	f.pointer(t, Click, 60, 0, nil)

	var labels []string
	for _, o := range f.s.Objects() {
		labels = append(labels, o.Text)
	}
	if diff := cmp.Diff([]string{"50.0 mm", "30.0 mm"}, labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_UndoRedoClear(t *testing.T) {
	f := newFixture(t)
	f.tool(t, "line")
	f.drag(t, 10, 10, 50, 50)
	f.drag(t, 20, 10, 60, 50)

	if err := f.s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n := len(f.s.Objects()); n != 0 {
		t.Fatalf("Clear left %d objects", n)
	}
	if tool := f.s.State().Tool; tool != "select" {
		t.Errorf("tool after clear: %s", tool)
	}

	steps := []struct {
		op   func() (bool, error)
		want int
	}{
		{f.s.Undo, 2},
		{f.s.Undo, 1},
		{f.s.Undo, 0},
		{f.s.Redo, 1},
		{f.s.Redo, 2},
		{f.s.Redo, 0},
	}
	for i, step := range steps {
		if _, err := step.op(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if n := len(f.s.Objects()); n != step.want {
			t.Errorf("step %d: %d objects, want %d", i, n, step.want)
		}
	}

	if ok, _ := f.s.Redo(); ok {
		t.Error("Redo past the newest entry reported a change")
	}
}

func TestSession_GroupUngroup(t *testing.T) {
	f := newFixture(t)
	f.tool(t, "line")
	f.drag(t, 10, 10, 50, 10)
	f.drag(t, 10, 30, 50, 30)
	f.tool(t, "select")

	if _, err := f.s.Group(); err == nil {
		t.Error("Group with an empty selection succeeded")
	}
	if err := f.s.SelectAll(); err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	before := f.s.State().Selection

	id, err := f.s.Group()
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	objs := f.s.Objects()
	if len(objs) != 1 || objs[0].ID != id || len(objs[0].Children) != 2 {
		t.Fatalf("objects after group: %+v", objs)
	}
	if diff := cmp.Diff([]string{id}, f.s.State().Selection); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}

	ids, err := f.s.Ungroup()
	if err != nil {
		t.Fatalf("Ungroup: %v", err)
	}
	if diff := cmp.Diff(before, ids); diff != "" {
		t.Errorf("ungrouped children mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, f.s.State().Selection); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_Layer(t *testing.T) {
	f := newFixture(t)
	f.tool(t, "line")
	for i := 0; i < 4; i++ {
		y := float64(10 + 20*i)
		f.drag(t, 10, y, 50, y)
	}
	f.tool(t, "select")

	order := func() []string {
		var ids []string
		for _, o := range f.s.Objects() {
			ids = append(ids, o.ID)
		}
		return ids
	}
	ids := order()
	a, b, c, d := ids[0], ids[1], ids[2], ids[3]

	tests := []struct {
		name      string
		selection []string
		direction string
		want      []string
	}{
		{"front keeps relative order", []string{a, b}, Front, []string{c, d, a, b}},
		{"back keeps relative order", []string{a, b}, Back, []string{a, b, c, d}},
		{"forward one step", []string{b}, Forward, []string{a, c, b, d}},
		{"forward pinned at the top", []string{b, d}, Forward, []string{a, c, b, d}},
		{"backward one step", []string{b}, Backward, []string{a, b, c, d}},
		{"backward pinned at the bottom", []string{a, b}, Backward, []string{a, b, c, d}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.s.Select(tt.selection); err != nil {
				t.Fatalf("Select: %v", err)
			}
			if _, err := f.s.Layer(tt.direction); err != nil {
				t.Fatalf("Layer: %v", err)
			}
			if diff := cmp.Diff(tt.want, order()); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := f.s.Layer("sideways"); err == nil {
		t.Error("unknown direction accepted")
	}
}

func TestSession_EditText(t *testing.T) {
	f := newFixture(t)
	f.tool(t, "text")

	st := f.s.State()
	if st.Editing == "" {
		t.Fatal("text stamp is not being edited")
	}
	if err := f.s.EditText(st.Editing, "Datum A"); err != nil {
		t.Fatalf("EditText: %v", err)
	}
	if objs := f.s.Objects(); objs[0].Text != "Datum A" {
		t.Errorf("text: got %q", objs[0].Text)
	}
	if f.s.State().Editing != "" {
		t.Error("editing not finished")
	}
	if err := f.s.EditText("nope", "x"); err == nil {
		t.Error("EditText on a missing object succeeded")
	}
}

func markers(objs []ObjectInfo) int {
	n := 0
	for _, o := range objs {
		if o.Kind == scene.KindMarker {
			n++
		}
	}
	return n
}

func TestSession_EditDuringMeasureLeavesNoMarker(t *testing.T) {
	f := newFixture(t)
	f.calibrate(t)
	f.tool(t, "text")
	stamp := f.s.State().Editing

	f.tool(t, "click_measure")
	f.pointer(t, Click, 10, 10, nil)
	if n := markers(f.s.Objects()); n != 1 {
		t.Fatalf("got %d markers after the first click, want 1", n)
	}
	if err := f.s.EditText(stamp, "Datum A"); err != nil {
		t.Fatalf("EditText: %v", err)
	}
	f.pointer(t, Click, 70, 10, nil)

	if _, err := f.s.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if err := f.s.Escape(); err != nil {
		t.Fatalf("Escape: %v", err)
	}
	f.tool(t, "select")

	objs := f.s.Objects()
	if n := markers(objs); n != 0 {
		t.Errorf("%d markers left after undo", n)
	}
	var texts []string
	for _, o := range objs {
		texts = append(texts, o.Text)
	}
	if diff := cmp.Diff([]string{"50.0 mm", "Datum A"}, texts); diff != "" {
		t.Errorf("objects after undo (-want +got):\n%s", diff)
	}
}

func TestSession_UndoMidGestureKeepsMarker(t *testing.T) {
	f := newFixture(t)
	f.calibrate(t)
	f.tool(t, "click_measure")
	f.pointer(t, Click, 10, 10, nil)

	if _, err := f.s.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if n := markers(f.s.Objects()); n != 1 {
		t.Errorf("got %d markers after undo, want the pending one", n)
	}

	f.pointer(t, Click, 70, 10, nil)
	if n := markers(f.s.Objects()); n != 0 {
		t.Errorf("%d markers left after the measurement", n)
	}
}

func TestSession_Export(t *testing.T) {
	f := newFixture(t)
	f.tool(t, "line")
	f.drag(t, 10, 10, 50, 50)

	res, err := f.s.Export(context.Background(), ExportAuto)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Mode != export.HighQuality || res.Name != "Site Plan_MarkUp-2024-05-06.pdf" {
		t.Errorf("unexpected result %+v", res)
	}
	if !strings.HasPrefix(string(res.Data), "embedded:%PDF") {
		t.Errorf("export not built from the original bytes: %q", res.Data)
	}

	path, err := f.s.WriteTo("", res)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if data, err := os.ReadFile(path); err != nil || string(data) != string(res.Data) {
		t.Errorf("written file mismatch: %v", err)
	}

	// With the original gone the flattened path takes over.
	os.Remove(f.path)
	res, err = f.s.Export(context.Background(), ExportAuto)
	if err != nil {
		t.Fatalf("Export after removal: %v", err)
	}
	if res.Mode != export.Flattened || f.enc.flats != 1 {
		t.Errorf("expected flattened fallback, got %+v", res)
	}

	if _, err := f.s.Export(context.Background(), "tiff"); err == nil {
		t.Error("unknown export mode accepted")
	}
}

func TestSession_Preview(t *testing.T) {
	f := newFixture(t)
	f.tool(t, "line")
	f.drag(t, 10, 10, 50, 10)

	tests := []struct {
		name         string
		req          PreviewRequest
		wantW, wantH int
		wantErr      bool
	}{
		{"full surface", PreviewRequest{}, 360, 170, false},
		{"scaled", PreviewRequest{Scale: 2}, 720, 340, false},
		{"region", PreviewRequest{Region: &geom.Rect{X: 0, Y: 0, Width: 60, Height: 20}, Scale: 2}, 120, 40, false},
		{"grid", PreviewRequest{Grid: 50, GridLabels: true}, 360, 170, false},
		{"empty region", PreviewRequest{Region: &geom.Rect{X: 500, Y: 0, Width: 10, Height: 10}}, 0, 0, true},
		{"scale too large", PreviewRequest{Scale: 100}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.s.Preview(tt.req)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Preview: %v", err)
			}
			if res.Width != tt.wantW || res.Height != tt.wantH || res.MimeType != "image/png" {
				t.Errorf("got %dx%d %s, want %dx%d", res.Width, res.Height, res.MimeType, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestSession_CloseAndReload(t *testing.T) {
	f := newFixture(t)
	f.calibrate(t)
	f.tool(t, "freehand")
	f.drag(t, 10, 10, 30, 30)
	f.tool(t, "pan_zoom")
	if err := f.s.Wheel(geom.Pt(0, 0), -1); err != nil {
		t.Fatalf("Wheel: %v", err)
	}
	if f.s.State().View.Zoom == 1 {
		t.Fatal("wheel did not zoom")
	}

	if err := f.s.Load(f.path, ""); err != nil {
		t.Fatalf("reload: %v", err)
	}
	st := f.s.State()
	if st.Objects != 0 || st.Scale != nil || st.History.Entries != 1 || st.View.Zoom != 1 {
		t.Errorf("reload did not reset: %+v", st)
	}

	if err := f.s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if f.s.Loaded() || f.s.State().Tool != "" {
		t.Error("Close left the document open")
	}
}
