package server

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ironsheep/pdf-markup-mcp/internal/session"
)

func loaded(t *testing.T) *Server {
	t.Helper()
	s := newTestServer(t)
	mustCall(t, s, "markup_load_pdf", map[string]any{"path": createTestPDF(t, "plan.pdf")})
	return s
}

func click(t *testing.T, s *Server, x, y float64, extra map[string]any) testResponse {
	t.Helper()
	a := map[string]any{"action": "click", "x": x, "y": y}
	for k, v := range extra {
		a[k] = v
	}
	return mustCall(t, s, "markup_pointer", a)
}

func drag(t *testing.T, s *Server, x1, y1, x2, y2 float64) {
	t.Helper()
	mustCall(t, s, "markup_pointer", map[string]any{"action": "down", "x": x1, "y": y1})
	mustCall(t, s, "markup_pointer", map[string]any{"action": "move", "x": (x1 + x2) / 2, "y": (y1 + y2) / 2})
	mustCall(t, s, "markup_pointer", map[string]any{"action": "up", "x": x2, "y": y2})
}

func objectsOf(t *testing.T, s *Server) []session.ObjectInfo {
	t.Helper()
	r := mustCall(t, s, "markup_list_objects", nil)
	var body struct {
		Objects []session.ObjectInfo `json:"objects"`
	}
	if err := json.Unmarshal(r.Result, &body); err != nil {
		t.Fatalf("invalid list_objects result: %v", err)
	}
	return body.Objects
}

func TestHandleLoad(t *testing.T) {
	s := newTestServer(t)
	path := createTestPDF(t, "plan.pdf")

	r := mustCall(t, s, "markup_load_pdf", map[string]any{"path": path})
	var surface session.Surface
	if err := json.Unmarshal(r.Result, &surface); err != nil {
		t.Fatalf("invalid surface: %v", err)
	}
	want := session.Surface{Path: path, Pages: 1, PageWidth: 360, PageHeight: 170, Fit: 1, Width: 360, Height: 170}
	if diff := cmp.Diff(want, surface); diff != "" {
		t.Errorf("surface mismatch (-want +got):\n%s", diff)
	}
	if r.Tool != "select" || r.History.Entries != 1 {
		t.Errorf("unexpected state after load: tool %q history %+v", r.Tool, r.History)
	}
}

func TestHandle_RequiresDocument(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		tool string
		args map[string]any
	}{
		{"markup_select_tool", map[string]any{"tool": "line"}},
		{"markup_pointer", map[string]any{"action": "click", "x": 1, "y": 1}},
		{"markup_undo", nil},
		{"markup_clear", nil},
		{"markup_preview", nil},
		{"markup_export", nil},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			msg := mustFail(t, s, tt.tool, tt.args)
			if !strings.Contains(msg, "no document loaded; open one with markup_load_pdf") {
				t.Errorf("unexpected error: %s", msg)
			}
		})
	}
}

func TestHandle_ArgumentErrors(t *testing.T) {
	s := loaded(t)

	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		wantErr string
	}{
		{"missing path", "markup_load_pdf", map[string]any{}, "missing required parameter: path"},
		{"missing x", "markup_pointer", map[string]any{"action": "down", "y": 1}, "missing required parameter: x"},
		{"non-numeric y", "markup_pointer", map[string]any{"action": "down", "x": 1, "y": "abc"}, "invalid parameter y"},
		{"unknown action", "markup_pointer", map[string]any{"action": "hover", "x": 1, "y": 1}, "unknown pointer action"},
		{"half screen point", "markup_pointer", map[string]any{"action": "down", "x": 1, "y": 1, "screen_x": 3}, "missing required parameter: screen_y"},
		{"unknown tool", "markup_select_tool", map[string]any{"tool": "laser"}, "unknown tool"},
		{"missing ids", "markup_select", map[string]any{}, "missing required parameter: ids"},
		{"unknown id", "markup_select", map[string]any{"ids": []any{"nope"}}, "not found"},
		{"bad direction", "markup_layer", map[string]any{"direction": "up"}, "unknown layer direction"},
		{"partial region", "markup_preview", map[string]any{"x1": 0, "y1": 0}, "region needs"},
		{"bad export mode", "markup_export", map[string]any{"mode": "svg"}, "unknown export mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := mustFail(t, s, tt.tool, tt.args)
			if !strings.Contains(msg, tt.wantErr) {
				t.Errorf("error %q does not contain %q", msg, tt.wantErr)
			}
		})
	}
}

func TestHandle_CalibrateAndMeasure(t *testing.T) {
	s := loaded(t)

	r := mustCall(t, s, "markup_select_tool", map[string]any{"tool": "click_measure"})
	if r.Tool != "select" || len(r.Notices) != 1 || !strings.Contains(r.Notices[0], "calibrate") {
		t.Fatalf("measuring before calibration: tool %q notices %v", r.Tool, r.Notices)
	}

	r = mustCall(t, s, "markup_select_tool", map[string]any{"tool": "calibrate"})
	if r.Tool != "calibrate" {
		t.Fatalf("tool: %q", r.Tool)
	}
	click(t, s, 0, 0, nil)
	r = click(t, s, 100, 0, map[string]any{"input": "50"})
	if r.Scale == nil || *r.Scale != 0.5 {
		t.Fatalf("scale: %v", r.Scale)
	}
	if diff := cmp.Diff([]string{"Enter real-world length in mm:", "Scale set: 1 pixel = 0.5000 mm"}, r.Notices); diff != "" {
		t.Errorf("notices mismatch (-want +got):\n%s", diff)
	}

	mustCall(t, s, "markup_select_tool", map[string]any{"tool": "click_measure"})
	click(t, s, 0, 0, nil)
	click(t, s, 60, 0, nil)

	var labels []string
	for _, o := range objectsOf(t, s) {
		labels = append(labels, o.Text)
	}
	if diff := cmp.Diff([]string{"50.0 mm", "30.0 mm"}, labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestHandle_UndoRedo(t *testing.T) {
	s := loaded(t)
	mustCall(t, s, "markup_select_tool", map[string]any{"tool": "freehand"})
	drag(t, s, 10, 10, 40, 40)

	steps := []struct {
		tool        string
		wantChanged bool
		wantObjects int
	}{
		{"markup_undo", true, 0},
		{"markup_undo", false, 0},
		{"markup_redo", true, 1},
		{"markup_redo", false, 1},
	}
	for i, step := range steps {
		r := mustCall(t, s, step.tool, nil)
		var c changed
		if err := json.Unmarshal(r.Result, &c); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if c.Changed != step.wantChanged {
			t.Errorf("step %d (%s): changed %v, want %v", i, step.tool, c.Changed, step.wantChanged)
		}
		if n := len(objectsOf(t, s)); n != step.wantObjects {
			t.Errorf("step %d (%s): %d objects, want %d", i, step.tool, n, step.wantObjects)
		}
	}
}

func TestHandle_SelectGroupLayer(t *testing.T) {
	s := loaded(t)
	mustCall(t, s, "markup_select_tool", map[string]any{"tool": "line"})
	drag(t, s, 10, 10, 50, 10)
	drag(t, s, 10, 30, 50, 30)
	drag(t, s, 10, 50, 50, 50)
	mustCall(t, s, "markup_select_tool", map[string]any{"tool": "select"})

	objs := objectsOf(t, s)
	a, b, c := objs[0].ID, objs[1].ID, objs[2].ID

	r := mustCall(t, s, "markup_select", map[string]any{"ids": []any{a, b}})
	if diff := cmp.Diff([]string{a, b}, r.Selection); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}

	r = mustCall(t, s, "markup_group", nil)
	var g struct {
		ID string `json:"id"`
	}
	json.Unmarshal(r.Result, &g)
	if diff := cmp.Diff([]string{g.ID}, r.Selection); diff != "" {
		t.Errorf("selection after group (-want +got):\n%s", diff)
	}

	mustCall(t, s, "markup_layer", map[string]any{"direction": "front"})
	objs = objectsOf(t, s)
	if len(objs) != 2 || objs[0].ID != c || objs[1].ID != g.ID {
		t.Errorf("order after front: %+v", objs)
	}

	r = mustCall(t, s, "markup_ungroup", nil)
	if diff := cmp.Diff([]string{a, b}, r.Selection); diff != "" {
		t.Errorf("selection after ungroup (-want +got):\n%s", diff)
	}

	r = mustCall(t, s, "markup_select_all", nil)
	if len(r.Selection) != 3 {
		t.Errorf("select all: %v", r.Selection)
	}
}

func TestHandle_EditText(t *testing.T) {
	s := loaded(t)
	r := mustCall(t, s, "markup_select_tool", map[string]any{"tool": "text"})
	if r.Editing == "" {
		t.Fatal("stamped text is not being edited")
	}

	r = mustCall(t, s, "markup_edit_text", map[string]any{"id": r.Editing, "text": "North wall"})
	if r.Editing != "" {
		t.Errorf("still editing %s", r.Editing)
	}
	if objs := objectsOf(t, s); objs[0].Text != "North wall" {
		t.Errorf("text: %q", objs[0].Text)
	}
}

func TestHandle_Wheel(t *testing.T) {
	s := loaded(t)
	mustCall(t, s, "markup_select_tool", map[string]any{"tool": "pan_zoom"})

	r := mustCall(t, s, "markup_wheel", map[string]any{"screen_x": 100, "screen_y": 50, "delta_y": -100})
	if r.View.Zoom <= 1 {
		t.Errorf("zoom after wheel in: %g", r.View.Zoom)
	}
	if !strings.Contains(r.View.CSS, "scale(") {
		t.Errorf("css: %q", r.View.CSS)
	}

	r = mustCall(t, s, "markup_escape", nil)
	if r.Tool != "pan_zoom" {
		t.Errorf("escape changed the tool to %q", r.Tool)
	}
}

func TestHandlePreview(t *testing.T) {
	s := loaded(t)

	tests := []struct {
		name         string
		args         map[string]any
		wantW, wantH int
	}{
		{"full page", nil, 360, 170},
		{"region scaled", map[string]any{"x1": 10, "y1": 10, "x2": 60, "y2": 40, "scale": 2}, 100, 60},
		{"reversed corners", map[string]any{"x1": 60, "y1": 40, "x2": 10, "y2": 10}, 50, 30},
		{"grid", map[string]any{"grid": 50, "grid_labels": true, "grid_color": "#0000ff"}, 360, 170},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, s, "markup_preview", tt.args)
			if res.IsError {
				t.Fatalf("preview failed: %s", textOf(t, res))
			}
			if len(res.Content) != 2 {
				t.Fatalf("got %d content blocks, want 2", len(res.Content))
			}
			img, ok := res.Content[1].(mcp.ImageContent)
			if !ok {
				t.Fatalf("second block is %T, want image", res.Content[1])
			}
			if img.MIMEType != "image/png" {
				t.Errorf("mime type %q", img.MIMEType)
			}
			if _, err := base64.StdEncoding.DecodeString(img.Data); err != nil {
				t.Errorf("image data is not base64: %v", err)
			}

			var body struct {
				Result previewResult `json:"result"`
			}
			json.Unmarshal([]byte(textOf(t, res)), &body)
			if body.Result.Width != tt.wantW || body.Result.Height != tt.wantH {
				t.Errorf("size %dx%d, want %dx%d", body.Result.Width, body.Result.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestHandleExport(t *testing.T) {
	s := loaded(t)
	mustCall(t, s, "markup_select_tool", map[string]any{"tool": "line"})
	drag(t, s, 10, 10, 50, 50)

	tests := []struct {
		mode     string
		wantMode string
		wantData string
	}{
		{"", "high_quality", "embedded:%PDF-1.4 test"},
		{"flattened", "flattened", "flattened"},
	}

	for _, tt := range tests {
		t.Run(tt.wantMode, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			a := map[string]any{"output_dir": dir}
			if tt.mode != "" {
				a["mode"] = tt.mode
			}
			r := mustCall(t, s, "markup_export", a)

			var res exportResult
			if err := json.Unmarshal(r.Result, &res); err != nil {
				t.Fatalf("invalid export result: %v", err)
			}
			if res.Mode != tt.wantMode {
				t.Errorf("mode %q, want %q", res.Mode, tt.wantMode)
			}
			if !strings.HasPrefix(res.Name, "plan_MarkUp-") || filepath.Dir(res.Path) != dir {
				t.Errorf("unexpected output %+v", res)
			}
			data, err := os.ReadFile(res.Path)
			if err != nil {
				t.Fatalf("export not written: %v", err)
			}
			if string(data) != tt.wantData || res.Bytes != len(data) {
				t.Errorf("written %q (%d bytes reported)", data, res.Bytes)
			}
		})
	}
}

func TestHandleClearAndClose(t *testing.T) {
	s := loaded(t)
	mustCall(t, s, "markup_select_tool", map[string]any{"tool": "line"})
	drag(t, s, 10, 10, 50, 50)

	r := mustCall(t, s, "markup_clear", nil)
	if len(objectsOf(t, s)) != 0 || !r.History.CanUndo || r.Tool != "select" {
		t.Errorf("unexpected state after clear: %+v", r)
	}
	mustCall(t, s, "markup_undo", nil)
	if n := len(objectsOf(t, s)); n != 1 {
		t.Errorf("undo after clear: %d objects", n)
	}

	r = mustCall(t, s, "markup_close", nil)
	if r.Tool != "" || r.History.Entries != 0 {
		t.Errorf("unexpected state after close: %+v", r)
	}
	mustFail(t, s, "markup_undo", nil)
}
