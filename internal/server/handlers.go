package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/ironsheep/pdf-markup-mcp/internal/geom"
	"github.com/ironsheep/pdf-markup-mcp/internal/imaging"
	"github.com/ironsheep/pdf-markup-mcp/internal/session"
)

// args wraps the arguments of one tool call.
type args map[string]any

func argsOf(req mcp.CallToolRequest) args {
	return args(req.GetArguments())
}

func (a args) has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

func (a args) requireString(key string) (string, error) {
	if !a.has(key) {
		return "", fmt.Errorf("missing required parameter: %s", key)
	}
	v, err := cast.ToStringE(a[key])
	if err != nil {
		return "", fmt.Errorf("invalid parameter %s: %w", key, err)
	}
	return v, nil
}

func (a args) optString(key, def string) (string, error) {
	if !a.has(key) {
		return def, nil
	}
	return a.requireString(key)
}

func (a args) requireFloat(key string) (float64, error) {
	if !a.has(key) {
		return 0, fmt.Errorf("missing required parameter: %s", key)
	}
	v, err := cast.ToFloat64E(a[key])
	if err != nil {
		return 0, fmt.Errorf("invalid parameter %s: %w", key, err)
	}
	return v, nil
}

func (a args) optFloat(key string, def float64) (float64, error) {
	if !a.has(key) {
		return def, nil
	}
	return a.requireFloat(key)
}

func (a args) optBool(key string) (bool, error) {
	if !a.has(key) {
		return false, nil
	}
	v, err := cast.ToBoolE(a[key])
	if err != nil {
		return false, fmt.Errorf("invalid parameter %s: %w", key, err)
	}
	return v, nil
}

func (a args) requireStrings(key string) ([]string, error) {
	if !a.has(key) {
		return nil, fmt.Errorf("missing required parameter: %s", key)
	}
	v, err := cast.ToStringSliceE(a[key])
	if err != nil {
		return nil, fmt.Errorf("invalid parameter %s: %w", key, err)
	}
	return v, nil
}

func (s *Server) handleLoad(_ context.Context, req mcp.CallToolRequest) (any, error) {
	a := argsOf(req)
	path, err := a.requireString("path")
	if err != nil {
		return nil, err
	}
	preview, err := a.optString("preview_path", "")
	if err != nil {
		return nil, err
	}
	if err := s.session.Load(path, preview); err != nil {
		return nil, err
	}
	return s.session.State().Surface, nil
}

func (s *Server) handleClose(context.Context, mcp.CallToolRequest) (any, error) {
	return nil, s.session.Close()
}

func (s *Server) handleState(context.Context, mcp.CallToolRequest) (any, error) {
	return s.session.State(), nil
}

func (s *Server) handleSelectTool(_ context.Context, req mcp.CallToolRequest) (any, error) {
	name, err := argsOf(req).requireString("tool")
	if err != nil {
		return nil, err
	}
	return nil, s.session.SelectTool(name)
}

func (s *Server) handlePointer(_ context.Context, req mcp.CallToolRequest) (any, error) {
	a := argsOf(req)
	action, err := a.requireString("action")
	if err != nil {
		return nil, err
	}
	x, err := a.requireFloat("x")
	if err != nil {
		return nil, err
	}
	y, err := a.requireFloat("y")
	if err != nil {
		return nil, err
	}
	shift, err := a.optBool("shift")
	if err != nil {
		return nil, err
	}

	ev := session.PointerEvent{Action: session.Action(action), Doc: geom.Pt(x, y), Shift: shift}
	if a.has("screen_x") || a.has("screen_y") {
		sx, err := a.requireFloat("screen_x")
		if err != nil {
			return nil, err
		}
		sy, err := a.requireFloat("screen_y")
		if err != nil {
			return nil, err
		}
		p := geom.Pt(sx, sy)
		ev.Screen = &p
	}
	if a.has("input") {
		in, err := a.requireString("input")
		if err != nil {
			return nil, err
		}
		ev.Input = &in
	}

	if err := s.session.Pointer(ev); err != nil {
		return nil, err
	}
	return map[string]int{"objects": s.session.State().Objects}, nil
}

func (s *Server) handleWheel(_ context.Context, req mcp.CallToolRequest) (any, error) {
	a := argsOf(req)
	sx, err := a.requireFloat("screen_x")
	if err != nil {
		return nil, err
	}
	sy, err := a.requireFloat("screen_y")
	if err != nil {
		return nil, err
	}
	dy, err := a.requireFloat("delta_y")
	if err != nil {
		return nil, err
	}
	return nil, s.session.Wheel(geom.Pt(sx, sy), dy)
}

func (s *Server) handleEscape(context.Context, mcp.CallToolRequest) (any, error) {
	return nil, s.session.Escape()
}

type changed struct {
	Changed bool `json:"changed"`
}

func (s *Server) handleUndo(context.Context, mcp.CallToolRequest) (any, error) {
	ok, err := s.session.Undo()
	if err != nil {
		return nil, err
	}
	return changed{ok}, nil
}

func (s *Server) handleRedo(context.Context, mcp.CallToolRequest) (any, error) {
	ok, err := s.session.Redo()
	if err != nil {
		return nil, err
	}
	return changed{ok}, nil
}

func (s *Server) handleClear(context.Context, mcp.CallToolRequest) (any, error) {
	return nil, s.session.Clear()
}

func (s *Server) handleSelect(_ context.Context, req mcp.CallToolRequest) (any, error) {
	ids, err := argsOf(req).requireStrings("ids")
	if err != nil {
		return nil, err
	}
	return nil, s.session.Select(ids)
}

func (s *Server) handleSelectAll(context.Context, mcp.CallToolRequest) (any, error) {
	return nil, s.session.SelectAll()
}

func (s *Server) handleGroup(context.Context, mcp.CallToolRequest) (any, error) {
	id, err := s.session.Group()
	if err != nil {
		return nil, err
	}
	return map[string]string{"id": id}, nil
}

func (s *Server) handleUngroup(context.Context, mcp.CallToolRequest) (any, error) {
	ids, err := s.session.Ungroup()
	if err != nil {
		return nil, err
	}
	return map[string][]string{"ids": ids}, nil
}

func (s *Server) handleLayer(_ context.Context, req mcp.CallToolRequest) (any, error) {
	dir, err := argsOf(req).requireString("direction")
	if err != nil {
		return nil, err
	}
	moved, err := s.session.Layer(dir)
	if err != nil {
		return nil, err
	}
	return changed{moved}, nil
}

func (s *Server) handleEditText(_ context.Context, req mcp.CallToolRequest) (any, error) {
	a := argsOf(req)
	id, err := a.requireString("id")
	if err != nil {
		return nil, err
	}
	text, err := a.requireString("text")
	if err != nil {
		return nil, err
	}
	return nil, s.session.EditText(id, text)
}

func (s *Server) handleListObjects(context.Context, mcp.CallToolRequest) (any, error) {
	return map[string]any{"objects": s.session.Objects()}, nil
}

// previewResult describes a rendered preview; the PNG travels as an image
// content block rather than inside the JSON.
type previewResult struct {
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Region *geom.Rect `json:"region,omitempty"`
	Scale  float64    `json:"scale"`

	crop *imaging.CropResult
}

func (p previewResult) imageContent() (string, string) {
	return p.crop.ImageBase64, p.crop.MimeType
}

func (s *Server) handlePreview(_ context.Context, req mcp.CallToolRequest) (any, error) {
	a := argsOf(req)
	var pr session.PreviewRequest
	var err error

	if a.has("x1") || a.has("y1") || a.has("x2") || a.has("y2") {
		var c [4]float64
		for i, key := range []string{"x1", "y1", "x2", "y2"} {
			if c[i], err = a.requireFloat(key); err != nil {
				return nil, fmt.Errorf("region needs x1, y1, x2 and y2: %w", err)
			}
		}
		r := geom.BoundsOf(geom.Pt(c[0], c[1]), geom.Pt(c[2], c[3]))
		pr.Region = &r
	}
	if pr.Scale, err = a.optFloat("scale", 1); err != nil {
		return nil, err
	}
	grid, err := a.optFloat("grid", 0)
	if err != nil {
		return nil, err
	}
	pr.Grid = int(grid)
	if pr.GridLabels, err = a.optBool("grid_labels"); err != nil {
		return nil, err
	}
	if pr.GridColor, err = a.optString("grid_color", ""); err != nil {
		return nil, err
	}

	crop, err := s.session.Preview(pr)
	if err != nil {
		return nil, err
	}
	return previewResult{
		Width:  crop.Width,
		Height: crop.Height,
		Region: pr.Region,
		Scale:  pr.Scale,
		crop:   crop,
	}, nil
}

type exportResult struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Mode  string `json:"mode"`
	Bytes int    `json:"bytes"`
}

func (s *Server) handleExport(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	a := argsOf(req)
	mode, err := a.optString("mode", session.ExportAuto)
	if err != nil {
		return nil, err
	}
	dir, err := a.optString("output_dir", "")
	if err != nil {
		return nil, err
	}

	res, err := s.session.Export(ctx, mode)
	if err != nil {
		return nil, err
	}
	path, err := s.session.WriteTo(dir, res)
	if err != nil {
		return nil, err
	}
	return exportResult{Path: path, Name: res.Name, Mode: string(res.Mode), Bytes: len(res.Data)}, nil
}
