package server

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ironsheep/pdf-markup-mcp/internal/session"
	"github.com/ironsheep/pdf-markup-mcp/internal/tools"
)

func boolPtr(b bool) *bool { return &b }

func toolNames() []string {
	modes := tools.Modes()
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = string(m)
	}
	return out
}

// tools returns every markup tool with its handler.
func (s *Server) tools() []mcpserver.ServerTool {
	readOnly := mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)})

	return []mcpserver.ServerTool{
		// Document
		{
			Tool: mcp.NewTool("markup_load_pdf",
				mcp.WithDescription("Open a PDF for markup. Page 1 is fitted to the viewport; all coordinates in other tools are document pixels of that fitted page. Discards any previous document, drawing, history and calibration."),
				mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path to the PDF file")),
				mcp.WithString("preview_path", mcp.Description("Optional rendered image of page 1, used as the page background in previews and flattened exports")),
			),
			Handler: s.call("markup_load_pdf", s.handleLoad),
		},
		{
			Tool: mcp.NewTool("markup_close",
				mcp.WithDescription("Close the document and discard everything drawn on it."),
				mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
			),
			Handler: s.call("markup_close", s.handleClose),
		},
		{
			Tool: mcp.NewTool("markup_state",
				mcp.WithDescription("Get the session state: surface size, active tool, scale factor, view, history and selection."),
				readOnly,
			),
			Handler: s.call("markup_state", s.handleState),
		},

		// Tools and input
		{
			Tool: mcp.NewTool("markup_select_tool",
				mcp.WithDescription("Activate a drawing tool. Measuring tools require a calibrated scale."),
				mcp.WithString("tool", mcp.Required(), mcp.Enum(toolNames()...), mcp.Description("Tool to activate")),
			),
			Handler: s.call("markup_select_tool", s.handleSelectTool),
		},
		{
			Tool: mcp.NewTool("markup_pointer",
				mcp.WithDescription("Send a pointer event to the active tool. Use 'click' for press and release at one spot. When a calibration prompt will be raised, pass the real-world length as input."),
				mcp.WithString("action", mcp.Required(), mcp.Enum(string(session.Down), string(session.Move), string(session.Up), string(session.Click)), mcp.Description("Pointer action")),
				mcp.WithNumber("x", mcp.Required(), mcp.Description("X in document pixels")),
				mcp.WithNumber("y", mcp.Required(), mcp.Description("Y in document pixels")),
				mcp.WithNumber("screen_x", mcp.Description("Optional screen X; defaults to the view transform of x")),
				mcp.WithNumber("screen_y", mcp.Description("Optional screen Y; defaults to the view transform of y")),
				mcp.WithBoolean("shift", mcp.Description("Shift held (adds to the selection in the select tool)")),
				mcp.WithString("input", mcp.Description("Answer to a calibration length prompt, e.g. \"50\"")),
			),
			Handler: s.call("markup_pointer", s.handlePointer),
		},
		{
			Tool: mcp.NewTool("markup_wheel",
				mcp.WithDescription("Send a wheel notch at a screen position. Zooms about that point in the pan/zoom tool."),
				mcp.WithNumber("screen_x", mcp.Required(), mcp.Description("Screen X")),
				mcp.WithNumber("screen_y", mcp.Required(), mcp.Description("Screen Y")),
				mcp.WithNumber("delta_y", mcp.Required(), mcp.Description("Wheel delta; negative zooms in")),
			),
			Handler: s.call("markup_wheel", s.handleWheel),
		},
		{
			Tool:    mcp.NewTool("markup_escape", mcp.WithDescription("Cancel the gesture in progress.")),
			Handler: s.call("markup_escape", s.handleEscape),
		},

		// History
		{
			Tool:    mcp.NewTool("markup_undo", mcp.WithDescription("Undo the last change.")),
			Handler: s.call("markup_undo", s.handleUndo),
		},
		{
			Tool:    mcp.NewTool("markup_redo", mcp.WithDescription("Redo the last undone change.")),
			Handler: s.call("markup_redo", s.handleRedo),
		},
		{
			Tool: mcp.NewTool("markup_clear",
				mcp.WithDescription("Remove every annotation. The scale factor is kept and the clear can be undone."),
				mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
			),
			Handler: s.call("markup_clear", s.handleClear),
		},

		// Editing
		{
			Tool: mcp.NewTool("markup_select",
				mcp.WithDescription("Replace the selection with the given object IDs."),
				mcp.WithArray("ids", mcp.Required(), mcp.Items(map[string]any{"type": "string"}), mcp.Description("Object IDs")),
			),
			Handler: s.call("markup_select", s.handleSelect),
		},
		{
			Tool:    mcp.NewTool("markup_select_all", mcp.WithDescription("Select every selectable object.")),
			Handler: s.call("markup_select_all", s.handleSelectAll),
		},
		{
			Tool:    mcp.NewTool("markup_group", mcp.WithDescription("Group the selected objects.")),
			Handler: s.call("markup_group", s.handleGroup),
		},
		{
			Tool:    mcp.NewTool("markup_ungroup", mcp.WithDescription("Dissolve the selected group.")),
			Handler: s.call("markup_ungroup", s.handleUngroup),
		},
		{
			Tool: mcp.NewTool("markup_layer",
				mcp.WithDescription("Restack the selection."),
				mcp.WithString("direction", mcp.Required(), mcp.Enum(session.Forward, session.Backward, session.Front, session.Back), mcp.Description("Where to move the selection")),
			),
			Handler: s.call("markup_layer", s.handleLayer),
		},
		{
			Tool: mcp.NewTool("markup_edit_text",
				mcp.WithDescription("Replace the content of a text label."),
				mcp.WithString("id", mcp.Required(), mcp.Description("Text object ID")),
				mcp.WithString("text", mcp.Required(), mcp.Description("New content")),
			),
			Handler: s.call("markup_edit_text", s.handleEditText),
		},
		{
			Tool: mcp.NewTool("markup_list_objects",
				mcp.WithDescription("List the annotations back to front with their IDs, kinds, bounds and labels."),
				readOnly,
			),
			Handler: s.call("markup_list_objects", s.handleListObjects),
		},

		// Output
		{
			Tool: mcp.NewTool("markup_preview",
				mcp.WithDescription("Render the page with its annotations as PNG. Optionally crop to a region and overlay a coordinate grid in document pixels."),
				mcp.WithNumber("x1", mcp.Description("Left edge of the region")),
				mcp.WithNumber("y1", mcp.Description("Top edge of the region")),
				mcp.WithNumber("x2", mcp.Description("Right edge of the region")),
				mcp.WithNumber("y2", mcp.Description("Bottom edge of the region")),
				mcp.WithNumber("scale", mcp.Description("Output pixels per document pixel (default 1, max 8)")),
				mcp.WithNumber("grid", mcp.Description("Grid spacing in document pixels; 0 or omitted draws no grid")),
				mcp.WithBoolean("grid_labels", mcp.Description("Label grid intersections with coordinates")),
				mcp.WithString("grid_color", mcp.Description("Grid color as hex (default red)")),
				readOnly,
			),
			Handler: s.call("markup_preview", s.handlePreview),
		},
		{
			Tool: mcp.NewTool("markup_export",
				mcp.WithDescription("Export the marked-up PDF as <name>_MarkUp-<date>.pdf. 'auto' embeds a high-resolution overlay into the original and falls back to a flattened image PDF."),
				mcp.WithString("mode", mcp.Enum(session.ExportAuto, session.ExportHighQuality, session.ExportFlattened), mcp.Description("Export mode (default auto)")),
				mcp.WithString("output_dir", mcp.Description("Directory to write to (default from configuration)")),
			),
			Handler: s.call("markup_export", s.handleExport),
		},
	}
}
