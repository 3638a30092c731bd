// Package server exposes a markup session as MCP tools.
//
// The server speaks MCP over stdio through mcp-go. Stdout carries the
// protocol, so all logging goes to stderr.
//
// # Tools
//
// Document:
//   - markup_load_pdf: Open a PDF and fit page 1 to the viewport
//   - markup_close: Discard the document and its annotations
//   - markup_state: Surface, tool, scale, view, history and selection
//
// Input:
//   - markup_select_tool: Activate a tool (select, pan_zoom, freehand, line, ...)
//   - markup_pointer: Pointer down/move/up/click in document pixels
//   - markup_wheel: Wheel notch at a screen position
//   - markup_escape: Cancel the gesture in progress
//
// History:
//   - markup_undo, markup_redo, markup_clear
//
// Editing:
//   - markup_select, markup_select_all
//   - markup_group, markup_ungroup
//   - markup_layer: forward, backward, front, back
//   - markup_edit_text
//   - markup_list_objects
//
// Output:
//   - markup_preview: Composited PNG, optionally cropped and gridded
//   - markup_export: Write <name>_MarkUp-<date>.pdf
//
// # Results
//
// Every successful call returns one JSON text block:
//
//	{
//	  "result": { ... },
//	  "tool": "line",
//	  "unit": "mm",
//	  "scale": 0.5,
//	  "view": {"offset": {"x": 0, "y": 0}, "zoom": 1, "css": "..."},
//	  "history": {"entries": 3, "cursor": 2, "can_undo": true, "can_redo": false},
//	  "selection": [],
//	  "notices": ["Scale set: 1 pixel = 0.5000 mm"]
//	}
//
// Notices are the messages a user would have seen as alerts during the call.
// markup_preview adds an image content block with the PNG. Failures are
// reported as tool errors with the notices appended.
//
// # Concurrency
//
// Calls are serialized with a mutex; there is one session per process.
package server
