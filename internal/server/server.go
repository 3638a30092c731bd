package server

import (
	"context"
	"encoding/json"
	"fmt"
	stdlog "log"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/pdf-markup-mcp/internal/config"
	"github.com/ironsheep/pdf-markup-mcp/internal/pdfdoc"
	"github.com/ironsheep/pdf-markup-mcp/internal/render"
	"github.com/ironsheep/pdf-markup-mcp/internal/session"
)

// Name is the server name reported during the MCP handshake.
const Name = "pdf-markup-mcp"

// Server exposes one markup session over MCP. Tool calls are serialized;
// the session itself is not safe for concurrent use.
type Server struct {
	mu      sync.Mutex
	session *session.Session
	mcp     *mcpserver.MCPServer
	log     *logrus.Entry
}

// New wires the PDF, raster and export collaborators into a session and
// registers the markup tools.
func New(cfg *config.Config, version string, log *logrus.Entry) (*Server, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	raster, err := render.New(log)
	if err != nil {
		return nil, fmt.Errorf("failed to create rasterizer: %w", err)
	}
	decoder := pdfdoc.NewDecoder(log)

	sess := session.New(session.Options{
		Unit:             cfg.Unit,
		ViewportWidth:    cfg.ViewportWidth,
		ViewportHeight:   cfg.ViewportHeight,
		ExportMultiplier: cfg.ExportMultiplier,
		OutputDir:        cfg.OutputDir,
	}, session.Deps{
		Decoder: session.DecoderFunc(func(data []byte) (session.Page, error) {
			p, err := decoder.Decode(data)
			if err != nil {
				return nil, err
			}
			return p, nil
		}),
		Encoder: pdfdoc.NewEncoder(log),
		Raster:  raster,
	}, log)

	return newServer(sess, version, log), nil
}

func newServer(sess *session.Session, version string, log *logrus.Entry) *Server {
	s := &Server{
		session: sess,
		log:     log.WithField("component", "server"),
	}
	s.mcp = mcpserver.NewMCPServer(Name, version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	s.mcp.AddTools(s.tools()...)
	return s
}

// Run serves MCP over stdin/stdout until stdin closes.
func (s *Server) Run() error {
	errLog := stdlog.New(s.log.WriterLevel(logrus.ErrorLevel), "", 0)
	return mcpserver.ServeStdio(s.mcp, mcpserver.WithErrorLogger(errLog))
}

// response is the JSON body of every tool result: the tool's own data plus
// the session state a host needs to keep its view in sync.
type response struct {
	Result    any                  `json:"result,omitempty"`
	Tool      string               `json:"tool"`
	Unit      string               `json:"unit"`
	Scale     *float64             `json:"scale,omitempty"`
	View      session.ViewState    `json:"view"`
	History   session.HistoryState `json:"history"`
	Selection []string             `json:"selection"`
	Editing   string               `json:"editing,omitempty"`
	Notices   []string             `json:"notices,omitempty"`
}

// imageResult is implemented by results that carry a rendered image.
type imageResult interface {
	imageContent() (data, mimeType string)
}

type handlerFunc func(ctx context.Context, req mcp.CallToolRequest) (any, error)

// call adapts h to an MCP handler: it holds the session lock, collects the
// notices raised during the call and wraps the result in a response.
func (s *Server) call(name string, h handlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		log := s.log.WithField("tool", name)
		log.Debug("tool call")

		data, err := h(ctx, req)
		notices := s.session.TakeNotices()
		if err != nil {
			msg := err.Error()
			if session.IsStateError(err) {
				log.WithError(err).Debug("tool called without a document")
				msg += "; open one with markup_load_pdf"
			} else {
				log.WithError(err).Warn("tool failed")
			}
			if len(notices) > 0 {
				msg += "\n" + strings.Join(notices, "\n")
			}
			return mcp.NewToolResultError(msg), nil
		}

		st := s.session.State()
		body, err := json.MarshalIndent(response{
			Result:    data,
			Tool:      st.Tool,
			Unit:      st.Unit,
			Scale:     st.Scale,
			View:      st.View,
			History:   st.History,
			Selection: st.Selection,
			Editing:   st.Editing,
			Notices:   notices,
		}, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}

		res := mcp.NewToolResultText(string(body))
		if img, ok := data.(imageResult); ok {
			b64, mime := img.imageContent()
			res.Content = append(res.Content, mcp.NewImageContent(b64, mime))
		}
		return res, nil
	}
}
