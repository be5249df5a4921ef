// Package mcpserver provides an MCP (Model Context Protocol) server that
// lets LLM clients navigate the gallery timeline via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/chronogrid/internal/apperr"
	"github.com/starford/chronogrid/internal/catalog"
	"github.com/starford/chronogrid/internal/gallery"
	"github.com/starford/chronogrid/internal/storage"
)

const (
	sidecarFormatURI = "chronogrid://sidecar-format"
	calendarURI      = "chronogrid://calendar/"
	defaultFindLimit = 20
)

// Server wraps the MCP server with chronogrid tools.
type Server struct {
	mcp       *server.MCPServer
	svc       *gallery.Service
	db        catalog.Store
	libraries map[string]storage.Provider
	logger    *slog.Logger
}

// New creates a new MCP server with all tools and resources registered.
// libraries maps pane names to their media roots and may omit panes that
// are not writable.
func New(svc *gallery.Service, db catalog.Store, libraries map[string]storage.Provider, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: svc, db: db, libraries: libraries, logger: logger}

	s.mcp = server.NewMCPServer(
		"Chronogrid",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	paneArg := mcp.WithString("pane",
		mcp.Description("Gallery pane: source or destination (default source)"),
		mcp.Enum(gallery.Panes()...),
	)

	s.mcp.AddTool(mcp.NewTool("list_months",
		mcp.WithDescription("List the years and months that contain dated media, most recent year first."),
		paneArg,
	), s.listMonths)

	s.mcp.AddTool(mcp.NewTool("current_month",
		mcp.WithDescription("Return the month the calendar indicator currently shows."),
		paneArg,
	), s.currentMonth)

	s.mcp.AddTool(mcp.NewTool("jump_to_month",
		mcp.WithDescription("Scroll the gallery to the first row of a month. Fails if the month has no media."),
		paneArg,
		mcp.WithNumber("year", mcp.Required(), mcp.Description("Four-digit year")),
		mcp.WithNumber("month", mcp.Required(), mcp.Description("Month number, 1-12")),
	), s.jumpToMonth)

	s.mcp.AddTool(mcp.NewTool("previous_month",
		mcp.WithDescription("Move to the chronologically preceding month that has media."),
		paneArg,
	), s.previousMonth)

	s.mcp.AddTool(mcp.NewTool("next_month",
		mcp.WithDescription("Move to the chronologically following month that has media."),
		paneArg,
	), s.nextMonth)

	s.mcp.AddTool(mcp.NewTool("date_for_media",
		mcp.WithDescription("Return the recorded date of a media file."),
		paneArg,
		mcp.WithString("id", mcp.Required(), mcp.Description("Media path relative to the pane root (e.g. trip/img_001.jpg)")),
	), s.dateForMedia)

	s.mcp.AddTool(mcp.NewTool("find_media",
		mcp.WithDescription("Search media by path segment, sidecar title or sidecar tag."),
		paneArg,
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.findMedia)

	s.mcp.AddTool(mcp.NewTool("set_media_date",
		mcp.WithDescription("Record the date of a media file in its sidecar. "+
			"The media file itself is never modified. Read the sidecar format first via "+
			"the get_sidecar_format tool or the "+sidecarFormatURI+" resource."),
		paneArg,
		mcp.WithString("id", mcp.Required(), mcp.Description("Media path relative to the pane root")),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date in YYYY-MM-DD form")),
	), s.setMediaDate)

	s.mcp.AddTool(mcp.NewTool("get_sidecar_format",
		mcp.WithDescription("Returns the sidecar metadata format that dates media files."),
	), s.getSidecarFormat)

	s.mcp.AddResource(
		mcp.NewResource(sidecarFormatURI, "Sidecar Format",
			mcp.WithResourceDescription("YAML sidecar format used to date media files."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSidecarFormatResource,
	)

	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(calendarURI+"{pane}", "Pane Calendar",
			mcp.WithTemplateDescription("Years and months of a gallery pane with the current selection."),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.readCalendarResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func paneOf(req mcp.CallToolRequest) string {
	return req.GetString("pane", gallery.PaneSource)
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// toolError turns a service error into tool result text the model can act on.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrUnknownPane):
		return mcp.NewToolResultError(fmt.Sprintf("unknown pane (use %s)", strings.Join(gallery.Panes(), " or ")))
	case errors.Is(err, apperr.ErrOutOfRange):
		return mcp.NewToolResultError("no further month in that direction")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func (s *Server) listMonths(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cal, err := s.svc.Calendar(paneOf(req))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(cal), nil
}

func (s *Server) currentMonth(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pos, err := s.svc.Position(paneOf(req))
	if err != nil {
		return toolError(err), nil
	}
	if pos.YearMonth == "" {
		return mcp.NewToolResultText("no dated media"), nil
	}
	return jsonResult(pos), nil
}

func (s *Server) jumpToMonth(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	year, err := req.RequireInt("year")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	month, err := req.RequireInt("month")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mv, err := s.svc.Jump(paneOf(req), year, month)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no media in %04d-%02d", year, month)), nil
	}
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(mv), nil
}

func (s *Server) previousMonth(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mv, err := s.svc.Previous(paneOf(req))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(mv), nil
}

func (s *Server) nextMonth(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mv, err := s.svc.Next(paneOf(req))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(mv), nil
}

func (s *Server) dateForMedia(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := s.svc.DateFor(paneOf(req), id)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no date recorded for %s", id)), nil
	}
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(date), nil
}

func (s *Server) findMedia(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.Search(paneOf(req), query, req.GetInt("limit", defaultFindLimit))
	if err != nil {
		return toolError(err), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("no media found"), nil
	}
	return jsonResult(hits), nil
}

func (s *Server) getSidecarFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SidecarFormat), nil
}

func (s *Server) readSidecarFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      sidecarFormatURI,
			MIMEType: "text/markdown",
			Text:     SidecarFormat,
		},
	}, nil
}

func (s *Server) readCalendarResource(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	pane, _ := req.Params.Arguments["pane"].(string)
	if pane == "" {
		pane = strings.TrimPrefix(req.Params.URI, calendarURI)
	}
	cal, err := s.svc.Calendar(pane)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(cal)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
