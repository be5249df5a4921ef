package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/chronogrid/internal/catalog"
	"github.com/starford/chronogrid/internal/metadata"
)

type setDateResult struct {
	Pane      string `json:"pane"`
	ID        string `json:"id"`
	Date      string `json:"date"`
	YearMonth string `json:"year_month"`
	Indexed   bool   `json:"indexed"`
}

func (s *Server) setMediaDate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	day, err := time.Parse(metadata.DateLayout, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid date %q: want YYYY-MM-DD", date)), nil
	}
	pane := paneOf(req)
	store, ok := s.libraries[pane]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("pane %s has no writable library", pane)), nil
	}

	existing, err := store.ReadSidecar(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := metadata.WithDate(existing, date)
	if err != nil {
		// An unreadable sidecar is replaced rather than merged.
		s.logger.Warn("mcp: sidecar replaced", slog.String("pane", pane), slog.String("id", id), slog.String("error", err.Error()))
		if data, err = metadata.WithDate(nil, date); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if err := store.WriteSidecar(id, data); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to write sidecar: %v", err)), nil
	}

	indexed, err := catalog.IndexFile(s.db, store, pane, id, s.logger)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to catalog %s: %v", id, err)), nil
	}
	if err := s.svc.Reload(ctx, pane); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, _ := json.Marshal(setDateResult{
		Pane:      pane,
		ID:        id,
		Date:      date,
		YearMonth: day.Format("2006-01"),
		Indexed:   indexed,
	})
	return mcp.NewToolResultText(string(out)), nil
}
