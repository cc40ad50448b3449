// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the sync engine for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/loggbok/internal/render"
	"github.com/starford/loggbok/internal/scheduler"
	"github.com/starford/loggbok/internal/vault"
)

// Server wraps the MCP server with the sync tools.
type Server struct {
	mcp   *server.MCPServer
	sched *scheduler.Scheduler
	notes *vault.DailyNotes
	store vault.Provider
}

// New creates a new MCP server with all tools registered.
func New(sched *scheduler.Scheduler, notes *vault.DailyNotes, store vault.Provider) *Server {
	s := &Server{sched: sched, notes: notes, store: store}

	s.mcp = server.NewMCPServer(
		"loggbok",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("sync_now",
		mcp.WithDescription("Run a sync cycle immediately: fetch completed tasks "+
			"from the Things logbook and merge them into the daily notes."),
	), s.syncNow)

	s.mcp.AddTool(mcp.NewTool("sync_status",
		mcp.WithDescription("Report the last sync time, the next scheduled sync, "+
			"and whether a cycle is currently running."),
	), s.syncStatus)

	s.mcp.AddTool(mcp.NewTool("read_daily_note",
		mcp.WithDescription("Read the full content of the daily note for a date."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Calendar date in YYYY-MM-DD form")),
	), s.readDailyNote)

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

func (s *Server) syncNow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.sched.RunOnce(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.Marshal(map[string]int{
		"days":  result.Days,
		"tasks": result.Tasks,
	})
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) syncStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.sched.Status(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDailyNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dateArg, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := render.ParseDayKey(dateArg, time.Local)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid date %q: use YYYY-MM-DD", dateArg)), nil
	}

	path := s.notes.NotePath(date)
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no daily note for %s", dateArg)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
