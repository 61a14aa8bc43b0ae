// Package mcp exposes the capture studio as MCP tools over stdio, so agent
// clients can browse saved streams and trigger captures.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/mkarlsen/lenscap/internal/camera"
	"github.com/mkarlsen/lenscap/internal/config"
	"github.com/mkarlsen/lenscap/internal/task"
	"github.com/mkarlsen/lenscap/internal/urlstore"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"stream_list": {
		def: mcp.NewTool("stream_list",
			mcp.WithDescription("List saved stream URLs, most recently used first. Credentials are masked in the display field."),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"stream_use": {
		def: mcp.NewTool("stream_use",
			mcp.WithDescription("Record usage of a stream URL, saving it to the list. Reports blocked=true when the list is full of pinned entries and the URL was not saved."),
			mcp.WithString("url", mcp.Required(), mcp.Description("Stream URL")),
			mcp.WithNumber("timestamp_ms", mcp.Description("Usage timestamp in epoch milliseconds (defaults to now)")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUse },
	},
	"stream_pin": {
		def: mcp.NewTool("stream_pin",
			mcp.WithDescription("Pin or unpin a saved stream. Pinned entries are exempt from eviction."),
			mcp.WithString("url", mcp.Required(), mcp.Description("Stream URL")),
			mcp.WithBoolean("pinned", mcp.Description("Pin state (defaults to true)")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePin },
	},
	"stream_rename": {
		def: mcp.NewTool("stream_rename",
			mcp.WithDescription("Set the display label on a saved stream."),
			mcp.WithString("url", mcp.Required(), mcp.Description("Stream URL")),
			mcp.WithString("label", mcp.Description("New label (empty clears it)")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRename },
	},
	"stream_delete": {
		def: mcp.NewTool("stream_delete",
			mcp.WithDescription("Delete a saved stream."),
			mcp.WithString("url", mcp.Required(), mcp.Description("Stream URL")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"stream_clear": {
		def: mcp.NewTool("stream_clear",
			mcp.WithDescription("Delete every saved stream."),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClear },
	},
	"stream_snapshot": {
		def: mcp.NewTool("stream_snapshot",
			mcp.WithDescription("Grab one frame from a stream and write it as a PNG into the output directory. Rejected with BUSY while another capture is running."),
			mcp.WithString("url", mcp.Required(), mcp.Description("Stream URL")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSnapshot },
	},
	"stream_record": {
		def: mcp.NewTool("stream_record",
			mcp.WithDescription("Record a bounded clip from a stream into the output directory. Rejected with BUSY while another capture is running."),
			mcp.WithString("url", mcp.Required(), mcp.Description("Stream URL")),
			mcp.WithNumber("seconds", mcp.Description("Clip duration in seconds (defaults to the configured duration)")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRecord },
	},
	"output_dir_get": {
		def: mcp.NewTool("output_dir_get",
			mcp.WithDescription("Resolve the capture output directory."),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetOutputDir },
	},
	"output_dir_set": {
		def: mcp.NewTool("output_dir_set",
			mcp.WithDescription("Set the capture output directory, creating it if needed."),
			mcp.WithString("path", mcp.Required(), mcp.Description("Directory path; a leading ~ expands to the home directory")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSetOutputDir },
	},
}

// AllToolNames returns a list of all registered tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates a new MCP server with lenscap tools registered.
func NewServer(urls *urlstore.Store, svc *camera.Service, runner *task.Runner, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"lenscap",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(urls, svc, runner, cfg)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(urls *urlstore.Store, svc *camera.Service, runner *task.Runner, cfg *config.Config, log zerolog.Logger, version string) error {
	log.Info().Str("version", version).Msg("starting MCP server on stdio")
	s := NewServer(urls, svc, runner, cfg, version)
	return server.ServeStdio(s)
}
