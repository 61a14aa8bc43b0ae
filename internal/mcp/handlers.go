package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mkarlsen/lenscap/internal/camera"
	"github.com/mkarlsen/lenscap/internal/config"
	"github.com/mkarlsen/lenscap/internal/errors"
	"github.com/mkarlsen/lenscap/internal/task"
	"github.com/mkarlsen/lenscap/internal/urlstore"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	urls   *urlstore.Store
	svc    *camera.Service
	runner *task.Runner
	cfg    *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(urls *urlstore.Store, svc *camera.Service, runner *task.Runner, cfg *config.Config) *Handlers {
	return &Handlers{urls: urls, svc: svc, runner: runner, cfg: cfg}
}

// Request types for each tool

// UseRequest represents the arguments for stream_use.
type UseRequest struct {
	URL         string `json:"url"`
	TimestampMs int64  `json:"timestamp_ms,omitempty"`
}

// PinRequest represents the arguments for stream_pin.
type PinRequest struct {
	URL    string `json:"url"`
	Pinned *bool  `json:"pinned,omitempty"`
}

// RenameRequest represents the arguments for stream_rename.
type RenameRequest struct {
	URL   string `json:"url"`
	Label string `json:"label,omitempty"`
}

// DeleteRequest represents the arguments for stream_delete.
type DeleteRequest struct {
	URL string `json:"url"`
}

// SnapshotRequest represents the arguments for stream_snapshot.
type SnapshotRequest struct {
	URL string `json:"url"`
}

// RecordRequest represents the arguments for stream_record.
type RecordRequest struct {
	URL     string `json:"url"`
	Seconds int    `json:"seconds,omitempty"`
}

// OutputDirRequest represents the arguments for output_dir_set.
type OutputDirRequest struct {
	Path string `json:"path"`
}

// streamItem is a saved entry plus its credential-masked display form.
type streamItem struct {
	urlstore.SavedEntry
	Display string `json:"display"`
}

// listPayload is the response body for tools returning the saved list.
type listPayload struct {
	Items   []streamItem `json:"items"`
	Blocked bool         `json:"blocked,omitempty"`
}

// Handler implementations

// HandleList handles the stream_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(toListPayload(h.urls.Load(), false))
}

// HandleUse handles the stream_use tool call.
func (h *Handlers) HandleUse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UseRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	ts := input.TimestampMs
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	entries, blocked := h.urls.MarkUsed(input.URL, ts)
	return successResult(toListPayload(entries, blocked))
}

// HandlePin handles the stream_pin tool call.
func (h *Handlers) HandlePin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PinRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	pinned := true
	if input.Pinned != nil {
		pinned = *input.Pinned
	}
	return successResult(toListPayload(h.urls.SetPinned(input.URL, pinned), false))
}

// HandleRename handles the stream_rename tool call.
func (h *Handlers) HandleRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RenameRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return successResult(toListPayload(h.urls.Rename(input.URL, input.Label), false))
}

// HandleDelete handles the stream_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return successResult(toListPayload(h.urls.Delete(input.URL), false))
}

// HandleClear handles the stream_clear tool call.
func (h *Handlers) HandleClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.urls.ClearAll(); err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}
	return successResult(toListPayload(nil, false))
}

// HandleSnapshot handles the stream_snapshot tool call.
func (h *Handlers) HandleSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SnapshotRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return h.capture(input.URL, func(outputDir string) (any, error) {
		return h.svc.Snapshot(input.URL, outputDir)
	})
}

// HandleRecord handles the stream_record tool call.
func (h *Handlers) HandleRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RecordRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	seconds := input.Seconds
	if seconds == 0 {
		seconds = h.cfg.ClipSeconds
	}
	return h.capture(input.URL, func(outputDir string) (any, error) {
		return h.svc.Record(input.URL, outputDir, seconds, h.cfg.RecordFPS, h.cfg.FrameWidth, h.cfg.FrameHeight)
	})
}

// HandleGetOutputDir handles the output_dir_get tool call.
func (h *Handlers) HandleGetOutputDir(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := h.urls.OutputDir()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]string{"path": dir})
}

// HandleSetOutputDir handles the output_dir_set tool call.
func (h *Handlers) HandleSetOutputDir(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[OutputDirRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	dir, err := h.urls.SetOutputDir(input.Path)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]string{"path": dir})
}

// capture records usage, resolves the output directory, and runs op through
// the single-slot runner. A busy slot is its own distinct error, never a
// silent drop.
func (h *Handlers) capture(url string, op func(outputDir string) (any, error)) (*mcp.CallToolResult, error) {
	if strings.TrimSpace(url) == "" {
		return errorResult(errors.NewConfiguration("stream URL is required")), nil
	}

	h.urls.MarkUsed(url, time.Now().UnixMilli())

	outputDir, err := h.urls.OutputDir()
	if err != nil {
		return errorResult(err), nil
	}

	outcome, accepted := h.runner.StartWait(func() (any, error) {
		return op(outputDir)
	})
	if !accepted {
		return errorResult(errors.NewBusy()), nil
	}
	if outcome.Failed {
		return errorResult(errors.NewCaptureFailed(outcome.Failure)), nil
	}
	return successResult(map[string]any{"path": outcome.Result})
}

func toListPayload(entries []urlstore.SavedEntry, blocked bool) listPayload {
	items := make([]streamItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, streamItem{
			SavedEntry: entry,
			Display:    urlstore.MaskCredentials(entry.URL),
		})
	}
	return listPayload{Items: items, Blocked: blocked}
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if capErr, ok := err.(*errors.CapError); ok && capErr.Code != errors.ErrInternal {
		errorObj := map[string]any{
			"code":    capErr.Code,
			"message": capErr.Message,
			"status":  capErr.Status,
		}
		if capErr.Details != nil {
			errorObj["details"] = capErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
