package web

import (
	"encoding/json"
	"image/png"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkarlsen/lenscap/internal/camera"
	"github.com/mkarlsen/lenscap/internal/config"
	"github.com/mkarlsen/lenscap/internal/errors"
	"github.com/mkarlsen/lenscap/internal/task"
	"github.com/mkarlsen/lenscap/internal/urlstore"
)

// Handlers contains HTTP route handlers for the JSON API.
type Handlers struct {
	urls   *urlstore.Store
	svc    *camera.Service
	runner *task.Runner
	cfg    *config.Config
	log    zerolog.Logger
}

// StreamItem is a saved entry plus a credential-masked display form.
type StreamItem struct {
	urlstore.SavedEntry
	Display string `json:"display"`
}

// StreamListResponse is the body for endpoints returning the saved list.
type StreamListResponse struct {
	Items   []StreamItem `json:"items"`
	Blocked bool         `json:"blocked,omitempty"`
}

type urlRequest struct {
	URL         string `json:"url"`
	Label       string `json:"label,omitempty"`
	Pinned      *bool  `json:"pinned,omitempty"`
	TimestampMs int64  `json:"timestamp_ms,omitempty"`
	Seconds     int    `json:"seconds,omitempty"`
	Path        string `json:"path,omitempty"`
}

// HandleList handles GET /api/streams.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toListResponse(h.urls.Load(), false))
}

// HandleUse handles POST /api/streams/use — records usage of a URL, which
// may evict an older unpinned entry or refuse the insert entirely.
func (h *Handlers) HandleUse(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ts := req.TimestampMs
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	entries, blocked := h.urls.MarkUsed(req.URL, ts)
	writeJSON(w, http.StatusOK, toListResponse(entries, blocked))
}

// HandlePin handles POST /api/streams/pin.
func (h *Handlers) HandlePin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	pinned := true
	if req.Pinned != nil {
		pinned = *req.Pinned
	}
	writeJSON(w, http.StatusOK, toListResponse(h.urls.SetPinned(req.URL, pinned), false))
}

// HandleRename handles POST /api/streams/rename.
func (h *Handlers) HandleRename(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListResponse(h.urls.Rename(req.URL, req.Label), false))
}

// HandleDelete handles POST /api/streams/delete.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListResponse(h.urls.Delete(req.URL), false))
}

// HandleClear handles POST /api/streams/clear.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.urls.ClearAll(); err != nil {
		writeError(w, errors.NewInternal(err))
		return
	}
	writeJSON(w, http.StatusOK, toListResponse(nil, false))
}

// HandleGetOutputDir handles GET /api/output-dir.
func (h *Handlers) HandleGetOutputDir(w http.ResponseWriter, r *http.Request) {
	dir, err := h.urls.OutputDir()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": dir})
}

// HandleSetOutputDir handles PUT /api/output-dir.
func (h *Handlers) HandleSetOutputDir(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	dir, err := h.urls.SetOutputDir(req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": dir})
}

// HandleSnapshot handles POST /api/snapshot — grabs one frame and writes a
// still image. Usage is recorded before the capture starts so the saved list
// reflects the attempt regardless of the outcome.
func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	h.capture(w, req.URL, func(outputDir string) (any, error) {
		return h.svc.Snapshot(req.URL, outputDir)
	})
}

// HandleRecord handles POST /api/record — captures a bounded clip.
func (h *Handlers) HandleRecord(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	seconds := req.Seconds
	if seconds == 0 {
		seconds = h.cfg.ClipSeconds
	}
	h.capture(w, req.URL, func(outputDir string) (any, error) {
		return h.svc.Record(req.URL, outputDir, seconds, h.cfg.RecordFPS, h.cfg.FrameWidth, h.cfg.FrameHeight)
	})
}

// HandlePreview handles GET /api/preview?url= — returns one decoded frame
// re-encoded as PNG.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if strings.TrimSpace(url) == "" {
		writeError(w, errors.NewConfiguration("stream URL is required"))
		return
	}

	outcome, accepted := h.runner.StartWait(func() (any, error) {
		return h.svc.PreviewFrame(url)
	})
	if !accepted {
		writeError(w, errors.NewBusy())
		return
	}
	if outcome.Failed {
		writeError(w, errors.NewCaptureFailed(outcome.Failure))
		return
	}

	frame := outcome.Result.(camera.Frame)
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, frame.ToImage()); err != nil {
		h.log.Warn().Msg("failed to encode preview frame: " + err.Error())
	}
}

// capture records usage, resolves the output directory, and runs op through
// the single-slot runner, mapping a busy slot to a distinct 409.
// Configuration problems surface here, before any task starts.
func (h *Handlers) capture(w http.ResponseWriter, url string, op func(outputDir string) (any, error)) {
	if strings.TrimSpace(url) == "" {
		writeError(w, errors.NewConfiguration("stream URL is required"))
		return
	}

	h.urls.MarkUsed(url, time.Now().UnixMilli())

	outputDir, err := h.urls.OutputDir()
	if err != nil {
		writeError(w, err)
		return
	}

	outcome, accepted := h.runner.StartWait(func() (any, error) {
		return op(outputDir)
	})
	if !accepted {
		writeError(w, errors.NewBusy())
		return
	}
	if outcome.Failed {
		writeError(w, errors.NewCaptureFailed(outcome.Failure))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": outcome.Result})
}

func toListResponse(entries []urlstore.SavedEntry, blocked bool) StreamListResponse {
	items := make([]StreamItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, StreamItem{
			SavedEntry: entry,
			Display:    urlstore.MaskCredentials(entry.URL),
		})
	}
	return StreamListResponse{Items: items, Blocked: blocked}
}

func decodeBody(r *http.Request) (urlRequest, error) {
	var req urlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, errors.NewInvalidRequest("request body must be a JSON object")
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	capErr, ok := err.(*errors.CapError)
	if !ok {
		capErr = errors.NewInternal(err)
	}
	writeJSON(w, capErr.Status, map[string]any{
		"error": map[string]any{
			"code":    capErr.Code,
			"message": capErr.Message,
		},
	})
}
