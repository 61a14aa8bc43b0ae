// Package web exposes the capture studio over a localhost JSON API: the
// saved-stream list, output-directory configuration, and snapshot/record
// operations routed through the shared single-slot runner.
package web

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mkarlsen/lenscap/internal/camera"
	"github.com/mkarlsen/lenscap/internal/config"
	"github.com/mkarlsen/lenscap/internal/task"
	"github.com/mkarlsen/lenscap/internal/urlstore"
)

// NewServer creates and configures the HTTP server for the lenscap API.
func NewServer(urls *urlstore.Store, svc *camera.Service, runner *task.Runner, cfg *config.Config, log zerolog.Logger) *http.Server {
	h := &Handlers{
		urls:   urls,
		svc:    svc,
		runner: runner,
		cfg:    cfg,
		log:    log,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/streams", h.HandleList)
	mux.HandleFunc("POST /api/streams/use", h.HandleUse)
	mux.HandleFunc("POST /api/streams/pin", h.HandlePin)
	mux.HandleFunc("POST /api/streams/rename", h.HandleRename)
	mux.HandleFunc("POST /api/streams/delete", h.HandleDelete)
	mux.HandleFunc("POST /api/streams/clear", h.HandleClear)
	mux.HandleFunc("GET /api/output-dir", h.HandleGetOutputDir)
	mux.HandleFunc("PUT /api/output-dir", h.HandleSetOutputDir)
	mux.HandleFunc("POST /api/snapshot", h.HandleSnapshot)
	mux.HandleFunc("POST /api/record", h.HandleRecord)
	mux.HandleFunc("GET /api/preview", h.HandlePreview)

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port),
		Handler: securityHeaders(mux),
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}
