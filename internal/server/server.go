package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"lan-drop/internal/drop"
	"lan-drop/internal/storage"
)

// BuildInfo identifies the running binary in health responses and logs.
type BuildInfo struct {
	Version string
	Commit  string
}

type Config struct {
	Addr  string // e.g. ":8080"
	Build BuildInfo

	Registry *drop.Registry
	Store    storage.Store

	// MaxUploadBytes caps a single upload request body. Zero means no
	// limit.
	MaxUploadBytes int64
}

// Handler builds the full route table with middleware applied. Exposed
// separately from New so tests can drive the mux directly.
func Handler(cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", cfg.healthHandler())
	mux.Handle("GET /metrics", cfg.metricsHandler())

	// Sender creates a session; either verb works so a QR link can
	// open it in a browser.
	mux.Handle("GET /api/session/new", cfg.newSessionHandler())
	mux.Handle("POST /api/session/new", cfg.newSessionHandler())
	mux.Handle("DELETE /api/session/{code}", cfg.endSessionHandler())

	mux.Handle("POST /api/upload/{code}", cfg.uploadHandler())
	mux.Handle("GET /api/files/{code}", cfg.listFilesHandler())
	mux.Handle("GET /download/{code}/{file}", cfg.downloadHandler())

	mux.Handle("GET /api/qr.png", cfg.qrHandler())

	// Wrap middleware: requestID -> logging -> mux
	var handler http.Handler = mux
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

type Server struct {
	httpServer *http.Server
}

func New(cfg Config) *Server {
	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           Handler(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return &Server{httpServer: s}
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
