package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/moestate/newsdesk/internal/brief"
	"github.com/moestate/newsdesk/internal/catalog"
	"github.com/moestate/newsdesk/internal/ingest"
	"github.com/moestate/newsdesk/internal/metrics"
	"github.com/moestate/newsdesk/internal/ops"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Deps are the services the web layer serves.
type Deps struct {
	Manager   *ops.Manager
	Generator *brief.Generator
	Catalog   *catalog.Provider
	Ingest    *ingest.Service
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Version   string
}

// NewHandler builds the routed, middleware-wrapped handler.
func NewHandler(deps Deps) (http.Handler, error) {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	renderer, err := NewRenderer(templateSub, deps.Version, logger)
	if err != nil {
		return nil, err
	}

	h := &Handlers{
		manager:   deps.Manager,
		generator: deps.Generator,
		catalog:   deps.Catalog,
		ingest:    deps.Ingest,
		logger:    logger,
		renderer:  renderer,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/digests", http.StatusFound)
	})
	mux.HandleFunc("GET /digests", h.HandleList)
	mux.HandleFunc("GET /digests/{id}", h.HandleDetail)
	mux.HandleFunc("DELETE /digests/{id}", h.HandleDelete)

	mux.HandleFunc("GET /api/digests", h.HandleAPIList)
	mux.HandleFunc("POST /api/digests", h.HandleAPICreate)
	mux.HandleFunc("GET /api/digests/{id}", h.HandleAPIGet)
	mux.HandleFunc("PATCH /api/digests/{id}", h.HandleAPIUpdate)
	mux.HandleFunc("DELETE /api/digests/{id}", h.HandleAPIDelete)
	mux.HandleFunc("POST /api/digests/{id}/append", h.HandleAPIAppend)
	mux.HandleFunc("POST /api/generate", h.HandleGenerate)
	mux.HandleFunc("GET /api/catalog", h.HandleCatalog)
	mux.HandleFunc("POST /api/export", h.HandleExport)
	mux.HandleFunc("GET /api/ingest", h.HandleIngest)

	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	chain := Chain(RequestID, Recovery(logger), SecurityHeaders, AccessLog(logger, deps.Metrics))
	return chain(mux), nil
}

// NewServer creates the HTTP server for the newsdesk UI and API.
func NewServer(deps Deps, bind string, port int) (*http.Server, error) {
	handler, err := NewHandler(deps)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// Run serves until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("newsdesk running", zap.String("url", "http://"+srv.Addr))
	if strings.Contains(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, "[::]") || strings.HasPrefix(srv.Addr, ":") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
