package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweetshop-dev/sweetshop/internal/config"
	"github.com/sweetshop-dev/sweetshop/pkg/upload"
)

// Server is the storefront HTTP server.
type Server struct {
	cfg      *config.Config
	sessions *sessionManager
	hub      *hub
	images   upload.Store
	logger   *slog.Logger

	httpServer *http.Server
}

// New creates a storefront server from the configuration.
func New(cfg *config.Config) (*Server, error) {
	logger := slog.Default().With("component", "web")

	images, err := newImageStore(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		sessions: newSessionManager(cfg.APIBaseURL, cfg.SessionTTLDuration(), logger),
		hub:      newHub(logger),
		images:   images,
		logger:   logger,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// newImageStore builds the configured image backend. The S3 client is
// only constructed when the s3 backend is selected, so the disk path
// needs no AWS environment.
func newImageStore(cfg *config.Config) (upload.Store, error) {
	switch cfg.Upload.Backend {
	case "", "disk":
		return upload.NewDiskStore(cfg.Upload.Dir, "/images", cfg.Upload.MaxImageSize)
	case "s3":
		client, err := buildS3Client(context.Background())
		if err != nil {
			return nil, fmt.Errorf("web: s3 image store: %w", err)
		}
		return upload.NewS3Store(client, cfg.Upload.S3Bucket, cfg.Upload.S3Prefix,
			cfg.Upload.S3BaseURL, cfg.Upload.MaxImageSize), nil
	default:
		return nil, fmt.Errorf("web: unknown upload backend %q", cfg.Upload.Backend)
	}
}

// Router assembles the storefront routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.instrument)

	// Storefront pages.
	r.Get("/", s.handleIndex)
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Get("/register", s.handleRegisterPage)
	r.Post("/register", s.handleRegister)
	r.Post("/logout", s.handleLogout)
	r.Post("/sweets/{id}/purchase", s.handlePurchase)

	// Live search.
	r.Get("/ws/search", s.handleSearchWS)

	// Admin console. The gate here is a convenience; the backend
	// enforces the real authorization on every mutating call.
	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/", s.handleAdminPage)
		r.Post("/sweets", s.handleCreate)
		r.Post("/sweets/{id}", s.handleUpdate)
		r.Post("/sweets/{id}/delete", s.handleDelete)
		r.Post("/sweets/{id}/restock", s.handleRestock)
		r.Method(http.MethodPost, "/upload", upload.Handler(s.images, s.cfg.Upload.MaxImageSize))
	})

	// Static assets and locally stored images.
	r.Get("/static/*", s.handleStatic)
	if disk, ok := s.images.(*upload.DiskStore); ok {
		fs := http.StripPrefix("/images/", http.FileServer(http.Dir(disk.Dir())))
		r.Get("/images/*", fs.ServeHTTP)
	}

	if s.cfg.Metrics.Enabled {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	return r
}

// Start serves until the context is cancelled, then drains connections.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("storefront listening", "addr", s.cfg.Listen, "backend", s.cfg.APIBaseURL)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.hub.close()
	s.sessions.Close()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	s.logger.Info("storefront stopped")
	return nil
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
