package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bizcard/internal/classifier"
	"bizcard/internal/config"
	"bizcard/internal/contact"
	"bizcard/internal/logging"
	"bizcard/internal/scan"
	"bizcard/internal/share"
)

// Cards is the card management surface served under /api/v1/cards.
type Cards interface {
	Save(ctx context.Context, record contact.Record) (contact.Record, error)
	Update(ctx context.Context, selector, value, target, newValue string) (int64, error)
	Delete(ctx context.Context, selector, value string) (int64, error)
	List(ctx context.Context) ([]contact.Record, error)
	Get(ctx context.Context, id int64) (contact.Record, error)
}

// Scanner runs the image pipeline for POST /api/v1/scan.
type Scanner interface {
	Scan(ctx context.Context, req scan.Request) (scan.Result, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators the API serves.
type Deps struct {
	Cards      Cards
	Scanner    Scanner
	Classifier *classifier.Classifier
	Health     map[string]HealthCheck
	// Share enables share links when non-nil.
	Share *share.Signer
}

// Server is the HTTP API server.
type Server struct {
	bind      string
	token     string
	maxUpload int64
	publicURL string
	deps      Deps
	schemas   *schemas
	logger    *slog.Logger

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

// New builds the server and its router. It does not listen until Start.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("httpapi: config is nil")
	}
	if deps.Classifier == nil {
		deps.Classifier = classifier.FromConfig(cfg.Classifier)
	}
	compiled, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	s := &Server{
		bind:      strings.TrimSpace(cfg.API.Bind),
		token:     cfg.API.Token,
		maxUpload: cfg.API.MaxUploadBytes,
		publicURL: cfg.API.PublicURL,
		deps:      deps,
		schemas:   compiled,
		logger:    logging.NewComponentLogger(logger, "api-server"),
	}
	s.handler = s.routes()
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/share/{id}/vcard", s.handleSharedVCard)
	r.Get("/share/{id}/vcard.png", s.handleSharedQR)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware(s.token))
		r.Post("/classify", s.handleClassify)
		r.Post("/scan", s.handleScan)
		r.Route("/cards", func(r chi.Router) {
			r.Get("/", s.handleListCards)
			r.Post("/", s.handleSaveCard)
			r.Patch("/", s.handleUpdateCards)
			r.Delete("/", s.handleDeleteCards)
			r.Get("/{id}", s.handleGetCard)
			r.Get("/{id}/image", s.handleCardImage)
			r.Get("/{id}/vcard.png", s.handleCardQR)
			r.Post("/{id}/share", s.handleShareCard)
		})
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured bind address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
}
