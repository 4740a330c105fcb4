package app

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/markdave123-py/PaperSplit/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/PaperSplit/internal/api/middlewares"
	"github.com/markdave123-py/PaperSplit/internal/config"
	"github.com/markdave123-py/PaperSplit/internal/core/extraction_engine"
	objectclient "github.com/markdave123-py/PaperSplit/internal/core/object-client"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, docs handlers.DocumentUploader, tasks extraction_engine.TaskRunner, objects objectclient.ObjectClient, logger zerolog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: NewRouter(cfg, docs, tasks, objects, logger),
		},
		logger: logger,
	}
}

func NewRouter(cfg *config.Config, docs handlers.DocumentUploader, tasks extraction_engine.TaskRunner, objects objectclient.ObjectClient, logger zerolog.Logger) http.Handler {
	docHandler := handlers.NewDocumentHandler(docs, cfg.MaxUploadBytes, logger)
	taskHandler := handlers.NewTaskHandler(tasks, objects, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appMiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition"},
	}))

	r.Get("/", handlers.Health)
	r.Post("/upload", docHandler.UploadDocument)
	r.Get("/progress/{taskID}", taskHandler.GetProgress)
	r.Get("/download/{taskID}", taskHandler.Download)

	return r
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
