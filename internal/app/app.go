package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/PaperSplit/internal/config"
	"github.com/markdave123-py/PaperSplit/internal/core/aggregator"
	"github.com/markdave123-py/PaperSplit/internal/core/classifier"
	db "github.com/markdave123-py/PaperSplit/internal/core/database"
	"github.com/markdave123-py/PaperSplit/internal/core/extraction_engine"
	objectclient "github.com/markdave123-py/PaperSplit/internal/core/object-client"
	"github.com/markdave123-py/PaperSplit/internal/core/ocr"
	"github.com/markdave123-py/PaperSplit/internal/core/render"
	"github.com/markdave123-py/PaperSplit/internal/core/segmenter"
	"github.com/markdave123-py/PaperSplit/internal/logging"
	"github.com/markdave123-py/PaperSplit/internal/services"
)

const shutdownGrace = 15 * time.Second

type App struct {
	ObjectClient objectclient.ObjectClient
	Tasks        *extraction_engine.TaskManager
	Server       *Server
	logger       zerolog.Logger
}

// NewApp wires storage, the pipeline, the task manager and the HTTP server.
func NewApp(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	objClient, err := objectclient.NewLocalClient(cfg.DataDir, logging.Component(logger, "storage"))
	if err != nil {
		return nil, err
	}

	pipeline, _, err := BuildPipeline(cfg, objClient, logger)
	if err != nil {
		return nil, err
	}

	tasks := extraction_engine.NewTaskManager(
		db.NewMemoryJobStore(),
		pipeline,
		extraction_engine.ExtractConfig{
			Workers:      cfg.Workers,
			QueueSize:    cfg.QueueSize,
			PageTimeout:  cfg.PageTimeout,
			JobTTL:       cfg.JobTTL,
			JanitorEvery: cfg.JanitorEvery,
		},
		logging.Component(logger, "tasks"),
	)

	docs := services.NewDocumentService(objClient, tasks, logging.Component(logger, "uploads"))
	server := NewServer(cfg, docs, tasks, objClient, logging.Component(logger, "http"))

	return &App{ObjectClient: objClient, Tasks: tasks, Server: server, logger: logger}, nil
}

// BuildPipeline assembles the document pipeline from configuration. The CLI
// uses it directly for one-off extraction.
func BuildPipeline(cfg *config.Config, objClient objectclient.ObjectClient, logger zerolog.Logger) (*extraction_engine.Pipeline, *aggregator.XLSXWriter, error) {
	seg, err := segmenter.New(cfg.Heuristics)
	if err != nil {
		return nil, nil, fmt.Errorf("segmenter: %w", err)
	}
	cls, err := classifier.New(cfg.Heuristics)
	if err != nil {
		return nil, nil, fmt.Errorf("classifier: %w", err)
	}

	renderer := render.NewFitzRenderer(objClient, cfg.RenderDPI, logging.Component(logger, "render"))
	fuser := ocr.NewFuser(
		ocr.NewTesseractRecognizer(int(cfg.RenderDPI)),
		cfg.OCRPrimary,
		cfg.OCRFallback,
		cfg.PageTimeout,
		logging.Component(logger, "ocr"),
	)
	writer := aggregator.NewXLSXWriter(objClient, logging.Component(logger, "aggregator"))

	pipeline := extraction_engine.NewPipeline(renderer, fuser, seg, cls, writer, cfg.PageTimeout, logging.Component(logger, "pipeline"))
	return pipeline, writer, nil
}

// Run serves HTTP and processes jobs until ctx is cancelled, then drains the
// server within a grace period.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Tasks.Run(gctx)
	})

	g.Go(func() error {
		if err := a.Server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.logger.Info().Msg("papersplit stopped")
	return err
}
