package extraction_engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/PaperSplit/internal/core"
	"github.com/markdave123-py/PaperSplit/internal/core/aggregator"
	"github.com/markdave123-py/PaperSplit/internal/models"
)

// TaskManager owns the job registry, the admission queue and the worker pool.
// Submit and Status never wait on document processing.
type TaskManager struct {
	store     core.JobStore
	processor DocumentProcessor
	cfg       ExtractConfig
	queue     chan task
	logger    zerolog.Logger
	now       func() time.Time
}

// NewTaskManager constructs the manager with a bounded queue of cfg.QueueSize.
// Workers only start once Run is called.
func NewTaskManager(store core.JobStore, processor DocumentProcessor, cfg ExtractConfig, logger zerolog.Logger) *TaskManager {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	return &TaskManager{
		store:     store,
		processor: processor,
		cfg:       cfg,
		queue:     make(chan task, cfg.QueueSize),
		logger:    logger,
		now:       time.Now,
	}
}

// Submit registers a queued job for doc and returns its handle. When the
// queue is full no job is kept and the error matches core.ErrOverloaded.
func (m *TaskManager) Submit(ctx context.Context, doc models.Document) (string, error) {
	id := uuid.NewString()
	job := models.NewJob(id, doc.FileName, m.now())
	if err := m.store.Create(ctx, job); err != nil {
		return "", fmt.Errorf("register job: %w", err)
	}

	select {
	case m.queue <- task{jobID: id, doc: doc}:
	default:
		if err := m.store.Delete(ctx, id); err != nil {
			m.logger.Warn().Err(err).Str("job", id).Msg("drop rejected job")
		}
		return "", core.NewError(core.KindOverloaded, "too many documents in progress, retry later", nil)
	}

	m.logger.Info().Str("job", id).Str("file", doc.FileName).Int("queued", len(m.queue)).Msg("job submitted")
	return id, nil
}

func (m *TaskManager) Status(ctx context.Context, jobID string) (models.Job, error) {
	return m.store.Get(ctx, jobID)
}

// Result returns the artifact of a finished job. Jobs that are not done,
// including failed ones, are not ready.
func (m *TaskManager) Result(ctx context.Context, jobID string) (Artifact, error) {
	job, err := m.store.Get(ctx, jobID)
	if err != nil {
		return Artifact{}, err
	}
	if job.Status != models.JobDone {
		return Artifact{}, core.NewError(core.KindNotReady, fmt.Sprintf("task %s is %s", jobID, job.Status), nil)
	}
	return Artifact{
		Path:        job.ResultPath,
		FileName:    aggregator.ResultName(jobID),
		ContentType: aggregator.ContentType,
	}, nil
}

// Run starts the workers and the janitor and blocks until ctx is cancelled.
// A worker finishes its current document before it stops.
func (m *TaskManager) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for w := 1; w <= m.cfg.Workers; w++ {
		g.Go(func() error {
			m.work(gctx, w)
			return nil
		})
	}

	if m.cfg.JanitorEvery > 0 && m.cfg.JobTTL > 0 {
		g.Go(func() error {
			m.janitor(gctx)
			return nil
		})
	}

	m.logger.Info().Int("workers", m.cfg.Workers).Int("queue_size", m.cfg.QueueSize).Msg("task manager started")
	err := g.Wait()
	m.logger.Info().Msg("task manager stopped")
	return err
}

func (m *TaskManager) work(ctx context.Context, w int) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-m.queue:
			m.process(ctx, w, t)
		}
	}
}

// process runs one job to a terminal state. Panics are turned into job errors
// so a bad document cannot take a worker down.
func (m *TaskManager) process(ctx context.Context, w int, t task) {
	log := m.logger.With().Str("job", t.jobID).Int("worker", w).Logger()
	// State writes must land even when shutdown cancels ctx mid-job.
	sctx := context.WithoutCancel(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("worker panic")
			m.fail(sctx, log, t.jobID, core.NewError(core.KindInternal, fmt.Sprintf("panic: %v", r), nil))
		}
	}()

	err := m.store.Update(sctx, t.jobID, func(j *models.Job) error {
		now := m.now()
		if err := j.Start(now); err != nil {
			return err
		}
		j.AppendLog(now, "start processing")
		return j.SetPercent(1)
	})
	if err != nil {
		log.Error().Err(err).Msg("cannot start job")
		return
	}
	log.Info().Str("file", t.doc.FileName).Msg("processing started")

	progress := func(done, total int) {
		err := m.store.Update(sctx, t.jobID, func(j *models.Job) error {
			j.AppendLog(m.now(), fmt.Sprintf("processed page %d/%d", done, total))
			return j.SetPercent(done * 100 / total)
		})
		if err != nil {
			log.Warn().Err(err).Int("page", done).Msg("progress update")
		}
	}

	path, err := m.processor.Process(ctx, t.jobID, t.doc, progress)
	if err != nil {
		m.fail(sctx, log, t.jobID, err)
		return
	}

	err = m.store.Update(sctx, t.jobID, func(j *models.Job) error {
		now := m.now()
		if err := j.Complete(now, path); err != nil {
			return err
		}
		j.AppendLog(now, "finished processing")
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("cannot complete job")
		return
	}
	log.Info().Str("result", path).Msg("processing finished")
}

func (m *TaskManager) fail(ctx context.Context, log zerolog.Logger, jobID string, cause error) {
	kind := core.KindOf(cause)
	log.Error().Err(cause).Str("kind", string(kind)).Msg("processing failed")

	err := m.store.Update(ctx, jobID, func(j *models.Job) error {
		now := m.now()
		if err := j.Fail(now, string(kind)); err != nil {
			return err
		}
		j.AppendLog(now, "error: "+cause.Error())
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("cannot record job failure")
	}
}

func (m *TaskManager) janitor(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.JanitorEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.store.EvictFinished(ctx, m.now(), m.cfg.JobTTL)
			if err != nil {
				m.logger.Warn().Err(err).Msg("job eviction")
				continue
			}
			if n > 0 {
				m.logger.Info().Int("evicted", n).Msg("expired jobs evicted")
			}
		}
	}
}
