package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/markdave123-py/PaperSplit/internal/core"
	"github.com/markdave123-py/PaperSplit/internal/models"
)

// MemoryJobStore keeps jobs in process memory. The registry lock only guards
// the map; each record has its own lock so a slow update of one job never
// blocks polling of another.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*jobEntry
}

type jobEntry struct {
	mu  sync.RWMutex
	job models.Job
}

var _ core.JobStore = (*MemoryJobStore)(nil)

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]*jobEntry)}
}

func notFound(id string) error {
	return core.NewError(core.KindNotFound, fmt.Sprintf("task %s not found", id), nil)
}

func (s *MemoryJobStore) Create(ctx context.Context, job *models.Job) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("create job: missing id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("create job: %s already exists", job.ID)
	}
	s.jobs[job.ID] = &jobEntry{job: job.Clone()}
	return nil
}

func (s *MemoryJobStore) entry(id string) (*jobEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.jobs[id]
	return e, ok
}

func (s *MemoryJobStore) Get(ctx context.Context, id string) (models.Job, error) {
	e, ok := s.entry(id)
	if !ok {
		return models.Job{}, notFound(id)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.job.Clone(), nil
}

func (s *MemoryJobStore) Update(ctx context.Context, id string, fn func(*models.Job) error) error {
	e, ok := s.entry(id)
	if !ok {
		return notFound(id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	draft := e.job.Clone()
	if err := fn(&draft); err != nil {
		return err
	}
	e.job = draft
	return nil
}

func (s *MemoryJobStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

func (s *MemoryJobStore) EvictFinished(ctx context.Context, now time.Time, ttl time.Duration) (int, error) {
	cutoff := now.Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, e := range s.jobs {
		if err := ctx.Err(); err != nil {
			return evicted, err
		}
		e.mu.RLock()
		expired := e.job.Status.Terminal() && e.job.FinishedAt.Before(cutoff)
		e.mu.RUnlock()
		if expired {
			delete(s.jobs, id)
			evicted++
		}
	}
	return evicted, nil
}

// Len reports how many jobs are held.
func (s *MemoryJobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
