package core

import (
	"context"
	"io"
	"time"

	"github.com/markdave123-py/PaperSplit/internal/models"
)

// JobStore holds job records for as long as a client may poll them.
// Implementations guard each record so that readers never observe a
// half-applied update.
type JobStore interface {
	Create(ctx context.Context, job *models.Job) error
	// Get returns a snapshot; mutating it does not affect the stored job.
	Get(ctx context.Context, id string) (models.Job, error)
	// Update applies fn under the record's exclusive lock. If fn returns an
	// error the record is left unchanged.
	Update(ctx context.Context, id string, fn func(*models.Job) error) error
	Delete(ctx context.Context, id string) error
	// EvictFinished drops terminal jobs that finished before now-ttl.
	EvictFinished(ctx context.Context, now time.Time, ttl time.Duration) (int, error)
}

// ResultWriter serializes the segments of one document.
type ResultWriter interface {
	// WriteResult stores the table under a name derived from jobID and returns its location.
	WriteResult(ctx context.Context, jobID string, segments []models.Segment) (string, error)
	// Encode writes the table to w.
	Encode(w io.Writer, segments []models.Segment) error
}
