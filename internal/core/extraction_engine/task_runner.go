package extraction_engine

import (
	"context"

	"github.com/markdave123-py/PaperSplit/internal/models"
)

// TaskRunner is what the transport layer needs from the task manager.
type TaskRunner interface {
	Run(ctx context.Context) error
	Submit(ctx context.Context, doc models.Document) (string, error)
	Status(ctx context.Context, jobID string) (models.Job, error)
	Result(ctx context.Context, jobID string) (Artifact, error)
}

// DocumentProcessor turns one stored document into a result artifact.
type DocumentProcessor interface {
	Process(ctx context.Context, jobID string, doc models.Document, progress ProgressFunc) (string, error)
}

var (
	_ TaskRunner        = (*TaskManager)(nil)
	_ DocumentProcessor = (*Pipeline)(nil)
)
