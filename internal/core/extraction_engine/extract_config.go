package extraction_engine

import (
	"time"

	"github.com/markdave123-py/PaperSplit/internal/models"
)

// ExtractConfig tunes the task manager.
//
// Workers:      documents processed in parallel. Pages of one document are always sequential.
// QueueSize:    admission queue capacity; Submit fails fast once it is full.
// PageTimeout:  bound on rendering or recognizing a single page.
// JobTTL:       how long a finished job stays pollable.
// JanitorEvery: eviction interval. Zero disables eviction.
type ExtractConfig struct {
	Workers      int
	QueueSize    int
	PageTimeout  time.Duration
	JobTTL       time.Duration
	JanitorEvery time.Duration
}

func DefaultExtractConfig() ExtractConfig {
	return ExtractConfig{
		Workers:      2,
		QueueSize:    64,
		PageTimeout:  2 * time.Minute,
		JobTTL:       24 * time.Hour,
		JanitorEvery: 10 * time.Minute,
	}
}

// ProgressFunc is told after every page how many of total pages are done.
type ProgressFunc func(done, total int)

// Artifact describes a finished job's downloadable table.
type Artifact struct {
	Path        string
	FileName    string
	ContentType string
}

// task is what travels through the admission queue.
type task struct {
	jobID string
	doc   models.Document
}
