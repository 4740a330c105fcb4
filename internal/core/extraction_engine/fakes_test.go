package extraction_engine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/markdave123-py/PaperSplit/internal/core"
	db "github.com/markdave123-py/PaperSplit/internal/core/database"
	"github.com/markdave123-py/PaperSplit/internal/models"
)

// fakeRenderer serves pages from memory.
type fakeRenderer struct {
	pages     []string // native text per page
	openErr   error
	failPage  int // renders of this page return a RenderError
	hangPage  int // renders of this page block until ctx is done
	panicPage int
	images    int // embedded images per page
	closed    chan struct{}
}

func (r *fakeRenderer) Open(ctx context.Context, doc models.Document) (core.PageSource, error) {
	if r.openErr != nil {
		return nil, r.openErr
	}
	return &fakeSource{r: r, doc: doc}, nil
}

type fakeSource struct {
	r   *fakeRenderer
	doc models.Document
}

func (s *fakeSource) PageCount() int { return len(s.r.pages) }

func (s *fakeSource) RenderPage(ctx context.Context, n int) (*core.Page, error) {
	switch n {
	case s.r.failPage:
		return nil, core.RenderError(fmt.Sprintf("page %d is corrupt", n), nil)
	case s.r.hangPage:
		<-ctx.Done()
		return nil, ctx.Err()
	case s.r.panicPage:
		panic("mupdf exploded")
	}

	p := &core.Page{
		Number:     n,
		NativeText: s.r.pages[n-1],
		RasterPath: fmt.Sprintf("/img/%s_p%d.png", s.doc.ID, n),
	}
	for i := 0; i < s.r.images; i++ {
		p.Images = append(p.Images, core.EmbeddedImage{Ext: "jpg", Path: fmt.Sprintf("/img/%s_p%d_%d.jpg", s.doc.ID, n, i)})
	}
	return p, nil
}

func (s *fakeSource) Close() error {
	if s.r.closed != nil {
		close(s.r.closed)
	}
	return nil
}

// nativeFuser returns the text layer only.
type nativeFuser struct{}

func (nativeFuser) Fuse(_ context.Context, p *core.Page) string { return p.NativeText }

// memWriter keeps results in memory.
type memWriter struct {
	mu      sync.Mutex
	results map[string][]models.Segment
	err     error
}

func newMemWriter() *memWriter { return &memWriter{results: map[string][]models.Segment{}} }

func (w *memWriter) WriteResult(_ context.Context, jobID string, segs []models.Segment) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.results[jobID] = segs
	return "/out/result_" + jobID + ".xlsx", nil
}

func (w *memWriter) Encode(io.Writer, []models.Segment) error { return w.err }

func (w *memWriter) get(jobID string) ([]models.Segment, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.results[jobID]
	return s, ok
}

// percentRecorder wraps the memory store and remembers every percent a job
// passes through.
type percentRecorder struct {
	*db.MemoryJobStore
	mu   sync.Mutex
	seen map[string][]int
}

func newPercentRecorder() *percentRecorder {
	return &percentRecorder{MemoryJobStore: db.NewMemoryJobStore(), seen: map[string][]int{}}
}

func (s *percentRecorder) Update(ctx context.Context, id string, fn func(*models.Job) error) error {
	err := s.MemoryJobStore.Update(ctx, id, fn)
	if j, gerr := s.MemoryJobStore.Get(ctx, id); gerr == nil {
		s.mu.Lock()
		s.seen[id] = append(s.seen[id], j.Percent)
		s.mu.Unlock()
	}
	return err
}

func (s *percentRecorder) percents(id string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.seen[id]...)
}

// blockingProcessor holds every job until released.
type blockingProcessor struct {
	started chan string
	release chan struct{}
}

func (p *blockingProcessor) Process(ctx context.Context, jobID string, _ models.Document, _ ProgressFunc) (string, error) {
	p.started <- jobID
	select {
	case <-p.release:
		return "/out/" + jobID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

var testClock = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }
