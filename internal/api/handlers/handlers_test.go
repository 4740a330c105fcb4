package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/PaperSplit/internal/core"
	"github.com/markdave123-py/PaperSplit/internal/core/extraction_engine"
	objectclient "github.com/markdave123-py/PaperSplit/internal/core/object-client"
	"github.com/markdave123-py/PaperSplit/internal/models"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type fakeUploader struct {
	gotName string
	gotBody []byte
	id      string
	err     error
}

func (f *fakeUploader) UploadAndSubmit(_ context.Context, filename string, data io.Reader) (string, error) {
	f.gotName = filename
	f.gotBody, _ = io.ReadAll(data)
	return f.id, f.err
}

type fakeRunner struct {
	jobs      map[string]models.Job
	artifacts map[string]extraction_engine.Artifact
}

func (f *fakeRunner) Run(context.Context) error { return nil }

func (f *fakeRunner) Submit(context.Context, models.Document) (string, error) { return "", nil }

func (f *fakeRunner) Status(_ context.Context, id string) (models.Job, error) {
	j, ok := f.jobs[id]
	if !ok {
		return models.Job{}, core.NewError(core.KindNotFound, "task "+id+" not found", nil)
	}
	return j, nil
}

func (f *fakeRunner) Result(_ context.Context, id string) (extraction_engine.Artifact, error) {
	j, ok := f.jobs[id]
	if !ok {
		return extraction_engine.Artifact{}, core.NewError(core.KindNotFound, "task "+id+" not found", nil)
	}
	if j.Status != models.JobDone {
		return extraction_engine.Artifact{}, core.NewError(core.KindNotReady, "not done", nil)
	}
	return f.artifacts[id], nil
}

func routerWith(docs DocumentUploader, tasks extraction_engine.TaskRunner, objects objectclient.ObjectClient, maxUpload int64) http.Handler {
	r := chi.NewRouter()
	r.Get("/", Health)
	r.Post("/upload", NewDocumentHandler(docs, maxUpload, zerolog.Nop()).UploadDocument)
	th := NewTaskHandler(tasks, objects, zerolog.Nop())
	r.Get("/progress/{taskID}", th.GetProgress)
	r.Get("/download/{taskID}", th.Download)
	return r
}

func router(docs DocumentUploader, tasks extraction_engine.TaskRunner, maxUpload int64) http.Handler {
	return routerWith(docs, tasks, nil, maxUpload)
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	router(nil, nil, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PaperSplit API is running!", decode(t, rec)["message"])
}

func TestUpload_ReturnsTaskID(t *testing.T) {
	up := &fakeUploader{id: "abc"}
	body, ct := multipartBody(t, "file", "exam.pdf", []byte("%PDF-1.4"))

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router(up, nil, 1<<20).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", decode(t, rec)["task_id"])
	assert.Equal(t, "exam.pdf", up.gotName)
	assert.Equal(t, "%PDF-1.4", string(up.gotBody))
}

func TestUpload_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"input", core.InputError("Only PDF files are allowed", nil), http.StatusBadRequest, "Only PDF files are allowed"},
		{"overloaded", core.NewError(core.KindOverloaded, "busy", nil), http.StatusServiceUnavailable, "busy"},
		{"internal", io.ErrUnexpectedEOF, http.StatusInternalServerError, "internal error"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			body, ct := multipartBody(t, "file", "x.txt", []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			router(&fakeUploader{err: c.err}, nil, 1<<20).ServeHTTP(rec, req)

			assert.Equal(t, c.status, rec.Code)
			assert.Equal(t, c.msg, decode(t, rec)["error"])
		})
	}
}

func TestUpload_MissingField(t *testing.T) {
	body, ct := multipartBody(t, "document", "exam.pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router(&fakeUploader{}, nil, 1<<20).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_TooLarge(t *testing.T) {
	body, ct := multipartBody(t, "file", "exam.pdf", bytes.Repeat([]byte("x"), 4096))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router(&fakeUploader{}, nil, 1024).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestProgress(t *testing.T) {
	runner := &fakeRunner{jobs: map[string]models.Job{
		"q": {ID: "q", Status: models.JobQueued, Log: []string{"t uploaded a.pdf"}},
		"d": {ID: "d", Status: models.JobDone, Percent: 100, ResultPath: "/out/result_d.xlsx", Log: []string{"x"}},
	}}
	h := router(nil, runner, 0)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress/q", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)
	assert.Equal(t, "queued", got["status"])
	assert.EqualValues(t, 0, got["percent"])
	assert.Nil(t, got["file"])
	assert.Len(t, got["log"], 1)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress/d", nil))
	got = decode(t, rec)
	assert.Equal(t, "done", got["status"])
	assert.EqualValues(t, 100, got["percent"])
	assert.Equal(t, "/out/result_d.xlsx", got["file"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "task not found", decode(t, rec)["error"])
}

func resultStore(t *testing.T) *objectclient.LocalClient {
	t.Helper()
	objects, err := objectclient.NewLocalClient(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return objects
}

func TestDownload(t *testing.T) {
	objects := resultStore(t)
	path, err := objects.UploadFile(context.Background(), objectclient.BucketOutputs, "result_d.xlsx", bytes.NewReader([]byte("PK-table")), xlsxType)
	require.NoError(t, err)

	runner := &fakeRunner{
		jobs: map[string]models.Job{
			"d": {ID: "d", Status: models.JobDone, ResultPath: path},
			"p": {ID: "p", Status: models.JobProcessing},
			"e": {ID: "e", Status: models.JobError},
		},
		artifacts: map[string]extraction_engine.Artifact{
			"d": {Path: path, FileName: "result_d.xlsx", ContentType: xlsxType},
		},
	}
	h := routerWith(nil, runner, objects, 0)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/d", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PK-table", rec.Body.String())
	assert.Equal(t, xlsxType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="result_d.xlsx"`)

	for id, status := range map[string]int{"p": http.StatusBadRequest, "e": http.StatusBadRequest, "missing": http.StatusNotFound} {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/"+id, nil))
		assert.Equal(t, status, rec.Code, id)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/p", nil))
	assert.Equal(t, "not ready", decode(t, rec)["error"])
}

func TestDownload_ReadsFromOutputsBucketOnly(t *testing.T) {
	objects := resultStore(t)
	// A readable file outside the store must not be served.
	stray := filepath.Join(t.TempDir(), "result_d.xlsx")
	require.NoError(t, os.WriteFile(stray, []byte("PK-stray"), 0o644))

	runner := &fakeRunner{
		jobs: map[string]models.Job{"d": {ID: "d", Status: models.JobDone, ResultPath: stray}},
		artifacts: map[string]extraction_engine.Artifact{
			"d": {Path: stray, FileName: "result_d.xlsx", ContentType: xlsxType},
		},
	}
	h := routerWith(nil, runner, objects, 0)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/d", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "result unavailable", decode(t, rec)["error"])
}

type nonSeekingStore struct {
	objectclient.ObjectClient
	body string
}

func (s nonSeekingStore) GetObjectReader(context.Context, string, string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewBufferString(s.body)), nil
}

func TestDownload_NonSeekableReader(t *testing.T) {
	runner := &fakeRunner{
		jobs: map[string]models.Job{"d": {ID: "d", Status: models.JobDone}},
		artifacts: map[string]extraction_engine.Artifact{
			"d": {FileName: "result_d.xlsx", ContentType: xlsxType},
		},
	}
	h := routerWith(nil, runner, nonSeekingStore{body: "PK-buffered"}, 0)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/d", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PK-buffered", rec.Body.String())
}
