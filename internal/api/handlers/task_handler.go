package handlers

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/markdave123-py/PaperSplit/internal/core/extraction_engine"
	objectclient "github.com/markdave123-py/PaperSplit/internal/core/object-client"
)

type TaskHandler struct {
	tasks   extraction_engine.TaskRunner
	objects objectclient.ObjectClient
	logger  zerolog.Logger
}

func NewTaskHandler(tasks extraction_engine.TaskRunner, objects objectclient.ObjectClient, logger zerolog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, objects: objects, logger: logger}
}

type progressResponse struct {
	Status  string   `json:"status"`
	Percent int      `json:"percent"`
	Log     []string `json:"log"`
	File    *string  `json:"file"`
}

// GetProgress reports a task snapshot. file stays null until the task is done.
func (h *TaskHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	job, err := h.tasks.Status(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := progressResponse{
		Status:  string(job.Status),
		Percent: job.Percent,
		Log:     job.Log,
	}
	if resp.Log == nil {
		resp.Log = []string{}
	}
	if job.ResultPath != "" {
		resp.File = &job.ResultPath
	}
	writeJSON(w, http.StatusOK, resp)
}

// Download streams the finished table as an attachment.
func (h *TaskHandler) Download(w http.ResponseWriter, r *http.Request) {
	art, err := h.tasks.Result(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rc, err := h.objects.GetObjectReader(r.Context(), objectclient.BucketOutputs, art.FileName)
	if err != nil {
		h.logger.Error().Err(err).Str("key", art.FileName).Msg("open result")
		writeErrorMsg(w, http.StatusInternalServerError, "result unavailable")
		return
	}
	defer rc.Close()

	content, ok := rc.(io.ReadSeeker)
	if !ok {
		body, err := io.ReadAll(rc)
		if err != nil {
			h.logger.Error().Err(err).Str("key", art.FileName).Msg("read result")
			writeErrorMsg(w, http.StatusInternalServerError, "result unavailable")
			return
		}
		content = bytes.NewReader(body)
	}

	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+art.FileName+`"`)
	http.ServeContent(w, r, art.FileName, time.Time{}, content)
}

// Health answers the root route.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "PaperSplit API is running!"})
}
