package models

import (
	"fmt"
	"time"
)

// Document is one uploaded PDF as stored by the upload layer.
type Document struct {
	ID         string `json:"id"`          // per-upload token, qualifies every derived file name
	FileName   string `json:"file_name"`   // original filename as sent by the client
	StoredPath string `json:"stored_path"` // location of the stored original
}

// QuestionType is the coarse category assigned to a segment.
type QuestionType string

const (
	MultipleChoice QuestionType = "选择题"
	FillInBlank    QuestionType = "填空题"
	FreeResponse   QuestionType = "解答题"
)

// Segment is one classified chunk of page text.
type Segment struct {
	SourceFile      string       `json:"source_file"`
	Page            int          `json:"page"`
	RawText         string       `json:"raw_text"`
	QuestionType    QuestionType `json:"question_type"`
	InlineEquations []string     `json:"inline_equations"`
	LocalImages     []string     `json:"local_images"` // embedded images first, page raster last
}

// JobStatus is the lifecycle state of a Job.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobError      JobStatus = "error"
)

// Terminal reports whether no further transition is allowed.
func (s JobStatus) Terminal() bool {
	return s == JobDone || s == JobError
}

// Job is one asynchronous document-processing task.
type Job struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	Status     JobStatus `json:"status"`
	Percent    int       `json:"percent"`
	Log        []string  `json:"log"`
	ResultPath string    `json:"file,omitempty"`       // set only when Status is done
	ErrorKind  string    `json:"error_kind,omitempty"` // set only when Status is error
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// NewJob returns a queued job whose log starts with the upload event.
func NewJob(id, fileName string, now time.Time) *Job {
	j := &Job{
		ID:        id,
		FileName:  fileName,
		Status:    JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	j.AppendLog(now, "uploaded "+fileName)
	return j
}

// AppendLog adds a timestamped entry. Allowed in every state.
func (j *Job) AppendLog(now time.Time, msg string) {
	j.Log = append(j.Log, fmt.Sprintf("%s %s", now.UTC().Format(time.RFC3339Nano), msg))
	j.UpdatedAt = now
}

// Start moves a queued job to processing.
func (j *Job) Start(now time.Time) error {
	if j.Status != JobQueued {
		return fmt.Errorf("job %s: cannot start from %s", j.ID, j.Status)
	}
	j.Status = JobProcessing
	j.UpdatedAt = now
	return nil
}

// SetPercent records progress. Values are clamped to [0,100] and never move backwards.
func (j *Job) SetPercent(p int) error {
	if j.Status != JobProcessing {
		return fmt.Errorf("job %s: progress update while %s", j.ID, j.Status)
	}
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	if p > j.Percent {
		j.Percent = p
	}
	return nil
}

// Complete marks the job done with its artifact location.
func (j *Job) Complete(now time.Time, resultPath string) error {
	if j.Status != JobProcessing {
		return fmt.Errorf("job %s: cannot complete from %s", j.ID, j.Status)
	}
	if resultPath == "" {
		return fmt.Errorf("job %s: empty result path", j.ID)
	}
	j.Status = JobDone
	j.Percent = 100
	j.ResultPath = resultPath
	j.FinishedAt = now
	j.UpdatedAt = now
	return nil
}

// Fail marks the job as errored. A job may fail from queued or processing.
func (j *Job) Fail(now time.Time, kind string) error {
	if j.Status.Terminal() {
		return fmt.Errorf("job %s: cannot fail from %s", j.ID, j.Status)
	}
	j.Status = JobError
	j.ErrorKind = kind
	j.ResultPath = ""
	j.FinishedAt = now
	j.UpdatedAt = now
	return nil
}

// Clone returns a deep copy safe to hand to readers.
func (j *Job) Clone() Job {
	c := *j
	c.Log = append([]string(nil), j.Log...)
	return c
}
