package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func TestNewJob(t *testing.T) {
	j := NewJob("abc", "exam.pdf", t0)

	assert.Equal(t, JobQueued, j.Status)
	assert.Zero(t, j.Percent)
	assert.Empty(t, j.ResultPath)
	require.Len(t, j.Log, 1)
	assert.True(t, strings.HasSuffix(j.Log[0], "uploaded exam.pdf"))
	assert.True(t, strings.HasPrefix(j.Log[0], "2024-05-01T08:00:00Z"))
}

func TestJob_HappyPath(t *testing.T) {
	j := NewJob("abc", "exam.pdf", t0)

	require.NoError(t, j.Start(t0))
	require.NoError(t, j.SetPercent(1))
	require.NoError(t, j.SetPercent(50))
	require.NoError(t, j.SetPercent(30))
	assert.Equal(t, 50, j.Percent, "percent never moves backwards")

	require.NoError(t, j.SetPercent(250))
	assert.Equal(t, 100, j.Percent)

	done := t0.Add(time.Minute)
	require.NoError(t, j.Complete(done, "/data/outputs/result_abc.xlsx"))
	assert.Equal(t, JobDone, j.Status)
	assert.Equal(t, 100, j.Percent)
	assert.Equal(t, done, j.FinishedAt)
	assert.True(t, j.Status.Terminal())
}

func TestJob_InvalidTransitions(t *testing.T) {
	j := NewJob("abc", "exam.pdf", t0)

	assert.Error(t, j.SetPercent(10), "progress before start")
	assert.Error(t, j.Complete(t0, "x"), "complete before start")

	require.NoError(t, j.Start(t0))
	assert.Error(t, j.Start(t0))
	assert.Error(t, j.Complete(t0, ""))

	require.NoError(t, j.Fail(t0, "render"))
	assert.Equal(t, JobError, j.Status)
	assert.Equal(t, "render", j.ErrorKind)
	assert.Empty(t, j.ResultPath)

	assert.Error(t, j.Fail(t0, "render"))
	assert.Error(t, j.Complete(t0, "x"))
	assert.Error(t, j.SetPercent(99))
}

func TestJob_FailFromQueued(t *testing.T) {
	j := NewJob("abc", "exam.pdf", t0)
	require.NoError(t, j.Fail(t0, "internal"))
	assert.Equal(t, JobError, j.Status)
}

func TestJob_CloneIsIndependent(t *testing.T) {
	j := NewJob("abc", "exam.pdf", t0)
	c := j.Clone()

	j.AppendLog(t0, "start processing")
	c.Log[0] = "tampered"

	assert.Len(t, c.Log, 1)
	assert.Len(t, j.Log, 2)
	assert.NotEqual(t, "tampered", j.Log[0])
}
