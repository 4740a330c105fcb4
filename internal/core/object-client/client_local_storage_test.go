package objectclient

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *LocalClient {
	t.Helper()
	c, err := NewLocalClient(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestNewLocalClient_CreatesBuckets(t *testing.T) {
	root := t.TempDir()
	_, err := NewLocalClient(root, zerolog.Nop())
	require.NoError(t, err)

	for _, b := range []string{BucketUploads, BucketImages, BucketOutputs} {
		info, err := os.Stat(filepath.Join(root, b))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestLocalClient_UploadAndRead(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	loc, err := c.UploadFile(ctx, BucketImages, "a_p1.png", strings.NewReader("pixels"), "image/png")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(loc))
	assert.Equal(t, "a_p1.png", filepath.Base(loc))

	body, err := c.GetFile(ctx, BucketImages, "a_p1.png")
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(body))

	entries, err := os.ReadDir(filepath.Dir(loc))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLocalClient_WriteOnce(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.UploadFile(ctx, BucketOutputs, "result_x.xlsx", strings.NewReader("first"), "")
	require.NoError(t, err)

	_, err = c.UploadFile(ctx, BucketOutputs, "result_x.xlsx", strings.NewReader("second"), "")
	require.ErrorIs(t, err, ErrObjectExists)

	body, err := c.GetFile(ctx, BucketOutputs, "result_x.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "first", string(body))
}

func TestLocalClient_RejectsTraversal(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "a/b", ".."} {
		_, err := c.UploadFile(ctx, BucketUploads, key, strings.NewReader("x"), "")
		assert.Error(t, err, "key %q", key)
	}
	_, err := c.UploadFile(ctx, "../etc", "ok", strings.NewReader("x"), "")
	assert.Error(t, err)
}

func TestLocalClient_DeleteIsIdempotent(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.UploadFile(ctx, BucketUploads, "doc.pdf", strings.NewReader("%PDF"), "application/pdf")
	require.NoError(t, err)

	require.NoError(t, c.DeleteFile(ctx, BucketUploads, "doc.pdf"))
	require.NoError(t, c.DeleteFile(ctx, BucketUploads, "doc.pdf"))

	_, err = c.GetFile(ctx, BucketUploads, "doc.pdf")
	assert.Error(t, err)
}
