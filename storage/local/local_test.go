package local

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/target-singer-jsonl/errors"
	"github.com/c360/target-singer-jsonl/storage"
)

func TestOpener_CommitOnClose(t *testing.T) {
	dir := t.TempDir()
	tgt := storage.LocalTarget(dir, "users", "20240301T000000Z",
		storage.Layout{Format: storage.FormatSinger, Compression: storage.CompressionNone})

	w, err := NewOpener(nil).Open(context.Background(), tgt)
	require.NoError(t, err)

	_, err = w.Write([]byte("{\"a\":1}\n"))
	require.NoError(t, err)

	_, err = os.Stat(tgt.Key)
	assert.True(t, os.IsNotExist(err), "artifact must not exist before Close")

	require.NoError(t, w.Close())

	data, err := os.ReadFile(tgt.Key)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(tgt.Key))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be gone")

	assert.ErrorIs(t, w.Close(), errors.ErrWriterClosed)
}

func TestOpener_Gzip(t *testing.T) {
	dir := t.TempDir()
	tgt := storage.LocalTarget(dir, "orders", "T", storage.Layout{
		Format:      storage.FormatJSONL,
		Compression: storage.CompressionGzip,
	})
	assert.Equal(t, filepath.Join(dir, "orders", "orders-T.jsonl.gz"), tgt.Key)

	w, err := NewOpener(nil).Open(context.Background(), tgt)
	require.NoError(t, err)
	_, err = w.Write([]byte("one\ntwo\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f, err := os.Open(tgt.Key)
	require.NoError(t, err)
	defer f.Close()

	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestOpener_Abort(t *testing.T) {
	dir := t.TempDir()
	tgt := storage.LocalTarget(dir, "users", "T", storage.Layout{Compression: storage.CompressionNone})

	w, err := NewOpener(nil).Open(context.Background(), tgt)
	require.NoError(t, err)
	_, err = w.Write([]byte("partial\n"))
	require.NoError(t, err)

	require.NoError(t, w.Abort(stderrors.New("boom")))

	entries, err := os.ReadDir(filepath.Join(dir, "users"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = w.Write([]byte("more\n"))
	assert.ErrorIs(t, err, errors.ErrWriterClosed)
}

func TestOpener_DirectoryError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	tgt := storage.LocalTarget(blocker, "users", "T", storage.Layout{})
	_, err := NewOpener(nil).Open(context.Background(), tgt)
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}
