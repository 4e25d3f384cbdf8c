// Package local writes artifacts to the local filesystem.
package local

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/c360/target-singer-jsonl/errors"
	"github.com/c360/target-singer-jsonl/storage"
)

const (
	dirPerm  = 0755
	filePerm = 0644
)

// Opener creates files under the directories named by each target.
type Opener struct {
	logger *slog.Logger
}

// NewOpener creates a local Opener.
func NewOpener(logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{logger: logger}
}

// Open creates the target's directory and a temporary file beside the final
// path. The file appears under its final name only when Close succeeds.
func (o *Opener) Open(_ context.Context, t storage.Target) (storage.Writer, error) {
	dir := filepath.Dir(t.Key)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, errors.WrapTransient(err, "local", "Open", "create output directory")
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(t.Key)+".*.tmp")
	if err != nil {
		return nil, errors.WrapTransient(err, "local", "Open", "create temp file")
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, errors.WrapTransient(err, "local", "Open", "chmod temp file")
	}

	bw := bufio.NewWriter(tmp)
	return &fileWriter{
		path:   t.Key,
		file:   tmp,
		buf:    bw,
		enc:    storage.NewEncoder(bw, t.Compression),
		logger: o.logger,
	}, nil
}

type fileWriter struct {
	path   string
	file   *os.File
	buf    *bufio.Writer
	enc    *storage.Encoder
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

func (w *fileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, errors.ErrWriterClosed
	}
	return w.enc.Write(p)
}

// Close flushes and syncs the temp file, then renames it into place.
func (w *fileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.ErrWriterClosed
	}
	w.closed = true

	if err := w.commit(); err != nil {
		w.file.Close()
		w.remove()
		return errors.WrapTransient(err, "local", "Close", "commit "+w.path)
	}
	return nil
}

func (w *fileWriter) commit() error {
	if err := w.enc.Finish(); err != nil {
		return err
	}
	if err := w.buf.Flush(); err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return err
	}
	return os.Rename(w.file.Name(), w.path)
}

// Abort removes the temp file; nothing appears at the final path.
func (w *fileWriter) Abort(_ error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	w.file.Close()
	return w.remove()
}

func (w *fileWriter) remove() error {
	if err := os.Remove(w.file.Name()); err != nil && !os.IsNotExist(err) {
		w.logger.Warn("Failed to remove temp file", "path", w.file.Name(), "error", err)
		return err
	}
	return nil
}
