package storage

import (
	"context"
	"io"
	"sync"

	"github.com/c360/target-singer-jsonl/errors"
)

// UploadFunc consumes an artifact body until EOF.
type UploadFunc func(ctx context.Context, body io.Reader) error

// pipeWriter streams encoded bytes to an UploadFunc running in the background.
type pipeWriter struct {
	enc    *Encoder
	pw     *io.PipeWriter
	cancel context.CancelFunc
	done   chan error

	mu     sync.Mutex
	closed bool
}

// NewPipeWriter starts upload and returns a Writer feeding it. Close waits for
// the upload to finish and returns its error.
func NewPipeWriter(ctx context.Context, c Compression, upload UploadFunc) Writer {
	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()

	w := &pipeWriter{
		enc:    NewEncoder(pw, c),
		pw:     pw,
		cancel: cancel,
		done:   make(chan error, 1),
	}

	go func() {
		err := upload(ctx, pr)
		// Unblock the writing side if upload returned early.
		pr.CloseWithError(err)
		w.done <- err
	}()

	return w
}

func (w *pipeWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, errors.ErrWriterClosed
	}
	return w.enc.Write(p)
}

func (w *pipeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.ErrWriterClosed
	}
	w.closed = true
	defer w.cancel()

	if err := w.enc.Finish(); err != nil {
		w.pw.CloseWithError(err)
		<-w.done
		return err
	}
	w.pw.Close()
	return <-w.done
}

func (w *pipeWriter) Abort(cause error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	if cause == nil {
		cause = context.Canceled
	}
	w.pw.CloseWithError(cause)
	w.cancel()
	<-w.done
	return nil
}
