// Package objectstore writes artifacts to a NATS JetStream object store bucket.
package objectstore

import (
	"context"
	"io"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/target-singer-jsonl/errors"
	"github.com/c360/target-singer-jsonl/natsclient"
	"github.com/c360/target-singer-jsonl/storage"
)

// DefaultBucket is used when no bucket is configured.
const DefaultBucket = "SINGER_ARTIFACTS"

// Header names attached to every stored object.
const (
	HeaderContentType     = "Content-Type"
	HeaderContentEncoding = "Content-Encoding"
	HeaderStream          = "Singer-Stream"
)

// Opener stores each artifact as one object.
type Opener struct {
	store    jetstream.ObjectStore
	metadata map[string]string
	logger   *slog.Logger
}

// Option configures an Opener.
type Option func(*Opener)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Opener) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetadata attaches metadata to every stored object.
func WithMetadata(md map[string]string) Option {
	return func(o *Opener) {
		o.metadata = md
	}
}

// NewOpener creates an Opener over an existing bucket handle.
func NewOpener(store jetstream.ObjectStore, opts ...Option) *Opener {
	o := &Opener{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Connect gets or creates bucket on client and returns an Opener for it.
func Connect(ctx context.Context, client *natsclient.Client, bucket string, opts ...Option) (*Opener, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	store, err := client.ObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      bucket,
		Description: "Singer target artifacts",
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, errors.Wrap(err, "objectstore", "Connect", "open bucket "+bucket)
	}
	return NewOpener(store, opts...), nil
}

// Open streams t into the bucket. The object is sealed when Close succeeds;
// an aborted upload leaves no object behind.
func (o *Opener) Open(ctx context.Context, t storage.Target) (storage.Writer, error) {
	headers := nats.Header{}
	headers.Set(HeaderContentType, t.ContentType())
	headers.Set(HeaderStream, t.Stream)
	if enc := t.ContentEncoding(); enc != "" {
		headers.Set(HeaderContentEncoding, enc)
	}

	meta := jetstream.ObjectMeta{
		Name:     t.Key,
		Headers:  headers,
		Metadata: o.metadata,
	}

	return storage.NewPipeWriter(ctx, t.Compression, func(ctx context.Context, body io.Reader) error {
		info, err := o.store.Put(ctx, meta, body)
		if err != nil {
			return errors.WrapTransient(err, "objectstore", "Open", "put "+t.URI())
		}
		o.logger.Debug("Stored object", "name", info.Name, "size", info.Size, "chunks", info.Chunks)
		return nil
	}), nil
}
