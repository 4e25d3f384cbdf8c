// Package storage defines how flushed stream content reaches a destination.
//
// A Writer is acquired per artifact, receives the artifact bytes in order and
// commits them on Close. Abort releases the writer without committing. Each
// destination package (local, s3, objectstore) provides an Opener.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
)

// Writer receives the contents of one artifact.
type Writer interface {
	io.Writer
	// Close commits everything written so far.
	Close() error
	// Abort discards the artifact. cause is reported to any remote side.
	Abort(cause error) error
}

// Opener acquires Writers for resolved targets.
type Opener interface {
	Open(ctx context.Context, t Target) (Writer, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, t Target) (Writer, error)

// Open implements Opener.
func (f OpenerFunc) Open(ctx context.Context, t Target) (Writer, error) {
	return f(ctx, t)
}

// URI schemes of supported destinations.
const (
	SchemeFile = "file"
	SchemeS3   = "s3"
	SchemeNATS = "nats"
)

// Target is the resolved location of one stream's artifact.
type Target struct {
	Stream string
	Scheme string
	// Bucket is empty for local files.
	Bucket string
	// Key is the filesystem path for local files and the object key otherwise.
	Key         string
	Compression Compression
}

// URI renders the target the way it is reported in logs.
func (t Target) URI() string {
	if t.Scheme == SchemeFile {
		return t.Key
	}
	return t.Scheme + "://" + t.Bucket + "/" + t.Key
}

// ContentType is the media type of the artifact before compression.
func (t Target) ContentType() string {
	return "application/x-ndjson"
}

// ContentEncoding returns "gzip" for compressed targets and "" otherwise.
func (t Target) ContentEncoding() string {
	if t.Compression == CompressionGzip {
		return "gzip"
	}
	return ""
}

// CheckStreamName rejects names that cannot form a single path segment:
// empty names, "." and "..", and names holding a path separator or NUL.
func CheckStreamName(stream string) error {
	switch stream {
	case "":
		return errors.New("empty stream name")
	case ".", "..":
		return fmt.Errorf("stream name %q is a relative path", stream)
	}
	if strings.ContainsAny(stream, "/\\\x00") {
		return fmt.Errorf("stream name %q contains a path separator", stream)
	}
	return nil
}

// ArtifactName returns "<stream>-<stamp>.<ext>".
func ArtifactName(stream, stamp, ext string) string {
	return stream + "-" + stamp + "." + ext
}

// LocalTarget places the artifact at <folder>/<stream>/<stream>-<stamp>.<ext>.
func LocalTarget(folder, stream, stamp string, layout Layout) Target {
	return Target{
		Stream:      stream,
		Scheme:      SchemeFile,
		Key:         filepath.Join(folder, stream, ArtifactName(stream, stamp, layout.Extension())),
		Compression: layout.Compression,
	}
}

// ObjectTarget places the artifact at <bucket>/<prefix>/<stream>/<stream>-<stamp>.<ext>.
// Repeated, leading and trailing slashes in bucket and prefix are dropped.
func ObjectTarget(scheme, bucket, prefix, stream, stamp string, layout Layout) Target {
	key := path.Join("/", prefix, stream, ArtifactName(stream, stamp, layout.Extension()))
	return Target{
		Stream:      stream,
		Scheme:      scheme,
		Bucket:      strings.Trim(bucket, "/"),
		Key:         strings.TrimPrefix(key, "/"),
		Compression: layout.Compression,
	}
}
