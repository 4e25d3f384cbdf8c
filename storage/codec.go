package storage

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Format selects the artifact extension.
type Format string

// Supported formats
const (
	FormatSinger Format = "singer"
	FormatJSONL  Format = "jsonl"
)

// Compression selects the artifact encoding.
type Compression string

// Supported compressions
const (
	CompressionGzip Compression = "gzip"
	CompressionNone Compression = "none"
)

// ParseFormat validates a format name. Empty selects FormatSinger.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatSinger:
		return FormatSinger, nil
	case FormatJSONL:
		return FormatJSONL, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// ParseCompression validates a compression name. Empty selects CompressionGzip.
func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case "", CompressionGzip:
		return CompressionGzip, nil
	case CompressionNone:
		return CompressionNone, nil
	}
	return "", fmt.Errorf("unknown compression %q", s)
}

// Layout combines format and compression.
type Layout struct {
	Format      Format
	Compression Compression
}

// Extension returns e.g. "singer.gz" or "jsonl".
func (l Layout) Extension() string {
	ext := string(l.Format)
	if ext == "" {
		ext = string(FormatSinger)
	}
	if l.Compression == CompressionGzip {
		ext += ".gz"
	}
	return ext
}

// Encoder applies a Compression on top of dst.
type Encoder struct {
	dst io.Writer
	gz  *gzip.Writer
}

// NewEncoder wraps dst. Finish must be called to flush compressed output.
func NewEncoder(dst io.Writer, c Compression) *Encoder {
	e := &Encoder{dst: dst}
	if c == CompressionGzip {
		e.gz = gzip.NewWriter(dst)
	}
	return e
}

// Write implements io.Writer.
func (e *Encoder) Write(p []byte) (int, error) {
	if e.gz != nil {
		return e.gz.Write(p)
	}
	return e.dst.Write(p)
}

// Finish writes any trailing compressed data. It does not close dst.
func (e *Encoder) Finish() error {
	if e.gz != nil {
		return e.gz.Close()
	}
	return nil
}
