// Package blob abstracts the object storage backends holding roster export
// artifacts. Backends are single-bucket and create-only: an export key is
// written once and never overwritten.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver names one of the storage backends this package can open.
type Driver string

const (
	// DriverFilesystem is the local filesystem backend (default, dev).
	DriverFilesystem Driver = "fs"
	// DriverS3 is an S3 / MinIO compatible backend.
	DriverS3 Driver = "s3"
	// DriverMemory is the in-memory backend used in tests.
	DriverMemory Driver = "memory"
)

// PutOptions carries the optional attributes attached to a new blob.
type PutOptions struct {
	ContentType string            // MIME type of the body, may be empty
	Metadata    map[string]string // user metadata (small, flat key-value)
}

// SignedURLOptions shapes a pre-signed URL request.
type SignedURLOptions struct {
	Method  string        // GET|PUT (only GET used internally)
	Expiry  time.Duration // zero means 15 minutes
	Headers map[string]string
}

// Info is the backend-independent description of one stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store is the thin S3-like surface the export worker writes through.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	Driver() Driver
}

// ErrUnsupported signals that the backend cannot perform the requested
// optional operation, such as presigning on a backend with no signer.
var ErrUnsupported = errors.New("blob: unsupported operation")

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
