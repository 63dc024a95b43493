// Package uploader orchestrates the audiobook watch/upload pipeline.
package uploader

import (
	"context"
	"errors"
	"time"

	"github.com/bookdrop/bookdrop/internal/uploader/metadata"
)

// MetadataExtractor returns a descriptive record for an audiobook file, or a
// typed error when the container is unreadable or incomplete.
type MetadataExtractor interface {
	Extract(path string) (metadata.Metadata, error)
}

// CaptionFormatter renders the upload caption for a metadata record. It must
// be pure: same record, same caption.
type CaptionFormatter func(metadata.Metadata) string

// UploadTransport delivers a file and its caption to the remote destination.
// Errors may implement Transient() bool; only transient failures are retried.
type UploadTransport interface {
	Upload(ctx context.Context, path, caption string) error
}

// FileMover relocates an uploaded file into the processed directory and
// returns the destination path.
type FileMover interface {
	Move(ctx context.Context, sourcePath, destDir string) (string, error)
}

// DirectoryObserver yields newly stable candidate paths, one batch per poll
// tick, in a deterministic order.
type DirectoryObserver interface {
	PollOnce(ctx context.Context) ([]string, error)
}

// FileProcessor is the unit of per-file work dispatched by the Service.
type FileProcessor interface {
	Process(ctx context.Context, sourcePath string) *FileTask
}

// transient reports whether err was classified retryable by the transport.
func transient(err error) bool {
	var te interface{ Transient() bool }
	return errors.As(err, &te) && te.Transient()
}

// retryAfterHint returns the backoff floor a rate-limited transport attached
// to err, or zero.
func retryAfterHint(err error) time.Duration {
	var re interface{ RetryAfterHint() time.Duration }
	if errors.As(err, &re) {
		return re.RetryAfterHint()
	}
	return 0
}
