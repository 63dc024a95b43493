// Package relocate moves successfully uploaded files into the processed directory.
package relocate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrSourceNotFound is returned when the source file does not exist.
var ErrSourceNotFound = errors.New("source file not found")

// Error describes a failed relocation. When it follows a successful upload
// the remote copy already exists, so callers must surface it distinctly
// rather than re-upload.
type Error struct {
	Source string
	Dest   string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("relocate %s -> %s: %v", e.Source, e.Dest, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Mover relocates files within the local filesystem.
type Mover struct{}

// NewMover creates a new Mover.
func NewMover() *Mover {
	return &Mover{}
}

// Move relocates sourcePath into destDir, preserving the filename, and
// returns the destination path. destDir is created with 0755 permissions if
// absent. The source is removed only once the destination copy is durable,
// so a crash mid-move leaves the file in the watched directory.
func (m *Mover) Move(ctx context.Context, sourcePath, destDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Source: sourcePath, Dest: destDir, Err: err}
	}

	srcInfo, err := os.Stat(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &Error{Source: sourcePath, Dest: destDir, Err: ErrSourceNotFound}
		}
		return "", &Error{Source: sourcePath, Dest: destDir, Err: err}
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", &Error{Source: sourcePath, Dest: destDir, Err: err}
	}

	destPath := filepath.Join(destDir, filepath.Base(sourcePath))

	if err := os.Rename(sourcePath, destPath); err == nil {
		return destPath, nil
	}

	// Rename fails across filesystems; fall back to copy then remove.
	if err := copyFile(sourcePath, destPath, srcInfo.Mode()); err != nil {
		return "", &Error{Source: sourcePath, Dest: destPath, Err: err}
	}
	if err := os.Remove(sourcePath); err != nil {
		return "", &Error{Source: sourcePath, Dest: destPath, Err: err}
	}

	return destPath, nil
}

// copyFile copies src to dst, preserving the file mode and syncing the
// destination before returning.
func copyFile(src, dst string, mode os.FileMode) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	return dstFile.Sync()
}
