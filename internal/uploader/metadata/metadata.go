// Package metadata extracts descriptive tags and duration from audiobook files.
package metadata

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"
)

// Metadata is the descriptive record read from an audiobook container.
// Title, Author and Narrator are required; ReleaseYear and Publisher are
// optional and zero-valued when absent.
type Metadata struct {
	Title           string
	Author          string
	Narrator        string
	DurationSeconds int64
	ReleaseYear     int
	Publisher       string
}

// Error indicates a file could not yield a complete metadata record. It is
// terminal for that file: a corrupt or incomplete container does not become
// valid by retrying.
type Error struct {
	Path   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("metadata: %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("metadata: %s: %s", e.Path, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation errors for required fields.
var (
	ErrMissingTitle    = errors.New("missing title tag")
	ErrMissingAuthor   = errors.New("missing author tag")
	ErrMissingNarrator = errors.New("missing narrator tag")
	ErrMissingDuration = errors.New("missing or zero duration")
)

// Validate checks that all required fields are present after trimming.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return ErrMissingTitle
	}
	if strings.TrimSpace(m.Author) == "" {
		return ErrMissingAuthor
	}
	if strings.TrimSpace(m.Narrator) == "" {
		return ErrMissingNarrator
	}
	if m.DurationSeconds <= 0 {
		return ErrMissingDuration
	}
	return nil
}

// Extractor reads tags and duration from supported audio containers.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the metadata record for the audiobook at path, or an
// *Error when the container is unreadable or a required tag is missing.
//
// Tag mapping follows audiobook convention: the composer tag carries the
// author and the artist tag carries the narrator.
func (x *Extractor) Extract(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, &Error{Path: path, Reason: "open file", Err: err}
	}
	defer f.Close()

	t, err := tag.ReadFrom(f)
	if err != nil {
		return Metadata{}, &Error{Path: path, Reason: "read tags", Err: err}
	}

	m := Metadata{
		Title:       strings.TrimSpace(t.Title()),
		Author:      strings.TrimSpace(t.Composer()),
		Narrator:    strings.TrimSpace(t.Artist()),
		ReleaseYear: t.Year(),
		Publisher:   publisherFromRaw(t.Raw()),
	}

	duration, err := containerDuration(path, f)
	if err != nil {
		return Metadata{}, &Error{Path: path, Reason: "determine duration", Err: err}
	}
	m.DurationSeconds = duration

	if err := m.Validate(); err != nil {
		return Metadata{}, &Error{Path: path, Reason: "incomplete tags", Err: err}
	}
	return m, nil
}

// publisherFromRaw looks up the publisher across the tag spellings used by
// audiobook encoders: the MP4 publisher atom, the copyright atom, and the
// ID3 publisher frame.
func publisherFromRaw(raw map[string]interface{}) string {
	for _, key := range []string{"©pub", "pub", "cprt", "TPUB"} {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// containerDuration derives the playing time from the container itself; none
// of the tag formats carry it.
func containerDuration(path string, f *os.File) (int64, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3Duration(f)
	case ".m4b", ".m4a", ".mp4":
		return mp4Duration(f)
	default:
		return 0, fmt.Errorf("unsupported container %q", filepath.Ext(path))
	}
}

// mp3Duration walks the MP3 frame by frame and sums the frame durations.
func mp3Duration(r io.Reader) (int64, error) {
	decoder := mp3.NewDecoder(r)

	var frame mp3.Frame
	var skipped int
	var total float64

	for {
		err := decoder.Decode(&frame, &skipped)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		total += frame.Duration().Seconds()
	}

	return int64(math.Round(total)), nil
}
