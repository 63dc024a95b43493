// Package caption renders upload captions from audiobook metadata.
package caption

import (
	"fmt"
	"strings"

	"github.com/bookdrop/bookdrop/internal/uploader/metadata"
)

// TagLine closes every caption.
const TagLine = "#Audiobook"

// Format renders the caption for m. Output is deterministic: the title,
// author, narrator and length lines always appear; release date and
// publisher only when the field is set.
func Format(m metadata.Metadata) string {
	lines := []string{
		m.Title,
		"by " + m.Author,
		"Narrated by " + m.Narrator,
		"Length: " + FormatDuration(m.DurationSeconds),
	}

	if m.ReleaseYear != 0 {
		lines = append(lines, fmt.Sprintf("Release date: %d", m.ReleaseYear))
	}
	if m.Publisher != "" {
		lines = append(lines, "Publisher: "+m.Publisher)
	}

	lines = append(lines, TagLine)
	return strings.Join(lines, "\n")
}

// FormatDuration renders a second count as hours and minutes, e.g.
// 9384 -> "2h 36m". Durations under an hour drop the hour component.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
