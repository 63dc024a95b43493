package uploader

import "time"

// Backoff is an explicit retry state machine: each Next call advances the
// attempt count and returns the delay to apply before the next submission.
// Keeping it as plain data makes retry schedules testable without a clock.
type Backoff struct {
	Base time.Duration
	Max  time.Duration

	attempt int
}

// Next returns the delay before the upcoming retry. Delays double per
// attempt starting from Base and are capped at Max when Max is set.
func (b *Backoff) Next() time.Duration {
	base := b.Base
	if base <= 0 {
		base = time.Second
	}

	delay := base
	for i := 0; i < b.attempt; i++ {
		delay *= 2
		if b.Max > 0 && delay >= b.Max {
			delay = b.Max
			break
		}
	}
	b.attempt++

	if b.Max > 0 && delay > b.Max {
		delay = b.Max
	}
	return delay
}

// Attempt returns how many delays have been handed out.
func (b *Backoff) Attempt() int {
	return b.attempt
}

// Reset rewinds the state machine to its first attempt.
func (b *Backoff) Reset() {
	b.attempt = 0
}
