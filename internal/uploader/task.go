package uploader

// TaskState is the position of a file in the processing pipeline.
type TaskState int

const (
	StatePending TaskState = iota
	StateExtracting
	StateCaptioned
	StateUploading
	StateSucceeded
	StateFailed
)

func (s TaskState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateExtracting:
		return "extracting"
	case StateCaptioned:
		return "captioned"
	case StateUploading:
		return "uploading"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s TaskState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// FileTask tracks one file through the pipeline. A task is owned by exactly
// one Process call and forgotten once it reaches a terminal state.
// AttemptCount counts upload submissions; a file that fails before reaching
// the transport keeps it at zero.
type FileTask struct {
	SourcePath   string
	State        TaskState
	AttemptCount int
	LastError    error
}
