package uploader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ProcessorConfig holds the per-file processing policy.
type ProcessorConfig struct {
	// ProcessedDir is the absolute path files are relocated into after a
	// confirmed upload.
	ProcessedDir string
	// MaxUploadRetries bounds retries of transient upload failures; the
	// first submission is not a retry.
	MaxUploadRetries int
	// BackoffBase and BackoffMax shape the delay between retries.
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// Processor drives a single file through extraction, captioning, upload and
// relocation. Transitions are strictly forward; only the upload step loops,
// and only on transient transport errors.
type Processor struct {
	cfg       ProcessorConfig
	extractor MetadataExtractor
	format    CaptionFormatter
	transport UploadTransport
	mover     FileMover
	logger    *zap.Logger

	// sleep is swapped out in tests to observe retry delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewProcessor creates a Processor with the given collaborators.
func NewProcessor(cfg ProcessorConfig, extractor MetadataExtractor, format CaptionFormatter, transport UploadTransport, mover FileMover, logger *zap.Logger) *Processor {
	return &Processor{
		cfg:       cfg,
		extractor: extractor,
		format:    format,
		transport: transport,
		mover:     mover,
		logger:    logger.Named("processor"),
		sleep:     sleepContext,
	}
}

// Process runs the full pipeline for sourcePath and returns the task in its
// terminal state. Every error stays contained in the returned task; Process
// never panics the watch loop.
func (p *Processor) Process(ctx context.Context, sourcePath string) *FileTask {
	task := &FileTask{SourcePath: sourcePath, State: StatePending}
	log := p.logger.With(zap.String("path", sourcePath))

	task.State = StateExtracting
	meta, err := p.extractor.Extract(sourcePath)
	if err != nil {
		// A corrupt or incomplete container does not become valid by
		// retrying.
		return p.fail(task, log, "metadata extraction failed", err)
	}

	captionText := p.format(meta)
	task.State = StateCaptioned
	log.Debug("caption generated",
		zap.String("title", meta.Title),
		zap.Int64("duration_seconds", meta.DurationSeconds),
	)

	task.State = StateUploading
	if err := p.upload(ctx, task, captionText, log); err != nil {
		return p.fail(task, log, "upload failed", err)
	}

	destPath, err := p.mover.Move(ctx, sourcePath, p.cfg.ProcessedDir)
	if err != nil {
		// The remote copy exists; only the local move failed. Surfaced
		// distinctly so operators do not re-upload a duplicate.
		return p.fail(task, log, "relocation failed after successful upload", err)
	}

	task.State = StateSucceeded
	log.Info("file processed",
		zap.String("moved_to", destPath),
		zap.Int("attempts", task.AttemptCount),
	)
	return task
}

// upload submits the file, retrying transient failures with backoff until
// the retry budget is exhausted. A rate-limit hint from the transport raises
// the computed delay but never lowers it.
func (p *Processor) upload(ctx context.Context, task *FileTask, captionText string, log *zap.Logger) error {
	retry := &Backoff{Base: p.cfg.BackoffBase, Max: p.cfg.BackoffMax}
	var lastErr error

	for attempt := 0; attempt <= p.cfg.MaxUploadRetries; attempt++ {
		if attempt > 0 {
			delay := retry.Next()
			if hint := retryAfterHint(lastErr); hint > delay {
				delay = hint
			}
			log.Warn("retrying upload",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", p.cfg.MaxUploadRetries),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if err := p.sleep(ctx, delay); err != nil {
				return err
			}
		}

		task.AttemptCount++
		err := p.transport.Upload(ctx, task.SourcePath, captionText)
		if err == nil {
			return nil
		}
		if !transient(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("upload failed after %d retries: %w", p.cfg.MaxUploadRetries, lastErr)
}

func (p *Processor) fail(task *FileTask, log *zap.Logger, msg string, err error) *FileTask {
	task.State = StateFailed
	task.LastError = err
	log.Error(msg,
		zap.Error(err),
		zap.Int("attempts", task.AttemptCount),
	)
	return task
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
