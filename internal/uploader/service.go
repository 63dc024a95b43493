package uploader

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service runs one watch session: it polls the observer on a fixed interval
// and dispatches each newly stable file to the processor, at most once per
// path at a time. Dispatch is fire-and-continue; the poll loop never waits
// on an upload.
type Service struct {
	observer  DirectoryObserver
	processor FileProcessor
	interval  time.Duration
	logger    *zap.Logger

	inflight *InFlightSet
	// failed holds paths that reached a terminal failure this session;
	// they stay in the watched directory but are not re-dispatched until
	// the next run.
	failed *InFlightSet
	sem    chan struct{}
	wg     sync.WaitGroup
}

// NewService creates a watch session over the given observer and processor.
// maxConcurrent bounds simultaneous uploads.
func NewService(observer DirectoryObserver, processor FileProcessor, interval time.Duration, maxConcurrent int, logger *zap.Logger) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &Service{
		observer:  observer,
		processor: processor,
		interval:  interval,
		logger:    logger.Named("watch"),
		inflight:  NewInFlightSet(),
		failed:    NewInFlightSet(),
		sem:       make(chan struct{}, maxConcurrent),
	}
}

// Run blocks until ctx is cancelled or a SIGINT/SIGTERM arrives. Per-file
// failures are logged and never stop the loop. On shutdown, in-flight
// uploads are allowed to finish so a file is never relocated without a
// confirmed remote success.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("watch session started",
		zap.Duration("poll_interval", s.interval),
		zap.Int("max_concurrent_uploads", cap(s.sem)),
	)

	for {
		select {
		case <-ctx.Done():
			return s.drain()
		case sig := <-sigCh:
			s.logger.Info("received signal, shutting down",
				zap.String("signal", sig.String()),
			)
			cancel()
			return s.drain()
		case <-ticker.C:
			s.pollAndDispatch(ctx)
		}
	}
}

func (s *Service) pollAndDispatch(ctx context.Context) {
	paths, err := s.observer.PollOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("poll failed", zap.Error(err))
		}
		return
	}

	for _, path := range paths {
		s.dispatch(ctx, path)
	}
}

// dispatch hands path to the processor without blocking the poll loop. The
// in-flight set guarantees at most one active processor per source path, and
// terminally failed paths are skipped for the rest of the session.
func (s *Service) dispatch(ctx context.Context, path string) {
	if s.failed.Contains(path) {
		return
	}
	if !s.inflight.TryAdd(path) {
		return
	}

	s.logger.Info("dispatching file", zap.String("path", path))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inflight.Remove(path)

		select {
		case s.sem <- struct{}{}:
			defer func() { <-s.sem }()
		case <-ctx.Done():
			// Never started; the file stays in place and the next
			// run picks it up.
			return
		}

		task := s.processor.Process(ctx, path)
		if task.State == StateFailed {
			s.failed.TryAdd(path)
			s.logger.Error("file failed",
				zap.String("path", path),
				zap.String("state", task.State.String()),
				zap.Int("attempts", task.AttemptCount),
				zap.Error(task.LastError),
			)
		}
	}()
}

func (s *Service) drain() error {
	s.logger.Info("waiting for in-flight uploads to finish")
	s.wg.Wait()
	s.logger.Info("watch session stopped")
	return nil
}
