package internal

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
)

// Scanner drives a concurrent directory traversal: a shared queue of
// pending directories, a pool of workers enumerating them and a single
// buffered sink receiving every matched path.
type Scanner struct {
	fs DirLister
}

// NewScanner returns a Scanner reading the real filesystem.
func NewScanner() *Scanner { return &Scanner{fs: osLister{}} }

// NewScannerFS returns a Scanner reading through the given DirLister.
func NewScannerFS(l DirLister) *Scanner { return &Scanner{fs: l} }

// Scan seeds the queue with filtered top-level directories, runs the worker
// pool until no pending work remains and leaves the sink fully flushed.
// Only a failure to enumerate the root itself is fatal; everything below it
// is recoverable and never aborts the scan.
func (s *Scanner) Scan(ctx context.Context, opts ScanOptions, sink *Sink, stats *ScanStats) error {
	stats.Start()
	q := newWorkQueue()

	// Seeding: top-level directories pass the starts-with prefix rule;
	// files directly under the root skip the prefix filter entirely.
	entries, err := s.fs.ReadDir(opts.Root)
	if err != nil {
		return fmt.Errorf("read root %s: %w", opts.Root, err)
	}
	rootBuf := newLineBuffer(opts.FlushLines)
	for _, e := range entries {
		name := e.Name()
		if name == "." || name == ".." {
			continue
		}
		if e.IsDir() {
			if opts.matchTopLevelDir(name) {
				q.Enqueue(filepath.Join(opts.Root, name))
			}
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		s.emitFile(ctx, filepath.Join(opts.Root, name), &opts, rootBuf, sink, stats)
	}
	stats.DirsScanned.Add(1)
	n, err := rootBuf.FlushTo(sink)
	if err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	stats.FilesMatched.Add(int64(n))
	if q.Pending() == 0 {
		logrus.Info("No matching directories found")
		return ctx.Err()
	}

	pool, err := ants.NewPool(opts.Threads)
	if err != nil {
		return fmt.Errorf("worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := 0; i < opts.Threads; i++ {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			s.worker(ctx, &opts, q, sink, stats)
		}); err != nil {
			wg.Done()
			q.Close()
			wg.Wait()
			return fmt.Errorf("submit worker: %w", err)
		}
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-q.Finished():
			wg.Wait()
			// a cancelled run is reported as such even when the drain
			// races ahead of the cancellation
			return ctx.Err()
		case <-ctx.Done():
			q.Close()
			wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			logrus.Infof("Stats: dirs=%d matched=%d errors=%d",
				stats.DirsScanned.Load(), stats.FilesMatched.Load(), stats.Errors.Load())
		}
	}
}

// worker dequeues one directory at a time until the exit sentinel, then
// performs a final flush of whatever its private buffer still holds.
func (s *Scanner) worker(ctx context.Context, opts *ScanOptions, q *workQueue, sink *Sink, stats *ScanStats) {
	buf := newLineBuffer(opts.FlushLines)
	for {
		dir, ok := q.Dequeue()
		if !ok {
			break
		}
		s.processDir(ctx, dir, opts, q, buf, sink, stats)
		q.MarkComplete()
	}
	flushLines(buf, sink, stats)
}

// flushLines drains a private buffer into the sink. The matched-file
// counter is advanced only for lines that actually reached the sink, so it
// always equals the number of records written.
func flushLines(buf *lineBuffer, sink *Sink, stats *ScanStats) {
	n, err := buf.FlushTo(sink)
	if err != nil {
		stats.Errors.Add(1)
		logrus.WithError(err).Error("flush")
		return
	}
	stats.FilesMatched.Add(int64(n))
}

// processDir enumerates one directory's immediate children, enqueueing
// subdirectories that pass the nested prefix rule and emitting files that
// pass the extension filter. All I/O happens outside the queue lock.
// Enumeration failure (denied, vanished) skips the directory; the caller
// still marks it complete.
func (s *Scanner) processDir(ctx context.Context, dir string, opts *ScanOptions, q *workQueue, buf *lineBuffer, sink *Sink, stats *ScanStats) {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		stats.Errors.Add(1)
		logrus.WithError(err).WithField("dir", dir).Debug("skip directory")
		return
	}
	stats.DirsScanned.Add(1)
	for _, e := range entries {
		name := e.Name()
		if name == "." || name == ".." {
			continue
		}
		full := filepath.Join(dir, name)
		if e.IsDir() {
			// Pruned directories are not enqueued, so their descendants
			// are never visited.
			if opts.matchNestedDir(full) {
				q.Enqueue(full)
			}
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		s.emitFile(ctx, full, opts, buf, sink, stats)
	}
}

// emitFile routes one file through the extension filter, expanding archives
// in place when enabled.
func (s *Scanner) emitFile(ctx context.Context, path string, opts *ScanOptions, buf *lineBuffer, sink *Sink, stats *ScanStats) {
	if opts.Archives && IsArchive(path) {
		if err := WalkArchive(ctx, path, opts, func(inner string) {
			s.emitLine(path+"::"+inner, buf, sink, stats)
		}); err != nil {
			stats.Errors.Add(1)
			logrus.WithError(err).WithField("archive", path).Debug("skip archive")
		}
		return
	}
	if !opts.allowedExt(path) {
		return
	}
	s.emitLine(path, buf, sink, stats)
}

// emitLine appends one matched path to the private buffer, flushing to the
// shared sink when the threshold is crossed. A path that is not valid UTF-8
// cannot be normalized for the text output and is skipped.
func (s *Scanner) emitLine(path string, buf *lineBuffer, sink *Sink, stats *ScanStats) {
	if !utf8.ValidString(path) {
		stats.Skipped.Add(1)
		logrus.WithField("path", path).Debug("skip non-UTF-8 path")
		return
	}
	buf.Add(path)
	if buf.Full() {
		flushLines(buf, sink, stats)
	}
}
