package optimizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"optipix/internal/config"
	"optipix/internal/scanner"
	"optipix/pkg/imgutil"
)

// Run executes one optimization batch. It returns once every discovered
// file has produced an outcome. A cancelled context stops submission of
// new tasks but lets in-flight tasks finish; the summary still covers the
// work completed. updates may be nil.
func Run(ctx context.Context, cfg config.Run, updates chan<- ProgressUpdate) (Summary, error) {
	summary := Summary{}

	jobs := make(chan scanner.Task)
	results := make(chan Outcome)

	var wg sync.WaitGroup
	wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go func() {
			defer wg.Done()
			for task := range jobs {
				results <- process(task, cfg)
			}
		}()
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range results {
			update := ProgressUpdate{
				File:       res.Display,
				Before:     res.OriginalSize,
				After:      res.OptimizedSize,
				SavedDelta: res.Saved(),
			}
			switch res.Status {
			case StatusOptimized:
				summary.Optimized++
				update.OptimizedDelta = 1
			case StatusSkipped:
				summary.Skipped++
				update.SkippedDelta = 1
			case StatusFailed:
				summary.Failed++
				update.FailedDelta = 1
				summary.Failures = append(summary.Failures, Failure{Path: res.Path, Err: res.Err})
			}
			// Failed files stay out of the byte totals so Saved() reflects
			// only files that produced an output.
			if res.Status != StatusFailed {
				summary.OriginalBytes += res.OriginalSize
				summary.OptimizedBytes += res.OptimizedSize
			}
			if updates != nil {
				updates <- update
			}
		}
	}()

	producerErr := make(chan error, 1)
	go func() {
		defer close(jobs)

		warnings, err := scanner.Walk(ctx, cfg.InputRoot, cfg.Recursive, func(task scanner.Task) error {
			summary.Found++
			if updates != nil {
				updates <- ProgressUpdate{FoundDelta: 1}
			}
			select {
			case jobs <- task:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		summary.Warnings = warnings
		producerErr <- err
	}()

	wg.Wait()
	close(results)
	<-collectorDone

	if err := <-producerErr; err != nil && !errors.Is(err, context.Canceled) {
		return summary, err
	}

	return summary, nil
}

// process runs the full pipeline for one task: read, sniff, optimize,
// size-guard, backup, write. Every per-file error is converted to a
// Failed outcome; nothing here aborts the batch.
func process(task scanner.Task, cfg config.Run) Outcome {
	out := Outcome{Path: task.Path, Display: task.Display}

	fail := func(err error) Outcome {
		out.Status = StatusFailed
		out.Err = err
		return out
	}

	data, err := os.ReadFile(task.Path)
	if err != nil {
		return fail(err)
	}
	out.OriginalSize = int64(len(data))

	sniffed, err := imgutil.SniffBytes(data)
	if err != nil {
		return fail(err)
	}
	if sniffed != task.Format {
		return fail(fmt.Errorf("%w: extension says %s, content is %s", ErrFormatMismatch, task.Format, sniffed))
	}

	opt, err := optimizerFor(task.Format)
	if err != nil {
		return fail(err)
	}

	optimized, err := opt.Optimize(data, cfg)
	if err != nil {
		return fail(fmt.Errorf("optimize %s: %w", task.Format, err))
	}

	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(task.Path); statErr == nil {
		mode = info.Mode().Perm()
	}

	// Size guard: never let optimization grow a file. The original stays
	// untouched; a mirrored output tree still receives a verbatim copy so
	// it remains complete.
	if int64(len(optimized)) >= out.OriginalSize {
		out.Status = StatusSkipped
		out.OptimizedSize = out.OriginalSize
		if !cfg.InPlace() {
			dest, destErr := destinationPath(task, cfg)
			if destErr != nil {
				return fail(destErr)
			}
			if writeErr := writeAtomic(dest, data, mode); writeErr != nil {
				return fail(writeErr)
			}
		}
		return out
	}

	dest, err := destinationPath(task, cfg)
	if err != nil {
		return fail(err)
	}

	if cfg.Backup && cfg.InPlace() {
		if err := writeBackup(task.Path, data, mode); err != nil {
			return fail(fmt.Errorf("backup failed, original left untouched: %w", err))
		}
	}

	if err := writeAtomic(dest, optimized, mode); err != nil {
		return fail(err)
	}

	out.Status = StatusOptimized
	out.OptimizedSize = int64(len(optimized))
	return out
}
