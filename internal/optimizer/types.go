package optimizer

import (
	"errors"

	"optipix/internal/scanner"
)

// ErrFormatMismatch is returned when a file's content signature does not
// match its extension. Such files are failed rather than miscompressed.
var ErrFormatMismatch = errors.New("file content does not match its extension")

// Status classifies the result of processing one file.
type Status int

const (
	StatusOptimized Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOptimized:
		return "optimized"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Outcome is the immutable result of processing one task. Exactly one
// Outcome is produced per discovered file.
type Outcome struct {
	Path          string
	Display       string
	OriginalSize  int64
	OptimizedSize int64
	Status        Status
	Err           error
}

// Saved returns the byte delta for an optimized file, zero otherwise.
func (o Outcome) Saved() int64 {
	if o.Status != StatusOptimized {
		return 0
	}
	return o.OriginalSize - o.OptimizedSize
}

// Failure pairs a file path with the error that failed it.
type Failure struct {
	Path string
	Err  error
}

// Summary is the final immutable result of a batch. The byte totals
// cover optimized and skipped files only; failed files contribute to
// Failed and Failures but never to Saved().
type Summary struct {
	Found          int
	Optimized      int
	Skipped        int
	Failed         int
	OriginalBytes  int64
	OptimizedBytes int64
	Failures       []Failure
	Warnings       []scanner.Warning
}

// Saved returns the cumulative bytes saved across the batch.
func (s Summary) Saved() int64 {
	return s.OriginalBytes - s.OptimizedBytes
}

// ProgressUpdate is a delta message sent to the live display as outcomes
// arrive. Workers complete in any order.
type ProgressUpdate struct {
	FoundDelta     int
	OptimizedDelta int
	SkippedDelta   int
	FailedDelta    int
	SavedDelta     int64
	File           string
	Before         int64
	After          int64
}
