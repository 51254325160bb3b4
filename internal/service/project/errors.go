package project

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoScenes        = errors.New("no scenes to process")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidSplit    = errors.New("invalid split size")
	ErrOutputNotFound  = errors.New("output not found")
)

// PartitionFailure is a partition whose project file could not be written.
type PartitionFailure struct {
	Partition Partition `json:"partition"`
	Err       error     `json:"-"`
}

// BatchError reports failed partitions of a generation batch.
// Written counts the partitions that did produce a file.
type BatchError struct {
	Failures []PartitionFailure
	Written  int
}

func (e *BatchError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = fmt.Sprintf("partition %d (scenes %d-%d): %v", f.Partition.Index+1, f.Partition.Start+1, f.Partition.End+1, f.Err)
	}
	return fmt.Sprintf("%d of %d partitions failed: %s",
		len(e.Failures), len(e.Failures)+e.Written, strings.Join(msgs, "; "))
}

// Unwrap exposes every partition error to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Partial reports whether some partitions were written despite the failures.
func (e *BatchError) Partial() bool {
	return e.Written > 0
}
