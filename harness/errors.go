// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package harness

import (
	"context"
	"errors"
	"fmt"
)

// ErrReadFile is returned when an input file can't be read.
type ErrReadFile struct {
	Path string
	Err  error
}

func (e *ErrReadFile) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ErrReadFile) Unwrap() error {
	return e.Err
}

// ErrWalk is returned when the input tree can't be traversed.
type ErrWalk struct {
	Root string
	Err  error
}

func (e *ErrWalk) Error() string {
	return fmt.Sprintf("walk %s: %v", e.Root, e.Err)
}

func (e *ErrWalk) Unwrap() error {
	return e.Err
}

// ErrWriteFile is returned when an output file can't be written.
type ErrWriteFile struct {
	Op   string // create, write, close
	Path string
	Err  error
}

func (e *ErrWriteFile) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ErrWriteFile) Unwrap() error {
	return e.Err
}

// ErrDatabase is returned when recording results fails.
type ErrDatabase struct {
	Op  string
	Err error
}

func (e *ErrDatabase) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *ErrDatabase) Unwrap() error {
	return e.Err
}

// ErrForest is returned when a forest can't be classified for a reason
// other than ambiguity. The engine never builds such a forest.
type ErrForest struct {
	Path string
	Err  error
}

func (e *ErrForest) Error() string {
	return fmt.Sprintf("%s: malformed forest: %v", e.Path, e.Err)
}

func (e *ErrForest) Unwrap() error {
	return e.Err
}

// Error code constants for database storage.
const (
	ErrCodeReadFile  = "READ_FILE"
	ErrCodeWalk      = "WALK"
	ErrCodeWriteFile = "WRITE_FILE"
	ErrCodeDatabase  = "DATABASE"
	ErrCodeForest    = "FOREST"
	ErrCodeCanceled  = "CANCELED"
	ErrCodeDeadline  = "DEADLINE"
	ErrCodeUnknown   = "UNKNOWN"
)

// ErrorCode returns the error code string for a given error.
// An interrupted run reports the context error, whatever wraps it.
func ErrorCode(err error) string {
	if errors.Is(err, context.Canceled) {
		return ErrCodeCanceled
	} else if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeDeadline
	}
	switch err.(type) {
	case *ErrReadFile:
		return ErrCodeReadFile
	case *ErrWalk:
		return ErrCodeWalk
	case *ErrWriteFile:
		return ErrCodeWriteFile
	case *ErrDatabase:
		return ErrCodeDatabase
	case *ErrForest:
		return ErrCodeForest
	default:
		return ErrCodeUnknown
	}
}
