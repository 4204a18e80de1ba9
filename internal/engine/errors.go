package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/caseintake/internal/store"
)

var (
	// ErrStopped is returned by Dispatch after Stop.
	ErrStopped = errors.New("engine stopped")

	// ErrNoTargetCase is returned for a command that names no case.
	ErrNoTargetCase = errors.New("command has no target case")
)

// DispatchErrorCode categorizes dispatch failures.
type DispatchErrorCode string

const (
	// ErrCodeLoadFailed indicates the case log could not be read.
	ErrCodeLoadFailed DispatchErrorCode = "LOAD_FAILED"

	// ErrCodeDecodeFailed indicates a stored envelope could not be decoded.
	ErrCodeDecodeFailed DispatchErrorCode = "DECODE_FAILED"

	// ErrCodeEncodeFailed indicates a decided event could not be encoded.
	ErrCodeEncodeFailed DispatchErrorCode = "ENCODE_FAILED"

	// ErrCodeAppendFailed indicates the append to the case log failed,
	// including optimistic version conflicts.
	ErrCodeAppendFailed DispatchErrorCode = "APPEND_FAILED"
)

// DispatchError is an infrastructure failure while processing one command.
// Domain outcomes are never errors; they are events.
type DispatchError struct {
	Code          DispatchErrorCode
	CaseID        string
	Command       string
	CorrelationID string
	Err           error
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("%s: %s (case=%s): %v", e.Code, e.Command, e.CaseID, e.Err)
	}
	return fmt.Sprintf("%s (case=%s): %v", e.Code, e.CaseID, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// IsConcurrentAppend reports whether err was caused by another writer
// advancing the case log.
func IsConcurrentAppend(err error) bool {
	return errors.Is(err, store.ErrConcurrentAppend)
}

// IsDecodeError reports whether err was caused by a corrupt stored event.
func IsDecodeError(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == ErrCodeDecodeFailed
	}
	return false
}
