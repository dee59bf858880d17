package form

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSubmitInProgress is returned when Submit is called while a prior
	// submission is still running.
	ErrSubmitInProgress = errors.New("submission already in progress")
	// ErrFormDone is returned when a form instance that already submitted
	// successfully is used again.
	ErrFormDone = errors.New("form already submitted")
)

// ValidationError carries field-scoped messages. It blocks submission and is
// meant to be rendered inline next to each field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// DataAccessError wraps a reference-data fetch or write failure.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access failed (%s): %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

// UploadError signals that the image upload failed or returned an unexpected
// response; the submission is aborted before any document write.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("image upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// NotFoundError signals that a selected reference entity or the edited
// vehicle no longer resolves.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// SessionError signals that the submitting user could not be determined.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("cannot read session: %v", e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }
