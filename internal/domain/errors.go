package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation          = errors.New("invalid input")
	ErrAmbiguousMatch      = errors.New("ambiguous catalog match")
	ErrProductNotFound     = errors.New("product not found in catalog")
	ErrExtractionFailed    = errors.New("document yielded no text")
	ErrNoItemsRecognized   = errors.New("no items recognized")
	ErrPersistence         = errors.New("session persistence failed")
	ErrSessionNotFound     = errors.New("session not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrArchiveTooLarge     = errors.New("archive exceeds allowed size")
	ErrNoPendingBatch      = errors.New("no pending batch result")
	ErrBatchTimeout        = errors.New("batch processing timed out")
	ErrInvalidCatalog      = errors.New("invalid catalog")
)

// ValidationError reports malformed numeric, integer or date input at a conversation step.
type ValidationError struct {
	Field  string
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Field, e.Input, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// AmbiguousMatchError reports that free text matched zero or several catalog entries.
type AmbiguousMatchError struct {
	Input      string
	Candidates []string
}

func (e *AmbiguousMatchError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("%q: no catalog match", e.Input)
	}
	return fmt.Sprintf("%q matches %d catalog entries: %s", e.Input, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousMatchError) Unwrap() error {
	if len(e.Candidates) == 0 {
		return ErrProductNotFound
	}
	return ErrAmbiguousMatch
}

// PersistenceError wraps a session store failure.
type PersistenceError struct {
	Op     string
	UserID int64
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("session %s for user %d: %v", e.Op, e.UserID, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }
