package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrBriefNotFound    = errors.New("case brief not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrExtraction       = errors.New("extraction failed")
	ErrVectorStore      = errors.New("vector store failure")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// StageError identifies which pipeline stage failed fatally. Degradable
// stages (research sub-calls, fact check) never surface one of these.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func NewStageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
