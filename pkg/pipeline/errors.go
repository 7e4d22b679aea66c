package pipeline

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies where in the pipeline an error happened
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryConfig
	ErrorCategoryLoad
	ErrorCategoryNormalize
	ErrorCategoryMerge
	ErrorCategoryVerification
	ErrorCategoryExport
	ErrorCategoryModel
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryConfig:
		return "Config"
	case ErrorCategoryLoad:
		return "Load"
	case ErrorCategoryNormalize:
		return "Normalize"
	case ErrorCategoryMerge:
		return "Merge"
	case ErrorCategoryVerification:
		return "Verification"
	case ErrorCategoryExport:
		return "Export"
	case ErrorCategoryModel:
		return "Model"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// ErrVerificationFailed is wrapped by errors from the merge verifier
var ErrVerificationFailed = errors.New("verification failed")

// StageError ties an error to the stage and category it came from
type StageError struct {
	Stage    string
	Category ErrorCategory
	Err      error
}

// NewStageError wraps err, returning nil when err is nil
func NewStageError(stage string, category ErrorCategory, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Category: category, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage [%s]: %v", e.Stage, e.Category, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// CategoryOf returns the category of the first StageError in err's chain
func CategoryOf(err error) ErrorCategory {
	var se *StageError
	if errors.As(err, &se) {
		return se.Category
	}
	return ErrorCategoryNone
}
