package regression

import "errors"

var (
	// ErrEmptyDataset is returned when the modeling input has no rows
	ErrEmptyDataset = errors.New("dataset has no rows")
	// ErrTargetNotFound is returned when the target column is absent
	ErrTargetNotFound = errors.New("target column not found")
	// ErrNoFeatures is returned when the target is the only column
	ErrNoFeatures = errors.New("dataset has no feature columns")
	// ErrNonNumericFeature is returned for a feature cell that is not a number
	ErrNonNumericFeature = errors.New("non-numeric feature value")
	// ErrNonNumericTarget is returned for a target cell that is not a number
	ErrNonNumericTarget = errors.New("non-numeric target value")
	// ErrMissingValue is returned for a missing feature or target cell
	ErrMissingValue = errors.New("missing value")
	// ErrInsufficientRows is returned when a split would leave one side empty
	ErrInsufficientRows = errors.New("not enough rows to split into train and test sets")
	// ErrNotFitted is returned when a scaler or model is used before Fit
	ErrNotFitted = errors.New("estimator is not fitted")
	// ErrDimensionMismatch is returned when matrix shapes disagree
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
