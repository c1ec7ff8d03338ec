package reports

import "errors"

// ErrNotFound covers both a missing report and one owned by someone else.
var ErrNotFound = errors.New("report not found")

// ErrValidation marks bad caller input (empty upload, empty question, ...).
var ErrValidation = errors.New("validation failed")
