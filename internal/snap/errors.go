package snap

import "errors"

// Validation errors for the source path. Callers wrap these with the
// offending path so the top-level report names it.
var (
	ErrSourceNotFound = errors.New("source directory does not exist")
	ErrNotARepository = errors.New("not a git repository")
)
