package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("not found")
	ErrInvalidConfiguration  = errors.New("invalid configuration")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
