package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrStateConflict         = errors.New("state conflict")
	ErrCapacity              = errors.New("insufficient capacity")
	ErrDataIntegrity         = errors.New("data integrity violation")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
