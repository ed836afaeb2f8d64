package model

import (
	"errors"
	"fmt"
)

// Error classes. Request layers map ErrValidation, ErrReferential and the
// not-found sentinels to client errors and everything else to server errors.
var (
	ErrValidation  = errors.New("validation failed")
	ErrReferential = errors.New("referential integrity violation")
)

var (
	ErrTargetNotFound   = errors.New("cluster target not found")
	ErrTargetInvalid    = errors.New("cluster target invalid")
	ErrWorkloadNotFound = errors.New("workload not found")
	ErrWorkloadExists   = errors.New("workload already exists")
	ErrWorkloadInvalid  = errors.New("workload invalid")
	ErrInstanceNotFound = errors.New("service instance not found")
	ErrArtifactNotFound = errors.New("model artifact not found")
	ErrArtifactExists   = errors.New("model artifact already exists")

	ErrArtifactInUse = fmt.Errorf("model artifact is referenced by a service instance: %w", ErrReferential)
	ErrWorkloadInUse = fmt.Errorf("workload has service instances: %w", ErrReferential)
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid returns a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsClientError reports whether err is caused by the caller's input rather
// than by cluster or registry availability.
func IsClientError(err error) bool {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrReferential):
		return true
	case errors.Is(err, ErrTargetNotFound), errors.Is(err, ErrWorkloadNotFound),
		errors.Is(err, ErrInstanceNotFound), errors.Is(err, ErrArtifactNotFound):
		return true
	case errors.Is(err, ErrWorkloadExists), errors.Is(err, ErrArtifactExists):
		return true
	}
	return false
}
