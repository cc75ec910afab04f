package services

import (
	"errors"
	"fmt"

	"github.com/anonto42/vidspace/backend/internal/docstore"
	"github.com/anonto42/vidspace/backend/internal/metrics"
	"github.com/anonto42/vidspace/backend/validators"
)

// Error kinds returned by the core. Callers test them with errors.Is.
var (
	ErrDuplicateHandle    = errors.New("handle already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrValidation         = errors.New("validation failed")
)

// storageErr maps a store failure onto an error kind, keeping the cause.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

func validate(s any) error {
	if err := validators.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// FieldErrors returns the per-field detail of a validation error, if any.
func FieldErrors(err error) []validators.FieldError {
	var verr *validators.Error
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}

func observe(op string, err error) {
	metrics.Operations.WithLabelValues(op, metrics.Outcome(err,
		ErrValidation, ErrNotFound, ErrForbidden, ErrDuplicateHandle,
		ErrInvalidCredentials, ErrStorageUnavailable,
	)).Inc()
}
