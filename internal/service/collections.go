package service

import (
	"errors"
	"fmt"

	"studiora/backend/internal/collection"
	apperrors "studiora/backend/internal/errors"
)

// Change is the result of a collection mutation. Synced is false when the
// snapshot could not be written and the stored copy is behind.
type Change[T any] struct {
	Value  T
	Synced bool
}

func collectionError(err error, what string) *apperrors.APIError {
	var validationErr *collection.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return apperrors.Validation(validationErr.Field, validationErr.Message)
	case errors.Is(err, collection.ErrNotFound):
		return apperrors.NotFound("not_found", fmt.Sprintf("%s not found", what))
	case errors.Is(err, collection.ErrDuplicate):
		return apperrors.Conflict("validation_error", fmt.Sprintf("%s id already exists", what), nil)
	default:
		return apperrors.Internal(fmt.Sprintf("failed to load %ss", what))
	}
}
