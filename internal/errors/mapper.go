package errors

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kindredapp/kindred-backend/internal/utils/pagination"
)

// Map converts repo/infra errors into domain errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var de *Error
	if errors.As(err, &de) {
		return err // already classified
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("record not found")

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Conflict("record already exists")

	case errors.Is(err, pagination.ErrInvalidToken):
		return InvalidOperation("invalid pagination token")

	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return Internal("request aborted", err)

	default:
		return Internal("storage failure", err)
	}
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == k
}

func IsNotFound(err error) bool         { return IsKind(err, KindNotFound) }
func IsInvalidOperation(err error) bool { return IsKind(err, KindInvalidOperation) }
func IsConflict(err error) bool         { return IsKind(err, KindConflict) }
func IsNotConfigured(err error) bool    { return IsKind(err, KindNotConfigured) }
