package custom_error

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type UniqueViolationError struct {
	message string
	code    string // PostgreSQL error code (e.g., "23505")
}

type ForeignKeyViolationError struct {
	message string
	code    string // PostgreSQL error code (e.g., "23503")
}

func (f *ForeignKeyViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", f.message, f.code)
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", e.message, e.code)
}

// Detail is the message without the database code.
func (e *UniqueViolationError) Detail() string {
	return e.message
}

func (f *ForeignKeyViolationError) Detail() string {
	return f.message
}

func WrapDBError(message, code string) error {
	switch code {
	case "23505":
		return &UniqueViolationError{
			message: message,
			code:    code,
		}
	case "23503":
		return &ForeignKeyViolationError{
			message: "referenced record does not exist: " + message,
			code:    code,
		}
	default:
		return fmt.Errorf("uncategorized error occurred with code %s: %s", code, message)
	}
}

// FromPQ converts constraint violations reported by lib/pq and passes other errors through.
func FromPQ(err error, message string) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505", "23503":
		return WrapDBError(message, string(pqErr.Code))
	default:
		return err
	}
}
