package domain

import (
	"errors"
	"fmt"
)

// ValidationError is a user-facing rejection: a descriptive reason, never a
// stack trace. Engine operations return it for bad input rather than failing
// the process.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a user-facing validation rejection.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
