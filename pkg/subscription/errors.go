package subscription

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is matched by every construction failure in this package
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgumentError describes which field of a settings record was rejected.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidArgument, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrInvalidArgument, e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidArgument) hold for every InvalidArgumentError
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func invalidArgument(field, reason string) error {
	return &InvalidArgumentError{Field: field, Reason: reason}
}
