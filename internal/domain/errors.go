package domain

import (
	"errors"
	"fmt"
)

// ErrInvalid is the root of all record validation failures.
var ErrInvalid = errors.New("invalid input")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
