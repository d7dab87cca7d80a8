package override

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is wrapped by every InvalidRequestError.
var ErrInvalidRequest = errors.New("invalid override request")

// InvalidRequestError reports a discretionary override request that cannot
// be honored. No part of the request is applied when it is returned.
type InvalidRequestError struct {
	Field  string
	Reason string
}

// Error returns the error message.
func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid override request: %s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidRequest.
func (e *InvalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}
