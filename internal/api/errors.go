package api

import (
	"errors"
	"fmt"
)

// NetworkError reports a failed backend call: either the transport failed
// or the server answered with a non-2xx status.
type NetworkError struct {
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%s: %d %s", e.Endpoint, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	default:
		return e.Endpoint + ": request failed"
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err wraps a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
