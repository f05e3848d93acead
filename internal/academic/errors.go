package academic

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated means there is no valid session token; callers surface
// it as a "please log in" message and never retry.
var ErrUnauthenticated = errors.New("academic: unauthenticated")

// UpstreamError wraps a non-success response from the records API. The
// advisor converts it into a generic "couldn't fetch your data" reply;
// retrying is the transport's business, not ours.
type UpstreamError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("academic: %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("academic: %s returned status %d", e.Endpoint, e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
