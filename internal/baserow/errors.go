package baserow

import "fmt"

// AuthError means the credential was rejected. It is treated as globally
// fatal: the token is shared, so sibling tables cannot succeed either.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected (HTTP %d)", e.Status)
}

// RateLimitError means the server asked us to slow down. Retried with
// backoff inside the client.
type RateLimitError struct {
	Status int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (HTTP %d)", e.Status)
}

// TransientError covers timeouts, connection resets and 5xx responses.
// Retried with backoff inside the client.
type TransientError struct {
	Status int // 0 when the failure happened below HTTP
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient network failure: %v", e.Err)
	}
	return fmt.Sprintf("transient server failure (HTTP %d)", e.Status)
}

func (e *TransientError) Unwrap() error { return e.Err }

// MalformedResponseError means the payload did not decode into the
// expected page shape. Retried a bounded number of times, then escalated.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response payload: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// HTTPError covers remaining non-retryable status codes (e.g. 404 for a
// table id that does not exist).
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected HTTP %d: %s", e.Status, e.Body)
}

// retryable reports whether the client should back off and try the same
// page again.
func retryable(err error) bool {
	switch err.(type) {
	case *RateLimitError, *TransientError, *MalformedResponseError:
		return true
	}
	return false
}
