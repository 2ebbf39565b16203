package ra

import "fmt"

// NetworkError is a transport-level failure reaching the upstream API.
// It is recoverable from the caller's point of view (retry later, check
// connectivity) and is never retried automatically.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("unable to reach upstream: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError is a non-2xx HTTP response from the upstream or proxy.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	switch {
	case e.Status == 429:
		return "rate limited, wait a moment and try again"
	case e.Status >= 500:
		return fmt.Sprintf("upstream temporarily unavailable (status %d)", e.Status)
	default:
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
}

// GraphQLError is a 2xx response carrying an error envelope. Message is the
// first message upstream reported.
type GraphQLError struct {
	Message string
}

func (e *GraphQLError) Error() string {
	if e.Message == "" {
		return "upstream reported an error"
	}
	return e.Message
}

// DecodeError means the response body did not match the expected envelope.
// This is a hard failure with no partial recovery.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed upstream response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
