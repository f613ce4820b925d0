package predictor

import (
	"errors"
	"fmt"
)

// Kind classifies where a fetch failed.
type Kind int

const (
	// KindTransport means no response was received (DNS, refused, timeout).
	KindTransport Kind = iota + 1
	// KindAPI means the server answered with a non-2xx status.
	KindAPI
	// KindMalformed means a 2xx body could not be decoded into the expected shape.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAPI:
		return "api"
	case KindMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// User-facing messages. Each carries the literal "Error:" prefix shown in the
// error panel.
const (
	UnavailableMessage = "Error: The prediction server is currently unavailable. Please try again later!"
	MalformedMessage   = "Error: The prediction server returned an unexpected response."
)

// Error is returned by every Client fetch.
type Error struct {
	Kind       Kind
	Op         string
	URL        string
	StatusCode int
	// Detail is the `detail` field of a non-2xx JSON body, if present.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindAPI:
		if e.Detail != "" {
			return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Detail)
		}
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or 0 if err is not a fetch error.
func KindOf(err error) Kind {
	var ferr *Error
	if errors.As(err, &ferr) {
		return ferr.Kind
	}
	return 0
}

// DisplayMessage turns a fetch error into the single string shown to users.
// Anything that is not an API error with a detail or a malformed body is
// reported as the server being unavailable.
func DisplayMessage(err error) string {
	var ferr *Error
	if !errors.As(err, &ferr) {
		return UnavailableMessage
	}

	switch ferr.Kind {
	case KindAPI:
		if ferr.Detail != "" {
			return "Error: " + ferr.Detail
		}
	case KindMalformed:
		return MalformedMessage
	}
	return UnavailableMessage
}
