// Package fetchstate models the result of one outstanding fetch as a
// three-state value: loading, failed with a message, or ready with data.
package fetchstate

import "encoding/json"

// Status is the tag of a State.
type Status int

const (
	StatusLoading Status = iota
	StatusError
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusReady:
		return "ready"
	default:
		return "unknown"
	}
}

// State is Loading until it is resolved or failed exactly once. The zero
// value is Loading.
type State[T any] struct {
	status  Status
	message string
	value   T
}

// Status reports the current tag.
func (s State[T]) Status() Status { return s.status }

// Loading reports whether the fetch is still outstanding.
func (s State[T]) Loading() bool { return s.status == StatusLoading }

// Message returns the error message when failed.
func (s State[T]) Message() (string, bool) {
	return s.message, s.status == StatusError
}

// Value returns the fetched value when ready.
func (s State[T]) Value() (T, bool) {
	return s.value, s.status == StatusReady
}

// Resolve moves a loading state to Ready. It returns false and leaves the
// state untouched if it has already settled.
func (s *State[T]) Resolve(v T) bool {
	if s.status != StatusLoading {
		return false
	}
	s.status = StatusReady
	s.value = v
	return true
}

// Fail moves a loading state to Error. It returns false and leaves the state
// untouched if it has already settled.
func (s *State[T]) Fail(message string) bool {
	if s.status != StatusLoading {
		return false
	}
	s.status = StatusError
	s.message = message
	return true
}

// MarshalJSON encodes the state as {"status": ..., "message"|"value": ...}.
func (s State[T]) MarshalJSON() ([]byte, error) {
	out := struct {
		Status  string `json:"status"`
		Message string `json:"message,omitempty"`
		Value   any    `json:"value,omitempty"`
	}{Status: s.status.String()}

	switch s.status {
	case StatusError:
		out.Message = s.message
	case StatusReady:
		out.Value = s.value
	}
	return json.Marshal(out)
}
