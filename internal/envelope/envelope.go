// Package envelope defines the single response shape every endpoint
// returns and the single decoder every client uses.
//
//	{"ok": true,  "data": {...}}
//	{"ok": false, "message": "car not found"}
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Result is a tagged success/failure body.
type Result[T any] struct {
	OK      bool   `json:"ok"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Ok wraps a successful payload.
func Ok[T any](v T) Result[T] {
	return Result[T]{OK: true, Data: v}
}

// Fail builds a failure body with a user-facing message.
func Fail(message string) Result[any] {
	return Result[any]{Message: message}
}

// Error is returned by Decode when the body reports ok=false.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "request failed"
	}
	return e.Message
}

// ErrMalformed marks bodies that are not an envelope at all.
var ErrMalformed = errors.New("malformed envelope")

// Decode reads one envelope from r. A failure envelope yields *Error.
func Decode[T any](r io.Reader) (T, error) {
	var zero T
	var raw struct {
		OK      *bool           `json:"ok"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.OK == nil {
		return zero, fmt.Errorf("%w: missing ok field", ErrMalformed)
	}
	if !*raw.OK {
		return zero, &Error{Message: raw.Message}
	}
	if len(raw.Data) == 0 || string(raw.Data) == "null" {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(raw.Data, &v); err != nil {
		return zero, fmt.Errorf("%w: data: %v", ErrMalformed, err)
	}
	return v, nil
}
