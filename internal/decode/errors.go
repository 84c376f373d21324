package decode

import (
	"errors"
	"fmt"
)

// Failure kinds. Match them with errors.Is.
var (
	ErrMalformed    = errors.New("malformed payload")
	ErrMissingField = errors.New("missing field")
	ErrNotNumeric   = errors.New("not numeric")
)

// maxPayloadEcho bounds how much of a bad payload ends up in log lines.
const maxPayloadEcho = 256

// Error is a failed decode. It carries the raw payload so the caller can
// report it; the payload is never turned into a sample.
type Error struct {
	Kind    error
	Field   string
	Reason  string
	Payload []byte
	Cause   error
}

func newError(kind error, field, reason string, payload []byte, cause error) *Error {
	p := make([]byte, len(payload))
	copy(p, payload)
	return &Error{Kind: kind, Field: field, Reason: reason, Payload: p, Cause: cause}
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Field)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is matches the failure kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// PayloadString returns the raw payload, truncated for log output.
func (e *Error) PayloadString() string {
	if len(e.Payload) > maxPayloadEcho {
		return string(e.Payload[:maxPayloadEcho]) + "..."
	}
	return string(e.Payload)
}

// AsError unwraps err into a decode Error.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
