package render

import "fmt"

// Error is a failed draw. Either Cause is set (the renderer returned an
// error) or Panic is (the renderer panicked).
type Error struct {
	// Seq is the newest sequence number handed to the renderer.
	Seq   uint64
	Cause error
	Panic interface{}
	Stack []byte
}

func (e *Error) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("render panicked at seq %d: %v", e.Seq, e.Panic)
	}
	return fmt.Sprintf("render failed at seq %d: %v", e.Seq, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
