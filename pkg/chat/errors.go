package chat

import (
	"errors"
	"fmt"
)

// ErrTimeout means upstream processing exceeded its deadline. Surfaced
// distinctly so callers can offer a "still processing" experience instead
// of a generic failure.
var ErrTimeout = errors.New("upstream processing timed out")

// ServerError is an explicit application-level failure pushed by the server
type ServerError struct {
	Reason string
}

func (e *ServerError) Error() string {
	if e.Reason == "" {
		return "server reported an error"
	}
	return fmt.Sprintf("server reported an error: %s", e.Reason)
}

// MalformedFrameError is a frame that failed to parse as structured data.
// Only fatal in strict decode mode; tolerant mode logs and continues.
type MalformedFrameError struct {
	Raw []byte
}

func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("malformed stream frame: %s", string(e.Raw))
}
