// Package chat implements the conversation core: the streaming-event
// reducer, the tool-call lifecycle tracker, and the conversation store that
// owns per-chatbot state and its persistence.
package chat

import (
	"errors"
	"fmt"
	"time"
)

// ErrStreamInFlight is returned by SendUserMessage while a stream is already
// active for the conversation. At most one concurrent stream per
// conversation is allowed.
var ErrStreamInFlight = errors.New("a completion stream is already in flight for this conversation")

// TransportError is a network or connection failure mid-stream. The stream
// is aborted and the partial in-progress item discarded; the user must
// explicitly retry.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError means no stream data arrived within the configured bound. It
// is handled like a transport error but surfaced distinctly.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no response within %s", e.After)
}

// ToolArgumentError means a tool call reached completion but its accumulated
// argument buffer was not valid JSON. The call is marked failed; the
// conversation continues.
type ToolArgumentError struct {
	CallID string
	Name   string
	Err    error
}

func (e *ToolArgumentError) Error() string {
	return fmt.Sprintf("tool call %s (%s) completed with malformed arguments: %v", e.CallID, e.Name, e.Err)
}

func (e *ToolArgumentError) Unwrap() error { return e.Err }
