package session

import "fmt"

// ErrCode enumerates the session-lifecycle failures SPEC_FULL.md's error
// taxonomy assigns to the session layer.
type ErrCode int

const (
	NotBound ErrCode = iota
	AlreadyClosed
	SSRCCollision
)

// Error is returned by Session send operations invoked out of sequence
// (e.g. SendAudioPCM before Bind, or a send after Close). A repeated Close
// returns nil, and Bind out of sequence returns the lifecycle FSM's error.
type Error struct {
	Code ErrCode
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("session: %s", e.Msg) }

func errNotBound() error      { return &Error{Code: NotBound, Msg: "session is not bound"} }
func errAlreadyClosed() error { return &Error{Code: AlreadyClosed, Msg: "session is already closed"} }
