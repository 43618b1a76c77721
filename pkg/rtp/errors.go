package rtp

import "fmt"

// ParseCode enumerates the reasons a raw datagram fails to parse as a
// well-formed RTP or RTCP packet.
type ParseCode int

const (
	TooShort ParseCode = iota
	BadVersion
	InconsistentPadding
	ExtensionOverrun
	BadLength
)

func (c ParseCode) String() string {
	switch c {
	case TooShort:
		return "too_short"
	case BadVersion:
		return "bad_version"
	case InconsistentPadding:
		return "inconsistent_padding"
	case ExtensionOverrun:
		return "extension_overrun"
	case BadLength:
		return "bad_length"
	default:
		return "unknown"
	}
}

// ParseError is returned by Parse/ParseRTCP when a datagram does not carry
// a well-formed packet. Inbound parse errors are never surfaced to session
// callbacks; callers that need the taxonomy (tests, metrics) can inspect
// Code via errors.As.
type ParseError struct {
	Code ParseCode
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rtp: parse error (%s): %s", e.Code, e.Msg)
}

func newParseError(code ParseCode, msg string) *ParseError {
	return &ParseError{Code: code, Msg: msg}
}
