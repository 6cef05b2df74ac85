package service

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure so callers can branch on it without
// parsing message text.
type Kind int

const (
	// KindInvalidArgument marks malformed or missing input, including
	// self-targeting operations.
	KindInvalidArgument Kind = iota
	// KindNotFound marks a missing conversation, message, user or
	// participant.
	KindNotFound
	// KindForbidden marks a caller lacking the required role or
	// participation.
	KindForbidden
	// KindBlocked marks a delivery rejected by the moderation gate.
	KindBlocked
)

// Error is a typed domain failure. Infrastructure failures are returned as
// plain errors and map to an internal status at the edge.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// ErrorKind extracts the Kind from err, reporting ok=false for
// non-domain errors.
func ErrorKind(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

func invalidArgumentf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func forbiddenf(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

// ErrBlocked is returned when the moderation gate rejects a send.
var ErrBlocked = &Error{Kind: KindBlocked, Msg: "you are blocked by a participant of this conversation"}
