package trace

import "errors"

var (
	// ErrSyntax indicates a malformed trace line.
	ErrSyntax = errors.New("trace: syntax error")

	// ErrUnknownID indicates a release or resize of an id that is not live.
	ErrUnknownID = errors.New("trace: unknown id")

	// ErrDuplicateID indicates a reserve for an id that is already live.
	ErrDuplicateID = errors.New("trace: id already live")

	// ErrDataMismatch indicates payload bytes changed behind the owner's back.
	ErrDataMismatch = errors.New("trace: payload data mismatch")
)
