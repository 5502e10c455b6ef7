package party

import "errors"

var (
	// ErrNotFound marks a party, member or song that vanished mid-operation.
	// Callers racing a disconnect treat it as a benign no-op.
	ErrNotFound = errors.New("party: not found")

	// ErrRoomFull is returned by connect when the party already holds the
	// maximum number of members. It maps to a goodbye frame, not a failure.
	ErrRoomFull = errors.New("party: room full")

	// ErrPartyMismatch means the session is bound to a different party than
	// the one requested. The connection attempt is aborted outright.
	ErrPartyMismatch = errors.New("party: session bound to different party")
)
