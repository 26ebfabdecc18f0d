package call

import "errors"

var (
	// ErrNotRegistered is returned when an operation references a
	// connection the registry has never seen or has already closed.
	ErrNotRegistered = errors.New("connection not registered")

	// ErrRoomFull is returned when a third distinct connection attempts
	// to join a two-party call room. Joins are rejected rather than
	// admitted; a consultation is strictly one patient and one doctor.
	ErrRoomFull = errors.New("call room already has two participants")

	// ErrNotInRoom is returned when a signal references a room the
	// sender never joined. The message is dropped, never forwarded.
	ErrNotInRoom = errors.New("sender is not a member of the call room")
)
