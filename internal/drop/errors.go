package drop

import "errors"

var (
	// ErrNotFound reports an unknown session, an unknown file, or a
	// file that is not in a deliverable state. The three cases are
	// deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrSessionGone reports that a session vanished between a
	// caller's lookup and a mutation, typically a race with expiry.
	ErrSessionGone = errors.New("session gone")

	// ErrInvalidName reports a display name that sanitizes to nothing.
	ErrInvalidName = errors.New("invalid filename")
)
