package nav

import "errors"

var (
	// ErrStaleSession marks an event for a message with no live session.
	ErrStaleSession = errors.New("stale session")
	// ErrPromptTimeout marks a disambiguation prompt that received no valid reply.
	ErrPromptTimeout = errors.New("prompt timed out")
	// ErrStaleItem marks a selection whose backing record no longer exists.
	ErrStaleItem = errors.New("stale item")
	// ErrNoCandidates is returned when a prompt is requested with nothing to choose.
	ErrNoCandidates = errors.New("no candidates")
)
