package protocol

import "errors"

// Sentinel errors for the protocol core.
var (
	// ErrRuleViolation marks a message the router classified error: a
	// discriminant that should be structurally impossible at the current
	// stage. Logged with full context, then returned to the caller —
	// fatal to the stage it occurred in.
	ErrRuleViolation = errors.New("protocol: rule violation")

	// ErrPeerTransportFailure wraps any awaited-reply failure. Fatal to
	// the stage it occurred in.
	ErrPeerTransportFailure = errors.New("protocol: peer transport failure")

	// ErrAuthoritativePeerUnavailable is returned when sync-animations
	// cannot reach the authoritative peer. Fatal to this peer's sync.
	ErrAuthoritativePeerUnavailable = errors.New("protocol: authoritative peer unavailable")
)
