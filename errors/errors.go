package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrWorkerPanic    = fmt.Errorf("worker panic")
	ErrInvalidPayload = fmt.Errorf("invalid event payload")

	// Session and store
	ErrAuthExpired     = fmt.Errorf("session expired, re-authentication required")
	ErrTimeout         = fmt.Errorf("timed out waiting for room data")
	ErrRoomNotFound    = fmt.Errorf("room not found")
	ErrTierNotFound    = fmt.Errorf("tier policy not found")
	ErrSessionClosed   = fmt.Errorf("session closed")
	ErrAlreadyJoined   = fmt.Errorf("room already joined")
	ErrNotJoined       = fmt.Errorf("room not joined")
	ErrRemoteRejected  = fmt.Errorf("action rejected by server")
	ErrInvalidSettings = fmt.Errorf("invalid room settings")
	ErrBusUnavailable  = fmt.Errorf("event bus not connected")
	ErrUnknownEvent    = fmt.Errorf("unknown event type")

	// Admission
	ErrPermissionDenied = fmt.Errorf("permission denied")
	ErrQuotaExceeded    = fmt.Errorf("queue limit reached")
	ErrPlaybackBlocked  = fmt.Errorf("playback blocked by tier limit")
	ErrAdPending        = fmt.Errorf("ad break in progress")

	// Decks
	ErrTracksRequired   = fmt.Errorf("tracks required on both decks")
	ErrSyncUnavailable  = fmt.Errorf("tempo unavailable, position-only sync")
	ErrInvalidDeck      = fmt.Errorf("invalid deck slot")
	ErrDeckEmpty        = fmt.Errorf("deck has no track loaded")
	ErrDJModeDisabled   = fmt.Errorf("dj mode not available")
	ErrInvalidVolume    = fmt.Errorf("volume must be between 0 and 1")
	ErrSameDeck         = fmt.Errorf("cannot sync a deck with itself")
)

// Is and As forward to the standard library so callers importing this package
// do not need a second errors import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}
