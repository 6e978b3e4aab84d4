package engine

import (
	"fmt"
	"net/http"
)

// Kind names one of the engine's precondition or validation failures.
// The set is closed: every error the engine returns carries exactly one
// of these kinds, and each kind has a fixed HTTP status.
type Kind string

const (
	KindInvalidSessionState  Kind = "invalid_session_state"
	KindNoParticipants       Kind = "no_participants"
	KindDuplicateParticipant Kind = "duplicate_participant"
	KindSessionNotActive     Kind = "session_not_active"
	KindSessionExhausted     Kind = "session_exhausted"
	KindNotYourTurn          Kind = "not_your_turn"
	KindAlreadyBid           Kind = "already_bid"
	KindTurnExpired          Kind = "turn_expired"
	KindTurnNotExpired       Kind = "turn_not_expired"
	KindInvalidStation       Kind = "invalid_station"
	KindInvalidShift         Kind = "invalid_shift"
	KindInvalidPosition      Kind = "invalid_position"
	KindStationInactive      Kind = "station_inactive"
	KindStationAtCapacity    Kind = "station_at_capacity"
)

// HTTPStatus maps the kind to the status handlers respond with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidShift, KindInvalidPosition, KindNoParticipants, KindDuplicateParticipant:
		return http.StatusBadRequest
	case KindNotYourTurn:
		return http.StatusForbidden
	case KindInvalidStation:
		return http.StatusNotFound
	default:
		return http.StatusConflict
	}
}

// Error is a precondition or validation failure. These are user-facing,
// never retried automatically, and never leave partial state behind.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Errf builds an Error with a formatted detail message.
func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
