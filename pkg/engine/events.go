package engine

import (
	"time"

	"github.com/firegroundsoftware/shiftbid-api-go/pkg/models"
)

// EventType names an event the engine emits for external delivery.
type EventType string

const (
	EventBidSubmitted       EventType = "bid-submitted"
	EventTurnStarted        EventType = "turn-started"
	EventTurnSkipped        EventType = "turn-skipped"
	EventTurnTimeoutWarning EventType = "turn-timeout-warning"
	EventSessionStarted     EventType = "session-started"
	EventSessionPaused      EventType = "session-paused"
	EventSessionResumed     EventType = "session-resumed"
	EventSessionCompleted   EventType = "session-completed"
	EventParticipantsAdded  EventType = "participants-added"
)

// Event is the payload relayed to the notification boundary. Fields are
// populated per type; unused ones stay zero and are omitted on the
// wire.
type Event struct {
	Type              EventType     `json:"type"`
	SessionID         string        `json:"session_id"`
	SessionName       string        `json:"session_name,omitempty"`
	UserID            uint          `json:"user_id,omitempty"`
	UserName          string        `json:"user_name,omitempty"`
	StationName       string        `json:"station_name,omitempty"`
	Shift             models.Shift  `json:"shift,omitempty"`
	Position          string        `json:"position,omitempty"`
	DurationSeconds   int           `json:"duration_seconds,omitempty"`
	RemainingSeconds  int           `json:"remaining_seconds,omitempty"`
	AddedCount        int           `json:"added_count,omitempty"`
	TotalParticipants int           `json:"total_participants,omitempty"`
	Timestamp         time.Time     `json:"timestamp"`
}

// Notifier receives engine events for delivery outside the engine
// (real-time push, email/SMS, logging). Publish must not block the
// caller: the engine emits inside the same critical section that
// mutates the session.
type Notifier interface {
	Publish(evt Event)
}

// NopNotifier discards all events.
type NopNotifier struct{}

// Publish implements Notifier.
func (NopNotifier) Publish(Event) {}

func turnStartedEvent(s *models.BidSession, p *models.Participant, now time.Time) Event {
	return Event{
		Type:            EventTurnStarted,
		SessionID:       s.ID,
		SessionName:     s.Name,
		UserID:          p.UserID,
		UserName:        p.Name,
		DurationSeconds: s.BidWindowMinutes * 60,
		Timestamp:       now,
	}
}

func sessionEvent(t EventType, s *models.BidSession, now time.Time) Event {
	return Event{
		Type:        t,
		SessionID:   s.ID,
		SessionName: s.Name,
		Timestamp:   now,
	}
}
