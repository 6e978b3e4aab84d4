package models

import "time"

// SessionStatus is the lifecycle state of a bid session.
type SessionStatus string

const (
	StatusDraft     SessionStatus = "draft"
	StatusScheduled SessionStatus = "scheduled"
	StatusActive    SessionStatus = "active"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
)

// Shift identifies one of the department's three rotating shifts.
type Shift string

const (
	ShiftA Shift = "A"
	ShiftB Shift = "B"
	ShiftC Shift = "C"
)

// ValidShift reports whether s is one of the three department shifts.
func ValidShift(s Shift) bool {
	return s == ShiftA || s == ShiftB || s == ShiftC
}

// Riding positions a participant can bid on.
const (
	PositionFirefighter = "firefighter"
	PositionEngineer    = "engineer"
	PositionCaptain     = "captain"
)

// ValidPosition reports whether p is a biddable riding position.
func ValidPosition(p string) bool {
	return p == PositionFirefighter || p == PositionEngineer || p == PositionCaptain
}

// TimeWindow bounds the interval during which a participant may bid.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsZero reports whether the window has never been opened.
func (w TimeWindow) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// BidAttempt is one audit entry in a participant's bid history.
type BidAttempt struct {
	StationID uint      `json:"station_id"`
	Shift     Shift     `json:"shift"`
	Position  string    `json:"position"`
	At        time.Time `json:"at"`
	Accepted  bool      `json:"accepted"`
	Reason    string    `json:"reason,omitempty"`
}

// Participant is a user's slot within a bid session. Position is the
// turn rank (dense 0..N-1); BidPriority is the externally computed
// seniority ordering key.
type Participant struct {
	UserID            uint         `json:"user_id"`
	Name              string       `json:"name"`
	Position          int          `json:"position"`
	BidPriority       float64      `json:"bid_priority"`
	HasBid            bool         `json:"has_bid"`
	Skipped           bool         `json:"skipped"`
	AssignedStationID uint         `json:"assigned_station_id,omitempty"`
	AssignedShift     Shift        `json:"assigned_shift,omitempty"`
	AssignedPosition  string       `json:"assigned_position,omitempty"`
	Window            TimeWindow   `json:"window"`
	BidHistory        []BidAttempt `json:"bid_history,omitempty"`
}

// BidSession is one scheduled round of sequential station/shift
// assignment among a fixed participant roster.
type BidSession struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Year              int           `json:"year"`
	Status            SessionStatus `json:"status"`
	Participants      []Participant `json:"participants"`
	CurrentIndex      int           `json:"current_participant_index"`
	BidWindowMinutes  int           `json:"bid_window_minutes"`
	CurrentBidStart   *time.Time    `json:"current_bid_start,omitempty"`
	CurrentBidEnd     *time.Time    `json:"current_bid_end,omitempty"`
	CompletedBids     int           `json:"completed_bids"`
	TotalParticipants int           `json:"total_participants"`
	ActualStart       *time.Time    `json:"actual_start,omitempty"`
	ActualEnd         *time.Time    `json:"actual_end,omitempty"`
}

// Exhausted reports whether the turn cursor has run past the roster.
func (s *BidSession) Exhausted() bool {
	return s.CurrentIndex >= len(s.Participants)
}

// Current returns the participant whose turn it is, or nil when the
// session is exhausted.
func (s *BidSession) Current() *Participant {
	if s.Exhausted() {
		return nil
	}
	return &s.Participants[s.CurrentIndex]
}

// Station is the capacity view of a station the ledger operates on.
// CurrentAssignments maps each shift to the user ids occupying it.
type Station struct {
	ID                 uint             `json:"id"`
	Name               string           `json:"name"`
	IsActive           bool             `json:"is_active"`
	ShiftCapacity      map[Shift]int    `json:"shift_capacity"`
	CurrentAssignments map[Shift][]uint `json:"current_assignments"`
}

// SubmitBidRequest is a participant's claim on a station slot.
type SubmitBidRequest struct {
	SessionID string `json:"session_id"`
	UserID    uint   `json:"user_id"`
	StationID uint   `json:"station_id"`
	Shift     Shift  `json:"shift"`
	Position  string `json:"position"`
}

// TurnInfo is the snapshot served to clients polling the current turn.
type TurnInfo struct {
	SessionID        string        `json:"session_id"`
	Status           SessionStatus `json:"status"`
	UserID           uint          `json:"user_id,omitempty"`
	UserName         string        `json:"user_name,omitempty"`
	Position         int           `json:"position"`
	RemainingSeconds int           `json:"remaining_seconds"`
}
