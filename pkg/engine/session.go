package engine

import (
	"fmt"
	"time"

	"github.com/firegroundsoftware/shiftbid-api-go/pkg/models"
)

// Engine is the bid session state machine. It validates every
// precondition before touching any state, mutates the session (and, for
// bids, the station) in memory, and emits events for the notification
// boundary. It does no I/O of its own: callers load the records, hold
// whatever lock makes the operation atomic, and persist afterwards.
type Engine struct {
	notifier Notifier
}

// New returns an engine publishing into n. A nil notifier discards
// events.
func New(n Notifier) *Engine {
	if n == nil {
		n = NopNotifier{}
	}
	return &Engine{notifier: n}
}

// AddParticipants appends candidates to the roster (see
// queue.AddParticipants) and announces the new roster size.
func (e *Engine) AddParticipants(s *models.BidSession, candidates []models.Participant, now time.Time) error {
	if err := AddParticipants(s, candidates); err != nil {
		return err
	}
	e.notifier.Publish(Event{
		Type:              EventParticipantsAdded,
		SessionID:         s.ID,
		SessionName:       s.Name,
		AddedCount:        len(candidates),
		TotalParticipants: s.TotalParticipants,
		Timestamp:         now,
	})
	return nil
}

// RemoveParticipants drops users from the roster while the session is
// still draft or scheduled.
func (e *Engine) RemoveParticipants(s *models.BidSession, userIDs []uint) error {
	return RemoveParticipants(s, userIDs)
}

// Schedule moves a draft session to scheduled.
func (e *Engine) Schedule(s *models.BidSession) error {
	if s.Status != models.StatusDraft {
		return Errf(KindInvalidSessionState, "only a draft session can be scheduled, session is %s", s.Status)
	}
	s.Status = models.StatusScheduled
	return nil
}

// Start activates the session and opens the first participant's window.
// A draft session may start directly without being scheduled first.
func (e *Engine) Start(s *models.BidSession, now time.Time) error {
	if s.Status != models.StatusDraft && s.Status != models.StatusScheduled {
		return Errf(KindInvalidSessionState, "session is %s, expected draft or scheduled", s.Status)
	}
	if len(s.Participants) == 0 {
		return Errf(KindNoParticipants, "session has no participants")
	}
	s.Status = models.StatusActive
	start := now
	s.ActualStart = &start
	s.CurrentIndex = 0
	first := &s.Participants[0]
	OpenWindow(s, first, now)
	e.notifier.Publish(sessionEvent(EventSessionStarted, s, now))
	e.notifier.Publish(turnStartedEvent(s, first, now))
	return nil
}

// Pause freezes an active session. The cursor and the current window
// are left untouched; Resume decides what the window becomes.
func (e *Engine) Pause(s *models.BidSession, now time.Time) error {
	if s.Status != models.StatusActive {
		return Errf(KindInvalidSessionState, "only an active session can be paused, session is %s", s.Status)
	}
	s.Status = models.StatusPaused
	e.notifier.Publish(sessionEvent(EventSessionPaused, s, now))
	return nil
}

// Resume reactivates a paused session. The current participant gets a
// fresh full-duration window; elapsed time from before the pause is not
// carried over.
func (e *Engine) Resume(s *models.BidSession, now time.Time) error {
	if s.Status != models.StatusPaused {
		return Errf(KindInvalidSessionState, "only a paused session can be resumed, session is %s", s.Status)
	}
	s.Status = models.StatusActive
	if cur := s.Current(); cur != nil {
		OpenWindow(s, cur, now)
		e.notifier.Publish(sessionEvent(EventSessionResumed, s, now))
		e.notifier.Publish(turnStartedEvent(s, cur, now))
		return nil
	}
	e.notifier.Publish(sessionEvent(EventSessionResumed, s, now))
	return nil
}

// SubmitBid runs the full validation chain for the current
// participant's claim on a station slot, then commits the assignment,
// advances the turn, and emits bid-submitted plus either turn-started
// or session-completed. Nothing is mutated until every check has
// passed. The caller must hold the session's (and station's) lock for
// the whole call and persist both records afterwards.
func (e *Engine) SubmitBid(s *models.BidSession, st *models.Station, req models.SubmitBidRequest, now time.Time) error {
	if s.Status != models.StatusActive {
		return Errf(KindSessionNotActive, "session is %s", s.Status)
	}
	cur := s.Current()
	if cur == nil {
		return Errf(KindSessionExhausted, "all %d participants have had their turn", len(s.Participants))
	}
	if cur.UserID != req.UserID {
		return Errf(KindNotYourTurn, "it is %s's turn", cur.Name)
	}
	if cur.HasBid {
		return Errf(KindAlreadyBid, "participant %s has already bid", cur.Name)
	}
	if IsExpired(cur, now) {
		return Errf(KindTurnExpired, "the bid window closed at %s", cur.Window.End.Format(time.RFC3339))
	}
	if st == nil {
		return Errf(KindInvalidStation, "station %d not found", req.StationID)
	}
	if !models.ValidShift(req.Shift) {
		return Errf(KindInvalidShift, "shift %q is not one of A, B, C", req.Shift)
	}
	if !models.ValidPosition(req.Position) {
		return Errf(KindInvalidPosition, "position %q is not biddable", req.Position)
	}
	if _, err := CheckCapacity(st, req.Shift); err != nil {
		return err
	}

	// All checks passed; commit.
	cur.BidHistory = append(cur.BidHistory, models.BidAttempt{
		StationID: st.ID,
		Shift:     req.Shift,
		Position:  req.Position,
		At:        now,
		Accepted:  true,
	})
	cur.AssignedStationID = st.ID
	cur.AssignedShift = req.Shift
	cur.AssignedPosition = req.Position
	cur.HasBid = true
	if err := CommitAssignment(st, req.Shift, cur.UserID); err != nil {
		// CheckCapacity passed under the same lock, so this cannot fail.
		return err
	}
	s.CompletedBids++

	e.notifier.Publish(Event{
		Type:        EventBidSubmitted,
		SessionID:   s.ID,
		SessionName: s.Name,
		UserID:      cur.UserID,
		UserName:    cur.Name,
		StationName: st.Name,
		Shift:       req.Shift,
		Position:    req.Position,
		Timestamp:   now,
	})
	e.advanceTurn(s, now)
	return nil
}

// SkipOrTimeout skips the current participant's turn: they keep
// hasBid=false, receive no assignment, and the cursor advances. The
// timeout driver calls it once a window lapses; an admin may force it
// early. A non-forced call against a live window fails with
// TurnNotExpired so a sweeper racing a just-reopened window cannot eat
// a turn.
func (e *Engine) SkipOrTimeout(s *models.BidSession, now time.Time, force bool) error {
	if s.Status != models.StatusActive {
		return Errf(KindSessionNotActive, "session is %s", s.Status)
	}
	cur := s.Current()
	if cur == nil {
		return Errf(KindSessionExhausted, "all %d participants have had their turn", len(s.Participants))
	}
	if !force && !IsExpired(cur, now) {
		return Errf(KindTurnNotExpired, "window open until %s", cur.Window.End.Format(time.RFC3339))
	}
	cur.Skipped = true
	e.notifier.Publish(Event{
		Type:        EventTurnSkipped,
		SessionID:   s.ID,
		SessionName: s.Name,
		UserID:      cur.UserID,
		UserName:    cur.Name,
		Timestamp:   now,
	})
	e.advanceTurn(s, now)
	return nil
}

// advanceTurn moves the cursor and either opens the next window or
// completes the session.
func (e *Engine) advanceTurn(s *models.BidSession, now time.Time) {
	next, exhausted := Advance(s)
	if exhausted {
		s.Status = models.StatusCompleted
		end := now
		s.ActualEnd = &end
		s.CurrentBidStart = nil
		s.CurrentBidEnd = nil
		e.notifier.Publish(sessionEvent(EventSessionCompleted, s, now))
		return
	}
	OpenWindow(s, next, now)
	e.notifier.Publish(turnStartedEvent(s, next, now))
}

// CheckInvariants recomputes the session's derived state and verifies
// the structural invariants the denormalized fields promise. Tests run
// it after every mutation; it returns the first violation found.
func CheckInvariants(s *models.BidSession) error {
	if s.TotalParticipants != len(s.Participants) {
		return fmt.Errorf("totalParticipants=%d but roster has %d entries", s.TotalParticipants, len(s.Participants))
	}
	bids := 0
	for i, p := range s.Participants {
		if p.Position != i {
			return fmt.Errorf("participant %d holds position %d, positions must be dense", i, p.Position)
		}
		if p.HasBid {
			bids++
			if p.AssignedStationID == 0 || !models.ValidShift(p.AssignedShift) {
				return fmt.Errorf("participant %d has bid but no assignment", p.UserID)
			}
		}
	}
	if s.CompletedBids != bids {
		return fmt.Errorf("completedBids=%d but %d participants have bid", s.CompletedBids, bids)
	}
	if s.CurrentIndex < 0 || s.CurrentIndex > len(s.Participants) {
		return fmt.Errorf("cursor %d out of range 0..%d", s.CurrentIndex, len(s.Participants))
	}
	switch s.Status {
	case models.StatusActive:
		cur := s.Current()
		if cur == nil {
			return fmt.Errorf("active session has an exhausted cursor")
		}
		if s.CurrentBidStart == nil || s.CurrentBidEnd == nil {
			return fmt.Errorf("active session has no mirrored window bounds")
		}
		if !cur.Window.Start.Equal(*s.CurrentBidStart) || !cur.Window.End.Equal(*s.CurrentBidEnd) {
			return fmt.Errorf("mirrored window bounds do not match the current participant's window")
		}
	case models.StatusCompleted:
		if !s.Exhausted() {
			return fmt.Errorf("completed session has cursor %d of %d", s.CurrentIndex, len(s.Participants))
		}
		skipped := 0
		for _, p := range s.Participants {
			if !p.HasBid {
				skipped++
			}
		}
		if bids+skipped != len(s.Participants) {
			return fmt.Errorf("completion closure violated: %d bids + %d skipped != %d participants", bids, skipped, len(s.Participants))
		}
	}
	return nil
}
