package engine

import (
	"sort"

	"github.com/firegroundsoftware/shiftbid-api-go/pkg/models"
)

// AddParticipants appends candidates to the session roster in the order
// given, assigning each the next dense position. The roster may only
// change while the session is draft or scheduled. A candidate whose
// user already appears in the roster (or twice among the candidates)
// rejects the whole batch with DuplicateParticipant.
func AddParticipants(s *models.BidSession, candidates []models.Participant) error {
	if s.Status != models.StatusDraft && s.Status != models.StatusScheduled {
		return Errf(KindInvalidSessionState, "participants can only be added while draft or scheduled, session is %s", s.Status)
	}
	seen := make(map[uint]bool, len(s.Participants))
	for _, p := range s.Participants {
		seen[p.UserID] = true
	}
	for _, c := range candidates {
		if seen[c.UserID] {
			return Errf(KindDuplicateParticipant, "user %d is already a participant", c.UserID)
		}
		seen[c.UserID] = true
	}
	for _, c := range candidates {
		c.Position = len(s.Participants)
		c.HasBid = false
		c.Skipped = false
		s.Participants = append(s.Participants, c)
	}
	s.TotalParticipants = len(s.Participants)
	return nil
}

// RemoveParticipants drops the given users from the roster and
// re-densifies positions to 0..N-1, preserving the prior relative
// order. Like AddParticipants it is only valid while draft or
// scheduled.
func RemoveParticipants(s *models.BidSession, userIDs []uint) error {
	if s.Status != models.StatusDraft && s.Status != models.StatusScheduled {
		return Errf(KindInvalidSessionState, "participants can only be removed while draft or scheduled, session is %s", s.Status)
	}
	drop := make(map[uint]bool, len(userIDs))
	for _, id := range userIDs {
		drop[id] = true
	}
	kept := s.Participants[:0]
	for _, p := range s.Participants {
		if !drop[p.UserID] {
			kept = append(kept, p)
		}
	}
	s.Participants = kept
	sort.SliceStable(s.Participants, func(i, j int) bool {
		return s.Participants[i].Position < s.Participants[j].Position
	})
	for i := range s.Participants {
		s.Participants[i].Position = i
	}
	s.TotalParticipants = len(s.Participants)
	return nil
}

// Advance moves the turn cursor to the next participant. It returns the
// new current participant, or nil with exhausted=true when the cursor
// has run past the roster. Opening the next window is the caller's job.
func Advance(s *models.BidSession) (next *models.Participant, exhausted bool) {
	s.CurrentIndex++
	if s.Exhausted() {
		return nil, true
	}
	return &s.Participants[s.CurrentIndex], false
}
