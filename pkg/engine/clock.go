package engine

import (
	"time"

	"github.com/firegroundsoftware/shiftbid-api-go/pkg/models"
)

// OpenWindow starts a fresh full-duration bid window for p and mirrors
// its bounds onto the session. Only call it for the session's current
// participant; the mirror fields always describe the open turn.
func OpenWindow(s *models.BidSession, p *models.Participant, now time.Time) {
	end := now.Add(time.Duration(s.BidWindowMinutes) * time.Minute)
	p.Window = models.TimeWindow{Start: now, End: end}
	start := now
	s.CurrentBidStart = &start
	s.CurrentBidEnd = &end
}

// IsExpired reports whether the participant's window has lapsed.
func IsExpired(p *models.Participant, now time.Time) bool {
	if p.Window.IsZero() {
		return false
	}
	return p.Window.End.Before(now)
}

// RemainingSeconds returns how long the current participant has left to
// bid, floored at zero. It is zero whenever the session has no open
// turn (not active, or exhausted).
func RemainingSeconds(s *models.BidSession, now time.Time) int {
	if s.Status != models.StatusActive {
		return 0
	}
	cur := s.Current()
	if cur == nil || cur.Window.IsZero() {
		return 0
	}
	rem := cur.Window.End.Sub(now)
	if rem < 0 {
		return 0
	}
	return int(rem / time.Second)
}
