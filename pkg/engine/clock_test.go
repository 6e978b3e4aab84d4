package engine

import (
	"testing"
	"time"

	"github.com/firegroundsoftware/shiftbid-api-go/pkg/models"
)

func TestOpenWindow_MirrorsBoundsOntoSession(t *testing.T) {
	s := draftSession(10)
	p := &s.Participants[0]
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)

	OpenWindow(s, p, now)

	wantEnd := now.Add(5 * time.Minute)
	if !p.Window.Start.Equal(now) || !p.Window.End.Equal(wantEnd) {
		t.Errorf("window = %v..%v, want %v..%v", p.Window.Start, p.Window.End, now, wantEnd)
	}
	if s.CurrentBidStart == nil || !s.CurrentBidStart.Equal(now) {
		t.Errorf("CurrentBidStart not mirrored")
	}
	if s.CurrentBidEnd == nil || !s.CurrentBidEnd.Equal(wantEnd) {
		t.Errorf("CurrentBidEnd not mirrored")
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	p := &models.Participant{Window: models.TimeWindow{Start: now, End: now.Add(5 * time.Minute)}}

	if IsExpired(p, now) {
		t.Errorf("window expired at open")
	}
	if IsExpired(p, now.Add(5*time.Minute)) {
		t.Errorf("window expired exactly at its end bound")
	}
	if !IsExpired(p, now.Add(5*time.Minute+time.Second)) {
		t.Errorf("window not expired past its end")
	}
	if IsExpired(&models.Participant{}, now) {
		t.Errorf("never-opened window reported expired")
	}
}

func TestRemainingSeconds(t *testing.T) {
	s := draftSession(10)
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	eng := New(nil)
	if err := eng.Start(s, now); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if got := RemainingSeconds(s, now.Add(90*time.Second)); got != 210 {
		t.Errorf("RemainingSeconds = %d, want 210", got)
	}
	if got := RemainingSeconds(s, now.Add(time.Hour)); got != 0 {
		t.Errorf("lapsed window remaining = %d, want 0", got)
	}

	s.Status = models.StatusPaused
	if got := RemainingSeconds(s, now); got != 0 {
		t.Errorf("paused session remaining = %d, want 0", got)
	}
}
