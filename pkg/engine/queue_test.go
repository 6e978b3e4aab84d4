package engine

import (
	"testing"

	"github.com/firegroundsoftware/shiftbid-api-go/pkg/models"
)

func draftSession(userIDs ...uint) *models.BidSession {
	s := &models.BidSession{
		ID:               "s1",
		Name:             "2026 Station Bid",
		Year:             2026,
		Status:           models.StatusDraft,
		BidWindowMinutes: 5,
	}
	var cands []models.Participant
	for i, id := range userIDs {
		cands = append(cands, models.Participant{UserID: id, BidPriority: float64(i + 1)})
	}
	if err := AddParticipants(s, cands); err != nil {
		panic(err)
	}
	return s
}

func assertDensePositions(t *testing.T, s *models.BidSession) {
	t.Helper()
	for i, p := range s.Participants {
		if p.Position != i {
			t.Errorf("participant %d has position %d, want %d", p.UserID, p.Position, i)
		}
	}
	if s.TotalParticipants != len(s.Participants) {
		t.Errorf("TotalParticipants = %d, want %d", s.TotalParticipants, len(s.Participants))
	}
}

func TestAddParticipants_AssignsDensePositions(t *testing.T) {
	s := draftSession(10, 20, 30)
	assertDensePositions(t, s)

	if err := AddParticipants(s, []models.Participant{{UserID: 40}}); err != nil {
		t.Fatalf("AddParticipants: %v", err)
	}
	if s.Participants[3].Position != 3 {
		t.Errorf("appended participant got position %d, want 3", s.Participants[3].Position)
	}
	assertDensePositions(t, s)
}

func TestAddParticipants_RejectsDuplicates(t *testing.T) {
	s := draftSession(10, 20)

	err := AddParticipants(s, []models.Participant{{UserID: 20}})
	if e, ok := err.(*Error); !ok || e.Kind != KindDuplicateParticipant {
		t.Fatalf("expected DuplicateParticipant, got %v", err)
	}
	if len(s.Participants) != 2 {
		t.Errorf("failed add mutated the roster: %d participants", len(s.Participants))
	}

	// Duplicate inside the candidate batch itself.
	err = AddParticipants(s, []models.Participant{{UserID: 30}, {UserID: 30}})
	if e, ok := err.(*Error); !ok || e.Kind != KindDuplicateParticipant {
		t.Fatalf("expected DuplicateParticipant for in-batch dup, got %v", err)
	}
	if len(s.Participants) != 2 {
		t.Errorf("failed batch partially applied: %d participants", len(s.Participants))
	}
}

func TestAddParticipants_OnlyWhileDraftOrScheduled(t *testing.T) {
	s := draftSession(10)
	s.Status = models.StatusScheduled
	if err := AddParticipants(s, []models.Participant{{UserID: 20}}); err != nil {
		t.Fatalf("add while scheduled: %v", err)
	}

	for _, status := range []models.SessionStatus{models.StatusActive, models.StatusPaused, models.StatusCompleted} {
		s.Status = status
		err := AddParticipants(s, []models.Participant{{UserID: 99}})
		if e, ok := err.(*Error); !ok || e.Kind != KindInvalidSessionState {
			t.Errorf("status %s: expected InvalidSessionState, got %v", status, err)
		}
	}
}

func TestRemoveParticipants_Redensifies(t *testing.T) {
	s := draftSession(10, 20, 30, 40)
	if err := RemoveParticipants(s, []uint{20, 40}); err != nil {
		t.Fatalf("RemoveParticipants: %v", err)
	}
	if len(s.Participants) != 2 {
		t.Fatalf("got %d participants, want 2", len(s.Participants))
	}
	if s.Participants[0].UserID != 10 || s.Participants[1].UserID != 30 {
		t.Errorf("relative order not preserved: %+v", s.Participants)
	}
	assertDensePositions(t, s)
}

func TestRemoveParticipants_RejectedOnceStarted(t *testing.T) {
	s := draftSession(10, 20)
	s.Status = models.StatusActive
	err := RemoveParticipants(s, []uint{10})
	if e, ok := err.(*Error); !ok || e.Kind != KindInvalidSessionState {
		t.Fatalf("expected InvalidSessionState, got %v", err)
	}
	if len(s.Participants) != 2 {
		t.Errorf("rejected removal still mutated roster")
	}
}

func TestAdvance_SignalsExhaustion(t *testing.T) {
	s := draftSession(10, 20)
	next, exhausted := Advance(s)
	if exhausted || next == nil || next.UserID != 20 {
		t.Fatalf("first advance: next=%v exhausted=%v", next, exhausted)
	}
	next, exhausted = Advance(s)
	if !exhausted || next != nil {
		t.Fatalf("second advance should exhaust, got next=%v", next)
	}
	if s.CurrentIndex != 2 {
		t.Errorf("cursor = %d, want 2", s.CurrentIndex)
	}
}
