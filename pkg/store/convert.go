package store

import (
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/database"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/models"
)

func sessionModel(rec *database.BidSession, parts []database.SessionParticipant, names map[uint]string) *models.BidSession {
	s := &models.BidSession{
		ID:                rec.ID,
		Name:              rec.Name,
		Year:              rec.Year,
		Status:            models.SessionStatus(rec.Status),
		CurrentIndex:      rec.CurrentIndex,
		BidWindowMinutes:  rec.BidWindowMinutes,
		CurrentBidStart:   rec.CurrentBidStart,
		CurrentBidEnd:     rec.CurrentBidEnd,
		CompletedBids:     rec.CompletedBids,
		TotalParticipants: rec.TotalParticipants,
		ActualStart:       rec.ActualStart,
		ActualEnd:         rec.ActualEnd,
	}
	for _, p := range parts {
		m := models.Participant{
			UserID:            p.UserID,
			Name:              names[p.UserID],
			Position:          p.Position,
			BidPriority:       p.BidPriority,
			HasBid:            p.HasBid,
			Skipped:           p.Skipped,
			AssignedStationID: p.AssignedStationID,
			AssignedShift:     models.Shift(p.AssignedShift),
			AssignedPosition:  p.AssignedPosition,
		}
		if p.WindowStart != nil && p.WindowEnd != nil {
			m.Window = models.TimeWindow{Start: *p.WindowStart, End: *p.WindowEnd}
		}
		s.Participants = append(s.Participants, m)
	}
	return s
}

func applySessionRecord(rec *database.BidSession, s *models.BidSession) {
	rec.Name = s.Name
	rec.Year = s.Year
	rec.Status = string(s.Status)
	rec.CurrentIndex = s.CurrentIndex
	rec.BidWindowMinutes = s.BidWindowMinutes
	rec.CurrentBidStart = s.CurrentBidStart
	rec.CurrentBidEnd = s.CurrentBidEnd
	rec.CompletedBids = s.CompletedBids
	rec.TotalParticipants = s.TotalParticipants
	rec.ActualStart = s.ActualStart
	rec.ActualEnd = s.ActualEnd
}

func participantRecords(s *models.BidSession) []database.SessionParticipant {
	out := make([]database.SessionParticipant, 0, len(s.Participants))
	for _, p := range s.Participants {
		rec := database.SessionParticipant{
			SessionID:         s.ID,
			UserID:            p.UserID,
			Position:          p.Position,
			BidPriority:       p.BidPriority,
			HasBid:            p.HasBid,
			Skipped:           p.Skipped,
			AssignedStationID: p.AssignedStationID,
			AssignedShift:     string(p.AssignedShift),
			AssignedPosition:  p.AssignedPosition,
		}
		if !p.Window.IsZero() {
			start := p.Window.Start
			end := p.Window.End
			rec.WindowStart = &start
			rec.WindowEnd = &end
		}
		out = append(out, rec)
	}
	return out
}

func stationModel(rec *database.Station, occupants []database.StationAssignment) *models.Station {
	st := &models.Station{
		ID:       rec.ID,
		Name:     rec.Name,
		IsActive: rec.IsActive,
		ShiftCapacity: map[models.Shift]int{
			models.ShiftA: rec.CapacityA,
			models.ShiftB: rec.CapacityB,
			models.ShiftC: rec.CapacityC,
		},
		CurrentAssignments: make(map[models.Shift][]uint),
	}
	for _, a := range occupants {
		shift := models.Shift(a.Shift)
		st.CurrentAssignments[shift] = append(st.CurrentAssignments[shift], a.UserID)
	}
	return st
}
