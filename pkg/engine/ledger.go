package engine

import (
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/models"
)

// CheckCapacity returns the number of open slots on the station's
// shift. It fails with StationInactive, InvalidShift, or
// StationAtCapacity when the slot cannot take another occupant.
func CheckCapacity(st *models.Station, shift models.Shift) (int, error) {
	if st == nil {
		return 0, Errf(KindInvalidStation, "station not found")
	}
	if !st.IsActive {
		return 0, Errf(KindStationInactive, "station %s is not active", st.Name)
	}
	if !models.ValidShift(shift) {
		return 0, Errf(KindInvalidShift, "shift %q is not one of A, B, C", shift)
	}
	available := st.ShiftCapacity[shift] - len(st.CurrentAssignments[shift])
	if available <= 0 {
		return 0, Errf(KindStationAtCapacity, "station %s shift %s is full", st.Name, shift)
	}
	return available, nil
}

// CommitAssignment records userID as an occupant of the station's
// shift. It re-runs the capacity check so that check and commit stay a
// single logical step; callers must hold the station's lock so no other
// bid can slip between the two.
func CommitAssignment(st *models.Station, shift models.Shift, userID uint) error {
	if _, err := CheckCapacity(st, shift); err != nil {
		return err
	}
	if st.CurrentAssignments == nil {
		st.CurrentAssignments = make(map[models.Shift][]uint)
	}
	st.CurrentAssignments[shift] = append(st.CurrentAssignments[shift], userID)
	return nil
}
