package store

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/firegroundsoftware/shiftbid-api-go/pkg/database"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/engine"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/models"
)

var testTime = time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// testStore seeds n users and one station (capacity capA on shift A, 4
// elsewhere) and returns a started session holding all n users.
func testStore(t *testing.T, n, capA int) (*Store, *models.BidSession, *database.Station) {
	t.Helper()
	db := testDB(t)

	var ids []uint
	for i := 1; i <= n; i++ {
		u := database.User{
			Username:       fmt.Sprintf("ff%d", i),
			PasswordHash:   "x",
			FullName:       fmt.Sprintf("Firefighter %d", i),
			SeniorityScore: float64(n - i),
		}
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
		ids = append(ids, u.ID)
	}
	station := database.Station{Name: "Station 1", Number: 1, IsActive: true, CapacityA: capA, CapacityB: 4, CapacityC: 4}
	if err := db.Create(&station).Error; err != nil {
		t.Fatalf("seed station: %v", err)
	}

	st := New(db, engine.New(nil))
	sess, err := st.CreateSession("2026 Station Bid", 2026, 5)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := st.AddParticipants(sess.ID, ids, testTime); err != nil {
		t.Fatalf("AddParticipants: %v", err)
	}
	started, err := st.Start(sess.ID, testTime)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return st, started, &station
}

func bidFor(sess *models.BidSession, station *database.Station, userID uint) models.SubmitBidRequest {
	return models.SubmitBidRequest{
		SessionID: sess.ID,
		UserID:    userID,
		StationID: station.ID,
		Shift:     models.ShiftA,
		Position:  models.PositionFirefighter,
	}
}

func TestLifecyclePersists(t *testing.T) {
	st, sess, station := testStore(t, 2, 4)

	p1 := sess.Participants[0]
	if _, err := st.SubmitBid(bidFor(sess, station, p1.UserID), testTime.Add(10*time.Second)); err != nil {
		t.Fatalf("SubmitBid: %v", err)
	}

	// Reload from scratch: everything must have survived the write.
	got, err := st.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.CurrentIndex != 1 || got.CompletedBids != 1 {
		t.Errorf("reloaded cursor=%d completed=%d, want 1, 1", got.CurrentIndex, got.CompletedBids)
	}
	if !got.Participants[0].HasBid || got.Participants[0].AssignedStationID != station.ID {
		t.Errorf("reloaded participant lost its assignment: %+v", got.Participants[0])
	}
	if got.Participants[0].Name == "" {
		t.Errorf("participant name not joined from users")
	}
	if err := engine.CheckInvariants(got); err != nil {
		t.Errorf("invariants after reload: %v", err)
	}

	var occ int64
	st.db.Model(&database.StationAssignment{}).
		Where("station_id = ? AND shift = ?", station.ID, "A").Count(&occ)
	if occ != 1 {
		t.Errorf("station occupancy rows = %d, want 1", occ)
	}

	var audit int64
	st.db.Model(&database.BidAttempt{}).Where("session_id = ? AND accepted = ?", sess.ID, true).Count(&audit)
	if audit != 1 {
		t.Errorf("accepted audit rows = %d, want 1", audit)
	}
}

func TestSubmitBid_RejectionLeavesNoTrace(t *testing.T) {
	st, sess, station := testStore(t, 2, 4)

	p2 := sess.Participants[1]
	_, err := st.SubmitBid(bidFor(sess, station, p2.UserID), testTime.Add(10*time.Second))
	ee, ok := err.(*engine.Error)
	if !ok || ee.Kind != engine.KindNotYourTurn {
		t.Fatalf("expected NotYourTurn, got %v", err)
	}

	got, err := st.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.CurrentIndex != 0 || got.CompletedBids != 0 {
		t.Errorf("rejected bid persisted a mutation: cursor=%d completed=%d", got.CurrentIndex, got.CompletedBids)
	}
	var occ int64
	st.db.Model(&database.StationAssignment{}).Where("station_id = ?", station.ID).Count(&occ)
	if occ != 0 {
		t.Errorf("rejected bid committed an occupant")
	}

	// The rejection itself is on the audit log.
	var audit database.BidAttempt
	if err := st.db.Where("session_id = ? AND accepted = ?", sess.ID, false).First(&audit).Error; err != nil {
		t.Fatalf("rejected attempt not audited: %v", err)
	}
	if audit.Reason != string(engine.KindNotYourTurn) {
		t.Errorf("audit reason = %q, want %q", audit.Reason, engine.KindNotYourTurn)
	}
}

func TestCapacityConservation(t *testing.T) {
	st, sess, station := testStore(t, 3, 1)

	now := testTime.Add(time.Second)
	if _, err := st.SubmitBid(bidFor(sess, station, sess.Participants[0].UserID), now); err != nil {
		t.Fatalf("P1 bid: %v", err)
	}

	// Shift A is now full; P2 must be turned away with no state change.
	_, err := st.SubmitBid(bidFor(sess, station, sess.Participants[1].UserID), now.Add(time.Second))
	ee, ok := err.(*engine.Error)
	if !ok || ee.Kind != engine.KindStationAtCapacity {
		t.Fatalf("expected StationAtCapacity, got %v", err)
	}

	got, _ := st.GetSession(sess.ID)
	if got.CurrentIndex != 1 || got.Participants[1].HasBid {
		t.Errorf("failed bid advanced the session")
	}

	// P2 takes a different shift instead.
	req := bidFor(sess, station, sess.Participants[1].UserID)
	req.Shift = models.ShiftB
	if _, err := st.SubmitBid(req, now.Add(2*time.Second)); err != nil {
		t.Fatalf("P2 shift B bid: %v", err)
	}

	var occ int64
	st.db.Model(&database.StationAssignment{}).
		Where("station_id = ? AND shift = ?", station.ID, "A").Count(&occ)
	if occ != 1 {
		t.Errorf("shift A occupancy = %d, capacity is 1", occ)
	}
}

func TestSubmitBid_DuplicateDeliveryRace(t *testing.T) {
	st, sess, station := testStore(t, 1, 4)

	// The same submission arrives twice at once (client retry). Exactly
	// one may commit; the session must advance exactly once.
	req := bidFor(sess, station, sess.Participants[0].UserID)
	now := testTime.Add(time.Second)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = st.SubmitBid(req, now)
		}(i)
	}
	wg.Wait()

	var okCount, rejCount int
	for _, err := range errs {
		if err == nil {
			okCount++
		} else if _, ok := err.(*engine.Error); ok {
			rejCount++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if okCount != 1 || rejCount != 1 {
		t.Fatalf("ok=%d rejected=%d, want exactly one of each", okCount, rejCount)
	}

	var occ int64
	st.db.Model(&database.StationAssignment{}).Where("station_id = ?", station.ID).Count(&occ)
	if occ != 1 {
		t.Errorf("occupancy rows = %d, want 1", occ)
	}
	got, _ := st.GetSession(sess.ID)
	if got.Status != models.StatusCompleted || got.CompletedBids != 1 {
		t.Errorf("session status=%s completed=%d, want completed, 1", got.Status, got.CompletedBids)
	}
}

func TestSkipRacesLateBid(t *testing.T) {
	st, sess, station := testStore(t, 2, 4)

	// P1's window has lapsed. A sweeper skip and a late bid race; the
	// bid must lose with TurnExpired and the cursor advances once.
	late := testTime.Add(6 * time.Minute)
	req := bidFor(sess, station, sess.Participants[0].UserID)

	var wg sync.WaitGroup
	var bidErr, skipErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, bidErr = st.SubmitBid(req, late)
	}()
	go func() {
		defer wg.Done()
		_, skipErr = st.SkipOrTimeout(sess.ID, late, false)
	}()
	wg.Wait()

	if skipErr != nil {
		// The skip can only fail if the bid somehow won; it must not have.
		t.Fatalf("skip failed: %v (bid err: %v)", skipErr, bidErr)
	}
	ee, ok := bidErr.(*engine.Error)
	if !ok || (ee.Kind != engine.KindTurnExpired && ee.Kind != engine.KindNotYourTurn) {
		t.Fatalf("late bid: expected TurnExpired or NotYourTurn, got %v", bidErr)
	}

	got, _ := st.GetSession(sess.ID)
	if got.CurrentIndex != 1 {
		t.Errorf("cursor = %d, want 1", got.CurrentIndex)
	}
	if got.Participants[0].HasBid || !got.Participants[0].Skipped {
		t.Errorf("P1 state = %+v, want skipped and unassigned", got.Participants[0])
	}
}

func TestDeleteSessionGuards(t *testing.T) {
	st, sess, _ := testStore(t, 2, 4)

	err := st.DeleteSession(sess.ID)
	ee, ok := err.(*engine.Error)
	if !ok || ee.Kind != engine.KindInvalidSessionState {
		t.Fatalf("deleting an active session: expected InvalidSessionState, got %v", err)
	}

	if _, err := st.Pause(sess.ID, testTime.Add(time.Minute)); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := st.DeleteSession(sess.ID); err != nil {
		t.Fatalf("deleting a paused session: %v", err)
	}
	if _, err := st.GetSession(sess.ID); err == nil {
		t.Errorf("session still loadable after delete")
	}
	var parts int64
	st.db.Model(&database.SessionParticipant{}).Where("session_id = ?", sess.ID).Count(&parts)
	if parts != 0 {
		t.Errorf("participant rows left behind: %d", parts)
	}
}

func TestPauseResume_FreshWindowPersisted(t *testing.T) {
	st, sess, _ := testStore(t, 2, 4)

	if _, err := st.Pause(sess.ID, testTime.Add(50*time.Second)); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	resumeAt := testTime.Add(200 * time.Second)
	resumed, err := st.Resume(sess.ID, resumeAt)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}

	cur := resumed.Current()
	if cur == nil {
		t.Fatal("resumed session has no current participant")
	}
	if !cur.Window.Start.Equal(resumeAt) || !cur.Window.End.Equal(resumeAt.Add(5*time.Minute)) {
		t.Errorf("resumed window = %v..%v, want a fresh 5m window from %v", cur.Window.Start, cur.Window.End, resumeAt)
	}

	info, err := st.TurnInfo(sess.ID, resumeAt.Add(30*time.Second))
	if err != nil {
		t.Fatalf("TurnInfo: %v", err)
	}
	if info.RemainingSeconds != 270 {
		t.Errorf("RemainingSeconds = %d, want 270", info.RemainingSeconds)
	}
	if info.UserID != cur.UserID {
		t.Errorf("TurnInfo user = %d, want %d", info.UserID, cur.UserID)
	}
}
