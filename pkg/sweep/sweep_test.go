package sweep

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/firegroundsoftware/shiftbid-api-go/pkg/database"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/engine"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/models"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/store"
)

type recorder struct {
	events []engine.Event
}

func (r *recorder) Publish(evt engine.Event) {
	r.events = append(r.events, evt)
}

var testTime = time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)

func startedSession(t *testing.T) (*store.Store, *models.BidSession) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var ids []uint
	for i := 1; i <= 2; i++ {
		u := database.User{Username: fmt.Sprintf("u%d", i), PasswordHash: "x", FullName: fmt.Sprintf("User %d", i)}
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
		ids = append(ids, u.ID)
	}

	st := store.New(db, engine.New(nil))
	sess, err := st.CreateSession("Sweep Test", 2026, 5)
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
	return st, started
}

func newSweeper(st *store.Store, rec *recorder) *Sweeper {
	log := logrus.New()
	log.SetOutput(&strings.Builder{})
	return New(st, log, rec, time.Second, 60*time.Second)
}

func TestSweepOnce_WarnsThenSkips(t *testing.T) {
	st, sess := startedSession(t)
	rec := &recorder{}
	s := newSweeper(st, rec)

	// Mid-window: nothing to do.
	s.SweepOnce(testTime.Add(time.Minute))
	if len(rec.events) != 0 {
		t.Fatalf("early sweep emitted %v", rec.events)
	}

	// Inside the warning lead: one warning, once.
	warnAt := testTime.Add(4*time.Minute + 30*time.Second)
	s.SweepOnce(warnAt)
	s.SweepOnce(warnAt.Add(time.Second))
	if len(rec.events) != 1 || rec.events[0].Type != engine.EventTurnTimeoutWarning {
		t.Fatalf("events = %v, want one turn-timeout-warning", rec.events)
	}
	if rec.events[0].RemainingSeconds != 30 {
		t.Errorf("warning remaining = %d, want 30", rec.events[0].RemainingSeconds)
	}

	// Past the window: the turn is skipped and the cursor advances.
	s.SweepOnce(testTime.Add(5*time.Minute + time.Second))
	got, err := st.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.CurrentIndex != 1 {
		t.Errorf("cursor = %d after expiry sweep, want 1", got.CurrentIndex)
	}
	if !got.Participants[0].Skipped || got.Participants[0].HasBid {
		t.Errorf("P1 = %+v, want skipped without a bid", got.Participants[0])
	}
}

func TestSweepOnce_IgnoresPausedSessions(t *testing.T) {
	st, sess := startedSession(t)
	rec := &recorder{}
	s := newSweeper(st, rec)

	if _, err := st.Pause(sess.ID, testTime.Add(time.Minute)); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	s.SweepOnce(testTime.Add(time.Hour))
	got, _ := st.GetSession(sess.ID)
	if got.CurrentIndex != 0 || got.Status != models.StatusPaused {
		t.Errorf("sweep touched a paused session: %+v", got)
	}
	if len(rec.events) != 0 {
		t.Errorf("sweep emitted events for a paused session: %v", rec.events)
	}
}
