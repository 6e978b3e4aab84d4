package sweep

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/firegroundsoftware/shiftbid-api-go/pkg/engine"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/store"
)

// Sweeper is the external timeout driver. On each tick it looks at
// every active session, warns when the current turn is about to lapse,
// and skips turns whose window has expired. The engine itself never
// runs timers; expiry only takes effect when something calls into it.
type Sweeper struct {
	Store    *store.Store
	Log      *logrus.Logger
	Notifier engine.Notifier
	Interval time.Duration
	Warn     time.Duration

	stop   chan struct{}
	warned map[string]int
}

// New creates a sweeper with the given tick interval and warning lead
// time.
func New(st *store.Store, log *logrus.Logger, n engine.Notifier, interval, warn time.Duration) *Sweeper {
	if n == nil {
		n = engine.NopNotifier{}
	}
	return &Sweeper{
		Store:    st,
		Log:      log,
		Notifier: n,
		Interval: interval,
		Warn:     warn,
		stop:     make(chan struct{}),
		warned:   make(map[string]int),
	}
}

// Run ticks until Stop is called. Call it in its own goroutine.
func (s *Sweeper) Run() {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.SweepOnce(time.Now())
		}
	}
}

// Stop ends the Run loop.
func (s *Sweeper) Stop() {
	close(s.stop)
}

// SweepOnce processes every active session at the given instant.
func (s *Sweeper) SweepOnce(now time.Time) {
	sessions, err := s.Store.ActiveSessions()
	if err != nil {
		s.Log.WithError(err).Error("sweep: could not list active sessions")
		return
	}
	for _, sess := range sessions {
		cur := sess.Current()
		if cur == nil {
			continue
		}
		remaining := engine.RemainingSeconds(sess, now)
		if remaining > 0 {
			// warned stores cursor+1 so the zero value never
			// matches a live turn.
			if time.Duration(remaining)*time.Second <= s.Warn && s.warned[sess.ID] != sess.CurrentIndex+1 {
				s.warned[sess.ID] = sess.CurrentIndex + 1
				s.Notifier.Publish(engine.Event{
					Type:             engine.EventTurnTimeoutWarning,
					SessionID:        sess.ID,
					SessionName:      sess.Name,
					UserID:           cur.UserID,
					UserName:         cur.Name,
					RemainingSeconds: remaining,
					Timestamp:        now,
				})
			}
			continue
		}
		if !engine.IsExpired(cur, now) {
			continue
		}
		// The skip re-validates under the session lock, so losing a
		// race against a last-second bid is harmless.
		if _, err := s.Store.SkipOrTimeout(sess.ID, now, false); err != nil {
			if _, ok := err.(*engine.Error); ok {
				continue
			}
			s.Log.WithError(err).WithField("session", sess.ID).Error("sweep: skip failed")
			continue
		}
		s.Log.WithFields(logrus.Fields{
			"session": sess.ID,
			"user":    cur.UserID,
		}).Info("turn timed out, participant skipped")
		delete(s.warned, sess.ID)
	}
}
