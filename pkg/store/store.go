package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/firegroundsoftware/shiftbid-api-go/pkg/database"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/engine"
	"github.com/firegroundsoftware/shiftbid-api-go/pkg/models"
)

// Store runs engine operations against persisted sessions. Every
// mutation of a session executes under that session's mutex and inside
// a transaction, so the read-validate-mutate-write sequence is atomic
// with respect to every other operation on the same session id. That is
// the property that keeps two racing submissions from double-advancing
// the turn or double-filling a station slot.
type Store struct {
	db  *gorm.DB
	eng *engine.Engine

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Store over db running operations through eng.
func New(db *gorm.DB, eng *engine.Engine) *Store {
	return &Store{db: db, eng: eng, locks: make(map[string]*sync.Mutex)}
}

// lockSession acquires the per-session mutex and returns its release.
func (s *Store) lockSession(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// forUpdate adds a row lock on Postgres. SQLite has no FOR UPDATE; its
// single-writer model plus the per-session mutex serialize there.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (s *Store) loadSession(tx *gorm.DB, id string, locked bool) (*database.BidSession, *models.BidSession, error) {
	q := tx
	if locked {
		q = forUpdate(tx)
	}
	var rec database.BidSession
	if err := q.First(&rec, "id = ?", id).Error; err != nil {
		return nil, nil, err
	}
	var parts []database.SessionParticipant
	if err := tx.Where("session_id = ?", id).Order("position").Find(&parts).Error; err != nil {
		return nil, nil, err
	}
	names, err := s.userNames(tx, parts)
	if err != nil {
		return nil, nil, err
	}
	return &rec, sessionModel(&rec, parts, names), nil
}

func (s *Store) userNames(tx *gorm.DB, parts []database.SessionParticipant) (map[uint]string, error) {
	names := make(map[uint]string, len(parts))
	if len(parts) == 0 {
		return names, nil
	}
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		ids = append(ids, p.UserID)
	}
	var users []database.User
	if err := tx.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	return names, nil
}

func (s *Store) saveSession(tx *gorm.DB, rec *database.BidSession, sess *models.BidSession) error {
	applySessionRecord(rec, sess)
	if err := tx.Save(rec).Error; err != nil {
		return err
	}
	// Participant rows are rewritten wholesale: the roster is small and
	// owned exclusively by its session.
	if err := tx.Where("session_id = ?", sess.ID).Delete(&database.SessionParticipant{}).Error; err != nil {
		return err
	}
	recs := participantRecords(sess)
	if len(recs) == 0 {
		return nil
	}
	return tx.Create(&recs).Error
}

// mutate loads the session, applies fn, and persists the result, all
// under the session lock and one transaction. fn returning an error
// rolls everything back.
func (s *Store) mutate(id string, fn func(tx *gorm.DB, sess *models.BidSession) error) (*models.BidSession, error) {
	unlock := s.lockSession(id)
	defer unlock()

	var out *models.BidSession
	err := s.db.Transaction(func(tx *gorm.DB) error {
		rec, sess, err := s.loadSession(tx, id, true)
		if err != nil {
			return err
		}
		if err := fn(tx, sess); err != nil {
			return err
		}
		if err := s.saveSession(tx, rec, sess); err != nil {
			return err
		}
		out = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSession inserts a new draft session.
func (s *Store) CreateSession(name string, year, windowMinutes int) (*models.BidSession, error) {
	rec := database.BidSession{
		ID:               uuid.NewString(),
		Name:             name,
		Year:             year,
		Status:           string(models.StatusDraft),
		BidWindowMinutes: windowMinutes,
	}
	if err := s.db.Create(&rec).Error; err != nil {
		return nil, err
	}
	return sessionModel(&rec, nil, nil), nil
}

// GetSession returns the session with its roster.
func (s *Store) GetSession(id string) (*models.BidSession, error) {
	var out *models.BidSession
	err := s.db.Transaction(func(tx *gorm.DB) error {
		_, sess, err := s.loadSession(tx, id, false)
		out = sess
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListSessions returns all session rows, newest first.
func (s *Store) ListSessions() ([]database.BidSession, error) {
	var recs []database.BidSession
	if err := s.db.Order("created_at desc").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// ActiveSessions returns every active session with its roster; the
// timeout driver sweeps these.
func (s *Store) ActiveSessions() ([]*models.BidSession, error) {
	var recs []database.BidSession
	if err := s.db.Where("status = ?", string(models.StatusActive)).Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*models.BidSession, 0, len(recs))
	for _, rec := range recs {
		sess, err := s.GetSession(rec.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, nil
}

// DeleteSession removes a session that has not started (or was paused
// before finishing). Active and completed sessions cannot be deleted.
func (s *Store) DeleteSession(id string) error {
	unlock := s.lockSession(id)
	defer unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		var rec database.BidSession
		if err := forUpdate(tx).First(&rec, "id = ?", id).Error; err != nil {
			return err
		}
		status := models.SessionStatus(rec.Status)
		if status == models.StatusActive || status == models.StatusCompleted {
			return engine.Errf(engine.KindInvalidSessionState, "cannot delete a session that is %s", status)
		}
		if err := tx.Where("session_id = ?", id).Delete(&database.SessionParticipant{}).Error; err != nil {
			return err
		}
		// Free any slots a paused session had already committed.
		if err := tx.Where("session_id = ?", id).Delete(&database.StationAssignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&rec).Error
	})
}

// AddParticipants appends the given users, in the order given, to the
// session roster. BidPriority is taken from each user's seniority
// score; ordering itself is the caller's responsibility.
func (s *Store) AddParticipants(id string, userIDs []uint, now time.Time) (*models.BidSession, error) {
	return s.mutate(id, func(tx *gorm.DB, sess *models.BidSession) error {
		var users []database.User
		if err := tx.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return err
		}
		byID := make(map[uint]database.User, len(users))
		for _, u := range users {
			byID[u.ID] = u
		}
		cands := make([]models.Participant, 0, len(userIDs))
		for _, uid := range userIDs {
			u, ok := byID[uid]
			if !ok {
				return gorm.ErrRecordNotFound
			}
			cands = append(cands, models.Participant{
				UserID:      u.ID,
				Name:        u.FullName,
				BidPriority: u.SeniorityScore,
			})
		}
		return s.eng.AddParticipants(sess, cands, now)
	})
}

// RemoveParticipants drops users from the roster pre-start.
func (s *Store) RemoveParticipants(id string, userIDs []uint) (*models.BidSession, error) {
	return s.mutate(id, func(tx *gorm.DB, sess *models.BidSession) error {
		return s.eng.RemoveParticipants(sess, userIDs)
	})
}

// Schedule moves a draft session to scheduled.
func (s *Store) Schedule(id string) (*models.BidSession, error) {
	return s.mutate(id, func(tx *gorm.DB, sess *models.BidSession) error {
		return s.eng.Schedule(sess)
	})
}

// Start activates the session.
func (s *Store) Start(id string, now time.Time) (*models.BidSession, error) {
	return s.mutate(id, func(tx *gorm.DB, sess *models.BidSession) error {
		return s.eng.Start(sess, now)
	})
}

// Pause freezes an active session.
func (s *Store) Pause(id string, now time.Time) (*models.BidSession, error) {
	return s.mutate(id, func(tx *gorm.DB, sess *models.BidSession) error {
		return s.eng.Pause(sess, now)
	})
}

// Resume reactivates a paused session with a fresh window.
func (s *Store) Resume(id string, now time.Time) (*models.BidSession, error) {
	return s.mutate(id, func(tx *gorm.DB, sess *models.BidSession) error {
		return s.eng.Resume(sess, now)
	})
}

// SkipOrTimeout skips the current turn. force bypasses the expiry
// check for admin-driven skips.
func (s *Store) SkipOrTimeout(id string, now time.Time, force bool) (*models.BidSession, error) {
	return s.mutate(id, func(tx *gorm.DB, sess *models.BidSession) error {
		return s.eng.SkipOrTimeout(sess, now, force)
	})
}

// SubmitBid runs the full bid sequence for one participant. Session and
// station rows are locked for the whole validate-commit span, so the
// capacity check and the occupancy insert are atomic per (station,
// shift). Rejected attempts are recorded in the audit log after the
// transaction rolls back.
func (s *Store) SubmitBid(req models.SubmitBidRequest, now time.Time) (*models.BidSession, error) {
	unlock := s.lockSession(req.SessionID)
	defer unlock()

	var out *models.BidSession
	err := s.db.Transaction(func(tx *gorm.DB) error {
		rec, sess, err := s.loadSession(tx, req.SessionID, true)
		if err != nil {
			return err
		}

		var st *models.Station
		var stRec database.Station
		if err := forUpdate(tx).First(&stRec, req.StationID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			// A missing station flows through the engine as
			// InvalidStation after the turn checks run.
		} else {
			var occupants []database.StationAssignment
			if err := tx.Where("station_id = ? AND shift = ?", stRec.ID, string(req.Shift)).Find(&occupants).Error; err != nil {
				return err
			}
			st = stationModel(&stRec, occupants)
		}

		if err := s.eng.SubmitBid(sess, st, req, now); err != nil {
			return err
		}

		if err := s.saveSession(tx, rec, sess); err != nil {
			return err
		}
		if err := tx.Create(&database.StationAssignment{
			StationID: req.StationID,
			Shift:     string(req.Shift),
			UserID:    req.UserID,
			SessionID: req.SessionID,
		}).Error; err != nil {
			return err
		}
		if err := tx.Create(&database.BidAttempt{
			SessionID: req.SessionID,
			UserID:    req.UserID,
			StationID: req.StationID,
			Shift:     string(req.Shift),
			Position:  req.Position,
			Accepted:  true,
		}).Error; err != nil {
			return err
		}
		out = sess
		return nil
	})
	if err != nil {
		var ee *engine.Error
		if errors.As(err, &ee) {
			// Best effort: a failed audit write must not mask the
			// rejection the caller needs to see.
			_ = s.db.Create(&database.BidAttempt{
				SessionID: req.SessionID,
				UserID:    req.UserID,
				StationID: req.StationID,
				Shift:     string(req.Shift),
				Position:  req.Position,
				Accepted:  false,
				Reason:    string(ee.Kind),
			}).Error
		}
		return nil, err
	}
	return out, nil
}

// TurnInfo reports whose turn it is and the seconds remaining.
func (s *Store) TurnInfo(id string, now time.Time) (*models.TurnInfo, error) {
	sess, err := s.GetSession(id)
	if err != nil {
		return nil, err
	}
	info := &models.TurnInfo{
		SessionID:        sess.ID,
		Status:           sess.Status,
		RemainingSeconds: engine.RemainingSeconds(sess, now),
	}
	if cur := sess.Current(); cur != nil {
		info.UserID = cur.UserID
		info.UserName = cur.Name
		info.Position = cur.Position
	}
	return info, nil
}
