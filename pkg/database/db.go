package database

import (
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// User represents the users table
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"unique;not null" json:"username"`
	PasswordHash   string    `gorm:"not null" json:"-"`
	FullName       string    `json:"full_name"`
	IsAdmin        bool      `gorm:"default:false" json:"is_admin"`
	SeniorityScore float64   `gorm:"default:0" json:"seniority_score"`
	CreatedAt      time.Time `json:"created_at"`
}

// Station represents the stations table
type Station struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"unique;not null" json:"name"`
	Number    int       `json:"number"`
	Address   string    `json:"address"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CapacityA int       `gorm:"default:4" json:"capacity_a"`
	CapacityB int       `gorm:"default:4" json:"capacity_b"`
	CapacityC int       `gorm:"default:4" json:"capacity_c"`
	CreatedAt time.Time `json:"created_at"`
}

// StationAssignment is one occupant of a station's shift. Occupancy of
// a (station, shift) pair is the count of its rows.
type StationAssignment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StationID uint      `gorm:"index:idx_station_shift;not null" json:"station_id"`
	Shift     string    `gorm:"index:idx_station_shift;not null" json:"shift"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	SessionID string    `gorm:"index" json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BidSession represents the bid_sessions table
type BidSession struct {
	ID                string     `gorm:"primaryKey" json:"id"`
	Name              string     `gorm:"not null" json:"name"`
	Year              int        `json:"year"`
	Status            string     `gorm:"default:draft" json:"status"`
	BidWindowMinutes  int        `gorm:"default:5" json:"bid_window_minutes"`
	CurrentIndex      int        `gorm:"default:0" json:"current_participant_index"`
	CurrentBidStart   *time.Time `json:"current_bid_start"`
	CurrentBidEnd     *time.Time `json:"current_bid_end"`
	CompletedBids     int        `gorm:"default:0" json:"completed_bids"`
	TotalParticipants int        `gorm:"default:0" json:"total_participants"`
	ActualStart       *time.Time `json:"actual_start"`
	ActualEnd         *time.Time `json:"actual_end"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// SessionParticipant represents the session_participants table
type SessionParticipant struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	SessionID         string     `gorm:"uniqueIndex:idx_session_user;not null" json:"session_id"`
	UserID            uint       `gorm:"uniqueIndex:idx_session_user;not null" json:"user_id"`
	Position          int        `json:"position"`
	BidPriority       float64    `json:"bid_priority"`
	HasBid            bool       `gorm:"default:false" json:"has_bid"`
	Skipped           bool       `gorm:"default:false" json:"skipped"`
	AssignedStationID uint       `json:"assigned_station_id"`
	AssignedShift     string     `json:"assigned_shift"`
	AssignedPosition  string     `json:"assigned_position"`
	WindowStart       *time.Time `json:"window_start"`
	WindowEnd         *time.Time `json:"window_end"`
}

// BidAttempt is the append-only audit log of bid submissions, accepted
// and rejected alike.
type BidAttempt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"index;not null" json:"session_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	StationID uint      `json:"station_id"`
	Shift     string    `json:"shift"`
	Position  string    `json:"position"`
	Accepted  bool      `json:"accepted"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// Migrate runs the schema migration for all tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Station{},
		&StationAssignment{},
		&BidSession{},
		&SessionParticipant{},
		&BidAttempt{},
	)
}

// InitDB initializes the database connection and migrates the schema
func InitDB() *gorm.DB {
	var db *gorm.DB
	var err error

	dsn := os.Getenv("DATABASE_URL")
	if dsn != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	} else {
		dbPath := os.Getenv("DATA_PATH")
		if dbPath == "" {
			dbPath = "shiftbid.db"
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	}

	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	return db
}
