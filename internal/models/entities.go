package models

import (
	"time"
)

// Seat statuses
const (
	SeatFree        = "FREE"
	SeatReserved    = "RESERVED"
	SeatOccupied    = "OCCUPIED"
	SeatMaintenance = "MAINTENANCE"
	SeatLocked      = "LOCKED"
)

// Account activity statuses
const (
	ActivityOffline = "OFFLINE"
	ActivityOnline  = "ONLINE"
	ActivityPlaying = "PLAYING"
)

// Account roles
const (
	RoleMember   = "member"
	RoleOperator = "operator"
)

// Account represents a café member or operator account
type Account struct {
	AccountID      int64     `json:"account_id" db:"account_id"`
	Email          string    `json:"email" db:"email"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	DisplayName    string    `json:"display_name" db:"display_name"`
	Role           string    `json:"role" db:"role"`
	Balance        int64     `json:"balance" db:"balance"`
	ActivityStatus string    `json:"activity_status" db:"activity_status"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	RegisteredAt   time.Time `json:"registered_at" db:"registered_at"`
}

// Seat represents a physical computer station
type Seat struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	GridX        int        `json:"grid_x" db:"grid_x"`
	GridY        int        `json:"grid_y" db:"grid_y"`
	Status       string     `json:"status" db:"status"`
	OccupantID   *int64     `json:"occupant_id" db:"occupant_id"`
	SessionStart *time.Time `json:"session_start" db:"session_start"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Occupiable reports whether the seat can accept a walk-in or a claim
// of an existing reservation.
func (s *Seat) Occupiable() bool {
	return s.Status == SeatFree || s.Status == SeatReserved
}

// SessionRecord is the settlement audit row written when an occupied
// session ends.
type SessionRecord struct {
	ID             int64     `json:"id" db:"id"`
	SeatID         string    `json:"seat_id" db:"seat_id"`
	SeatName       string    `json:"seat_name" db:"seat_name"`
	AccountID      int64     `json:"account_id" db:"account_id"`
	StartedAt      time.Time `json:"started_at" db:"started_at"`
	EndedAt        time.Time `json:"ended_at" db:"ended_at"`
	ElapsedMinutes float64   `json:"elapsed_minutes" db:"elapsed_minutes"`
	Cost           int64     `json:"cost" db:"cost"`
	EndedBy        string    `json:"ended_by" db:"ended_by"`
}
