package models

import "time"

// NATS Event Types
const (
	EventSeatReserved       = "seat.reserved"
	EventSeatEntered        = "seat.entered"
	EventSessionEnded       = "session.ended"
	EventReservationExpired = "reservation.expired"
	EventSeatForceLogout    = "seat.force_logout"
	EventBookingRefunded    = "booking.refunded"
)

// SeatReservedEvent represents a deposit-backed reservation
type SeatReservedEvent struct {
	SeatID    string    `json:"seat_id"`
	SeatName  string    `json:"seat_name"`
	AccountID int64     `json:"account_id"`
	Deposit   int64     `json:"deposit"`
	Timestamp time.Time `json:"timestamp"`
}

// SeatEnteredEvent represents the start of a billed session
type SeatEnteredEvent struct {
	SeatID       string    `json:"seat_id"`
	SeatName     string    `json:"seat_name"`
	AccountID    int64     `json:"account_id"`
	Refunded     int64     `json:"refunded"`
	SessionStart time.Time `json:"session_start"`
	Timestamp    time.Time `json:"timestamp"`
}

// SessionEndedEvent represents a settled session
type SessionEndedEvent struct {
	SeatID         string    `json:"seat_id"`
	SeatName       string    `json:"seat_name"`
	AccountID      int64     `json:"account_id"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
	ElapsedMinutes float64   `json:"elapsed_minutes"`
	Cost           int64     `json:"cost"`
	NewBalance     int64     `json:"new_balance"`
	EndedBy        string    `json:"ended_by"`
	Timestamp      time.Time `json:"timestamp"`
}

// ReservationExpiredEvent represents a reservation reclaimed by the sweeper
type ReservationExpiredEvent struct {
	SeatID    string    `json:"seat_id"`
	SeatName  string    `json:"seat_name"`
	AccountID int64     `json:"account_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// SeatForceLogoutEvent represents an operator eviction
type SeatForceLogoutEvent struct {
	SeatID    string    `json:"seat_id"`
	SeatName  string    `json:"seat_name"`
	AccountID int64     `json:"account_id"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingRefundedEvent represents an operator-refunded reservation
type BookingRefundedEvent struct {
	SeatID    string    `json:"seat_id"`
	SeatName  string    `json:"seat_name"`
	AccountID int64     `json:"account_id"`
	Refunded  int64     `json:"refunded"`
	Timestamp time.Time `json:"timestamp"`
}
