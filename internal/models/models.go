package models

// ReserveSeatRequest - request body for reserving a station
type ReserveSeatRequest struct {
	SeatID string `json:"seat_id" binding:"required"`
}

// ReserveSeatResponse - returned after a successful reservation
type ReserveSeatResponse struct {
	Seat       *Seat `json:"seat"`
	NewBalance int64 `json:"new_balance"`
}

// EnterSeatRequest - request body for entering a station
type EnterSeatRequest struct {
	SeatID string `json:"seat_id" binding:"required"`
}

// EnterSeatResponse - returned after a successful entry
type EnterSeatResponse struct {
	Seat           *Seat  `json:"seat"`
	NewBalance     int64  `json:"new_balance"`
	ActivityStatus string `json:"activity_status"`
}

// EndSessionResponse - settlement returned when a session ends
type EndSessionResponse struct {
	Cost           int64   `json:"cost"`
	ElapsedMinutes float64 `json:"elapsed_minutes"`
	NewBalance     int64   `json:"new_balance"`
}

// RemainingResponse - live countdown data for the polling client
type RemainingResponse struct {
	EffectiveBalance int64 `json:"effective_balance"`
	RemainingMs      int64 `json:"remaining_ms"`
}

// ListSeatsResponseItem - element of the seat map listing
type ListSeatsResponseItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	GridX        int    `json:"grid_x"`
	GridY        int    `json:"grid_y"`
	Status       string `json:"status"`
	OccupantID   *int64 `json:"occupant_id,omitempty"`
	SessionStart string `json:"session_start,omitempty"`
}

// ListSeatsResponse - the whole seat map
type ListSeatsResponse []ListSeatsResponseItem

// CreateSeatRequest - operator request to add a station
type CreateSeatRequest struct {
	Name  string `json:"name" binding:"required"`
	GridX int    `json:"grid_x"`
	GridY int    `json:"grid_y"`
}

// SetSeatStatusRequest - operator override of a seat status
type SetSeatStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateAccountRequest - operator request to register an account
type CreateAccountRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"display_name" binding:"required"`
	Role        string `json:"role"`
	Balance     int64  `json:"balance"`
}

// CreateAccountResponse - returned after account registration
type CreateAccountResponse struct {
	AccountID int64 `json:"account_id"`
}

// SessionSearchResponseItem - element of the operator session-archive search
type SessionSearchResponseItem struct {
	SeatID         string  `json:"seat_id"`
	SeatName       string  `json:"seat_name"`
	AccountID      int64   `json:"account_id"`
	StartedAt      string  `json:"started_at"`
	EndedAt        string  `json:"ended_at"`
	ElapsedMinutes float64 `json:"elapsed_minutes"`
	Cost           int64   `json:"cost"`
	EndedBy        string  `json:"ended_by"`
}

// SessionSearchResponse - operator session-archive search results
type SessionSearchResponse []SessionSearchResponseItem
