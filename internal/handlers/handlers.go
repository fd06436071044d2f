package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	apperr "lanhall/internal/errors"
	"lanhall/internal/middleware"
	"lanhall/internal/models"
	"lanhall/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services *service.Services
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{services: services}
}

// respondDomainError translates the domain error taxonomy into HTTP
// responses. Anything outside the taxonomy is a storage fault and
// surfaces as a 500 with a generic message.
func respondDomainError(c *gin.Context, err error, fallback string) {
	if seated, ok := apperr.IsAlreadySeated(err); ok {
		c.JSON(http.StatusConflict, gin.H{
			"error": seated.Error(),
			"kind":  "AlreadySeated",
			"seat":  seated.SeatName,
		})
		return
	}

	switch {
	case errors.Is(err, apperr.ErrSeatNotFound), errors.Is(err, apperr.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "kind": "NotFound"})
	case errors.Is(err, apperr.ErrInsufficientBalance):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error(), "kind": "InsufficientBalance"})
	case errors.Is(err, apperr.ErrSeatUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "kind": "SeatUnavailable"})
	case errors.Is(err, apperr.ErrReservationMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "kind": "ReservationMismatch"})
	case errors.Is(err, apperr.ErrSeatBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "kind": "SeatBusy"})
	case errors.Is(err, apperr.ErrNotPlaying):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "kind": "NotPlaying"})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "kind": "Conflict"})
	default:
		slog.Error(fallback, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func accountID(c *gin.Context) (int64, bool) {
	id, ok := middleware.AccountIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return id, ok
}

// ReserveSeat - POST /api/seats/reserve
// Reserve a station against the deposit
func (h *Handlers) ReserveSeat(c *gin.Context) {
	var req models.ReserveSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, ok := accountID(c)
	if !ok {
		return
	}

	response, err := h.services.Registry.Reserve(c.Request.Context(), req.SeatID, id)
	if err != nil {
		respondDomainError(c, err, "Failed to reserve seat")
		return
	}

	c.JSON(http.StatusOK, response)
}

// EnterSeat - POST /api/seats/enter
// Enter a free station or claim an own reservation
func (h *Handlers) EnterSeat(c *gin.Context) {
	var req models.EnterSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, ok := accountID(c)
	if !ok {
		return
	}

	response, err := h.services.Registry.Enter(c.Request.Context(), req.SeatID, id)
	if err != nil {
		respondDomainError(c, err, "Failed to enter seat")
		return
	}

	c.JSON(http.StatusOK, response)
}

// EndSession - POST /api/sessions/end
// Settle and close the caller's occupied session
func (h *Handlers) EndSession(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}

	response, err := h.services.Sessions.End(c.Request.Context(), id, models.RoleMember)
	if err != nil {
		respondDomainError(c, err, "Failed to end session")
		return
	}

	c.JSON(http.StatusOK, response)
}

// PreviewRemaining - GET /api/sessions/remaining
// Live countdown data; read-only, safe to poll
func (h *Handlers) PreviewRemaining(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}

	response, err := h.services.Sessions.PreviewRemaining(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "Failed to compute remaining time")
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListSeats - GET /api/seats
// The seat map with status and grid positions
func (h *Handlers) ListSeats(c *gin.Context) {
	response, err := h.services.Registry.ListSeats(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list seats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list seats"})
		return
	}

	c.JSON(http.StatusOK, response)
}
