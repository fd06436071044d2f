package handlers

import (
	"net/http"
	"strconv"

	"lanhall/internal/models"

	"github.com/gin-gonic/gin"
)

// Operator handlers. All routes here sit behind RequireOperator.

// CreateSeat - POST /api/admin/seats
// Add a station to the floor
func (h *Handlers) CreateSeat(c *gin.Context) {
	var req models.CreateSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	seat, err := h.services.Registry.CreateSeat(c.Request.Context(), &req)
	if err != nil {
		respondDomainError(c, err, "Failed to create seat")
		return
	}

	c.JSON(http.StatusCreated, seat)
}

// DeleteSeat - DELETE /api/admin/seats/:id
// Remove a station; refused while a session is running
func (h *Handlers) DeleteSeat(c *gin.Context) {
	if err := h.services.Registry.DeleteSeat(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err, "Failed to delete seat")
		return
	}

	c.Status(http.StatusOK)
}

// SetSeatStatus - PATCH /api/admin/seats/:id/status
// Operator override between FREE, MAINTENANCE and LOCKED
func (h *Handlers) SetSeatStatus(c *gin.Context) {
	var req models.SetSeatStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	seat, err := h.services.Registry.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondDomainError(c, err, "Failed to set seat status")
		return
	}

	c.JSON(http.StatusOK, seat)
}

// ForceLogout - POST /api/admin/seats/:id/force-logout
// Evict the occupant without billing
func (h *Handlers) ForceLogout(c *gin.Context) {
	seat, err := h.services.Registry.ForceLogout(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "Failed to force logout")
		return
	}

	c.JSON(http.StatusOK, seat)
}

// RefundBooking - POST /api/admin/seats/:id/refund
// Refund a reservation deposit and take the seat into maintenance
func (h *Handlers) RefundBooking(c *gin.Context) {
	if err := h.services.Registry.RefundBooking(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err, "Failed to refund booking")
		return
	}

	c.Status(http.StatusOK)
}

// SearchSessions - GET /api/admin/sessions/search
// Session-archive search for operator reporting
func (h *Handlers) SearchSessions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	if page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be >= 1"})
		return
	}
	if pageSize < 1 || pageSize > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pageSize must be between 1 and 100"})
		return
	}

	var accountID *int64
	if param := c.Query("account_id"); param != "" {
		id, err := strconv.ParseInt(param, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "account_id must be an integer"})
			return
		}
		accountID = &id
	}

	response, err := h.services.Sessions.SearchArchive(
		c.Request.Context(), accountID, c.Query("seat_name"), page, pageSize)
	if err != nil {
		respondDomainError(c, err, "Failed to search sessions")
		return
	}

	c.JSON(http.StatusOK, response)
}

// CreateAccount - POST /api/admin/accounts
// Register a member or operator account
func (h *Handlers) CreateAccount(c *gin.Context) {
	var req models.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Accounts.Create(c.Request.Context(), &req)
	if err != nil {
		respondDomainError(c, err, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, response)
}
