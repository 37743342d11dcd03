package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"minibus-reservation-backend/internal/model"
	"minibus-reservation-backend/internal/reservation"
)

// CreateReservation handles POST /api/reservations.
func (h *Handler) CreateReservation(c *gin.Context) {
	var params reservation.CreateParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	r, err := h.engine.Create(c.Request.Context(), params)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// ListReservations handles GET /api/reservations. user_id is required;
// reservation_status and date_gte narrow the result. No matches is a
// normal empty array, not an error.
func (h *Handler) ListReservations(c *gin.Context) {
	out, err := h.engine.Query(c.Request.Context(), reservation.QueryParams{
		UserID:  c.Query("user_id"),
		Status:  c.Query("reservation_status"),
		DateGTE: c.Query("date_gte"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if out == nil {
		out = []model.Reservation{}
	}
	c.JSON(http.StatusOK, out)
}

// CancelReservation handles POST /api/reservations/:id/cancel.
func (h *Handler) CancelReservation(c *gin.Context) {
	r, err := h.engine.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type assignShiftRequest struct {
	ShiftID string `json:"shift_id" binding:"required"`
}

// AssignShift handles POST /api/reservations/:id/shift.
func (h *Handler) AssignShift(c *gin.Context) {
	var req assignShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%v: shift_id is required", reservation.ErrValidation)})
		return
	}

	r, err := h.engine.AssignShift(c.Request.Context(), c.Param("id"), req.ShiftID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
