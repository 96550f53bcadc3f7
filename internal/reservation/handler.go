package reservation

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"studioslot/internal/api"
	"studioslot/internal/auth"
	"studioslot/internal/db"
	"studioslot/internal/schedule"

	"github.com/gin-gonic/gin"
)

// respondReadError maps read failures that survived the service's retry.
// Transient store errors surface as 503 so clients know to try again.
func respondReadError(c *gin.Context, err error, msg string) {
	if db.Transient(err) {
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: msg + ", try again shortly"})
		return
	}
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: msg})
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func actorFrom(c *gin.Context) (Actor, bool) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return Actor{}, false
	}
	role, ok := auth.GetRole(c)
	if !ok {
		return Actor{}, false
	}
	return Actor{ID: userID, Role: role}, true
}

// BookSeat godoc
// @Summary      Book a seat
// @Description  Books one seat in a class on a date. Staff may pass
// @Description  member_id to book on a member's behalf.
// @Tags         reservations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      BookRequest  true  "Booking request"
// @Success      201      {object}  Reservation
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /reservations [post]
func (h *Handler) BookSeat(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindingError(c, err)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Date must be YYYY-MM-DD"})
		return
	}

	res, err := h.service.BookSeat(c.Request.Context(), actor, req.MemberID, req.ClassID, date)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrForbidden):
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Not allowed"})
		case errors.Is(err, ErrNoActiveMembership):
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "No active membership covers this date"})
		case errors.Is(err, schedule.ErrClassNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Class not found"})
		case errors.Is(err, ErrInvalidScheduleDate):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Class is not bookable on this date"})
		case errors.Is(err, ErrCapacityExceeded):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Class is full for this date"})
		case errors.Is(err, ErrDuplicateReservation):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "You already have a reservation for this class"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to book seat"})
		}
		return
	}

	c.JSON(http.StatusCreated, res)
}

// CancelSeat godoc
// @Summary      Cancel a reservation
// @Description  Owner or staff only; cancelled reservations stay on record.
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Param        reservationID  path      int  true  "Reservation ID"
// @Success      200            {object}  api.MessageResponse
// @Failure      400            {object}  api.ErrorResponse
// @Failure      403            {object}  api.ErrorResponse
// @Failure      404            {object}  api.ErrorResponse
// @Failure      409            {object}  api.ErrorResponse
// @Router       /reservations/{reservationID}/cancel [post]
func (h *Handler) CancelSeat(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	reservationID, err := strconv.Atoi(c.Param("reservationID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid reservation ID"})
		return
	}

	err = h.service.CancelSeat(c.Request.Context(), actor, reservationID)
	if err != nil {
		switch {
		case errors.Is(err, ErrReservationNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Reservation not found"})
		case errors.Is(err, auth.ErrForbidden):
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "You can only cancel your own reservations"})
		case errors.Is(err, ErrAlreadyCancelled):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Reservation already cancelled"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to cancel reservation"})
		}
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Reservation cancelled"})
}

// ListMyReservations godoc
// @Summary      List my reservations
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   ReservationWithDetails
// @Failure      500  {object}  api.ErrorResponse
// @Router       /reservations [get]
func (h *Handler) ListMyReservations(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	reservations, err := h.service.ListForMember(c.Request.Context(), actor, actor.ID)
	if err != nil {
		respondReadError(c, err, "Failed to fetch reservations")
		return
	}

	c.JSON(http.StatusOK, reservations)
}

// GetOccupancy godoc
// @Summary      Live occupancy of a class on a date
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Param        classID  path      int     true  "Class ID"
// @Param        date     query     string  true  "Date (YYYY-MM-DD)"
// @Success      200      {object}  Occupancy
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /schedule/{classID}/occupancy [get]
func (h *Handler) GetOccupancy(c *gin.Context) {
	classID, err := strconv.Atoi(c.Param("classID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid class ID"})
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Date must be YYYY-MM-DD"})
		return
	}

	occupancy, err := h.service.Occupancy(c.Request.Context(), classID, date)
	if err != nil {
		if errors.Is(err, schedule.ErrClassNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Class not found"})
			return
		}
		respondReadError(c, err, "Failed to compute occupancy")
		return
	}

	c.JSON(http.StatusOK, occupancy)
}

// ListReservations godoc
// @Summary      List reservations
// @Description  All reservations, optionally filtered by date or member.
// @Description  Admin only.
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Param        date       query     string  false  "Date (YYYY-MM-DD)"
// @Param        member_id  query     int     false  "Member ID"
// @Success      200        {array}   ReservationWithDetails
// @Failure      400        {object}  api.ErrorResponse
// @Failure      500        {object}  api.ErrorResponse
// @Router       /admin/reservations [get]
func (h *Handler) ListReservations(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	ctx := c.Request.Context()

	if memberStr := c.Query("member_id"); memberStr != "" {
		memberID, err := strconv.Atoi(memberStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid member ID"})
			return
		}
		reservations, err := h.service.ListForMember(ctx, actor, memberID)
		if err != nil {
			respondReadError(c, err, "Failed to fetch reservations")
			return
		}
		c.JSON(http.StatusOK, reservations)
		return
	}

	if dateStr := c.Query("date"); dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Date must be YYYY-MM-DD"})
			return
		}
		reservations, err := h.service.ListForDate(ctx, actor, date)
		if err != nil {
			respondReadError(c, err, "Failed to fetch reservations")
			return
		}
		c.JSON(http.StatusOK, reservations)
		return
	}

	reservations, err := h.service.ListAll(ctx, actor)
	if err != nil {
		respondReadError(c, err, "Failed to fetch reservations")
		return
	}

	c.JSON(http.StatusOK, reservations)
}
