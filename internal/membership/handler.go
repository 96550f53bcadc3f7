package membership

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"studioslot/internal/api"
	"studioslot/internal/metrics"

	"github.com/gin-gonic/gin"
)

var errBadDate = errors.New("dates must be YYYY-MM-DD")

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// Grant godoc
// @Summary      Grant membership
// @Description  Assigns a membership period to a member. Admin only.
// @Tags         memberships
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        memberID  path      int           true  "Member ID"
// @Param        request   body      GrantRequest  true  "Membership data"
// @Success      201       {object}  Membership
// @Failure      400       {object}  api.ErrorResponse
// @Failure      500       {object}  api.ErrorResponse
// @Router       /admin/members/{memberID}/memberships [post]
func (h *Handler) Grant(c *gin.Context) {
	memberID, err := strconv.Atoi(c.Param("memberID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid member ID"})
		return
	}

	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindingError(c, err)
		return
	}

	start, end, err := parsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	m, err := h.repo.Grant(c.Request.Context(), memberID, req.Type, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to grant membership"})
		return
	}

	metrics.RecordMembershipGranted()
	c.JSON(http.StatusCreated, m)
}

// ListByMember godoc
// @Summary      List memberships of a member
// @Tags         memberships
// @Security     BearerAuth
// @Produce      json
// @Param        memberID  path      int  true  "Member ID"
// @Success      200       {array}   Membership
// @Failure      400       {object}  api.ErrorResponse
// @Failure      500       {object}  api.ErrorResponse
// @Router       /admin/members/{memberID}/memberships [get]
func (h *Handler) ListByMember(c *gin.Context) {
	memberID, err := strconv.Atoi(c.Param("memberID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid member ID"})
		return
	}

	memberships, err := h.repo.ListByUser(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch memberships"})
		return
	}

	c.JSON(http.StatusOK, memberships)
}

func parsePeriod(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, errBadDate
	}

	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, errBadDate
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end_date must not precede start_date")
	}

	return start, end, nil
}
