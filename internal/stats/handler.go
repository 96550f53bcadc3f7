package stats

import (
	"net/http"
	"time"

	"studioslot/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// GetSummary godoc
// @Summary      Dashboard counters
// @Description  Active classes, active memberships and upcoming active
// @Description  reservations from today on. Admin only.
// @Tags         stats
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Summary
// @Failure      500  {object}  api.ErrorResponse
// @Router       /admin/stats [get]
func (h *Handler) GetSummary(c *gin.Context) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	summary, err := h.repo.Summary(c.Request.Context(), today)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch stats"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
