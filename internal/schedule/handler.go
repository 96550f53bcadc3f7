package schedule

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"studioslot/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListSchedule godoc
// @Summary      Published weekly schedule
// @Description  Returns active classes ordered by weekday then start time.
// @Tags         schedule
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Class
// @Failure      500  {object}  api.ErrorResponse
// @Router       /schedule [get]
func (h *Handler) ListSchedule(c *gin.Context) {
	classes, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch schedule"})
		return
	}

	c.JSON(http.StatusOK, classes)
}

// GetInstance godoc
// @Summary      Project a class onto a date
// @Description  Returns the bookable instance of a class for a date, or the
// @Description  next occurrence when no date is given.
// @Tags         schedule
// @Security     BearerAuth
// @Produce      json
// @Param        classID  path      int     true   "Class ID"
// @Param        date     query     string  false  "Date (YYYY-MM-DD)"
// @Success      200      {object}  Instance
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /schedule/{classID}/instance [get]
func (h *Handler) GetInstance(c *gin.Context) {
	classID, err := strconv.Atoi(c.Param("classID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid class ID"})
		return
	}

	class, err := h.service.GetByID(c.Request.Context(), classID)
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Class not found"})
		return
	}

	var date time.Time
	if dateStr := c.Query("date"); dateStr != "" {
		date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Date must be YYYY-MM-DD"})
			return
		}
	} else {
		date = NextOccurrence(class, time.Now(), false)
	}

	instance, err := ProjectInstance(class, date)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Date does not match class weekday"})
		return
	}

	c.JSON(http.StatusOK, instance)
}

// ListClasses godoc
// @Summary      List all classes
// @Description  Returns every class template, active or not. Admin only.
// @Tags         classes
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Class
// @Failure      500  {object}  api.ErrorResponse
// @Router       /admin/classes [get]
func (h *Handler) ListClasses(c *gin.Context) {
	classes, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch classes"})
		return
	}

	c.JSON(http.StatusOK, classes)
}

// CreateClass godoc
// @Summary      Create class template
// @Tags         classes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateClassRequest  true  "Class data"
// @Success      201      {object}  Class
// @Failure      400      {object}  api.ErrorResponse
// @Router       /admin/classes [post]
func (h *Handler) CreateClass(c *gin.Context) {
	var req CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindingError(c, err)
		return
	}

	class, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		if isValidationErr(err) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create class"})
		return
	}

	c.JSON(http.StatusCreated, class)
}

// UpdateClass godoc
// @Summary      Update class template
// @Description  Merge-patch update; omitted fields are unchanged.
// @Tags         classes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        classID  path      int                 true  "Class ID"
// @Param        request  body      UpdateClassRequest  true  "Fields to change"
// @Success      200      {object}  Class
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /admin/classes/{classID} [patch]
func (h *Handler) UpdateClass(c *gin.Context) {
	classID, err := strconv.Atoi(c.Param("classID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid class ID"})
		return
	}

	var patch UpdateClassRequest
	if err := c.ShouldBindJSON(&patch); err != nil {
		api.RespondBindingError(c, err)
		return
	}

	class, err := h.service.Update(c.Request.Context(), classID, patch)
	if err != nil {
		switch {
		case errors.Is(err, ErrClassNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Class not found"})
		case isValidationErr(err):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to update class"})
		}
		return
	}

	c.JSON(http.StatusOK, class)
}

// DeleteClass godoc
// @Summary      Delete class template
// @Description  Permanent removal. Blocked with a deactivation hint when
// @Description  reservation history references the class.
// @Tags         classes
// @Security     BearerAuth
// @Produce      json
// @Param        classID  path      int  true  "Class ID"
// @Success      200      {object}  api.MessageResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ConflictResponse
// @Router       /admin/classes/{classID} [delete]
func (h *Handler) DeleteClass(c *gin.Context) {
	classID, err := strconv.Atoi(c.Param("classID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid class ID"})
		return
	}

	err = h.service.Delete(c.Request.Context(), classID)
	if err != nil {
		switch {
		case errors.Is(err, ErrClassNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Class not found"})
		case errors.Is(err, ErrHasReservations):
			c.JSON(http.StatusConflict, api.ConflictResponse{
				Error: "Class has existing reservations",
				Hint:  "POST /admin/classes/" + c.Param("classID") + "/deactivate to hide it instead",
			})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to delete class"})
		}
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Class deleted"})
}

// DeactivateClass godoc
// @Summary      Deactivate class template
// @Description  Confirmed fallback when delete is blocked by reservation
// @Description  history; the class disappears from the published schedule.
// @Tags         classes
// @Security     BearerAuth
// @Produce      json
// @Param        classID  path      int  true  "Class ID"
// @Success      200      {object}  api.MessageResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /admin/classes/{classID}/deactivate [post]
func (h *Handler) DeactivateClass(c *gin.Context) {
	classID, err := strconv.Atoi(c.Param("classID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid class ID"})
		return
	}

	err = h.service.Deactivate(c.Request.Context(), classID)
	if err != nil {
		if errors.Is(err, ErrClassNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Class not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to deactivate class"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Class deactivated"})
}

func isValidationErr(err error) bool {
	return errors.Is(err, ErrInvalidTimeRange) ||
		errors.Is(err, ErrInvalidTime) ||
		errors.Is(err, ErrInvalidWeekday) ||
		errors.Is(err, ErrInvalidCapacity)
}
