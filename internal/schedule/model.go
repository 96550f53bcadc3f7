package schedule

import "time"

// Class is a recurring weekly class template. Times are wall-clock
// "HH:MM" strings; day_of_week follows time.Weekday numbering (0=Sunday).
type Class struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Instructor  string    `db:"instructor" json:"instructor"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	MaxCapacity int       `db:"max_capacity" json:"max_capacity"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Instance is a class projected onto a concrete calendar date.
type Instance struct {
	ClassID   int       `json:"class_id"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Capacity  int       `json:"capacity"`
}

type CreateClassRequest struct {
	Name        string `json:"name" binding:"required"`
	Instructor  string `json:"instructor" binding:"required"`
	DayOfWeek   *int   `json:"day_of_week" binding:"required"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time" binding:"required"`
	MaxCapacity int    `json:"max_capacity" binding:"required,min=1"`
}

// UpdateClassRequest is a merge patch; nil fields are left unchanged.
type UpdateClassRequest struct {
	Name        *string `json:"name"`
	Instructor  *string `json:"instructor"`
	DayOfWeek   *int    `json:"day_of_week"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	MaxCapacity *int    `json:"max_capacity"`
	IsActive    *bool   `json:"is_active"`
}
