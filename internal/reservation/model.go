package reservation

import "time"

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// Reservation ties one member to one class on one calendar date. Rows are
// never deleted; cancellation is a terminal status flip.
type Reservation struct {
	ID              int       `db:"id" json:"id"`
	ClassID         int       `db:"class_id" json:"class_id"`
	UserID          int       `db:"user_id" json:"user_id"`
	ReservationDate time.Time `db:"reservation_date" json:"reservation_date"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type ReservationWithDetails struct {
	Reservation
	ClassName      string `db:"class_name" json:"class_name"`
	Instructor     string `db:"instructor" json:"instructor"`
	ClassStartTime string `db:"class_start_time" json:"class_start_time"`
	ClassEndTime   string `db:"class_end_time" json:"class_end_time"`
	MemberName     string `db:"member_name" json:"member_name"`
	MemberEmail    string `db:"member_email" json:"member_email"`
}

// Occupancy is the live seat count of a class on a date, recomputed from
// the ledger on every call.
type Occupancy struct {
	ClassID  int       `json:"class_id"`
	Date     time.Time `json:"date"`
	Count    int       `json:"count"`
	Capacity int       `json:"capacity"`
	IsFull   bool      `json:"is_full"`
}

type BookRequest struct {
	ClassID int    `json:"class_id" binding:"required"`
	Date    string `json:"date" binding:"required"`
	// MemberID lets staff book on behalf of a member; ignored for
	// member callers.
	MemberID int `json:"member_id"`
}
