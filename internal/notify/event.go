package notify

import "time"

// DisplayWindow is how long a delivered notification stays visible before
// auto-dismissing if the staff user does not dismiss it first.
const DisplayWindow = 5 * time.Second

// Event is a new-reservation notification fanned out to staff sessions.
type Event struct {
	ReservationID   int       `json:"reservation_id"`
	ClassID         int       `json:"class_id"`
	UserID          int       `json:"user_id"`
	ReservationDate string    `json:"reservation_date"`
	Message         string    `json:"message"`
	Timestamp       time.Time `json:"timestamp"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// NewEvent stamps the display window onto a reservation insert.
func NewEvent(reservationID, classID, userID int, reservationDate string, at time.Time) Event {
	return Event{
		ReservationID:   reservationID,
		ClassID:         classID,
		UserID:          userID,
		ReservationDate: reservationDate,
		Message:         "New reservation received",
		Timestamp:       at,
		ExpiresAt:       at.Add(DisplayWindow),
	}
}
