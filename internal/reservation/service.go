package reservation

import (
	"context"
	"errors"
	"time"

	"studioslot/internal/auth"
	"studioslot/internal/db"
	"studioslot/internal/logger"
	"studioslot/internal/membership"
	"studioslot/internal/metrics"
	"studioslot/internal/notify"
	"studioslot/internal/profile"
	"studioslot/internal/schedule"
)

var (
	// ErrNoActiveMembership means the member has no membership covering
	// the reservation date.
	ErrNoActiveMembership = errors.New("no active membership for this date")

	// ErrInvalidScheduleDate means the class is inactive or the date does
	// not fall on the class's weekday.
	ErrInvalidScheduleDate = errors.New("class is not bookable on this date")
)

// Actor is the authenticated principal performing an operation.
type Actor struct {
	ID   int
	Role string
}

// Mailer is the outbound confirmation channel; delivery failures never
// fail the booking.
type Mailer interface {
	SendReservationConfirmation(ctx context.Context, to, name, className, instructor string, date time.Time, startTime string) error
	SendReservationCancellation(ctx context.Context, to, name, className string, date time.Time) error
}

// Publisher receives the new-booking event for staff fan-out.
type Publisher interface {
	Publish(ev notify.Event)
}

type Service interface {
	BookSeat(ctx context.Context, actor Actor, memberID, classID int, date time.Time) (*Reservation, error)
	CancelSeat(ctx context.Context, actor Actor, reservationID int) error
	Occupancy(ctx context.Context, classID int, date time.Time) (*Occupancy, error)
	ListForMember(ctx context.Context, actor Actor, memberID int) ([]ReservationWithDetails, error)
	ListForDate(ctx context.Context, actor Actor, date time.Time) ([]ReservationWithDetails, error)
	ListAll(ctx context.Context, actor Actor) ([]ReservationWithDetails, error)
}

type service struct {
	repo           Repository
	scheduleRepo   schedule.Repository
	membershipRepo membership.Repository
	profileRepo    profile.Repository
	mailer         Mailer
	publisher      Publisher
}

func NewService(
	repo Repository,
	scheduleRepo schedule.Repository,
	membershipRepo membership.Repository,
	profileRepo profile.Repository,
	mailer Mailer,
	publisher Publisher,
) Service {
	return &service{
		repo:           repo,
		scheduleRepo:   scheduleRepo,
		membershipRepo: membershipRepo,
		profileRepo:    profileRepo,
		mailer:         mailer,
		publisher:      publisher,
	}
}

// BookSeat runs the booking workflow. The occupancy pre-check here is a
// fast path for a friendly error; the insert itself is guarded by the
// store constraints and remains correct when two callers race past the
// pre-check.
func (s *service) BookSeat(ctx context.Context, actor Actor, memberID, classID int, date time.Time) (*Reservation, error) {
	if memberID == 0 {
		memberID = actor.ID
	}
	if err := auth.Authorize(actor.Role, auth.OpBookOwn); err != nil {
		return nil, err
	}
	if memberID != actor.ID {
		// Booking on behalf of someone else is a staff capability.
		if err := auth.Authorize(actor.Role, auth.OpViewAnyReservation); err != nil {
			return nil, err
		}
	}

	date = truncateToDate(date)

	active, err := s.membershipActive(ctx, memberID, date)
	if err != nil {
		return nil, err
	}
	if !active {
		metrics.RecordReservation("no_membership")
		return nil, ErrNoActiveMembership
	}

	class, err := s.scheduleRepo.GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !class.IsActive || int(date.Weekday()) != class.DayOfWeek {
		metrics.RecordReservation("invalid_date")
		return nil, ErrInvalidScheduleDate
	}

	count, err := s.countActive(ctx, classID, date)
	if err != nil {
		return nil, err
	}
	if count >= class.MaxCapacity {
		metrics.RecordReservation("capacity_exceeded")
		return nil, ErrCapacityExceeded
	}

	res, err := s.repo.Create(ctx, memberID, classID, date)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateReservation):
			metrics.RecordReservation("duplicate")
		case errors.Is(err, ErrCapacityExceeded):
			metrics.RecordReservation("capacity_exceeded")
		}
		return nil, err
	}

	metrics.RecordReservation("booked")
	s.publisher.Publish(notify.NewEvent(res.ID, res.ClassID, res.UserID, res.ReservationDate.Format("2006-01-02"), res.CreatedAt))

	if member, perr := s.profileRepo.FindByID(ctx, memberID); perr == nil {
		if merr := s.mailer.SendReservationConfirmation(ctx, member.Email, member.FullName, class.Name, class.Instructor, date, class.StartTime); merr != nil {
			logger.Errorf("queueing confirmation for reservation %d: %v", res.ID, merr)
		}
	}

	return res, nil
}

// CancelSeat flips an active reservation to cancelled. Only the owning
// member or staff may cancel; cancelled is terminal.
func (s *service) CancelSeat(ctx context.Context, actor Actor, reservationID int) error {
	res, err := s.repo.GetByID(ctx, reservationID)
	if err != nil {
		return err
	}

	if res.UserID == actor.ID {
		if err := auth.Authorize(actor.Role, auth.OpCancelOwn); err != nil {
			return err
		}
	} else {
		if err := auth.Authorize(actor.Role, auth.OpCancelAnyReservation); err != nil {
			return err
		}
	}

	if res.Status != StatusActive {
		return ErrAlreadyCancelled
	}

	if err := s.repo.Cancel(ctx, reservationID); err != nil {
		return err
	}

	metrics.RecordCancellation()

	if member, perr := s.profileRepo.FindByID(ctx, res.UserID); perr == nil {
		className := "your class"
		if class, cerr := s.scheduleRepo.GetByID(ctx, res.ClassID); cerr == nil {
			className = class.Name
		}
		if merr := s.mailer.SendReservationCancellation(ctx, member.Email, member.FullName, className, res.ReservationDate); merr != nil {
			logger.Errorf("queueing cancellation notice for reservation %d: %v", reservationID, merr)
		}
	}

	return nil
}

// Occupancy recomputes the live seat count from the ledger. Never cached:
// concurrent bookings would invalidate a cache immediately.
func (s *service) Occupancy(ctx context.Context, classID int, date time.Time) (*Occupancy, error) {
	class, err := s.scheduleRepo.GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}

	date = truncateToDate(date)
	count, err := s.countActive(ctx, classID, date)
	if err != nil {
		return nil, err
	}

	return &Occupancy{
		ClassID:  classID,
		Date:     date,
		Count:    count,
		Capacity: class.MaxCapacity,
		IsFull:   count >= class.MaxCapacity,
	}, nil
}

func (s *service) ListForMember(ctx context.Context, actor Actor, memberID int) ([]ReservationWithDetails, error) {
	if memberID == 0 {
		memberID = actor.ID
	}
	if memberID != actor.ID {
		if err := auth.Authorize(actor.Role, auth.OpViewAnyReservation); err != nil {
			return nil, err
		}
	} else if err := auth.Authorize(actor.Role, auth.OpViewOwnReservations); err != nil {
		return nil, err
	}

	return s.repo.ListForMember(ctx, memberID)
}

func (s *service) ListForDate(ctx context.Context, actor Actor, date time.Time) ([]ReservationWithDetails, error) {
	if err := auth.Authorize(actor.Role, auth.OpViewAnyReservation); err != nil {
		return nil, err
	}
	return s.repo.ListForDate(ctx, truncateToDate(date))
}

func (s *service) ListAll(ctx context.Context, actor Actor) ([]ReservationWithDetails, error) {
	if err := auth.Authorize(actor.Role, auth.OpViewAnyReservation); err != nil {
		return nil, err
	}
	return s.repo.ListAll(ctx)
}

// membershipActive retries once on transient store errors; eligibility is
// a read, so a retry cannot double-write.
func (s *service) membershipActive(ctx context.Context, memberID int, date time.Time) (bool, error) {
	active, err := s.membershipRepo.IsActive(ctx, memberID, date)
	if err != nil && db.Transient(err) {
		active, err = s.membershipRepo.IsActive(ctx, memberID, date)
	}
	return active, err
}

// countActive retries once on transient store errors, same reasoning.
func (s *service) countActive(ctx context.Context, classID int, date time.Time) (int, error) {
	count, err := s.repo.CountActive(ctx, classID, date)
	if err != nil && db.Transient(err) {
		count, err = s.repo.CountActive(ctx, classID, date)
	}
	return count, err
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
