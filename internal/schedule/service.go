package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("start_time must be before end_time")
	ErrInvalidTime      = errors.New("times must be HH:MM in 24-hour format")
	ErrInvalidWeekday   = errors.New("day_of_week must be between 0 and 6")
	ErrInvalidCapacity  = errors.New("max_capacity must be positive")

	// ErrWeekdayMismatch means the supplied date does not fall on the
	// class's weekday.
	ErrWeekdayMismatch = errors.New("date does not match class weekday")
)

type Service interface {
	Create(ctx context.Context, req CreateClassRequest) (*Class, error)
	Update(ctx context.Context, id int, patch UpdateClassRequest) (*Class, error)
	Delete(ctx context.Context, id int) error
	Deactivate(ctx context.Context, id int) error
	GetByID(ctx context.Context, id int) (*Class, error)
	ListActive(ctx context.Context) ([]Class, error)
	ListAll(ctx context.Context) ([]Class, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateClassRequest) (*Class, error) {
	class := &Class{
		Name:        req.Name,
		Instructor:  req.Instructor,
		DayOfWeek:   *req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		MaxCapacity: req.MaxCapacity,
		IsActive:    true,
	}

	if err := validate(class); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, class)
}

func (s *service) Update(ctx context.Context, id int, patch UpdateClassRequest) (*Class, error) {
	class, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		class.Name = *patch.Name
	}
	if patch.Instructor != nil {
		class.Instructor = *patch.Instructor
	}
	if patch.DayOfWeek != nil {
		class.DayOfWeek = *patch.DayOfWeek
	}
	if patch.StartTime != nil {
		class.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		class.EndTime = *patch.EndTime
	}
	if patch.MaxCapacity != nil {
		class.MaxCapacity = *patch.MaxCapacity
	}
	if patch.IsActive != nil {
		class.IsActive = *patch.IsActive
	}

	if err := validate(class); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, class)
}

func (s *service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) Deactivate(ctx context.Context, id int) error {
	return s.repo.Deactivate(ctx, id)
}

func (s *service) GetByID(ctx context.Context, id int) (*Class, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListActive(ctx context.Context) ([]Class, error) {
	return s.repo.ListActive(ctx)
}

func (s *service) ListAll(ctx context.Context) ([]Class, error) {
	return s.repo.ListAll(ctx)
}

func validate(class *Class) error {
	if class.DayOfWeek < 0 || class.DayOfWeek > 6 {
		return ErrInvalidWeekday
	}
	if class.MaxCapacity <= 0 {
		return ErrInvalidCapacity
	}
	if _, err := time.Parse("15:04", class.StartTime); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTime, class.StartTime)
	}
	if _, err := time.Parse("15:04", class.EndTime); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTime, class.EndTime)
	}
	// Zero-padded 24-hour strings order lexicographically.
	if class.StartTime >= class.EndTime {
		return ErrInvalidTimeRange
	}
	return nil
}

// ProjectInstance maps a class onto a concrete date. The date's weekday
// must match the class's day_of_week.
func ProjectInstance(class *Class, date time.Time) (*Instance, error) {
	if int(date.Weekday()) != class.DayOfWeek {
		return nil, ErrWeekdayMismatch
	}

	return &Instance{
		ClassID:   class.ID,
		Date:      truncateToDate(date),
		StartTime: class.StartTime,
		EndTime:   class.EndTime,
		Capacity:  class.MaxCapacity,
	}, nil
}

// NextOccurrence returns the next date on or after from that falls on the
// class's weekday. With includeToday false, a same-weekday from rolls a
// full week forward.
func NextOccurrence(class *Class, from time.Time, includeToday bool) time.Time {
	daysUntil := (class.DayOfWeek + 7 - int(from.Weekday())) % 7
	if daysUntil == 0 && !includeToday {
		daysUntil = 7
	}
	return truncateToDate(from).AddDate(0, 0, daysUntil)
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
