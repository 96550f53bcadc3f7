package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"studioslot/internal/auth"
	"studioslot/internal/membership"
	"studioslot/internal/notify"
	"studioslot/internal/profile"
	"studioslot/internal/schedule"
)

// mondayDate falls on the weekday of the class fixtures below.
var mondayDate = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, userID, classID int, date time.Time) (*Reservation, error) {
	args := m.Called(ctx, userID, classID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Reservation), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int) (*Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Reservation), args.Error(1)
}

func (m *MockRepository) Cancel(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) CountActive(ctx context.Context, classID int, date time.Time) (int, error) {
	args := m.Called(ctx, classID, date)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ListForMember(ctx context.Context, userID int) ([]ReservationWithDetails, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ReservationWithDetails), args.Error(1)
}

func (m *MockRepository) ListForDate(ctx context.Context, date time.Time) ([]ReservationWithDetails, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ReservationWithDetails), args.Error(1)
}

func (m *MockRepository) ListAll(ctx context.Context) ([]ReservationWithDetails, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ReservationWithDetails), args.Error(1)
}

// stubScheduleRepo serves one fixed class.
type stubScheduleRepo struct {
	class *schedule.Class
}

func (s *stubScheduleRepo) Create(ctx context.Context, class *schedule.Class) (*schedule.Class, error) {
	return class, nil
}

func (s *stubScheduleRepo) GetByID(ctx context.Context, id int) (*schedule.Class, error) {
	if s.class == nil || s.class.ID != id {
		return nil, schedule.ErrClassNotFound
	}
	return s.class, nil
}

func (s *stubScheduleRepo) ListActive(ctx context.Context) ([]schedule.Class, error) { return nil, nil }
func (s *stubScheduleRepo) ListAll(ctx context.Context) ([]schedule.Class, error)    { return nil, nil }
func (s *stubScheduleRepo) Update(ctx context.Context, class *schedule.Class) (*schedule.Class, error) {
	return class, nil
}
func (s *stubScheduleRepo) Delete(ctx context.Context, id int) error     { return nil }
func (s *stubScheduleRepo) Deactivate(ctx context.Context, id int) error { return nil }

// stubMembershipRepo answers eligibility with a fixed verdict.
type stubMembershipRepo struct {
	active bool
}

func (s *stubMembershipRepo) IsActive(ctx context.Context, userID int, date time.Time) (bool, error) {
	return s.active, nil
}

func (s *stubMembershipRepo) Grant(ctx context.Context, userID int, mtype string, start, end time.Time) (*membership.Membership, error) {
	return nil, nil
}

func (s *stubMembershipRepo) ListByUser(ctx context.Context, userID int) ([]membership.Membership, error) {
	return nil, nil
}

type stubProfileRepo struct{}

func (s *stubProfileRepo) Create(ctx context.Context, fullName, email, passwordHash, role, phone string) (*profile.User, error) {
	return nil, nil
}

func (s *stubProfileRepo) FindByEmail(ctx context.Context, email string) (*profile.User, error) {
	return nil, profile.ErrUserNotFound
}

func (s *stubProfileRepo) FindByID(ctx context.Context, id int) (*profile.User, error) {
	return &profile.User{ID: id, FullName: "Ana Silva", Email: "ana@example.com"}, nil
}

func (s *stubProfileRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func (s *stubProfileRepo) List(ctx context.Context) ([]profile.User, error) { return nil, nil }

func (s *stubProfileRepo) GetRole(ctx context.Context, userID int) (string, error) {
	return auth.RoleMember, nil
}

func (s *stubProfileRepo) SetRole(ctx context.Context, userID int, role string) error { return nil }

type nopMailer struct{}

func (nopMailer) SendReservationConfirmation(ctx context.Context, to, name, className, instructor string, date time.Time, startTime string) error {
	return nil
}

func (nopMailer) SendReservationCancellation(ctx context.Context, to, name, className string, date time.Time) error {
	return nil
}

// recordingPublisher captures published events; safe for concurrent use.
type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(ev notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) Events() []notify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notify.Event, len(p.events))
	copy(out, p.events)
	return out
}

func mondayClass(capacity int) *schedule.Class {
	return &schedule.Class{
		ID: 3, Name: "Morning Flow", Instructor: "Elena",
		DayOfWeek: 1, StartTime: "10:00", EndTime: "11:00",
		MaxCapacity: capacity, IsActive: true,
	}
}

func newBookingService(repo Repository, class *schedule.Class, memberActive bool, pub Publisher) Service {
	return NewService(repo,
		&stubScheduleRepo{class: class},
		&stubMembershipRepo{active: memberActive},
		&stubProfileRepo{},
		nopMailer{}, pub)
}

func TestBookSeat(t *testing.T) {
	member := Actor{ID: 7, Role: auth.RoleMember}

	t.Run("successful booking publishes exactly one event", func(t *testing.T) {
		repo := new(MockRepository)
		pub := &recordingPublisher{}
		svc := newBookingService(repo, mondayClass(2), true, pub)

		created := &Reservation{ID: 42, ClassID: 3, UserID: 7, ReservationDate: mondayDate, Status: StatusActive, CreatedAt: time.Now()}
		repo.On("CountActive", mock.Anything, 3, mondayDate).Return(1, nil)
		repo.On("Create", mock.Anything, 7, 3, mondayDate).Return(created, nil)

		res, err := svc.BookSeat(context.Background(), member, 0, 3, mondayDate)
		require.NoError(t, err)
		assert.Equal(t, 42, res.ID)

		events := pub.Events()
		require.Len(t, events, 1)
		assert.Equal(t, 42, events[0].ReservationID)
		assert.Equal(t, "2026-09-07", events[0].ReservationDate)
		repo.AssertExpectations(t)
	})

	t.Run("member cannot book on behalf of another member", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newBookingService(repo, mondayClass(2), true, &recordingPublisher{})

		_, err := svc.BookSeat(context.Background(), member, 99, 3, mondayDate)
		assert.ErrorIs(t, err, auth.ErrForbidden)
		repo.AssertNotCalled(t, "Create")
	})

	t.Run("admin books on behalf of a member", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newBookingService(repo, mondayClass(2), true, &recordingPublisher{})

		created := &Reservation{ID: 43, ClassID: 3, UserID: 7, ReservationDate: mondayDate, Status: StatusActive}
		repo.On("CountActive", mock.Anything, 3, mondayDate).Return(0, nil)
		repo.On("Create", mock.Anything, 7, 3, mondayDate).Return(created, nil)

		res, err := svc.BookSeat(context.Background(), Actor{ID: 1, Role: auth.RoleAdmin}, 7, 3, mondayDate)
		require.NoError(t, err)
		assert.Equal(t, 7, res.UserID)
	})

	t.Run("no active membership", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newBookingService(repo, mondayClass(2), false, &recordingPublisher{})

		_, err := svc.BookSeat(context.Background(), member, 0, 3, mondayDate)
		assert.ErrorIs(t, err, ErrNoActiveMembership)
		repo.AssertNotCalled(t, "Create")
	})

	t.Run("inactive class is not bookable", func(t *testing.T) {
		repo := new(MockRepository)
		class := mondayClass(2)
		class.IsActive = false
		svc := newBookingService(repo, class, true, &recordingPublisher{})

		_, err := svc.BookSeat(context.Background(), member, 0, 3, mondayDate)
		assert.ErrorIs(t, err, ErrInvalidScheduleDate)
	})

	t.Run("date off the class weekday", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newBookingService(repo, mondayClass(2), true, &recordingPublisher{})

		tuesday := mondayDate.AddDate(0, 0, 1)
		_, err := svc.BookSeat(context.Background(), member, 0, 3, tuesday)
		assert.ErrorIs(t, err, ErrInvalidScheduleDate)
	})

	t.Run("pre-check rejects a full class without inserting", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newBookingService(repo, mondayClass(2), true, &recordingPublisher{})

		repo.On("CountActive", mock.Anything, 3, mondayDate).Return(2, nil)

		_, err := svc.BookSeat(context.Background(), member, 0, 3, mondayDate)
		assert.ErrorIs(t, err, ErrCapacityExceeded)
		repo.AssertNotCalled(t, "Create")
	})

	t.Run("duplicate rejection from the store", func(t *testing.T) {
		repo := new(MockRepository)
		pub := &recordingPublisher{}
		svc := newBookingService(repo, mondayClass(2), true, pub)

		repo.On("CountActive", mock.Anything, 3, mondayDate).Return(1, nil)
		repo.On("Create", mock.Anything, 7, 3, mondayDate).Return(nil, ErrDuplicateReservation)

		_, err := svc.BookSeat(context.Background(), member, 0, 3, mondayDate)
		assert.ErrorIs(t, err, ErrDuplicateReservation)
		assert.Empty(t, pub.Events())
	})

	t.Run("timestamp dates are truncated to the day", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newBookingService(repo, mondayClass(2), true, &recordingPublisher{})

		created := &Reservation{ID: 44, ClassID: 3, UserID: 7, ReservationDate: mondayDate, Status: StatusActive}
		repo.On("CountActive", mock.Anything, 3, mondayDate).Return(0, nil)
		repo.On("Create", mock.Anything, 7, 3, mondayDate).Return(created, nil)

		midMorning := time.Date(2026, 9, 7, 10, 35, 12, 0, time.UTC)
		_, err := svc.BookSeat(context.Background(), member, 0, 3, midMorning)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestCancelSeat(t *testing.T) {
	owner := Actor{ID: 7, Role: auth.RoleMember}
	active := func() *Reservation {
		return &Reservation{ID: 42, ClassID: 3, UserID: 7, ReservationDate: mondayDate, Status: StatusActive}
	}

	t.Run("owner cancels own reservation", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newBookingService(repo, mondayClass(2), true, &recordingPublisher{})

		repo.On("GetByID", mock.Anything, 42).Return(active(), nil)
		repo.On("Cancel", mock.Anything, 42).Return(nil)

		require.NoError(t, svc.CancelSeat(context.Background(), owner, 42))
		repo.AssertExpectations(t)
	})

	t.Run("member cannot cancel another member's reservation", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newBookingService(repo, mondayClass(2), true, &recordingPublisher{})

		repo.On("GetByID", mock.Anything, 42).Return(active(), nil)

		err := svc.CancelSeat(context.Background(), Actor{ID: 8, Role: auth.RoleMember}, 42)
		assert.ErrorIs(t, err, auth.ErrForbidden)
		repo.AssertNotCalled(t, "Cancel")
	})

	t.Run("admin cancels any reservation", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newBookingService(repo, mondayClass(2), true, &recordingPublisher{})

		repo.On("GetByID", mock.Anything, 42).Return(active(), nil)
		repo.On("Cancel", mock.Anything, 42).Return(nil)

		require.NoError(t, svc.CancelSeat(context.Background(), Actor{ID: 1, Role: auth.RoleAdmin}, 42))
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newBookingService(repo, mondayClass(2), true, &recordingPublisher{})

		done := active()
		done.Status = StatusCancelled
		repo.On("GetByID", mock.Anything, 42).Return(done, nil)

		err := svc.CancelSeat(context.Background(), owner, 42)
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
		repo.AssertNotCalled(t, "Cancel")
	})
}

func TestOccupancy(t *testing.T) {
	t.Run("full class", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newBookingService(repo, mondayClass(2), true, &recordingPublisher{})

		repo.On("CountActive", mock.Anything, 3, mondayDate).Return(2, nil)

		occ, err := svc.Occupancy(context.Background(), 3, mondayDate)
		require.NoError(t, err)
		assert.Equal(t, 2, occ.Count)
		assert.Equal(t, 2, occ.Capacity)
		assert.True(t, occ.IsFull)
	})

	t.Run("seats remaining", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newBookingService(repo, mondayClass(10), true, &recordingPublisher{})

		repo.On("CountActive", mock.Anything, 3, mondayDate).Return(4, nil)

		occ, err := svc.Occupancy(context.Background(), 3, mondayDate)
		require.NoError(t, err)
		assert.False(t, occ.IsFull)
	})
}

func TestListAuthorization(t *testing.T) {
	member := Actor{ID: 7, Role: auth.RoleMember}
	admin := Actor{ID: 1, Role: auth.RoleAdmin}

	t.Run("member lists own reservations", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newBookingService(repo, mondayClass(2), true, &recordingPublisher{})

		repo.On("ListForMember", mock.Anything, 7).Return([]ReservationWithDetails{}, nil)

		_, err := svc.ListForMember(context.Background(), member, 0)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("member cannot list another member's reservations", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newBookingService(repo, mondayClass(2), true, &recordingPublisher{})

		_, err := svc.ListForMember(context.Background(), member, 99)
		assert.ErrorIs(t, err, auth.ErrForbidden)
	})

	t.Run("member cannot list the full ledger", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newBookingService(repo, mondayClass(2), true, &recordingPublisher{})

		_, err := svc.ListAll(context.Background(), member)
		assert.ErrorIs(t, err, auth.ErrForbidden)

		_, err = svc.ListForDate(context.Background(), member, mondayDate)
		assert.ErrorIs(t, err, auth.ErrForbidden)
	})

	t.Run("admin lists by date", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newBookingService(repo, mondayClass(2), true, &recordingPublisher{})

		repo.On("ListForDate", mock.Anything, mondayDate).Return([]ReservationWithDetails{}, nil)

		_, err := svc.ListForDate(context.Background(), admin, mondayDate)
		require.NoError(t, err)
	})
}

// fakeLedger emulates the store-level guards in memory: the partial unique
// index on active (class, member, date) rows and the capacity trigger. Used
// to exercise the booking workflow under real goroutine contention.
type fakeLedger struct {
	mu       sync.Mutex
	capacity map[int]int
	rows     []Reservation
	nextID   int
}

func newFakeLedger(capacity map[int]int) *fakeLedger {
	return &fakeLedger{capacity: capacity, nextID: 1}
}

func (f *fakeLedger) Create(ctx context.Context, userID, classID int, date time.Time) (*Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, r := range f.rows {
		if r.Status != StatusActive || r.ClassID != classID || !r.ReservationDate.Equal(date) {
			continue
		}
		if r.UserID == userID {
			return nil, ErrDuplicateReservation
		}
		count++
	}
	if count >= f.capacity[classID] {
		return nil, ErrCapacityExceeded
	}

	res := Reservation{
		ID: f.nextID, ClassID: classID, UserID: userID,
		ReservationDate: date, Status: StatusActive, CreatedAt: time.Now(),
	}
	f.nextID++
	f.rows = append(f.rows, res)
	return &res, nil
}

func (f *fakeLedger) GetByID(ctx context.Context, id int) (*Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			res := r
			return &res, nil
		}
	}
	return nil, ErrReservationNotFound
}

func (f *fakeLedger) Cancel(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.rows {
		if r.ID == id && r.Status == StatusActive {
			f.rows[i].Status = StatusCancelled
			return nil
		}
	}
	return ErrAlreadyCancelled
}

func (f *fakeLedger) CountActive(ctx context.Context, classID int, date time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.rows {
		if r.Status == StatusActive && r.ClassID == classID && r.ReservationDate.Equal(date) {
			count++
		}
	}
	return count, nil
}

func (f *fakeLedger) ListForMember(ctx context.Context, userID int) ([]ReservationWithDetails, error) {
	return nil, nil
}

func (f *fakeLedger) ListForDate(ctx context.Context, date time.Time) ([]ReservationWithDetails, error) {
	return nil, nil
}

func (f *fakeLedger) ListAll(ctx context.Context) ([]ReservationWithDetails, error) {
	return nil, nil
}

func TestConcurrentBookingLastSeat(t *testing.T) {
	ledger := newFakeLedger(map[int]int{3: 1})
	pub := &recordingPublisher{}
	svc := newBookingService(ledger, mondayClass(1), true, pub)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := Actor{ID: 10 + i, Role: auth.RoleMember}
			_, err := svc.BookSeat(context.Background(), actor, 0, 3, mondayDate)
			results[i] = err
		}(i)
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrCapacityExceeded):
			rejected++
		default:
			t.Fatalf("unexpected booking error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	count, err := ledger.CountActive(context.Background(), 3, mondayDate)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, pub.Events(), 1)
}

func TestConcurrentDoubleBooking(t *testing.T) {
	ledger := newFakeLedger(map[int]int{3: 10})
	svc := newBookingService(ledger, mondayClass(10), true, &recordingPublisher{})

	const attempts = 4
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.BookSeat(context.Background(), Actor{ID: 7, Role: auth.RoleMember}, 0, 3, mondayDate)
			results[i] = err
		}(i)
	}
	wg.Wait()

	succeeded, duplicates := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrDuplicateReservation):
			duplicates++
		default:
			t.Fatalf("unexpected booking error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, duplicates)

	count, err := ledger.CountActive(context.Background(), 3, mondayDate)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
