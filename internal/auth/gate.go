package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrForbidden = errors.New("forbidden")

// Operation names a gated capability.
type Operation string

const (
	OpViewSchedule         Operation = "view_schedule"
	OpBookOwn              Operation = "book_own_reservation"
	OpCancelOwn            Operation = "cancel_own_reservation"
	OpViewOwnReservations  Operation = "view_own_reservations"
	OpManageClasses        Operation = "manage_classes"
	OpViewAnyReservation   Operation = "view_any_reservation"
	OpCancelAnyReservation Operation = "cancel_any_reservation"
	OpAssignMembership     Operation = "assign_membership"
	OpCreateMember         Operation = "create_member"
	OpToggleRole           Operation = "toggle_role"
)

var permissions = map[Operation]map[string]bool{
	OpViewSchedule:         {RoleAdmin: true, RoleMember: true},
	OpBookOwn:              {RoleMember: true, RoleAdmin: true},
	OpCancelOwn:            {RoleMember: true, RoleAdmin: true},
	OpViewOwnReservations:  {RoleMember: true, RoleAdmin: true},
	OpManageClasses:        {RoleAdmin: true},
	OpViewAnyReservation:   {RoleAdmin: true},
	OpCancelAnyReservation: {RoleAdmin: true},
	OpAssignMembership:     {RoleAdmin: true},
	OpCreateMember:         {RoleAdmin: true},
	OpToggleRole:           {RoleAdmin: true},
}

// Authorize checks a resolved role against an operation.
func Authorize(role string, op Operation) error {
	allowed, ok := permissions[op]
	if !ok || !allowed[role] {
		return ErrForbidden
	}
	return nil
}

// RoleResolver is the external profile store consulted for a principal's
// current role.
type RoleResolver interface {
	GetRole(ctx context.Context, userID int) (string, error)
}

// State is the gate's view of the current principal. Role is empty and
// Pending true while a refresh is in flight; consumers must treat that as
// "waiting", never as granted or denied.
type State struct {
	UserID  int
	Role    string
	Pending bool
	Err     error
}

// Gate tracks the authenticated principal's role across auth-state
// transitions. Every transition triggers a re-resolution tagged with a
// generation; a result from a stale generation is discarded even if it
// arrives after a newer one resolved, so successive login/refresh/logout
// events can never interleave into a wrong role.
type Gate struct {
	resolver RoleResolver

	gen atomic.Uint64

	mu    sync.Mutex
	state State
	subs  map[uint64]chan State
	subID uint64
}

func NewGate(resolver RoleResolver) *Gate {
	return &Gate{
		resolver: resolver,
		subs:     make(map[uint64]chan State),
	}
}

// Refresh re-resolves the role for userID. Called on login and token
// refresh. Safe to call concurrently: each caller gets its own principal's
// resolution back, while Current and subscribers only ever see the newest
// call's result. Returning the shared state here instead would hand a
// caller whatever principal happened to resolve last.
func (g *Gate) Refresh(ctx context.Context, userID int) State {
	gen := g.gen.Add(1)

	g.setIfCurrent(gen, State{UserID: userID, Pending: true})

	role, err := g.resolver.GetRole(ctx, userID)

	next := State{UserID: userID, Role: role, Err: err}
	if err != nil {
		next.Role = ""
	}
	g.setIfCurrent(gen, next)

	return next
}

// Logout clears the principal. Any in-flight refresh becomes stale.
func (g *Gate) Logout() {
	gen := g.gen.Add(1)
	g.setIfCurrent(gen, State{})
}

// Current returns the latest gate state.
func (g *Gate) Current() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Subscribe returns a channel receiving state transitions. The channel is
// buffered; only the latest state matters, so a slow consumer loses
// intermediate states rather than blocking the gate.
func (g *Gate) Subscribe() (uint64, <-chan State) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.subID++
	ch := make(chan State, 8)
	g.subs[g.subID] = ch
	return g.subID, ch
}

// Unsubscribe is idempotent.
func (g *Gate) Unsubscribe(id uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if ch, ok := g.subs[id]; ok {
		delete(g.subs, id)
		close(ch)
	}
}

func (g *Gate) setIfCurrent(gen uint64, next State) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if gen != g.gen.Load() {
		return
	}

	g.state = next
	for _, ch := range g.subs {
		select {
		case ch <- next:
		default:
			// drop oldest by draining one, then push the latest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- next:
			default:
			}
		}
	}
}
