package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	err := &pq.Error{Code: "23505", Constraint: "reservations_active_member_unique"}

	assert.True(t, UniqueViolation(err, "reservations_active_member_unique"))
	assert.True(t, UniqueViolation(err, ""))
	assert.False(t, UniqueViolation(err, "users_email_key"))
	assert.False(t, UniqueViolation(errors.New("plain"), ""))

	wrapped := fmt.Errorf("inserting: %w", err)
	assert.True(t, UniqueViolation(wrapped, "reservations_active_member_unique"))
}

func TestCheckViolation(t *testing.T) {
	err := &pq.Error{Code: "23514", Constraint: "reservations_capacity_check"}

	assert.True(t, CheckViolation(err, "reservations_capacity_check"))
	assert.True(t, CheckViolation(err, ""))
	assert.False(t, CheckViolation(err, "classes_capacity_positive"))
	assert.False(t, CheckViolation(&pq.Error{Code: "23505"}, ""))
}

func TestForeignKeyViolation(t *testing.T) {
	assert.True(t, ForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.False(t, ForeignKeyViolation(&pq.Error{Code: "23505"}))
	assert.False(t, ForeignKeyViolation(nil))
}

func TestTransient(t *testing.T) {
	assert.False(t, Transient(nil))
	assert.False(t, Transient(errors.New("constraint violated")))
	assert.False(t, Transient(&pq.Error{Code: "23505"}))

	assert.True(t, Transient(context.DeadlineExceeded))
	assert.True(t, Transient(fmt.Errorf("querying: %w", context.DeadlineExceeded)))
	assert.True(t, Transient(&pq.Error{Code: "08006"}))

	var netErr net.Error = &net.OpError{Op: "dial", Err: os.ErrDeadlineExceeded}
	assert.True(t, Transient(netErr))
}
