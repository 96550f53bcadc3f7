package db

import (
	"context"
	"errors"
	"net"

	"github.com/lib/pq"
)

// Postgres error codes the reservation schema relies on. See
// migrations/000001_init.up.sql for the constraints that raise them.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// UniqueViolation reports whether err is a unique constraint rejection,
// optionally scoped to a named constraint.
func UniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != codeUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

func ForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == codeForeignKeyViolation
}

// CheckViolation matches both CHECK constraints and trigger-raised
// check_violation errors, optionally scoped to a named constraint.
func CheckViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != codeCheckViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// Transient reports whether err looks like a network or timeout failure
// rather than a definitive answer from the store. Read paths may retry
// once on these; write paths must not.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08: connection exceptions.
		return len(pqErr.Code) >= 2 && pqErr.Code[:2] == "08"
	}
	return false
}
