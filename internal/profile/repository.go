package profile

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrUserNotFound = errors.New("user not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, fullName, email, passwordHash, role, phone string) (*User, error) {
	query := `
		INSERT INTO users (full_name, email, password_hash, role, phone)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id, full_name, email, password_hash, role, phone, created_at
	`

	var user User
	err := r.db.GetContext(ctx, &user, query, fullName, email, passwordHash, role, phone)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, full_name, email, password_hash, role, phone, created_at
		FROM users
		WHERE email = $1
	`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT id, full_name, email, password_hash, role, phone, created_at
		FROM users
		WHERE id = $1
	`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, email)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *repository) List(ctx context.Context) ([]User, error) {
	query := `
		SELECT id, full_name, email, password_hash, role, phone, created_at
		FROM users
		ORDER BY created_at DESC
	`

	var users []User
	err := r.db.SelectContext(ctx, &users, query)
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (r *repository) GetRole(ctx context.Context, userID int) (string, error) {
	query := `SELECT role FROM users WHERE id = $1`

	var role string
	err := r.db.GetContext(ctx, &role, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}

	return role, nil
}

func (r *repository) SetRole(ctx context.Context, userID int, role string) error {
	query := `UPDATE users SET role = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, userID, role)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
