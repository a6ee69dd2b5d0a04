package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
)

const userColumns = `id, email, region, free_readings_left, paid_readings_left,
	is_lifetime_member, lifetime_member_since, lifetime_year_start,
	lifetime_readings_this_year, created_at`

// CreateUser inserts a new user with their signup grant. The email is
// unique; a second signup for the same address returns domain.ErrUserExists.
func (s *Store) CreateUser(ctx context.Context, email string, region domain.Region, freeReadings int) (*domain.User, error) {
	u := &domain.User{
		ID:               uuid.New().String(),
		Email:            email,
		Region:           region,
		FreeReadingsLeft: freeReadings,
		CreatedAt:        time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, region, free_readings_left, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, string(u.Region), u.FreeReadingsLeft, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return getUser(ctx, s.db, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getUser(ctx, s.db, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func getUser(ctx context.Context, q querier, query string, arg any) (*domain.User, error) {
	var (
		u       domain.User
		since   sql.NullTime
		start   sql.NullTime
		member  int
		created time.Time
	)
	err := q.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Region, &u.FreeReadingsLeft, &u.PaidReadingsLeft,
		&member, &since, &start, &u.LifetimeReadingsThisYear, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	u.IsLifetimeMember = member != 0
	u.CreatedAt = created
	if since.Valid {
		t := since.Time
		u.LifetimeMemberSince = &t
	}
	if start.Valid {
		t := start.Time
		u.LifetimeYearStart = &t
	}
	return &u, nil
}
