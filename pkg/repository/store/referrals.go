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

// CreateReferral records a referrer/referred pair at signup. A referred
// user has at most one referrer; repeated inserts for the same referred
// user are ignored so retried signups cannot multiply rewards.
func (s *Store) CreateReferral(ctx context.Context, referrerID, referredID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO referrals (id, referrer_id, referred_id, reward_granted, created_at)
		 VALUES (?, ?, ?, 0, ?)`,
		uuid.New().String(), referrerID, referredID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert referral: %w", err)
	}
	return nil
}

func (s *Store) GetReferralByReferredID(ctx context.Context, referredID string) (*domain.Referral, error) {
	var (
		r       domain.Referral
		granted int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, referrer_id, referred_id, reward_granted, created_at
		 FROM referrals WHERE referred_id = ?`, referredID).Scan(
		&r.ID, &r.ReferrerID, &r.ReferredID, &granted, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select referral: %w", err)
	}
	r.RewardGranted = granted != 0
	return &r, nil
}
