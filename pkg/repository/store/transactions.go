package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
)

const transactionColumns = `id, user_id, type, amount, currency, provider, status,
	readings_granted, is_lifetime_upgrade, provider_order_id, created_at, updated_at`

func (s *Store) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, string(t.Type), t.Amount, string(t.Currency), string(t.Provider),
		string(t.Status), t.ReadingsGranted, t.IsLifetimeUpgrade, t.ProviderOrderID,
		t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransactionByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.Transaction, error) {
	return getTransaction(ctx, s.db, providerOrderID)
}

func getTransaction(ctx context.Context, q querier, providerOrderID string) (*domain.Transaction, error) {
	var t domain.Transaction
	err := q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE provider_order_id = ?`,
		providerOrderID).Scan(
		&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Currency, &t.Provider, &t.Status,
		&t.ReadingsGranted, &t.IsLifetimeUpgrade, &t.ProviderOrderID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select transaction: %w", err)
	}
	return &t, nil
}

// Settlement reports what a webhook delivery actually did, so the caller
// can decide which notifications to send. Notifications never happen inside
// the settlement transaction.
type Settlement struct {
	Transaction      domain.Transaction
	AlreadyProcessed bool
	Applied          bool
	UserEmail        string
	ReferralRewarded bool
	ReferrerEmail    string
}

// SettlePayment drives the transaction state machine from a webhook event.
// Status flip, credit grant and referral reward commit as one unit. A
// redelivered webhook for a COMPLETED transaction reports AlreadyProcessed
// and changes nothing; the conditional status update absorbs concurrent
// deliveries of the same event.
func (s *Store) SettlePayment(ctx context.Context, providerOrderID string, succeeded bool, now time.Time) (*Settlement, error) {
	var out Settlement
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := getTransaction(ctx, tx, providerOrderID)
		if err != nil {
			return err
		}
		out.Transaction = *t
		if t.Status != domain.PaymentPending {
			out.AlreadyProcessed = true
			return nil
		}

		newStatus := domain.PaymentFailed
		if succeeded {
			newStatus = domain.PaymentCompleted
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE transactions SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			string(newStatus), now.UTC(), t.ID, string(domain.PaymentPending))
		if err != nil {
			return fmt.Errorf("update transaction status: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			out.AlreadyProcessed = true
			return nil
		}
		out.Transaction.Status = newStatus
		out.Transaction.UpdatedAt = now.UTC()
		if !succeeded {
			return nil
		}

		if err := grantPayment(ctx, tx, t, now); err != nil {
			return err
		}
		out.Applied = true
		if err := tx.QueryRowContext(ctx,
			`SELECT email FROM users WHERE id = ?`, t.UserID).Scan(&out.UserEmail); err != nil {
			return fmt.Errorf("select payer email: %w", err)
		}

		rewarded, referrerEmail, err := grantReferralReward(ctx, tx, t.UserID)
		if err != nil {
			return err
		}
		out.ReferralRewarded = rewarded
		out.ReferrerEmail = referrerEmail
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// grantPayment mirrors ledger.ApplyPayment as guarded relative updates:
// balances only ever move by the granted delta, and a lifetime upgrade for
// an existing member leaves the anchor dates alone.
func grantPayment(ctx context.Context, tx *sql.Tx, t *domain.Transaction, now time.Time) error {
	var err error
	switch {
	case t.IsLifetimeUpgrade:
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET is_lifetime_member = 1, lifetime_member_since = ?,
			        lifetime_year_start = ?, lifetime_readings_this_year = 0
			 WHERE id = ? AND is_lifetime_member = 0`,
			now.UTC(), now.UTC(), t.UserID)
	case t.Type == domain.TransactionTip:
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET free_readings_left = free_readings_left + ? WHERE id = ?`,
			t.ReadingsGranted, t.UserID)
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET paid_readings_left = paid_readings_left + ? WHERE id = ?`,
			t.ReadingsGranted, t.UserID)
	}
	if err != nil {
		return fmt.Errorf("grant payment: %w", err)
	}
	return nil
}

// grantReferralReward applies the one-time referrer reward if this payer
// was referred and the reward is still outstanding. The guarded flag update
// is what makes "exactly once per referred user" hold across redeliveries.
func grantReferralReward(ctx context.Context, tx *sql.Tx, referredUserID string) (bool, string, error) {
	var (
		referralID string
		referrerID string
	)
	err := tx.QueryRowContext(ctx,
		`SELECT id, referrer_id FROM referrals WHERE referred_id = ? AND reward_granted = 0`,
		referredUserID).Scan(&referralID, &referrerID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("select referral: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE referrals SET reward_granted = 1 WHERE id = ? AND reward_granted = 0`,
		referralID)
	if err != nil {
		return false, "", fmt.Errorf("mark referral rewarded: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, "", err
	} else if n == 0 {
		return false, "", nil
	}

	// ledger.ApplyReferralReward: one free reading for the referrer.
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET free_readings_left = free_readings_left + 1 WHERE id = ?`,
		referrerID); err != nil {
		return false, "", fmt.Errorf("grant referral reward: %w", err)
	}
	var email string
	if err := tx.QueryRowContext(ctx,
		`SELECT email FROM users WHERE id = ?`, referrerID).Scan(&email); err != nil {
		return false, "", fmt.Errorf("select referrer email: %w", err)
	}
	return true, email, nil
}
