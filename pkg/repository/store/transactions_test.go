package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
)

func newPendingTransaction(t *testing.T, st *Store, userID string, typ domain.TransactionType, granted int) *domain.Transaction {
	t.Helper()
	now := time.Now().UTC()
	tr := &domain.Transaction{
		ID:                uuid.New().String(),
		UserID:            userID,
		Type:              typ,
		Amount:            5,
		Currency:          domain.CurrencyUSD,
		Provider:          domain.ProviderStripe,
		Status:            domain.PaymentPending,
		ReadingsGranted:   granted,
		IsLifetimeUpgrade: typ == domain.TransactionLifetime,
		ProviderOrderID:   "order_" + uuid.New().String(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, st.CreateTransaction(context.Background(), tr))
	return tr
}

func TestGetTransactionByProviderOrderID_NotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := st.GetTransactionByProviderOrderID(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestSettlePayment_GrantsOnceOnRedelivery(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u, err := st.CreateUser(ctx, "buyer@example.com", domain.RegionUS, 0)
	require.NoError(t, err)
	tr := newPendingTransaction(t, st, u.ID, domain.TransactionBundle, 10)

	first, err := st.SettlePayment(ctx, tr.ProviderOrderID, true, time.Now())
	require.NoError(t, err)
	require.False(t, first.AlreadyProcessed)
	require.True(t, first.Applied)
	require.Equal(t, u.Email, first.UserEmail)
	require.Equal(t, domain.PaymentCompleted, first.Transaction.Status)

	second, err := st.SettlePayment(ctx, tr.ProviderOrderID, true, time.Now())
	require.NoError(t, err)
	require.True(t, second.AlreadyProcessed)
	require.False(t, second.Applied)

	after, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 10, after.PaidReadingsLeft)
}

func TestSettlePayment_FailureGrantsNothing(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u, err := st.CreateUser(ctx, "failed@example.com", domain.RegionUS, 0)
	require.NoError(t, err)
	tr := newPendingTransaction(t, st, u.ID, domain.TransactionSingle, 1)

	s, err := st.SettlePayment(ctx, tr.ProviderOrderID, false, time.Now())
	require.NoError(t, err)
	require.False(t, s.Applied)
	require.Equal(t, domain.PaymentFailed, s.Transaction.Status)

	// Terminal: a late success event cannot revive the transaction.
	late, err := st.SettlePayment(ctx, tr.ProviderOrderID, true, time.Now())
	require.NoError(t, err)
	require.True(t, late.AlreadyProcessed)

	after, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 0, after.PaidReadingsLeft)
	require.Equal(t, 0, after.FreeReadingsLeft)
}

func TestSettlePayment_TipGrantsFreeReading(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u, err := st.CreateUser(ctx, "tipper@example.com", domain.RegionCN, 0)
	require.NoError(t, err)
	tr := newPendingTransaction(t, st, u.ID, domain.TransactionTip, 1)

	s, err := st.SettlePayment(ctx, tr.ProviderOrderID, true, time.Now())
	require.NoError(t, err)
	require.True(t, s.Applied)

	after, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 1, after.FreeReadingsLeft)
	require.Equal(t, 0, after.PaidReadingsLeft)
}

func TestSettlePayment_LifetimeUpgrade(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u, err := st.CreateUser(ctx, "upgrade@example.com", domain.RegionUS, 0)
	require.NoError(t, err)
	tr := newPendingTransaction(t, st, u.ID, domain.TransactionLifetime, 0)

	s, err := st.SettlePayment(ctx, tr.ProviderOrderID, true, now)
	require.NoError(t, err)
	require.True(t, s.Applied)

	after, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, after.IsLifetimeMember)
	require.Equal(t, 0, after.LifetimeReadingsThisYear)
	require.WithinDuration(t, now, *after.LifetimeMemberSince, time.Second)
	require.WithinDuration(t, now, *after.LifetimeYearStart, time.Second)
}

func TestSettlePayment_LifetimeUpgradeKeepsExistingAnchor(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	anchor := time.Now().UTC().AddDate(0, -8, 0)

	u, err := st.CreateUser(ctx, "member2@example.com", domain.RegionUS, 0)
	require.NoError(t, err)
	setLifetime(t, st, u.ID, anchor, 42)
	tr := newPendingTransaction(t, st, u.ID, domain.TransactionLifetime, 0)

	s, err := st.SettlePayment(ctx, tr.ProviderOrderID, true, time.Now())
	require.NoError(t, err)
	require.True(t, s.Applied)

	after, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, after.IsLifetimeMember)
	require.Equal(t, 42, after.LifetimeReadingsThisYear)
	require.WithinDuration(t, anchor, *after.LifetimeYearStart, time.Second)
}

func TestSettlePayment_ReferralRewardedExactlyOnce(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	referrer, err := st.CreateUser(ctx, "ref@example.com", domain.RegionUS, 0)
	require.NoError(t, err)
	referred, err := st.CreateUser(ctx, "newbie@example.com", domain.RegionUS, 0)
	require.NoError(t, err)
	require.NoError(t, st.CreateReferral(ctx, referrer.ID, referred.ID))

	first := newPendingTransaction(t, st, referred.ID, domain.TransactionSingle, 1)
	s, err := st.SettlePayment(ctx, first.ProviderOrderID, true, time.Now())
	require.NoError(t, err)
	require.True(t, s.ReferralRewarded)
	require.Equal(t, referrer.Email, s.ReferrerEmail)

	second := newPendingTransaction(t, st, referred.ID, domain.TransactionBundle, 10)
	s2, err := st.SettlePayment(ctx, second.ProviderOrderID, true, time.Now())
	require.NoError(t, err)
	require.True(t, s2.Applied)
	require.False(t, s2.ReferralRewarded)

	after, err := st.GetUser(ctx, referrer.ID)
	require.NoError(t, err)
	require.Equal(t, 1, after.FreeReadingsLeft)

	ref, err := st.GetReferralByReferredID(ctx, referred.ID)
	require.NoError(t, err)
	require.True(t, ref.RewardGranted)
}

func TestSettlePayment_NoReferralRewardOnFailedPayment(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	referrer, err := st.CreateUser(ctx, "ref2@example.com", domain.RegionUS, 0)
	require.NoError(t, err)
	referred, err := st.CreateUser(ctx, "newbie2@example.com", domain.RegionUS, 0)
	require.NoError(t, err)
	require.NoError(t, st.CreateReferral(ctx, referrer.ID, referred.ID))

	tr := newPendingTransaction(t, st, referred.ID, domain.TransactionSingle, 1)
	s, err := st.SettlePayment(ctx, tr.ProviderOrderID, false, time.Now())
	require.NoError(t, err)
	require.False(t, s.ReferralRewarded)

	ref, err := st.GetReferralByReferredID(ctx, referred.ID)
	require.NoError(t, err)
	require.False(t, ref.RewardGranted)

	after, err := st.GetUser(ctx, referrer.ID)
	require.NoError(t, err)
	require.Equal(t, 0, after.FreeReadingsLeft)
}

func TestSettlePayment_UnknownOrder(t *testing.T) {
	st := newTestStore(t)
	_, err := st.SettlePayment(context.Background(), "unknown", true, time.Now())
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}
