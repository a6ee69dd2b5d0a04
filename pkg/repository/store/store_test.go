package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/tarot"
)

// newTestStore opens a store on a per-test in-memory database and seeds the
// card deck so drawn-card foreign keys resolve.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	st, err := New(Config{DatabasePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", name)})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.SeedCards(context.Background(), tarot.Deck()))
	return st
}

func threeCards(t *testing.T, st *Store) []domain.DrawnCard {
	t.Helper()
	cards, err := st.ListCards(context.Background())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(cards), 3)
	return []domain.DrawnCard{
		{CardID: cards[0].ID, Position: 1, IsReversed: false},
		{CardID: cards[1].ID, Position: 2, IsReversed: true},
		{CardID: cards[2].ID, Position: 3, IsReversed: false},
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u, err := st.CreateUser(ctx, "dup@example.com", domain.RegionUS, 2)
	require.NoError(t, err)
	require.Equal(t, 2, u.FreeReadingsLeft)

	_, err = st.CreateUser(ctx, "dup@example.com", domain.RegionCN, 2)
	require.ErrorIs(t, err, domain.ErrUserExists)
}

func TestGetUser_NotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetUser(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = st.GetUserByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSeedCards_Idempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SeedCards(ctx, tarot.Deck()))

	cards, err := st.ListCards(ctx)
	require.NoError(t, err)
	require.Len(t, cards, tarot.DeckSize)
	require.Equal(t, 0, cards[0].CardNumber)
	require.Equal(t, tarot.DeckSize-1, cards[len(cards)-1].CardNumber)
}

func TestCreateReferral_IgnoresDuplicate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	referrer, err := st.CreateUser(ctx, "referrer@example.com", domain.RegionUS, 2)
	require.NoError(t, err)
	referred, err := st.CreateUser(ctx, "referred@example.com", domain.RegionUS, 2)
	require.NoError(t, err)

	require.NoError(t, st.CreateReferral(ctx, referrer.ID, referred.ID))
	require.NoError(t, st.CreateReferral(ctx, referrer.ID, referred.ID))

	ref, err := st.GetReferralByReferredID(ctx, referred.ID)
	require.NoError(t, err)
	require.NotNil(t, ref)
	require.Equal(t, referrer.ID, ref.ReferrerID)
	require.False(t, ref.RewardGranted)

	none, err := st.GetReferralByReferredID(ctx, referrer.ID)
	require.NoError(t, err)
	require.Nil(t, none)
}

func setLifetime(t *testing.T, st *Store, userID string, yearStart time.Time, count int) {
	t.Helper()
	_, err := st.db.Exec(
		`UPDATE users SET is_lifetime_member = 1, lifetime_member_since = ?,
		        lifetime_year_start = ?, lifetime_readings_this_year = ?
		 WHERE id = ?`, yearStart, yearStart, count, userID)
	require.NoError(t, err)
}
