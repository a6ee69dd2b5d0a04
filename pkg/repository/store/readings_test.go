package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/ledger"
)

func TestCreateReadingWithCredit_PriorityOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	cards := threeCards(t, st)

	u, err := st.CreateUser(ctx, "querent@example.com", domain.RegionUS, 1)
	require.NoError(t, err)
	_, err = st.db.Exec(`UPDATE users SET paid_readings_left = 1 WHERE id = ?`, u.ID)
	require.NoError(t, err)

	reading, source, err := st.CreateReadingWithCredit(ctx, CreateReadingParams{
		UserID: u.ID, Question: "first?", Language: domain.LanguageEN, Cards: cards, Now: time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, ledger.SourceFree, source)
	require.Equal(t, domain.ReadingPending, reading.Status)

	_, source, err = st.CreateReadingWithCredit(ctx, CreateReadingParams{
		UserID: u.ID, Question: "second?", Language: domain.LanguageEN, Cards: cards, Now: time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, ledger.SourcePaid, source)

	after, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 0, after.FreeReadingsLeft)
	require.Equal(t, 0, after.PaidReadingsLeft)
}

func TestCreateReadingWithCredit_NoCreditsLeavesNoReading(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	cards := threeCards(t, st)

	u, err := st.CreateUser(ctx, "broke@example.com", domain.RegionUS, 0)
	require.NoError(t, err)

	_, _, err = st.CreateReadingWithCredit(ctx, CreateReadingParams{
		UserID: u.ID, Question: "anything?", Language: domain.LanguageEN, Cards: cards, Now: time.Now(),
	})
	require.ErrorIs(t, err, domain.ErrNoCredits)

	_, total, err := st.ListReadingsByUser(ctx, u.ID, 1, 10)
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestCreateReadingWithCredit_LifetimeAnnualReset(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	cards := threeCards(t, st)
	now := time.Now().UTC()

	u, err := st.CreateUser(ctx, "member@example.com", domain.RegionCN, 0)
	require.NoError(t, err)
	setLifetime(t, st, u.ID, now.AddDate(-1, 0, -1), 364)

	_, source, err := st.CreateReadingWithCredit(ctx, CreateReadingParams{
		UserID: u.ID, Question: "new year?", Language: domain.LanguageZH, Cards: cards, Now: now,
	})
	require.NoError(t, err)
	require.Equal(t, ledger.SourceLifetime, source)

	after, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 1, after.LifetimeReadingsThisYear)
	require.WithinDuration(t, now, *after.LifetimeYearStart, time.Second)
}

func TestCreateReadingWithCredit_LifetimeQuotaExhausted(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	cards := threeCards(t, st)
	now := time.Now().UTC()

	u, err := st.CreateUser(ctx, "heavy@example.com", domain.RegionUS, 0)
	require.NoError(t, err)
	setLifetime(t, st, u.ID, now.AddDate(0, -6, 0), ledger.LifetimeYearlyLimit)

	_, _, err = st.CreateReadingWithCredit(ctx, CreateReadingParams{
		UserID: u.ID, Question: "one more?", Language: domain.LanguageEN, Cards: cards, Now: now,
	})
	require.ErrorIs(t, err, domain.ErrNoCredits)
}

func TestGetReading_CardsInPositionOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	all, err := st.ListCards(ctx)
	require.NoError(t, err)
	cards := []domain.DrawnCard{
		{CardID: all[5].ID, Position: 3, IsReversed: true},
		{CardID: all[0].ID, Position: 1, IsReversed: false},
		{CardID: all[9].ID, Position: 2, IsReversed: false},
	}

	u, err := st.CreateUser(ctx, "order@example.com", domain.RegionUS, 1)
	require.NoError(t, err)
	reading, _, err := st.CreateReadingWithCredit(ctx, CreateReadingParams{
		UserID: u.ID, Question: "what order?", Language: domain.LanguageEN, Cards: cards, Now: time.Now(),
	})
	require.NoError(t, err)

	got, err := st.GetReading(ctx, reading.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.UserEmail)
	require.Equal(t, domain.RegionUS, got.UserRegion)
	require.Len(t, got.Cards, 3)
	require.Equal(t, 1, got.Cards[0].Position)
	require.Equal(t, 2, got.Cards[1].Position)
	require.Equal(t, 3, got.Cards[2].Position)
	require.Equal(t, all[0].Name, got.Cards[0].Card.Name)
	require.True(t, got.Cards[2].IsReversed)
}

func TestGetReading_NotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := st.GetReading(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrReadingNotFound)
}

func TestCompleteReading_Idempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	cards := threeCards(t, st)

	u, err := st.CreateUser(ctx, "done@example.com", domain.RegionUS, 2)
	require.NoError(t, err)
	reading, _, err := st.CreateReadingWithCredit(ctx, CreateReadingParams{
		UserID: u.ID, Question: "done yet?", Language: domain.LanguageEN, Cards: cards, Now: time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, st.CompleteReading(ctx, reading.ID, "the cards say yes", "gpt-4o", time.Now()))
	require.NoError(t, st.CompleteReading(ctx, reading.ID, "a different answer", "gpt-4o", time.Now()))
	require.NoError(t, st.FailReading(ctx, reading.ID))

	got, err := st.GetReading(ctx, reading.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ReadingCompleted, got.Status)
	require.NotNil(t, got.Interpretation)
	require.Equal(t, "the cards say yes", *got.Interpretation)
	require.NotNil(t, got.AIModel)
	require.Equal(t, "gpt-4o", *got.AIModel)
	require.NotNil(t, got.InterpretedAt)
}

func TestCompleteReading_NotFound(t *testing.T) {
	st := newTestStore(t)
	err := st.CompleteReading(context.Background(), "missing", "text", "model", time.Now())
	require.ErrorIs(t, err, domain.ErrReadingNotFound)

	err = st.FailReading(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrReadingNotFound)
}

func TestListReadingsByUser_Pagination(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	cards := threeCards(t, st)

	u, err := st.CreateUser(ctx, "history@example.com", domain.RegionUS, 5)
	require.NoError(t, err)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, _, err := st.CreateReadingWithCredit(ctx, CreateReadingParams{
			UserID: u.ID, Question: "question", Language: domain.LanguageEN,
			Cards: cards, Now: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	page1, total, err := st.ListReadingsByUser(ctx, u.ID, 1, 2)
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Len(t, page1, 2)
	require.Len(t, page1[0].Cards, 3)

	page3, total, err := st.ListReadingsByUser(ctx, u.ID, 3, 2)
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Len(t, page3, 1)

	// Newest first.
	require.True(t, page1[0].CreatedAt.After(page3[0].CreatedAt))
}

func TestPendingReadingIDs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	cards := threeCards(t, st)

	u, err := st.CreateUser(ctx, "pending@example.com", domain.RegionUS, 3)
	require.NoError(t, err)
	old, _, err := st.CreateReadingWithCredit(ctx, CreateReadingParams{
		UserID: u.ID, Question: "old", Language: domain.LanguageEN, Cards: cards,
		Now: time.Now().Add(-10 * time.Minute),
	})
	require.NoError(t, err)
	done, _, err := st.CreateReadingWithCredit(ctx, CreateReadingParams{
		UserID: u.ID, Question: "done", Language: domain.LanguageEN, Cards: cards,
		Now: time.Now().Add(-10 * time.Minute),
	})
	require.NoError(t, err)
	require.NoError(t, st.CompleteReading(ctx, done.ID, "text", "model", time.Now()))
	_, _, err = st.CreateReadingWithCredit(ctx, CreateReadingParams{
		UserID: u.ID, Question: "fresh", Language: domain.LanguageEN, Cards: cards,
		Now: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	ids, err := st.PendingReadingIDs(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, []string{old.ID}, ids)
}
