package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/ledger"
)

type CreateReadingParams struct {
	UserID   string
	Question string
	Language domain.Language
	Cards    []domain.DrawnCard
	Now      time.Time
}

// CreateReadingWithCredit is the atomic unit behind POST /readings: one
// credit is deducted via a guarded conditional update and the reading plus
// its three drawn cards are inserted, all in a single transaction. Either
// everything commits or nothing does; a user holding one last credit cannot
// start two readings from it under concurrent submissions.
func (s *Store) CreateReadingWithCredit(ctx context.Context, p CreateReadingParams) (*domain.Reading, ledger.CreditSource, error) {
	reading := &domain.Reading{
		ID:        uuid.New().String(),
		UserID:    p.UserID,
		Question:  p.Question,
		Language:  p.Language,
		Status:    domain.ReadingPending,
		CreatedAt: p.Now.UTC(),
	}
	var source ledger.CreditSource

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		u, err := getUser(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id = ?`, p.UserID)
		if err != nil {
			return err
		}
		_, src, err := ledger.ConsumeOneCredit(*u, p.Now)
		if err != nil {
			return err
		}
		if err := deductCredit(ctx, tx, *u, src, p.Now); err != nil {
			return err
		}
		source = src

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO readings (id, user_id, question, language, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			reading.ID, reading.UserID, reading.Question, string(reading.Language),
			string(reading.Status), reading.CreatedAt); err != nil {
			return fmt.Errorf("insert reading: %w", err)
		}
		for _, c := range p.Cards {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO drawn_cards (reading_id, card_id, position, is_reversed)
				 VALUES (?, ?, ?, ?)`,
				reading.ID, c.CardID, c.Position, c.IsReversed); err != nil {
				return fmt.Errorf("insert drawn card: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return reading, source, nil
}

// deductCredit applies the source the evaluator chose with a conditional
// update so the deduction cannot race past zero even outside this store.
func deductCredit(ctx context.Context, tx *sql.Tx, u domain.User, src ledger.CreditSource, now time.Time) error {
	var (
		res sql.Result
		err error
	)
	switch src {
	case ledger.SourceFree:
		res, err = tx.ExecContext(ctx,
			`UPDATE users SET free_readings_left = free_readings_left - 1
			 WHERE id = ? AND free_readings_left > 0`, u.ID)
	case ledger.SourcePaid:
		res, err = tx.ExecContext(ctx,
			`UPDATE users SET paid_readings_left = paid_readings_left - 1
			 WHERE id = ? AND paid_readings_left > 0`, u.ID)
	case ledger.SourceLifetime:
		if ledger.ResetDue(u, now) {
			// Annual window rolled over: restart the counter at this
			// consumption rather than capping against the stale one.
			res, err = tx.ExecContext(ctx,
				`UPDATE users SET lifetime_readings_this_year = 1, lifetime_year_start = ?
				 WHERE id = ? AND is_lifetime_member = 1`, now.UTC(), u.ID)
		} else {
			res, err = tx.ExecContext(ctx,
				`UPDATE users SET lifetime_readings_this_year = lifetime_readings_this_year + 1
				 WHERE id = ? AND is_lifetime_member = 1 AND lifetime_readings_this_year < ?`,
				u.ID, ledger.LifetimeYearlyLimit)
		}
	default:
		return fmt.Errorf("unknown credit source %q", src)
	}
	if err != nil {
		return fmt.Errorf("deduct credit (%s): %w", src, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNoCredits
	}
	return nil
}

const readingColumns = `r.id, r.user_id, r.question, r.language, r.status,
	r.interpretation, r.ai_model, r.created_at, r.interpreted_at`

// GetReading returns a reading with its cards in position order and the
// owner's identity.
func (s *Store) GetReading(ctx context.Context, id string) (*domain.ReadingWithCards, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+readingColumns+`, u.email, u.region
		 FROM readings r JOIN users u ON u.id = r.user_id
		 WHERE r.id = ?`, id)

	var rw domain.ReadingWithCards
	if err := scanReading(row, &rw.Reading, &rw.UserEmail, &rw.UserRegion); err != nil {
		return nil, err
	}
	cards, err := s.cardsForReadings(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	rw.Cards = cards[id]
	return &rw, nil
}

// ListReadingsByUser returns one page of a user's readings, newest first,
// with cards attached, plus the total count for pagination.
func (s *Store) ListReadingsByUser(ctx context.Context, userID string, page, limit int) ([]domain.ReadingWithCards, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM readings WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count readings: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+readingColumns+`, u.email, u.region
		 FROM readings r JOIN users u ON u.id = r.user_id
		 WHERE r.user_id = ?
		 ORDER BY r.created_at DESC, r.id
		 LIMIT ? OFFSET ?`, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	var (
		readings []domain.ReadingWithCards
		ids      []string
	)
	for rows.Next() {
		var rw domain.ReadingWithCards
		if err := scanReading(rows, &rw.Reading, &rw.UserEmail, &rw.UserRegion); err != nil {
			return nil, 0, err
		}
		readings = append(readings, rw)
		ids = append(ids, rw.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	cards, err := s.cardsForReadings(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range readings {
		readings[i].Cards = cards[readings[i].ID]
	}
	return readings, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner, r *domain.Reading, email *string, region *domain.Region) error {
	var (
		interp sql.NullString
		model  sql.NullString
		at     sql.NullTime
	)
	err := row.Scan(&r.ID, &r.UserID, &r.Question, &r.Language, &r.Status,
		&interp, &model, &r.CreatedAt, &at, email, region)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrReadingNotFound
	}
	if err != nil {
		return fmt.Errorf("scan reading: %w", err)
	}
	if interp.Valid {
		v := interp.String
		r.Interpretation = &v
	}
	if model.Valid {
		v := model.String
		r.AIModel = &v
	}
	if at.Valid {
		v := at.Time
		r.InterpretedAt = &v
	}
	return nil
}

func (s *Store) cardsForReadings(ctx context.Context, readingIDs []string) (map[string][]domain.DrawnCardDetail, error) {
	if len(readingIDs) == 0 {
		return map[string][]domain.DrawnCardDetail{}, nil
	}
	args := make([]any, len(readingIDs))
	for i, id := range readingIDs {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(readingIDs)), ",")

	rows, err := s.db.QueryContext(ctx,
		`SELECT dc.reading_id, dc.card_id, dc.position, dc.is_reversed,
		        c.id, c.card_number, c.name, c.name_zh, c.arcana,
		        c.meaning_upright, c.meaning_reversed, c.meaning_upright_zh,
		        c.meaning_reversed_zh, c.image_url
		 FROM drawn_cards dc JOIN tarot_cards c ON c.id = dc.card_id
		 WHERE dc.reading_id IN (`+placeholders+`)
		 ORDER BY dc.reading_id, dc.position`, args...)
	if err != nil {
		return nil, fmt.Errorf("list drawn cards: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.DrawnCardDetail, len(readingIDs))
	for rows.Next() {
		var d domain.DrawnCardDetail
		if err := rows.Scan(&d.ReadingID, &d.CardID, &d.Position, &d.IsReversed,
			&d.Card.ID, &d.Card.CardNumber, &d.Card.Name, &d.Card.NameZh, &d.Card.Arcana,
			&d.Card.MeaningUpright, &d.Card.MeaningReversed, &d.Card.MeaningUprightZh,
			&d.Card.MeaningReversedZh, &d.Card.ImageURL); err != nil {
			return nil, fmt.Errorf("scan drawn card: %w", err)
		}
		out[d.ReadingID] = append(out[d.ReadingID], d)
	}
	return out, rows.Err()
}

// CompleteReading records the interpretation. The status guard makes the
// transition idempotent: a reading already COMPLETED or FAILED keeps its
// stored text and this call becomes a no-op.
func (s *Store) CompleteReading(ctx context.Context, id, interpretation, aiModel string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE readings SET status = ?, interpretation = ?, ai_model = ?, interpreted_at = ?
		 WHERE id = ? AND status = ?`,
		string(domain.ReadingCompleted), interpretation, aiModel, at.UTC(),
		id, string(domain.ReadingPending))
	if err != nil {
		return fmt.Errorf("complete reading: %w", err)
	}
	return s.checkReadingExists(ctx, res, id)
}

// FailReading marks a pending reading FAILED so the client can distinguish
// "failed, retry" from "still processing". Terminal states are untouched.
func (s *Store) FailReading(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE readings SET status = ? WHERE id = ? AND status = ?`,
		string(domain.ReadingFailed), id, string(domain.ReadingPending))
	if err != nil {
		return fmt.Errorf("fail reading: %w", err)
	}
	return s.checkReadingExists(ctx, res, id)
}

func (s *Store) checkReadingExists(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var one int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM readings WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrReadingNotFound
	}
	return err
}

// PendingReadingIDs lists readings still PENDING that were created before
// the cutoff. The interpretation worker uses it to recover work dropped by
// a crash or a full queue.
func (s *Store) PendingReadingIDs(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM readings WHERE status = ? AND created_at <= ? ORDER BY created_at`,
		string(domain.ReadingPending), before.UTC())
	if err != nil {
		return nil, fmt.Errorf("list pending readings: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
