package store

import (
	"context"
	"fmt"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
)

// SeedCards upserts the static deck, keyed by card number. Safe to run on
// every startup; meanings can be corrected in place without touching ids.
func (s *Store) SeedCards(ctx context.Context, cards []domain.TarotCard) error {
	for _, c := range cards {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO tarot_cards (card_number, name, name_zh, arcana,
			        meaning_upright, meaning_reversed, meaning_upright_zh,
			        meaning_reversed_zh, image_url)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(card_number) DO UPDATE SET
			        name = excluded.name, name_zh = excluded.name_zh,
			        arcana = excluded.arcana,
			        meaning_upright = excluded.meaning_upright,
			        meaning_reversed = excluded.meaning_reversed,
			        meaning_upright_zh = excluded.meaning_upright_zh,
			        meaning_reversed_zh = excluded.meaning_reversed_zh,
			        image_url = excluded.image_url`,
			c.CardNumber, c.Name, c.NameZh, c.Arcana,
			c.MeaningUpright, c.MeaningReversed, c.MeaningUprightZh,
			c.MeaningReversedZh, c.ImageURL)
		if err != nil {
			return fmt.Errorf("seed card %d: %w", c.CardNumber, err)
		}
	}
	return nil
}

func (s *Store) ListCards(ctx context.Context) ([]domain.TarotCard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, card_number, name, name_zh, arcana, meaning_upright,
		        meaning_reversed, meaning_upright_zh, meaning_reversed_zh, image_url
		 FROM tarot_cards ORDER BY card_number`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.TarotCard
	for rows.Next() {
		var c domain.TarotCard
		if err := rows.Scan(&c.ID, &c.CardNumber, &c.Name, &c.NameZh, &c.Arcana,
			&c.MeaningUpright, &c.MeaningReversed, &c.MeaningUprightZh,
			&c.MeaningReversedZh, &c.ImageURL); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}
