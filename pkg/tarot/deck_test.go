package tarot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeck(t *testing.T) {
	deck := Deck()
	require.Len(t, deck, DeckSize)

	seen := make(map[int]bool, DeckSize)
	majors := 0
	for _, c := range deck {
		require.False(t, seen[c.CardNumber], "duplicate card number %d", c.CardNumber)
		seen[c.CardNumber] = true
		require.GreaterOrEqual(t, c.CardNumber, 0)
		require.Less(t, c.CardNumber, DeckSize)

		require.NotEmpty(t, c.Name)
		require.NotEmpty(t, c.NameZh)
		require.NotEmpty(t, c.MeaningUpright)
		require.NotEmpty(t, c.MeaningReversed)
		require.NotEmpty(t, c.MeaningUprightZh)
		require.NotEmpty(t, c.MeaningReversedZh)
		require.NotEmpty(t, c.ImageURL)

		if c.Arcana == "MAJOR" {
			majors++
		}
	}
	require.Equal(t, 22, majors)
}

func TestDeckKnownCards(t *testing.T) {
	deck := Deck()
	require.Equal(t, "The Fool", deck[0].Name)
	require.Equal(t, 0, deck[0].CardNumber)
	require.Equal(t, "The World", deck[21].Name)
}
