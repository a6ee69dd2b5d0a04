package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
)

func TestReadingsToGrant(t *testing.T) {
	tests := []struct {
		name   string
		typ    domain.TransactionType
		amount float64
		region domain.Region
		want   int
	}{
		{"single us", domain.TransactionSingle, 1, domain.RegionUS, 1},
		{"bundle us", domain.TransactionBundle, 5, domain.RegionUS, 10},
		{"bundle cn", domain.TransactionBundle, 10, domain.RegionCN, 10},
		{"lifetime grants none", domain.TransactionLifetime, 99, domain.RegionUS, 0},
		{"tip one unit", domain.TransactionTip, 1, domain.RegionUS, 1},
		{"tip above one unit", domain.TransactionTip, 5, domain.RegionCN, 1},
		{"tip below one unit", domain.TransactionTip, 0.5, domain.RegionUS, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ReadingsToGrant(tt.typ, tt.amount, tt.region))
		})
	}
}

func TestCurrencyFor(t *testing.T) {
	require.Equal(t, domain.CurrencyCNY, CurrencyFor(domain.RegionCN))
	require.Equal(t, domain.CurrencyUSD, CurrencyFor(domain.RegionUS))
}

func TestOptions(t *testing.T) {
	us := Options(domain.RegionUS)
	require.Len(t, us, 3)
	require.Equal(t, domain.TransactionSingle, us[0].Type)
	require.Equal(t, 1.0, us[0].Amount)
	require.Equal(t, domain.CurrencyUSD, us[0].Currency)
	require.Equal(t, 10, us[1].ReadingsGranted)
	require.True(t, us[2].IsLifetime)
	require.Equal(t, 99.0, us[2].Amount)

	cn := Options(domain.RegionCN)
	require.Equal(t, 2.0, cn[0].Amount)
	require.Equal(t, domain.CurrencyCNY, cn[0].Currency)
	require.Equal(t, 10.0, cn[1].Amount)
}

func TestTipOptions(t *testing.T) {
	tips := TipOptions(domain.RegionCN)
	require.Len(t, tips, 2)
	for _, tip := range tips {
		require.Equal(t, domain.TransactionTip, tip.Type)
		require.Equal(t, domain.CurrencyCNY, tip.Currency)
		require.Equal(t, 1, tip.ReadingsGranted)
	}
}
