package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockDataValidate(t *testing.T) {
	assert.NoError(t, (&StockData{CurrentPrice: 1}).Validate())
	assert.ErrorIs(t, (&StockData{CurrentPrice: 0}).Validate(), ErrNonPositivePrice)
	assert.ErrorIs(t, (&StockData{CurrentPrice: -3}).Validate(), ErrNonPositivePrice)
}

func TestStockDataLastBar(t *testing.T) {
	sd := &StockData{}
	_, ok := sd.LastBar()
	assert.False(t, ok)

	sd.History = []Bar{{Close: 1}, {Close: 2}}
	last, ok := sd.LastBar()
	require.True(t, ok)
	assert.Equal(t, 2.0, last.Close)
}

func TestOptionsChainAccessors(t *testing.T) {
	jan := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	chain := &OptionsChain{
		Expirations: []time.Time{feb, jan},
		Calls: []OptionContract{
			{ContractSymbol: "C1", Expiration: jan},
			{ContractSymbol: "C2", Expiration: feb},
		},
		Puts: []OptionContract{{ContractSymbol: "P1", Expiration: feb}},
	}

	nearest, ok := chain.NearestExpiration()
	require.True(t, ok)
	assert.Equal(t, jan, nearest)

	calls := chain.CallsByExpiration(jan)
	require.Len(t, calls, 1)
	assert.Equal(t, "C1", calls[0].ContractSymbol)
	assert.Empty(t, chain.PutsByExpiration(jan))
	assert.Len(t, chain.PutsByExpiration(feb), 1)

	_, ok = (&OptionsChain{}).NearestExpiration()
	assert.False(t, ok)
}

func TestAnalystRatingsConsensus(t *testing.T) {
	tests := []struct {
		name    string
		ratings AnalystRatings
		total   int
		score   float64
	}{
		{name: "empty", ratings: AnalystRatings{}, total: 0, score: 0},
		{name: "all strong buy", ratings: AnalystRatings{StrongBuy: 4}, total: 4, score: 1},
		{name: "all strong sell", ratings: AnalystRatings{StrongSell: 2}, total: 2, score: -1},
		{name: "mixed", ratings: AnalystRatings{StrongBuy: 1, Buy: 2, Hold: 3, Sell: 1, StrongSell: 1}, total: 8, score: 0.0625},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.total, tt.ratings.Total())
			assert.InDelta(t, tt.score, tt.ratings.ConsensusScore(), 1e-9)
		})
	}
}

func TestMarketDataCompleteness(t *testing.T) {
	md := &MarketData{Ticker: "AAPL"}
	assert.False(t, md.IsComplete())
	assert.False(t, md.HasOptionsData())
	assert.False(t, md.HasNewsData())

	md.StockData = &StockData{}
	assert.False(t, md.IsComplete())
	md.Fundamentals = &Fundamentals{}
	assert.True(t, md.IsComplete())

	md.OptionsChain = &OptionsChain{}
	assert.False(t, md.HasOptionsData())
	md.OptionsChain.Calls = []OptionContract{{}}
	assert.True(t, md.HasOptionsData())

	md.News = []NewsItem{{Title: "x"}}
	assert.True(t, md.HasNewsData())
}

func TestFundamentalsDeriveRatios(t *testing.T) {
	f := &Fundamentals{
		CurrentAssets:      Float(300),
		CurrentLiabilities: Float(150),
		Debt:               Float(50),
		TotalEquity:        Float(200),
	}
	f.DeriveRatios()
	require.NotNil(t, f.CurrentRatio)
	require.NotNil(t, f.DebtToEquity)
	assert.InDelta(t, 2.0, *f.CurrentRatio, 1e-9)
	assert.InDelta(t, 0.25, *f.DebtToEquity, 1e-9)

	t.Run("keeps reported values", func(t *testing.T) {
		f := &Fundamentals{CurrentRatio: Float(9), CurrentAssets: Float(1), CurrentLiabilities: Float(1)}
		f.DeriveRatios()
		assert.Equal(t, 9.0, *f.CurrentRatio)
	})

	t.Run("skips zero denominators", func(t *testing.T) {
		f := &Fundamentals{Debt: Float(1), TotalEquity: Float(0)}
		f.DeriveRatios()
		assert.Nil(t, f.DebtToEquity)
	})
}

func TestFrameAccessors(t *testing.T) {
	f := &Frame{
		Index: []time.Time{
			time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		Columns: []Column{
			{Name: "totalRevenue", Values: []*float64{Float(10), nil}},
		},
	}
	assert.Equal(t, 2, f.Rows())

	v, ok := f.Value(0, "totalRevenue")
	require.True(t, ok)
	assert.Equal(t, 10.0, v)

	_, ok = f.Value(1, "totalRevenue")
	assert.False(t, ok, "null cell")
	_, ok = f.Value(0, "netIncome")
	assert.False(t, ok, "missing column")
	_, ok = f.Value(5, "totalRevenue")
	assert.False(t, ok, "out of range")

	var nilFrame *Frame
	assert.Equal(t, 0, nilFrame.Rows())
}
