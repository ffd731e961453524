package codec

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonardcser/quickscope/internal/market"
)

var (
	day1 = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
)

func sampleStockData() *market.StockData {
	shares := int64(15_000_000_000)
	return &market.StockData{
		Ticker:       "AAPL",
		CurrentPrice: 190.5,
		Timestamp:    day2,
		History: []market.Bar{
			{Time: day1, Open: 188, High: 191, Low: 187.5, Close: 189, Volume: 1000, AdjClose: market.Float(188.9)},
			{Time: day2, Open: 189, High: 192, Low: 188, Close: 190.5, Volume: 1200, Dividends: 0.24},
		},
		Volume:            1200,
		MarketCap:         market.Float(2.9e12),
		SharesOutstanding: &shares,
	}
}

func sampleFundamentals() *market.Fundamentals {
	return &market.Fundamentals{
		Ticker:    "AAPL",
		Timestamp: day2,
		Revenue:   market.Float(3.9e11),
		PERatio:   market.Float(29.4),
		IncomeStatement: &market.Frame{
			Index: []time.Time{day1, day2},
			Columns: []market.Column{
				{Name: "totalRevenue", Values: []*float64{market.Float(1), market.Float(2)}},
				{Name: "netIncome", Values: []*float64{nil, market.Float(0.5)}},
			},
		},
		BalanceSheet: &market.Frame{
			Index:   []time.Time{day2},
			Columns: []market.Column{{Name: "totalAssets", Values: []*float64{market.Float(3.5e11)}}},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		record any
	}{
		{name: "stock data", record: sampleStockData()},
		{name: "stock data without history", record: &market.StockData{Ticker: "X", CurrentPrice: 1, Timestamp: day1}},
		{name: "fundamentals", record: sampleFundamentals()},
		{name: "fundamentals all absent", record: &market.Fundamentals{Ticker: "X", Timestamp: day1}},
		{name: "options chain", record: &market.OptionsChain{
			Ticker:      "AAPL",
			Timestamp:   day1,
			Expirations: []time.Time{day2},
			Calls: []market.OptionContract{{
				Ticker: "AAPL", ContractSymbol: "AAPL250304C00190000", Strike: 190, Expiration: day2,
				OptionType: market.OptionCall, LastPrice: 1.2, Bid: 1.1, Ask: 1.3, Volume: 10, OpenInterest: 40,
				ImpliedVolatility: market.Float(0.22), InTheMoney: true,
			}},
		}},
		{name: "news", record: []market.NewsItem{{
			Ticker: "AAPL", Title: "Apple ships", Source: "wire", PublishedAt: day1,
			URL: market.String("https://example.com/a"), SentimentScore: market.Float(0.4),
			SentimentLabel: market.String("positive"),
		}}},
		{name: "analyst ratings", record: &market.AnalystRatings{
			Ticker: "AAPL", Timestamp: day1, StrongBuy: 10, Buy: 5, Hold: 3,
			MeanTargetPrice: market.Float(210),
			Recommendations: []market.AnalystRecommendation{{Ticker: "AAPL", Date: day1, Firm: "Acme", Rating: "Buy"}},
		}},
		{name: "market data", record: &market.MarketData{
			Ticker:       "AAPL",
			Timestamp:    day2,
			StockData:    sampleStockData(),
			Fundamentals: sampleFundamentals(),
			News:         []market.NewsItem{{Ticker: "AAPL", Title: "t", Source: "s", PublishedAt: day1}},
		}},
		{name: "market data partial", record: &market.MarketData{Ticker: "AAPL", Timestamp: day2}},
	}

	codecs := map[string]*Binary{
		"zstd":  Default(),
		"plain": New(Options{Compress: false}),
	}
	for cname, c := range codecs {
		for _, tt := range tests {
			t.Run(cname+"/"+tt.name, func(t *testing.T) {
				blob, err := c.Encode(tt.record)
				require.NoError(t, err)

				got, err := c.Decode(blob)
				require.NoError(t, err)
				assert.Equal(t, tt.record, got)
			})
		}
	}
}

func TestEncodeDoesNotMutateInput(t *testing.T) {
	sd := sampleStockData()
	_, err := Default().Encode(sd)
	require.NoError(t, err)
	assert.Len(t, sd.History, 2)

	md := &market.MarketData{Ticker: "AAPL", StockData: sampleStockData()}
	_, err = Default().Encode(md)
	require.NoError(t, err)
	assert.NotNil(t, md.StockData)
}

func TestEncodeErrors(t *testing.T) {
	c := Default()

	_, err := c.Encode(struct{ X int }{1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	var serr *SerializationError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "encode", serr.Op)

	var nilStock *market.StockData
	_, err = c.Encode(nilStock)
	assert.ErrorIs(t, err, ErrNilRecord)

	ragged := &market.Fundamentals{IncomeStatement: &market.Frame{
		Index:   []time.Time{day1, day2},
		Columns: []market.Column{{Name: "x", Values: []*float64{market.Float(1)}}},
	}}
	_, err = c.Encode(ragged)
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindFundamentals, serr.Kind)
}

func TestDecodeErrors(t *testing.T) {
	c := Default()
	blob, err := c.Encode(sampleStockData())
	require.NoError(t, err)

	t.Run("short", func(t *testing.T) {
		_, err := c.Decode(blob[:5])
		assert.ErrorIs(t, err, ErrShortBlob)
	})

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte(nil), blob...)
		bad[0] = 'X'
		_, err := c.Decode(bad)
		assert.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("corrupted body", func(t *testing.T) {
		bad := append([]byte(nil), blob...)
		bad[len(bad)-1] ^= 0xff
		_, err := c.Decode(bad)
		assert.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := c.Decode([]byte("not a cache blob at all"))
		var serr *SerializationError
		assert.ErrorAs(t, err, &serr)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := c.Decode(frameBody([]byte(`{"kind":"weather","payload":{}}`)))
		assert.ErrorIs(t, err, ErrUnknownKind)
	})
}

func TestDecodeAcceptsEitherCompressionSetting(t *testing.T) {
	plain, err := New(Options{Compress: false}).Encode(sampleStockData())
	require.NoError(t, err)

	got, err := Default().Decode(plain)
	require.NoError(t, err)
	assert.Equal(t, sampleStockData(), got)
}

// frameBody wraps an uncompressed envelope in a valid header.
func frameBody(body []byte) []byte {
	out := make([]byte, headerSize+len(body))
	copy(out, magic[:])
	binary.BigEndian.PutUint64(out[5:headerSize], xxhash.Sum64(body))
	copy(out[headerSize:], body)
	return out
}

func TestDecodeReturnsUTC(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	at := time.Date(2025, 3, 4, 9, 30, 0, 0, est)
	c := Default()

	sd := &market.StockData{
		Ticker: "AAPL", CurrentPrice: 190.5, Timestamp: at,
		History: []market.Bar{{Time: at, Open: 1, High: 2, Low: 1, Close: 2, Volume: 10}},
	}
	chain := &market.OptionsChain{
		Ticker: "AAPL", Timestamp: at, Expirations: []time.Time{at},
		Calls: []market.OptionContract{{Ticker: "AAPL", Expiration: at, OptionType: "call"}},
	}
	news := []market.NewsItem{{Ticker: "AAPL", Title: "t", PublishedAt: at}}
	ratings := &market.AnalystRatings{
		Ticker: "AAPL", Timestamp: at,
		Recommendations: []market.AnalystRecommendation{{Ticker: "AAPL", Date: at}},
	}
	md := &market.MarketData{Ticker: "AAPL", Timestamp: at, StockData: sd, OptionsChain: chain, News: news}

	var times []time.Time
	for _, v := range []any{sd, chain, news, ratings, md} {
		blob, err := c.Encode(v)
		require.NoError(t, err)
		out, err := c.Decode(blob)
		require.NoError(t, err)
		switch r := out.(type) {
		case *market.StockData:
			times = append(times, r.Timestamp, r.History[0].Time)
		case *market.OptionsChain:
			times = append(times, r.Timestamp, r.Expirations[0], r.Calls[0].Expiration)
		case []market.NewsItem:
			times = append(times, r[0].PublishedAt)
		case *market.AnalystRatings:
			times = append(times, r.Timestamp, r.Recommendations[0].Date)
		case *market.MarketData:
			times = append(times, r.Timestamp, r.StockData.Timestamp, r.OptionsChain.Timestamp, r.News[0].PublishedAt)
		}
	}
	require.Len(t, times, 12)
	for i, got := range times {
		assert.Equal(t, time.UTC, got.Location(), "time %d", i)
		assert.True(t, got.Equal(at), "time %d", i)
	}
}
