package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leonardcser/quickscope/internal/cache"
	"github.com/leonardcser/quickscope/internal/fetcher"
	"github.com/leonardcser/quickscope/internal/market"
)

var errNoHistory = errors.New("no price history returned")

// eodBar is one row of /eod/{SYMBOL}:
//
//	{"date": "2024-02-13", "open": 675.06, "high": 684.21, "low": 648.65,
//	 "close": 668.44, "adjusted_close": 67.70, "volume": 0}
type eodBar struct {
	Date          string              `json:"date"`
	Open          decimal.Decimal     `json:"open"`
	High          decimal.Decimal     `json:"high"`
	Low           decimal.Decimal     `json:"low"`
	Close         decimal.Decimal     `json:"close"`
	AdjustedClose decimal.NullDecimal `json:"adjusted_close"`
	Volume        decimal.Decimal     `json:"volume"`
}

func (b eodBar) bar() (market.Bar, error) {
	at, err := time.Parse(time.DateOnly, b.Date)
	if err != nil {
		return market.Bar{}, fmt.Errorf("bar date %q: %w", b.Date, err)
	}
	bar := market.Bar{
		Time:   at,
		Open:   b.Open.InexactFloat64(),
		High:   b.High.InexactFloat64(),
		Low:    b.Low.InexactFloat64(),
		Close:  b.Close.InexactFloat64(),
		Volume: b.Volume.IntPart(),
	}
	if b.AdjustedClose.Valid {
		bar.AdjClose = market.Float(b.AdjustedClose.Decimal.InexactFloat64())
	}
	return bar, nil
}

func (c *Client) FetchPriceHistory(ctx context.Context, ticker string, opts fetcher.PriceOptions) (*market.StockData, error) {
	from, err := periodStart(opts.Period, c.now())
	if err != nil {
		return nil, fail(ticker, cache.CategoryStockData, err)
	}
	period, err := eodPeriod(opts.Interval)
	if err != nil {
		return nil, fail(ticker, cache.CategoryStockData, err)
	}

	q := url.Values{}
	q.Set("period", period)
	q.Set("to", c.now().UTC().Format(time.DateOnly))
	if !from.IsZero() {
		q.Set("from", from.Format(time.DateOnly))
	}
	var rows []eodBar
	if err := c.getJSON(ctx, "/eod/"+url.PathEscape(c.symbol(ticker)), q, &rows); err != nil {
		return nil, fail(ticker, cache.CategoryStockData, err)
	}
	if len(rows) == 0 {
		return nil, fail(ticker, cache.CategoryStockData, errNoHistory)
	}

	history := make([]market.Bar, 0, len(rows))
	for _, r := range rows {
		bar, err := r.bar()
		if err != nil {
			return nil, fail(ticker, cache.CategoryStockData, err)
		}
		history = append(history, bar)
	}
	last := history[len(history)-1]

	sd := &market.StockData{
		Ticker:       normalize(ticker),
		CurrentPrice: last.Close,
		Timestamp:    c.now().UTC(),
		History:      history,
		Volume:       last.Volume,
	}
	if err := sd.Validate(); err != nil {
		return nil, fail(ticker, cache.CategoryStockData, err)
	}

	// Market cap, beta and share count live in the fundamentals document.
	// They are nice to have, so a failure here only costs those fields.
	doc, err := c.fundamentalsDoc(ctx, ticker)
	if err != nil {
		c.log.Warn().Err(err).Str("ticker", sd.Ticker).Msg("price overview unavailable")
		return sd, nil
	}
	sd.MarketCap = nonZero(number(doc, "$.Highlights.MarketCapitalization"))
	sd.Beta = number(doc, "$.Technicals.Beta")
	sd.SharesOutstanding = integer(doc, "$.SharesStats.SharesOutstanding")
	return sd, nil
}

func (c *Client) fundamentalsDoc(ctx context.Context, ticker string) (any, error) {
	var doc any
	if err := c.getJSON(ctx, "/fundamentals/"+url.PathEscape(c.symbol(ticker)), nil, &doc); err != nil {
		return nil, err
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, fmt.Errorf("fundamentals: unexpected document %T", doc)
	}
	return doc, nil
}
