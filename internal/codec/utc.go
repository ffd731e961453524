package codec

import (
	"time"

	"github.com/leonardcser/quickscope/internal/market"
)

// JSON times keep the offset they were written with; decoded records carry
// UTC everywhere, matching the Arrow columns.

func utc(t *time.Time) {
	if !t.IsZero() {
		*t = t.UTC()
	}
}

func utcStockData(sd *market.StockData) {
	if sd != nil {
		utc(&sd.Timestamp)
	}
}

func utcFundamentals(f *market.Fundamentals) {
	if f != nil {
		utc(&f.Timestamp)
	}
}

func utcOptionsChain(c *market.OptionsChain) {
	if c == nil {
		return
	}
	utc(&c.Timestamp)
	for i := range c.Expirations {
		utc(&c.Expirations[i])
	}
	for i := range c.Calls {
		utc(&c.Calls[i].Expiration)
	}
	for i := range c.Puts {
		utc(&c.Puts[i].Expiration)
	}
}

func utcNews(items []market.NewsItem) {
	for i := range items {
		utc(&items[i].PublishedAt)
	}
}

func utcAnalystRatings(r *market.AnalystRatings) {
	if r == nil {
		return
	}
	utc(&r.Timestamp)
	for i := range r.Recommendations {
		utc(&r.Recommendations[i].Date)
	}
}

func utcMarketData(md *market.MarketData) {
	if md == nil {
		return
	}
	utc(&md.Timestamp)
	utcStockData(md.StockData)
	utcFundamentals(md.Fundamentals)
	utcOptionsChain(md.OptionsChain)
	utcNews(md.News)
	utcAnalystRatings(md.AnalystRatings)
}
