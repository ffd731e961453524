// Package market defines the in-memory records for each market-data category.
package market

import (
	"errors"
	"time"
)

var ErrNonPositivePrice = errors.New("market: current price must be positive")

// Bar is one row of a price series.
type Bar struct {
	Time      time.Time `json:"time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
	AdjClose  *float64  `json:"adj_close,omitempty"`
	Dividends float64   `json:"dividends"`
	Splits    float64   `json:"splits"`
}

// StockData holds the current quote and its OHLCV history.
type StockData struct {
	Ticker            string    `json:"ticker"`
	CurrentPrice      float64   `json:"current_price"`
	Timestamp         time.Time `json:"timestamp"`
	History           []Bar     `json:"history,omitempty"`
	Volume            int64     `json:"volume"`
	MarketCap         *float64  `json:"market_cap,omitempty"`
	Beta              *float64  `json:"beta,omitempty"`
	SharesOutstanding *int64    `json:"shares_outstanding,omitempty"`
}

func (s *StockData) Validate() error {
	if s.CurrentPrice <= 0 {
		return ErrNonPositivePrice
	}
	return nil
}

// LastBar returns the most recent bar of the history.
func (s *StockData) LastBar() (Bar, bool) {
	if len(s.History) == 0 {
		return Bar{}, false
	}
	return s.History[len(s.History)-1], true
}

// OptionContract is a single call or put.
type OptionContract struct {
	Ticker            string    `json:"ticker"`
	ContractSymbol    string    `json:"contract_symbol"`
	Strike            float64   `json:"strike"`
	Expiration        time.Time `json:"expiration"`
	OptionType        string    `json:"option_type"`
	LastPrice         float64   `json:"last_price"`
	Bid               float64   `json:"bid"`
	Ask               float64   `json:"ask"`
	Volume            int64     `json:"volume"`
	OpenInterest      int64     `json:"open_interest"`
	ImpliedVolatility *float64  `json:"implied_volatility,omitempty"`
	Delta             *float64  `json:"delta,omitempty"`
	Gamma             *float64  `json:"gamma,omitempty"`
	Theta             *float64  `json:"theta,omitempty"`
	Vega              *float64  `json:"vega,omitempty"`
	InTheMoney        bool      `json:"in_the_money"`
}

const (
	OptionCall = "call"
	OptionPut  = "put"
)

type OptionsChain struct {
	Ticker      string           `json:"ticker"`
	Timestamp   time.Time        `json:"timestamp"`
	Expirations []time.Time      `json:"expirations,omitempty"`
	Calls       []OptionContract `json:"calls,omitempty"`
	Puts        []OptionContract `json:"puts,omitempty"`
}

func (c *OptionsChain) CallsByExpiration(exp time.Time) []OptionContract {
	return byExpiration(c.Calls, exp)
}

func (c *OptionsChain) PutsByExpiration(exp time.Time) []OptionContract {
	return byExpiration(c.Puts, exp)
}

// NearestExpiration returns the earliest listed expiration.
func (c *OptionsChain) NearestExpiration() (time.Time, bool) {
	if len(c.Expirations) == 0 {
		return time.Time{}, false
	}
	nearest := c.Expirations[0]
	for _, e := range c.Expirations[1:] {
		if e.Before(nearest) {
			nearest = e
		}
	}
	return nearest, true
}

func byExpiration(contracts []OptionContract, exp time.Time) []OptionContract {
	var out []OptionContract
	for _, c := range contracts {
		if c.Expiration.Equal(exp) {
			out = append(out, c)
		}
	}
	return out
}

// NewsItem is a single headline. SentimentScore ranges over [-1, 1].
type NewsItem struct {
	Ticker              string    `json:"ticker"`
	Title               string    `json:"title"`
	Source              string    `json:"source"`
	PublishedAt         time.Time `json:"published_at"`
	URL                 *string   `json:"url,omitempty"`
	Summary             *string   `json:"summary,omitempty"`
	SentimentScore      *float64  `json:"sentiment_score,omitempty"`
	SentimentLabel      *string   `json:"sentiment_label,omitempty"`
	SentimentConfidence *float64  `json:"sentiment_confidence,omitempty"`
}

type AnalystRecommendation struct {
	Ticker      string    `json:"ticker"`
	Date        time.Time `json:"date"`
	Firm        string    `json:"firm"`
	Rating      string    `json:"rating"`
	TargetPrice *float64  `json:"target_price,omitempty"`
}

type AnalystRatings struct {
	Ticker            string                  `json:"ticker"`
	Timestamp         time.Time               `json:"timestamp"`
	StrongBuy         int                     `json:"strong_buy"`
	Buy               int                     `json:"buy"`
	Hold              int                     `json:"hold"`
	Sell              int                     `json:"sell"`
	StrongSell        int                     `json:"strong_sell"`
	MeanTargetPrice   *float64                `json:"mean_target_price,omitempty"`
	MedianTargetPrice *float64                `json:"median_target_price,omitempty"`
	Recommendations   []AnalystRecommendation `json:"recommendations,omitempty"`
}

func (r *AnalystRatings) Total() int {
	return r.StrongBuy + r.Buy + r.Hold + r.Sell + r.StrongSell
}

// ConsensusScore maps the rating counts onto [-1, 1], bearish to bullish.
func (r *AnalystRatings) ConsensusScore() float64 {
	total := r.Total()
	if total == 0 {
		return 0
	}
	weighted := 2*r.StrongBuy + r.Buy - r.Sell - 2*r.StrongSell
	return float64(weighted) / float64(2*total)
}

// MarketData bundles every category for one ticker. Only StockData and
// Fundamentals are mandatory; the rest are enrichments.
type MarketData struct {
	Ticker         string          `json:"ticker"`
	Timestamp      time.Time       `json:"timestamp"`
	StockData      *StockData      `json:"stock_data,omitempty"`
	Fundamentals   *Fundamentals   `json:"fundamentals,omitempty"`
	OptionsChain   *OptionsChain   `json:"options_chain,omitempty"`
	News           []NewsItem      `json:"news,omitempty"`
	AnalystRatings *AnalystRatings `json:"analyst_ratings,omitempty"`
}

func (m *MarketData) IsComplete() bool {
	return m.StockData != nil && m.Fundamentals != nil
}

func (m *MarketData) HasOptionsData() bool {
	return m.OptionsChain != nil && len(m.OptionsChain.Calls) > 0
}

func (m *MarketData) HasNewsData() bool {
	return len(m.News) > 0
}
