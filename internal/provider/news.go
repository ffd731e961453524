package provider

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leonardcser/quickscope/internal/cache"
	"github.com/leonardcser/quickscope/internal/market"
)

const (
	DefaultNewsItems = 10
	summaryRunes     = 280
	// Polarity beyond ±sentimentThreshold is labeled positive or negative.
	sentimentThreshold = 0.05
)

type newsArticle struct {
	Date      string   `json:"date"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Link      string   `json:"link"`
	Symbols   []string `json:"symbols"`
	Sentiment *struct {
		Polarity float64 `json:"polarity"`
		Neg      float64 `json:"neg"`
		Neu      float64 `json:"neu"`
		Pos      float64 `json:"pos"`
	} `json:"sentiment"`
}

// FetchNews returns up to maxItems headlines, from the configured news
// source when one is set and from the EODHD news endpoint otherwise.
func (c *Client) FetchNews(ctx context.Context, ticker string, maxItems int) ([]market.NewsItem, error) {
	if maxItems <= 0 {
		maxItems = DefaultNewsItems
	}
	if c.news != nil {
		return c.news.FetchNews(ctx, ticker, maxItems)
	}

	q := url.Values{}
	q.Set("s", c.symbol(ticker))
	q.Set("limit", strconv.Itoa(maxItems))
	var articles []newsArticle
	if err := c.getJSON(ctx, "/news", q, &articles); err != nil {
		return nil, fail(ticker, cache.CategoryNews, err)
	}

	sym := normalize(ticker)
	items := make([]market.NewsItem, 0, len(articles))
	for _, a := range articles {
		title := strings.TrimSpace(a.Title)
		if title == "" {
			continue
		}
		item := market.NewsItem{
			Ticker:      sym,
			Title:       title,
			Source:      sourceOf(a.Link),
			PublishedAt: parseNewsTime(a.Date),
		}
		if a.Link != "" {
			item.URL = market.String(a.Link)
		}
		if s := truncate(strings.Join(strings.Fields(a.Content), " "), summaryRunes); s != "" {
			item.Summary = market.String(s)
		}
		if a.Sentiment != nil {
			label, confidence := sentimentLabel(a.Sentiment.Polarity, a.Sentiment.Pos, a.Sentiment.Neu, a.Sentiment.Neg)
			item.SentimentScore = market.Float(a.Sentiment.Polarity)
			item.SentimentLabel = market.String(label)
			item.SentimentConfidence = market.Float(confidence)
		}
		items = append(items, item)
		if len(items) == maxItems {
			break
		}
	}
	return items, nil
}

// sentimentLabel buckets a polarity score and reports the share of the
// matching component as confidence.
func sentimentLabel(polarity, pos, neu, neg float64) (string, float64) {
	switch {
	case polarity > sentimentThreshold:
		return "positive", pos
	case polarity < -sentimentThreshold:
		return "negative", neg
	default:
		return "neutral", neu
	}
}

func parseNewsTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-07:00", time.DateTime, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// sourceOf names a publisher by the host of its article link.
func sourceOf(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return "eodhd"
	}
	return strings.TrimPrefix(u.Host, "www.")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
