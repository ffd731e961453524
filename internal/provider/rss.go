package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"

	"github.com/leonardcser/quickscope/internal/cache"
	"github.com/leonardcser/quickscope/internal/logger"
	"github.com/leonardcser/quickscope/internal/market"
)

// DefaultRSSURL is a per-ticker headline feed; %s is replaced by the ticker.
const DefaultRSSURL = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"

// RSSNews reads headlines from an RSS 2.0 feed.
type RSSNews struct {
	feedURL string
	log     zerolog.Logger
}

// NewRSSNews returns a news source for feedURL. If feedURL contains %s it is
// formatted with the ticker.
func NewRSSNews(feedURL string) *RSSNews {
	if feedURL == "" {
		feedURL = DefaultRSSURL
	}
	return &RSSNews{feedURL: feedURL, log: logger.Component("rss")}
}

func (r *RSSNews) feedFor(ticker string) string {
	if strings.Contains(r.feedURL, "%s") {
		return fmt.Sprintf(r.feedURL, url.QueryEscape(ticker))
	}
	return r.feedURL
}

func (r *RSSNews) FetchNews(ctx context.Context, ticker string, maxItems int) ([]market.NewsItem, error) {
	if maxItems <= 0 {
		maxItems = DefaultNewsItems
	}
	if ctx.Err() != nil {
		return nil, fail(ticker, cache.CategoryNews, ctx.Err())
	}
	sym := normalize(ticker)
	feed := r.feedFor(sym)
	feedHost := sourceOf(feed)

	c := colly.NewCollector(colly.AllowURLRevisit())
	c.SetRequestTimeout(RequestTimeout)
	c.Context = ctx
	c.OnRequest(func(req *colly.Request) {
		req.Headers.Set("User-Agent", userAgents.Next())
		req.Headers.Set("Accept", "application/rss+xml,application/xml;q=0.9,text/xml;q=0.8,*/*;q=0.5")
	})

	var items []market.NewsItem
	c.OnXML("//item", func(e *colly.XMLElement) {
		if len(items) >= maxItems {
			return
		}
		title := cleanText(e.ChildText("title"))
		if title == "" {
			return
		}
		item := market.NewsItem{
			Ticker:      sym,
			Title:       title,
			Source:      feedHost,
			PublishedAt: parseFeedTime(e.ChildText("pubDate")),
		}
		if src := cleanText(e.ChildText("source")); src != "" {
			item.Source = src
		}
		if link := strings.TrimSpace(e.ChildText("link")); link != "" {
			item.URL = market.String(link)
		}
		if s := summarize(e.ChildText("description")); s != "" {
			item.Summary = market.String(s)
		}
		items = append(items, item)
	})

	if err := c.Visit(feed); err != nil {
		return nil, fail(ticker, cache.CategoryNews, err)
	}
	if ctx.Err() != nil {
		return nil, fail(ticker, cache.CategoryNews, ctx.Err())
	}
	r.log.Debug().Str("ticker", sym).Int("items", len(items)).Msg("read news feed")
	return items, nil
}

// cleanText strips markup and collapses whitespace.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// summarize renders an HTML description as markdown, capped at
// summaryRunes.
func summarize(desc string) string {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(desc)
	if err != nil {
		md = cleanText(desc)
	}
	return truncate(strings.TrimSpace(md), summaryRunes)
}

func parseFeedTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339, "Mon, 2 Jan 2006 15:04:05 -0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
