// Package normalize converts raw provider records into canonical series
// points. All timestamps leave this package in UTC, clamped so no point is
// ever stamped further than a small skew allowance into the future.
package normalize

import (
	"net/url"
	"strings"
	"time"

	"github.com/tomeir2105/stockops-final-project/internal/series"
	"github.com/tomeir2105/stockops-final-project/internal/source"
)

const (
	// FutureClamp is the tolerated clock skew; timestamps beyond now+FutureClamp
	// are clamped to now.
	FutureClamp = 5 * time.Minute

	// MaxSummaryLen bounds the stored news summary, in runes.
	MaxSummaryLen = 800

	PriceMeasurement = "lse_prices"
	NewsMeasurement  = "lse_news"
)

// exchangeBySuffix maps recognized regional ticker suffixes to exchange tags.
var exchangeBySuffix = map[string]string{
	".L": "LSE",
}

const defaultExchange = "US"

// ExchangeTag derives the exchange tag from the symbol's suffix convention.
func ExchangeTag(symbol string) string {
	for suffix, exchange := range exchangeBySuffix {
		if strings.HasSuffix(symbol, suffix) {
			return exchange
		}
	}
	return defaultExchange
}

// clampFuture pins ts to now when it exceeds the skew allowance.
func clampFuture(ts, now time.Time) time.Time {
	if ts.After(now.Add(FutureClamp)) {
		return now
	}
	return ts
}

// Market converts one raw candle into a price point. It returns nil when the
// candle falls before the cutoff or carries no usable fields. Only present
// columns become fields; partial candles are allowed.
func Market(symbol string, candle source.Candle, currency string, now, cutoff time.Time) *series.Point {
	ts := clampFuture(candle.Ts.UTC(), now.UTC())
	if !cutoff.IsZero() && ts.Before(cutoff) {
		return nil
	}

	fields := make(map[string]any, 6)
	putFloat(fields, "open", candle.Open)
	putFloat(fields, "high", candle.High)
	putFloat(fields, "low", candle.Low)
	putFloat(fields, "close", candle.Close)
	putFloat(fields, "adj_close", candle.AdjClose)
	if candle.Volume != nil {
		fields["volume"] = *candle.Volume
	}
	if len(fields) == 0 {
		return nil
	}

	return &series.Point{
		Measurement: PriceMeasurement,
		Symbol:      symbol,
		Time:        ts,
		Fields:      fields,
		Tags: map[string]string{
			"ticker":   symbol,
			"exchange": ExchangeTag(symbol),
			"currency": currency,
		},
		Key: series.PriceKey(symbol, ts),
	}
}

func putFloat(fields map[string]any, name string, v *float64) {
	if v != nil {
		fields[name] = *v
	}
}

// newsTimeLayouts are tried, in order, against the raw published/updated
// strings before falling back to the parser's interpretation.
var newsTimeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
}

// resolveNewsTime applies the resolution order: explicit published/updated
// string, provider-parsed timestamp, otherwise now.
func resolveNewsTime(item source.FeedItem, now time.Time) time.Time {
	for _, raw := range []string{item.Published, item.Updated} {
		if raw == "" {
			continue
		}
		for _, layout := range newsTimeLayouts {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts.UTC()
			}
		}
	}
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	return now.UTC()
}

// News converts one raw feed entry into a news point. Title and link are
// mandatory; a record lacking either yields nil. Records older than the
// cutoff yield nil.
func News(symbol string, item source.FeedItem, now, cutoff time.Time) *series.Point {
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" || link == "" {
		return nil
	}

	ts := clampFuture(resolveNewsTime(item, now), now.UTC())
	if !cutoff.IsZero() && ts.Before(cutoff) {
		return nil
	}

	summary := strings.TrimSpace(item.Summary)
	if runes := []rune(summary); len(runes) > MaxSummaryLen {
		summary = string(runes[:MaxSummaryLen])
	}

	src := strings.TrimSpace(item.Source)
	if src == "" {
		src = hostOf(link)
	}

	return &series.Point{
		Measurement: NewsMeasurement,
		Symbol:      symbol,
		Time:        ts,
		Fields: map[string]any{
			"title":   title,
			"summary": summary,
			"url":     link,
		},
		Tags: map[string]string{
			"ticker": symbol,
			"source": src,
		},
		Key: series.NewsKey(symbol, link),
	}
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Host
}
