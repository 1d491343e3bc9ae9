// Package source hosts adapters for the upstream quote and news providers.
// Each adapter converts provider-native payloads into owned record types at
// its boundary; nothing downstream inspects provider shapes.
package source

import (
	"context"
	"time"
)

// Candle is one raw OHLCV row for a symbol. Pointer fields mark columns the
// provider omitted; partial candles are legitimate.
type Candle struct {
	Ts       time.Time
	Open     *float64
	High     *float64
	Low      *float64
	Close    *float64
	AdjClose *float64
	Volume   *int64
}

// Series is the per-symbol result of one quote fetch.
type Series struct {
	Currency string
	Candles  []Candle
}

// Meta carries provider metadata for a single symbol.
type Meta struct {
	Currency string
}

// QuoteSource fetches OHLCV candles keyed by symbol. Failure of one symbol
// must not abort the others; failed symbols are simply absent from the map.
type QuoteSource interface {
	Fetch(ctx context.Context, symbols []string, period, interval string) map[string]Series
	Metadata(ctx context.Context, symbol string) (Meta, error)
}

// FeedItem is one raw syndicated-feed entry, already detached from the
// parser's types.
type FeedItem struct {
	Title   string
	Summary string
	Link    string

	// Raw timestamp strings as published by the feed, plus the parser's own
	// interpretation. The normalizer owns the resolution order.
	Published       string
	Updated         string
	PublishedParsed *time.Time
	UpdatedParsed   *time.Time

	// Source is the provider-declared origin label, when the feed carries one.
	Source string
}

// FeedSource fetches entries from a single feed URL. Each call re-fetches
// from scratch.
type FeedSource interface {
	Fetch(ctx context.Context, feedURL string) ([]FeedItem, error)
}
