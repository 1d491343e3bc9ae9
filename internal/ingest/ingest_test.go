package ingest

import (
	"context"
	"sync"

	"github.com/tomeir2105/stockops-final-project/internal/series"
	"github.com/tomeir2105/stockops-final-project/internal/source"
)

// fakeQuotes serves canned per-symbol series; symbols absent from the map
// behave like failed fetches.
type fakeQuotes struct {
	data       map[string]source.Series
	lastPeriod string
	lastIvl    string
}

func (f *fakeQuotes) Fetch(_ context.Context, symbols []string, period, interval string) map[string]source.Series {
	f.lastPeriod = period
	f.lastIvl = interval
	out := make(map[string]source.Series)
	for _, s := range symbols {
		if res, ok := f.data[s]; ok {
			out[s] = res
		}
	}
	return out
}

func (f *fakeQuotes) Metadata(_ context.Context, symbol string) (source.Meta, error) {
	return source.Meta{Currency: f.data[symbol].Currency}, nil
}

// fakeFeeds serves canned items per feed URL; URLs in failing return errors.
type fakeFeeds struct {
	items   map[string][]source.FeedItem
	all     []source.FeedItem // served for any URL when items is nil
	failing map[string]error
}

func (f *fakeFeeds) Fetch(_ context.Context, feedURL string) ([]source.FeedItem, error) {
	if err, ok := f.failing[feedURL]; ok {
		return nil, err
	}
	if f.items != nil {
		return f.items[feedURL], nil
	}
	return f.all, nil
}

// captureSink records every batch it is handed.
type captureSink struct {
	mu      sync.Mutex
	batches [][]series.Point
	err     error
}

func (c *captureSink) Write(_ context.Context, batch []series.Point) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	copied := make([]series.Point, len(batch))
	copy(copied, batch)
	c.batches = append(c.batches, copied)
	return len(batch), nil
}

func (c *captureSink) Close() error { return nil }

func (c *captureSink) last() []series.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.batches) == 0 {
		return nil
	}
	return c.batches[len(c.batches)-1]
}
