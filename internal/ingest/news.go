package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomeir2105/stockops-final-project/internal/config"
	"github.com/tomeir2105/stockops-final-project/internal/filter"
	"github.com/tomeir2105/stockops-final-project/internal/metrics"
	"github.com/tomeir2105/stockops-final-project/internal/normalize"
	"github.com/tomeir2105/stockops-final-project/internal/series"
	"github.com/tomeir2105/stockops-final-project/internal/sink"
	"github.com/tomeir2105/stockops-final-project/internal/source"
)

const newsFetchConcurrency = 4

// News ingests syndicated-feed entries for the configured symbol set.
type News struct {
	feeds     source.FeedSource
	sink      sink.Sink
	feedsPath string
	log       zerolog.Logger

	mu        sync.RWMutex
	overrides map[string][]string
}

// NewNews wires the feed source to the sink. feedsPath points at the YAML
// symbol→feed-URL override map.
func NewNews(feeds source.FeedSource, snk sink.Sink, feedsPath string, log zerolog.Logger) *News {
	return &News{
		feeds:     feeds,
		sink:      snk,
		feedsPath: feedsPath,
		log:       log,
		overrides: make(map[string][]string),
	}
}

// Name identifies the pipeline in logs and metrics.
func (n *News) Name() string { return "news" }

// Refresh rebuilds the feed set for a new symbol list.
func (n *News) Refresh(symbols []string) {
	feeds := config.LoadFeeds(n.feedsPath, symbols, n.log)
	n.mu.Lock()
	n.overrides = feeds
	n.mu.Unlock()
	n.log.Info().Int("symbols", len(symbols)).Msg("feed set refreshed")
}

func (n *News) feedsFor(symbol string) []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.overrides[symbol]
}

// RunCycle executes one ingestion cycle. During backfill the cutoff widens to
// the configured backfill day count.
func (n *News) RunCycle(ctx context.Context, snap config.Snapshot, backfill bool) (int, error) {
	now := time.Now().UTC()
	lookback := snap.Lookback
	if backfill {
		lookback = time.Duration(snap.BackfillDays) * 24 * time.Hour
	}
	cutoff := filter.Cutoff(now, lookback)
	relevance := filter.Relevance{RequireTicker: snap.RequireTicker, Keywords: snap.Keywords}

	// Per-symbol result slots keep merge order deterministic regardless of
	// fetch completion order.
	results := make([][]series.Point, len(snap.Symbols))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(newsFetchConcurrency)
	for i, symbol := range snap.Symbols {
		i, symbol := i, symbol
		group.Go(func() error {
			results[i] = n.collectSymbol(gctx, symbol, relevance, now, cutoff)
			return nil
		})
	}
	_ = group.Wait()

	batch := make([]series.Point, 0, 64)
	for _, points := range results {
		batch = append(batch, points...)
	}
	batch = series.Dedup(batch)

	written, err := n.sink.Write(ctx, batch)
	if err != nil {
		return 0, err
	}
	metrics.PointsWritten.WithLabelValues(n.Name()).Add(float64(written))
	n.log.Info().Int("points", written).Int("symbols", len(snap.Symbols)).Time("cutoff", cutoff).Msg("cycle written")
	return written, nil
}

// collectSymbol fetches every feed configured for one symbol. A failing feed
// is logged and skipped; the other feeds still contribute.
func (n *News) collectSymbol(ctx context.Context, symbol string, relevance filter.Relevance, now, cutoff time.Time) []series.Point {
	var points []series.Point
	for _, feedURL := range n.feedsFor(symbol) {
		items, err := n.feeds.Fetch(ctx, feedURL)
		if err != nil {
			if ctx.Err() != nil {
				return points
			}
			metrics.FetchErrors.WithLabelValues(n.Name()).Inc()
			n.log.Warn().Err(err).Str("symbol", symbol).Str("feed", feedURL).Msg("feed fetch failed")
			continue
		}
		for _, item := range items {
			p := normalize.News(symbol, item, now, cutoff)
			if p == nil {
				continue
			}
			if !relevance.Keep(symbol, item.Title, item.Summary) {
				continue
			}
			points = append(points, *p)
		}
	}
	n.log.Debug().Str("symbol", symbol).Int("matched", len(points)).Time("cutoff", cutoff).Msg("feed entries matched")
	return points
}
