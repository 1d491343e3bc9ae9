// Package ingest implements one fetch→normalize→filter→write cycle for each
// pipeline. Point batches live for a single cycle only.
package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomeir2105/stockops-final-project/internal/config"
	"github.com/tomeir2105/stockops-final-project/internal/filter"
	"github.com/tomeir2105/stockops-final-project/internal/metrics"
	"github.com/tomeir2105/stockops-final-project/internal/normalize"
	"github.com/tomeir2105/stockops-final-project/internal/series"
	"github.com/tomeir2105/stockops-final-project/internal/sink"
	"github.com/tomeir2105/stockops-final-project/internal/source"
)

// Market ingests OHLCV candles for the configured symbol set.
type Market struct {
	quotes source.QuoteSource
	sink   sink.Sink
	log    zerolog.Logger
}

// NewMarket wires the quote source to the sink.
func NewMarket(quotes source.QuoteSource, snk sink.Sink, log zerolog.Logger) *Market {
	return &Market{quotes: quotes, sink: snk, log: log}
}

// Name identifies the pipeline in logs and metrics.
func (m *Market) Name() string { return "market" }

// Refresh is a no-op: the quote source takes the symbol set per fetch call.
func (m *Market) Refresh([]string) {}

// RunCycle executes one ingestion cycle. During backfill the period widens to
// the configured (or interval-derived) backfill window and the lookback
// cutoff is suspended.
func (m *Market) RunCycle(ctx context.Context, snap config.Snapshot, backfill bool) (int, error) {
	now := time.Now().UTC()
	period := snap.Period
	cutoff := filter.Cutoff(now, snap.Lookback)
	if backfill {
		period = snap.BackfillPeriod
		if period == "" {
			period = source.FallbackPeriod(snap.Interval)
		}
		cutoff = time.Time{}
	}

	period, interval, changed := source.ResolvePlan(period, snap.Interval)
	if changed {
		m.log.Warn().Str("period", period).Str("interval", interval).Msg("requested plan unsupported, using fallback")
	}

	bySymbol := m.quotes.Fetch(ctx, snap.Symbols, period, interval)
	batch := make([]series.Point, 0, 256)
	for _, symbol := range snap.Symbols {
		res, ok := bySymbol[symbol]
		if !ok {
			continue
		}
		kept := 0
		for _, candle := range res.Candles {
			if p := normalize.Market(symbol, candle, res.Currency, now, cutoff); p != nil {
				batch = append(batch, *p)
				kept++
			}
		}
		m.log.Debug().Str("symbol", symbol).Int("candles", len(res.Candles)).Int("kept", kept).Msg("candles normalized")
	}

	batch = series.Dedup(batch)
	written, err := m.sink.Write(ctx, batch)
	if err != nil {
		return 0, err
	}
	metrics.PointsWritten.WithLabelValues(m.Name()).Add(float64(written))
	m.log.Info().Int("points", written).Int("symbols", len(snap.Symbols)).Str("period", period).Msg("cycle written")
	return written, nil
}
