// Package sink writes normalized point batches to the external time-series
// store. Delivery is at-least-once: the store is idempotent per
// (measurement, tag set, timestamp), so re-sending overlapping batches across
// cycles is safe.
package sink

import (
	"context"

	"github.com/tomeir2105/stockops-final-project/internal/series"
)

// Sink accepts point batches. Write returns the number of points accepted;
// an empty batch is a no-op. A failed write loses the batch for this cycle
// only: the next cycle's overlapping lookback window re-covers the data.
type Sink interface {
	Write(ctx context.Context, batch []series.Point) (int, error)
	Close() error
}
