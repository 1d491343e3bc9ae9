// Package series standardizes the canonical point model shared between the
// normalizers and the sink writer.
package series

import "time"

// Point is one normalized observation bound for the time-series store. Tags
// partition series identity; Fields carry the measured payload.
type Point struct {
	Measurement string
	Symbol      string
	Time        time.Time
	Fields      map[string]any
	Tags        map[string]string

	// Key deduplicates within a batch and gives the point its idempotent
	// sink identity: (symbol, timestamp) for prices, (symbol, url) for news.
	Key string
}

// PriceKey builds the dedup identity for a price point.
func PriceKey(symbol string, ts time.Time) string {
	return symbol + "|" + ts.UTC().Format(time.RFC3339)
}

// NewsKey builds the dedup identity for a news point.
func NewsKey(symbol, url string) string {
	return symbol + "|" + url
}

// Dedup collapses points sharing an identity key within one batch. The
// later-processed duplicate wins; first-occurrence ordering is preserved.
func Dedup(batch []Point) []Point {
	if len(batch) < 2 {
		return batch
	}
	out := make([]Point, 0, len(batch))
	index := make(map[string]int, len(batch))
	for _, p := range batch {
		if at, ok := index[p.Key]; ok {
			out[at] = p
			continue
		}
		index[p.Key] = len(out)
		out = append(out, p)
	}
	return out
}
