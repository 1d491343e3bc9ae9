package sink

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"github.com/tomeir2105/stockops-final-project/internal/series"
)

// Influx submits batches to an InfluxDB 2.x bucket through the blocking
// write API. Last write wins per (measurement, tag set, timestamp).
type Influx struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
	log    zerolog.Logger
}

// NewInflux constructs the store client. A missing token is a construction
// error; callers treat it as fatal.
func NewInflux(url, token, org, bucket string, log zerolog.Logger) (*Influx, error) {
	if url == "" {
		return nil, fmt.Errorf("influx url is required")
	}
	if token == "" {
		return nil, fmt.Errorf("influx token is required")
	}
	client := influxdb2.NewClient(url, token)
	return &Influx{
		client: client,
		write:  client.WriteAPIBlocking(org, bucket),
		log:    log,
	}, nil
}

// Write submits one batch. An empty batch is logged and accepted as zero.
func (s *Influx) Write(ctx context.Context, batch []series.Point) (int, error) {
	if len(batch) == 0 {
		s.log.Debug().Msg("nothing to write")
		return 0, nil
	}
	points := make([]*write.Point, 0, len(batch))
	for i := range batch {
		p := &batch[i]
		points = append(points, influxdb2.NewPoint(p.Measurement, p.Tags, p.Fields, p.Time))
	}
	if err := s.write.WritePoint(ctx, points...); err != nil {
		return 0, fmt.Errorf("write batch of %d: %w", len(batch), err)
	}
	return len(batch), nil
}

// Close releases the underlying HTTP client.
func (s *Influx) Close() error {
	s.client.Close()
	return nil
}
