package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomeir2105/stockops-final-project/internal/metrics"
)

const (
	defaultChartBaseURL = "https://query1.finance.yahoo.com"
	defaultChartTimeout = 15 * time.Second
	defaultConcurrency  = 4
)

// ChartClient fetches OHLCV candles from a Yahoo-style chart HTTP API.
type ChartClient struct {
	client      *http.Client
	baseURL     string
	concurrency int
	log         zerolog.Logger
}

// ChartOption configures ChartClient construction parameters.
type ChartOption func(*ChartClient)

// WithBaseURL overrides the chart API endpoint (used by tests).
func WithBaseURL(base string) ChartOption {
	return func(c *ChartClient) {
		if base != "" {
			c.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithTimeout overrides the per-request HTTP timeout.
func WithTimeout(d time.Duration) ChartOption {
	return func(c *ChartClient) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithConcurrency bounds the number of in-flight symbol fetches.
func WithConcurrency(n int) ChartOption {
	return func(c *ChartClient) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewChartClient constructs a chart API client.
func NewChartClient(log zerolog.Logger, opts ...ChartOption) *ChartClient {
	c := &ChartClient{
		client:      &http.Client{Timeout: defaultChartTimeout},
		baseURL:     defaultChartBaseURL,
		concurrency: defaultConcurrency,
		log:         log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// chartResponse mirrors the provider's chart payload. Null entries inside the
// quote arrays mark missing columns for that row.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Currency     string `json:"currency"`
		ExchangeName string `json:"exchangeName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// Fetch retrieves candles for every symbol. A failing symbol is logged and
// omitted; the rest of the batch still contributes.
func (c *ChartClient) Fetch(ctx context.Context, symbols []string, period, interval string) map[string]Series {
	out := make(map[string]Series, len(symbols))
	var mu sync.Mutex

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(c.concurrency)
	for _, symbol := range symbols {
		symbol := strings.TrimSpace(symbol)
		if symbol == "" {
			continue
		}
		group.Go(func() error {
			series, err := c.fetchOne(ctx, symbol, period, interval)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				metrics.FetchErrors.WithLabelValues("market").Inc()
				c.log.Warn().Err(err).Str("symbol", symbol).Msg("chart fetch failed")
				return nil
			}
			mu.Lock()
			out[symbol] = series
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()
	return out
}

// Metadata returns per-symbol provider metadata via a minimal chart request.
func (c *ChartClient) Metadata(ctx context.Context, symbol string) (Meta, error) {
	series, err := c.fetchOne(ctx, symbol, "1d", "1d")
	if err != nil {
		return Meta{}, err
	}
	return Meta{Currency: series.Currency}, nil
}

func (c *ChartClient) fetchOne(ctx context.Context, symbol, period, interval string) (Series, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(period), url.QueryEscape(interval))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Series{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "stockops-fetcher/2.0")
	resp, err := c.client.Do(req)
	if err != nil {
		return Series{}, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Series{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Series{}, fmt.Errorf("decode response: %w", err)
	}
	if payload.Chart.Error != nil {
		return Series{}, fmt.Errorf("provider error %s: %s", payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return Series{}, fmt.Errorf("no chart result for %s", symbol)
	}
	return convertChartResult(payload.Chart.Result[0]), nil
}

func convertChartResult(result chartResult) Series {
	series := Series{Currency: result.Meta.Currency}
	if len(result.Indicators.Quote) == 0 {
		return series
	}
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}
	series.Candles = make([]Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		candle := Candle{Ts: time.Unix(ts, 0).UTC()}
		candle.Open = columnAt(quote.Open, i)
		candle.High = columnAt(quote.High, i)
		candle.Low = columnAt(quote.Low, i)
		candle.Close = columnAt(quote.Close, i)
		candle.AdjClose = columnAt(adj, i)
		if i < len(quote.Volume) {
			candle.Volume = quote.Volume[i]
		}
		series.Candles = append(series.Candles, candle)
	}
	return series
}

func columnAt(col []*float64, i int) *float64 {
	if i < len(col) {
		return col[i]
	}
	return nil
}
