// Package config resolves layered runtime configuration into immutable
// snapshots. The mounted .env file is re-read on every load so edits take
// effect on the next cycle without a restart; real process environment
// variables win over the file.
package config

import (
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/tomeir2105/stockops-final-project/internal/source"
)

// Snapshot is one fully-resolved configuration. It is a value object: copy
// it freely, compare it with Equal, never by reference.
type Snapshot struct {
	Symbols  []string
	Cadence  time.Duration
	Lookback time.Duration

	BackfillOnStart bool
	BackfillPeriod  string // market period token, empty means derive from interval
	BackfillDays    int    // news backfill window

	// Market sampling plan.
	Interval string
	Period   string

	// News relevance filter.
	RequireTicker bool
	Keywords      []string

	LogLevel    string
	MetricsAddr string
}

// Equal compares every field by value. Equality drives change detection in
// the scheduler.
func (s Snapshot) Equal(o Snapshot) bool {
	return slices.Equal(s.Symbols, o.Symbols) &&
		s.Cadence == o.Cadence &&
		s.Lookback == o.Lookback &&
		s.BackfillOnStart == o.BackfillOnStart &&
		s.BackfillPeriod == o.BackfillPeriod &&
		s.BackfillDays == o.BackfillDays &&
		s.Interval == o.Interval &&
		s.Period == o.Period &&
		s.RequireTicker == o.RequireTicker &&
		slices.Equal(s.Keywords, o.Keywords) &&
		s.LogLevel == o.LogLevel &&
		s.MetricsAddr == o.MetricsAddr
}

// SinkSettings selects and configures the series sink backend.
type SinkSettings struct {
	Backend string // "influx" or "jsonl"
	URL     string
	Token   string
	Org     string
	Bucket  string
	Path    string // jsonl output path
}

// Loader merges the .env file layer with the process environment on each
// Load call. It never fails: missing sources and invalid values fall back to
// documented defaults with a warning.
type Loader struct {
	envPath string
	log     zerolog.Logger
}

// NewLoader builds a loader reading the .env file at envPath. An empty path
// disables the file layer.
func NewLoader(envPath string, log zerolog.Logger) *Loader {
	return &Loader{envPath: envPath, log: log}
}

// merged returns the layered key/value view: .env file first, process
// environment on top. Values from both layers are cleaned of inline comments
// and quotes so a hot-edited file behaves like compose-injected env.
func (l *Loader) merged() map[string]string {
	env := make(map[string]string)
	if l.envPath != "" {
		if file, err := godotenv.Read(l.envPath); err == nil {
			for k, v := range file {
				env[k] = cleanValue(v)
			}
		}
	}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		// An empty process value does not mask the file layer.
		if cleaned := cleanValue(v); cleaned != "" {
			env[k] = cleaned
		}
	}
	return env
}

// cleanValue strips inline comments, surrounding quotes, and whitespace.
func cleanValue(v string) string {
	if i := strings.Index(v, "#"); i >= 0 {
		v = v[:i]
	}
	v = strings.TrimSpace(v)
	v = strings.Trim(v, `"`)
	v = strings.Trim(v, `'`)
	return strings.TrimSpace(v)
}

func (l *Loader) get(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok && v != "" {
		return v
	}
	return fallback
}

func (l *Loader) getInt(env map[string]string, key string, fallback int) int {
	raw, ok := env[key]
	if !ok || raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		l.log.Warn().Str("key", key).Str("value", raw).Int("fallback", fallback).Msg("invalid integer, using fallback")
		return fallback
	}
	return n
}

func (l *Loader) getBool(env map[string]string, key string, fallback bool) bool {
	raw, ok := env[key]
	if !ok || raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// checkWindows enforces the self-healing relationship between the lookback
// window and the cadence: overlapping windows across cycles are what lets a
// lost batch be re-attempted. A violation is warned about, not fatal.
func (l *Loader) checkWindows(s *Snapshot) {
	if s.Cadence < time.Second {
		l.log.Warn().Dur("cadence", s.Cadence).Msg("cadence below 1s, raising to 1s")
		s.Cadence = time.Second
	}
	if s.Lookback <= s.Cadence {
		l.log.Warn().
			Dur("lookback", s.Lookback).
			Dur("cadence", s.Cadence).
			Msg("lookback window does not exceed cadence; lost batches will not self-heal")
	}
}

// LoadMarket resolves the market pipeline snapshot.
func (l *Loader) LoadMarket() Snapshot {
	env := l.merged()
	s := Snapshot{
		Symbols:         splitList(l.get(env, "TICKERS", "VOD.L,HSBA.L,BP.L")),
		Cadence:         time.Duration(l.getInt(env, "FETCH_INTERVAL_SECONDS", 300)) * time.Second,
		Lookback:        time.Duration(l.getInt(env, "QUOTE_LOOKBACK_MINUTES", 30)) * time.Minute,
		BackfillOnStart: l.getBool(env, "BACKFILL_ON_START", true),
		LogLevel:        l.get(env, "LOG_LEVEL", "info"),
		MetricsAddr:     l.get(env, "METRICS_ADDR", ":9102"),
	}

	s.Interval = l.get(env, "QUOTE_INTERVAL", "1m")
	if !source.ValidInterval(s.Interval) {
		l.log.Warn().Str("interval", s.Interval).Msg("invalid QUOTE_INTERVAL, falling back to 1m")
		s.Interval = "1m"
	}

	s.Period = l.get(env, "QUOTE_PERIOD", "1d")
	if !source.ValidPlan(s.Period, s.Interval) {
		fallback := source.FallbackPeriod(s.Interval)
		l.log.Warn().Str("period", s.Period).Str("interval", s.Interval).Str("fallback", fallback).
			Msg("invalid QUOTE_PERIOD for interval, using fallback")
		s.Period = fallback
	}

	s.BackfillPeriod = l.get(env, "BACKFILL_PERIOD", "")
	if s.BackfillPeriod != "" && !source.ValidPeriod(s.BackfillPeriod) {
		l.log.Warn().Str("period", s.BackfillPeriod).Msg("invalid BACKFILL_PERIOD, ignoring")
		s.BackfillPeriod = ""
	}

	l.checkWindows(&s)
	return s
}

// LoadNews resolves the news pipeline snapshot.
func (l *Loader) LoadNews() Snapshot {
	env := l.merged()
	s := Snapshot{
		Symbols:         splitList(l.get(env, "TICKERS", "AAPL,MSFT,GOOGL,VOD.L,HSBA.L,BP.L")),
		Cadence:         time.Duration(l.getInt(env, "NEWS_POLL_SECONDS", 900)) * time.Second,
		Lookback:        time.Duration(l.getInt(env, "NEWS_LOOKBACK_HOURS", 24)) * time.Hour,
		BackfillOnStart: l.getBool(env, "NEWS_BACKFILL_ON_START", true),
		BackfillDays:    l.getInt(env, "NEWS_BACKFILL_DAYS", 30),
		RequireTicker:   l.getBool(env, "NEWS_FILTER_REQUIRE_TICKER", true),
		LogLevel:        l.get(env, "LOG_LEVEL", "info"),
		MetricsAddr:     l.get(env, "METRICS_ADDR", ":9103"),
	}
	for _, kw := range splitList(l.get(env, "NEWS_KEYWORDS", "")) {
		s.Keywords = append(s.Keywords, strings.ToLower(kw))
	}
	l.checkWindows(&s)
	return s
}

// Sink resolves the series sink settings from the same layered view.
func (l *Loader) Sink() SinkSettings {
	env := l.merged()
	return SinkSettings{
		Backend: strings.ToLower(l.get(env, "SINK_BACKEND", "influx")),
		URL:     l.get(env, "INFLUX_URL", "http://influxdb:8086"),
		Token:   l.get(env, "INFLUX_TOKEN", ""),
		Org:     l.get(env, "INFLUX_ORG", "stocks"),
		Bucket:  l.get(env, "INFLUX_BUCKET", "lse"),
		Path:    l.get(env, "SINK_PATH", "data/points.jsonl"),
	}
}
