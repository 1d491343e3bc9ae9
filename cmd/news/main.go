package main

import (
	"context"
	"errors"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/tomeir2105/stockops-final-project/internal/config"
	"github.com/tomeir2105/stockops-final-project/internal/ingest"
	"github.com/tomeir2105/stockops-final-project/internal/metrics"
	"github.com/tomeir2105/stockops-final-project/internal/scheduler"
	"github.com/tomeir2105/stockops-final-project/internal/sink"
	"github.com/tomeir2105/stockops-final-project/internal/source"
	"github.com/tomeir2105/stockops-final-project/internal/util"
)

const version = "news-fetcher/2.0"

func main() {
	envPath := envOr("ENV_PATH", ".env")
	feedsPath := envOr("FEEDS_PATH", "feeds.yaml")
	loader := config.NewLoader(envPath, util.NewLogger(os.Getenv("LOG_LEVEL")))

	snap := loader.LoadNews()
	log := util.NewLogger(snap.LogLevel).With().Str("app", "news").Logger()

	sinkCfg := loader.Sink()
	snk, err := buildSink(sinkCfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("sink construction failed")
	}
	defer snk.Close()

	_ = metrics.Serve(snap.MetricsAddr)
	log.Info().
		Str("version", version).
		Str("sink", sinkCfg.Backend).
		Str("influx", sinkCfg.URL).
		Str("bucket", sinkCfg.Bucket).
		Strs("tickers", snap.Symbols).
		Str("env_path", envPath).
		Str("feeds_path", feedsPath).
		Msg("starting (env hot-reload enabled)")

	feeds := source.NewRSSClient(log)
	pipeline := ingest.NewNews(feeds, snk, feedsPath, log)
	loop := scheduler.New(loader.LoadNews, pipeline, log)

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("loop stopped")
	}
	log.Info().Msg("shutdown complete")
}

func buildSink(cfg config.SinkSettings, log zerolog.Logger) (sink.Sink, error) {
	if cfg.Backend == "jsonl" {
		return sink.NewRecorder(cfg.Path)
	}
	return sink.NewInflux(cfg.URL, cfg.Token, cfg.Org, cfg.Bucket, log)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
