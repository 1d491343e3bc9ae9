// Package scheduler drives the ingestion loop: optional one-shot backfill,
// then run-cycle/sleep forever until the context is canceled. No cycle
// outcome stops the loop.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomeir2105/stockops-final-project/internal/config"
	"github.com/tomeir2105/stockops-final-project/internal/metrics"
)

// Pipeline is one ingestion pipeline the loop can drive.
type Pipeline interface {
	Name() string
	// Refresh rebuilds per-symbol state (feed sets) for a new symbol list.
	Refresh(symbols []string)
	// RunCycle executes one fetch→normalize→filter→write pass and reports
	// how many points were written.
	RunCycle(ctx context.Context, snap config.Snapshot, backfill bool) (int, error)
}

// Loop re-reads configuration every cycle, detects changes, runs the
// pipeline, and sleeps for the configured cadence.
type Loop struct {
	load     func() config.Snapshot
	pipeline Pipeline
	log      zerolog.Logger
}

// New builds a loop around a snapshot loader and a pipeline.
func New(load func() config.Snapshot, pipeline Pipeline, log zerolog.Logger) *Loop {
	return &Loop{load: load, pipeline: pipeline, log: log}
}

// Run blocks until ctx is canceled. The configuration snapshot is the only
// shared mutable state; it is replaced atomically here, once per cycle, and
// handed to the pipeline as a value.
func (l *Loop) Run(ctx context.Context) error {
	snap := l.load()
	l.pipeline.Refresh(snap.Symbols)

	if snap.BackfillOnStart {
		l.log.Info().Str("pipeline", l.pipeline.Name()).Msg("backfill starting")
		if written, err := l.runCycle(ctx, snap, true); err != nil {
			l.log.Error().Err(err).Msg("backfill failed")
		} else {
			l.log.Info().Int("points", written).Msg("backfill done")
		}
	}

	last := snap
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		snap = l.load()
		if !snap.Equal(last) {
			l.log.Info().
				Strs("symbols", snap.Symbols).
				Dur("cadence", snap.Cadence).
				Dur("lookback", snap.Lookback).
				Msg("config reloaded")
			metrics.ConfigReloads.WithLabelValues(l.pipeline.Name()).Inc()
			if !slices.Equal(snap.Symbols, last.Symbols) {
				l.pipeline.Refresh(snap.Symbols)
			}
			last = snap
		}

		outcome := "ok"
		if _, err := l.runCycle(ctx, snap, false); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			outcome = "error"
			l.log.Error().Err(err).Str("pipeline", l.pipeline.Name()).Msg("cycle failed")
		}
		metrics.Cycles.WithLabelValues(l.pipeline.Name(), outcome).Inc()

		timer := time.NewTimer(snap.Cadence)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// runCycle contains a panicking cycle so a malformed payload can never kill
// the process-lifetime loop.
func (l *Loop) runCycle(ctx context.Context, snap config.Snapshot, backfill bool) (written int, err error) {
	defer func() {
		if r := recover(); r != nil {
			written = 0
			err = fmt.Errorf("cycle panic: %v", r)
			l.log.Error().Str("stack", string(debug.Stack())).Msgf("cycle panic: %v", r)
		}
	}()
	return l.pipeline.RunCycle(ctx, snap, backfill)
}
