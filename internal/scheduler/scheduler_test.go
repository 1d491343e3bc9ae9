package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomeir2105/stockops-final-project/internal/config"
)

// fakePipeline records the calls the loop makes.
type fakePipeline struct {
	mu        sync.Mutex
	refreshes [][]string
	cycles    int
	backfills int
	cycleErr  error
	panicOnce bool
}

func (p *fakePipeline) Name() string { return "fake" }

func (p *fakePipeline) Refresh(symbols []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshes = append(p.refreshes, append([]string(nil), symbols...))
}

func (p *fakePipeline) RunCycle(_ context.Context, _ config.Snapshot, backfill bool) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if backfill {
		p.backfills++
		return 0, nil
	}
	p.cycles++
	if p.panicOnce {
		p.panicOnce = false
		panic("malformed payload")
	}
	return 1, p.cycleErr
}

func (p *fakePipeline) snapshot() (cycles, backfills, refreshes int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cycles, p.backfills, len(p.refreshes)
}

func snapWith(symbols []string) config.Snapshot {
	return config.Snapshot{
		Symbols:  symbols,
		Cadence:  5 * time.Millisecond,
		Lookback: time.Hour,
	}
}

// loaderSeq serves a sequence of snapshots, repeating the last one.
func loaderSeq(snaps ...config.Snapshot) func() config.Snapshot {
	var mu sync.Mutex
	i := 0
	return func() config.Snapshot {
		mu.Lock()
		defer mu.Unlock()
		s := snaps[i]
		if i < len(snaps)-1 {
			i++
		}
		return s
	}
}

func runUntil(t *testing.T, loop *Loop, done func() bool) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan error, 1)
	go func() { finished <- loop.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for !done() {
		select {
		case <-deadline:
			cancel()
			t.Fatal("timed out waiting for loop progress")
		case <-time.After(2 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-finished:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("loop returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}

func TestLoopRunsBackfillOnceThenCycles(t *testing.T) {
	snap := snapWith([]string{"VOD.L"})
	snap.BackfillOnStart = true
	pipe := &fakePipeline{}
	loop := New(loaderSeq(snap), pipe, zerolog.Nop())

	runUntil(t, loop, func() bool {
		cycles, _, _ := pipe.snapshot()
		return cycles >= 3
	})

	_, backfills, _ := pipe.snapshot()
	if backfills != 1 {
		t.Fatalf("expected exactly one backfill, got %d", backfills)
	}
}

func TestLoopRefreshesOnSymbolChange(t *testing.T) {
	first := snapWith([]string{"VOD.L"})
	second := snapWith([]string{"VOD.L", "BP.L"})
	pipe := &fakePipeline{}
	loop := New(loaderSeq(first, second), pipe, zerolog.Nop())

	runUntil(t, loop, func() bool {
		_, _, refreshes := pipe.snapshot()
		return refreshes >= 2
	})

	pipe.mu.Lock()
	defer pipe.mu.Unlock()
	last := pipe.refreshes[len(pipe.refreshes)-1]
	if len(last) != 2 || last[1] != "BP.L" {
		t.Fatalf("expected refresh with new symbol list, got %v", last)
	}
}

func TestLoopNoRefreshWhenOnlyCadenceChanges(t *testing.T) {
	first := snapWith([]string{"VOD.L"})
	second := snapWith([]string{"VOD.L"})
	second.Cadence = 7 * time.Millisecond
	pipe := &fakePipeline{}
	loop := New(loaderSeq(first, second), pipe, zerolog.Nop())

	runUntil(t, loop, func() bool {
		cycles, _, _ := pipe.snapshot()
		return cycles >= 3
	})

	_, _, refreshes := pipe.snapshot()
	if refreshes != 1 {
		t.Fatalf("expected only the startup refresh, got %d", refreshes)
	}
}

func TestLoopSurvivesCycleErrors(t *testing.T) {
	snap := snapWith([]string{"VOD.L"})
	pipe := &fakePipeline{cycleErr: errors.New("store unreachable")}
	loop := New(loaderSeq(snap), pipe, zerolog.Nop())

	runUntil(t, loop, func() bool {
		cycles, _, _ := pipe.snapshot()
		return cycles >= 3
	})
}

func TestLoopSurvivesCyclePanic(t *testing.T) {
	snap := snapWith([]string{"VOD.L"})
	pipe := &fakePipeline{panicOnce: true}
	loop := New(loaderSeq(snap), pipe, zerolog.Nop())

	runUntil(t, loop, func() bool {
		cycles, _, _ := pipe.snapshot()
		return cycles >= 2
	})
}
