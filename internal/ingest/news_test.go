package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomeir2105/stockops-final-project/internal/config"
	"github.com/tomeir2105/stockops-final-project/internal/source"
)

func newsSnap(symbols ...string) config.Snapshot {
	return config.Snapshot{
		Symbols:       symbols,
		Cadence:       15 * time.Minute,
		Lookback:      24 * time.Hour,
		RequireTicker: true,
	}
}

func item(title, link string, ts time.Time) source.FeedItem {
	return source.FeedItem{
		Title:     title,
		Link:      link,
		Published: ts.Format(time.RFC1123Z),
	}
}

func TestNewsCycleDedupSameURL(t *testing.T) {
	now := time.Now().UTC()
	first := item("Vodafone beats forecast", "https://example.com/a", now.Add(-time.Hour))
	second := first
	second.Summary = "Vodafone updated summary"

	feeds := &fakeFeeds{all: []source.FeedItem{first, second}}
	snk := &captureSink{}
	pipe := NewNews(feeds, snk, "", zerolog.Nop())
	pipe.Refresh([]string{"Vodafone"})

	written, err := pipe.RunCycle(context.Background(), newsSnap("Vodafone"), false)
	if err != nil {
		t.Fatalf("RunCycle returned error: %v", err)
	}
	if written != 1 {
		t.Fatalf("expected exactly one survivor after dedup, got %d", written)
	}
	if got := snk.last()[0].Fields["summary"]; got != "Vodafone updated summary" {
		t.Fatalf("expected later-processed duplicate to win, got %v", got)
	}
}

func TestNewsCycleRelevanceFilter(t *testing.T) {
	now := time.Now().UTC()
	feeds := &fakeFeeds{all: []source.FeedItem{
		item("Vodafone beats forecast", "https://example.com/1", now.Add(-time.Hour)),
		{Title: "Market update", Link: "https://example.com/2", Summary: "earnings season ahead", Published: now.Add(-time.Hour).Format(time.RFC1123Z)},
		item("Unrelated company news", "https://example.com/3", now.Add(-time.Hour)),
	}}
	snk := &captureSink{}
	pipe := NewNews(feeds, snk, "", zerolog.Nop())
	pipe.Refresh([]string{"Vodafone"})

	snap := newsSnap("Vodafone")
	snap.Keywords = []string{"earnings"}
	written, err := pipe.RunCycle(context.Background(), snap, false)
	if err != nil {
		t.Fatalf("RunCycle returned error: %v", err)
	}
	if written != 2 {
		t.Fatalf("expected symbol match + keyword match kept, got %d", written)
	}
	for _, p := range snk.last() {
		if p.Fields["title"] == "Unrelated company news" {
			t.Fatal("expected unrelated record to be dropped")
		}
	}
}

func TestNewsCyclePerFeedFailureIsolated(t *testing.T) {
	now := time.Now().UTC()
	goodURL := "https://feeds.example.com/good.rss"
	badURL := "https://feeds.example.com/bad.rss"
	feeds := &fakeFeeds{
		items: map[string][]source.FeedItem{
			goodURL: {item("Vodafone beats forecast", "https://example.com/a", now.Add(-time.Hour))},
		},
		failing: map[string]error{badURL: errors.New("feed down")},
	}
	snk := &captureSink{}
	pipe := NewNews(feeds, snk, "", zerolog.Nop())
	pipe.overrides = map[string][]string{"Vodafone": {badURL, goodURL}}

	written, err := pipe.RunCycle(context.Background(), newsSnap("Vodafone"), false)
	if err != nil {
		t.Fatalf("RunCycle returned error: %v", err)
	}
	if written != 1 {
		t.Fatalf("expected surviving feed to contribute, got %d", written)
	}
}

func TestNewsBackfillWidensCutoff(t *testing.T) {
	now := time.Now().UTC()
	old := item("Vodafone archive piece", "https://example.com/old", now.Add(-10*24*time.Hour))
	feeds := &fakeFeeds{all: []source.FeedItem{old}}
	snk := &captureSink{}
	pipe := NewNews(feeds, snk, "", zerolog.Nop())
	pipe.Refresh([]string{"Vodafone"})

	snap := newsSnap("Vodafone")
	snap.BackfillDays = 30

	written, err := pipe.RunCycle(context.Background(), snap, false)
	if err != nil {
		t.Fatalf("RunCycle returned error: %v", err)
	}
	if written != 0 {
		t.Fatalf("expected steady-state cutoff to drop old entry, got %d", written)
	}

	written, err = pipe.RunCycle(context.Background(), snap, true)
	if err != nil {
		t.Fatalf("backfill RunCycle returned error: %v", err)
	}
	if written != 1 {
		t.Fatalf("expected backfill window to keep old entry, got %d", written)
	}
}

func TestNewsCycleEmptyBatchIsNoError(t *testing.T) {
	feeds := &fakeFeeds{}
	snk := &captureSink{}
	pipe := NewNews(feeds, snk, "", zerolog.Nop())
	pipe.Refresh([]string{"Vodafone"})

	written, err := pipe.RunCycle(context.Background(), newsSnap("Vodafone"), false)
	if err != nil {
		t.Fatalf("RunCycle returned error: %v", err)
	}
	if written != 0 {
		t.Fatalf("expected zero points, got %d", written)
	}
}
