package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

const defaultFeedTimeout = 15 * time.Second

// RSSClient fetches and parses syndicated feeds (RSS/Atom) for the news
// pipeline.
type RSSClient struct {
	parser  *gofeed.Parser
	timeout time.Duration
	log     zerolog.Logger
}

// RSSOption configures RSSClient construction parameters.
type RSSOption func(*RSSClient)

// WithFeedTimeout overrides the per-feed request timeout.
func WithFeedTimeout(d time.Duration) RSSOption {
	return func(c *RSSClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewRSSClient constructs a feed client.
func NewRSSClient(log zerolog.Logger, opts ...RSSOption) *RSSClient {
	parser := gofeed.NewParser()
	parser.UserAgent = "stockops-fetcher/2.0 (news)"
	c := &RSSClient{
		parser:  parser,
		timeout: defaultFeedTimeout,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.parser.Client = &http.Client{Timeout: c.timeout}
	return c
}

// Fetch downloads one feed and converts its entries into owned FeedItems.
func (c *RSSClient) Fetch(ctx context.Context, feedURL string) ([]FeedItem, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	items := make([]FeedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		summary := it.Description
		if summary == "" {
			summary = it.Content
		}
		items = append(items, FeedItem{
			Title:           it.Title,
			Summary:         summary,
			Link:            it.Link,
			Published:       it.Published,
			Updated:         it.Updated,
			PublishedParsed: it.PublishedParsed,
			UpdatedParsed:   it.UpdatedParsed,
			Source:          feedSourceLabel(it),
		})
	}
	return items, nil
}

// feedSourceLabel pulls an origin label out of feed extensions when present.
// Most aggregated feeds carry none; the normalizer then falls back to the
// link's host.
func feedSourceLabel(it *gofeed.Item) string {
	if it.DublinCoreExt != nil && len(it.DublinCoreExt.Publisher) > 0 {
		return it.DublinCoreExt.Publisher[0]
	}
	if it.Custom != nil {
		if src, ok := it.Custom["source"]; ok {
			return src
		}
	}
	return ""
}
