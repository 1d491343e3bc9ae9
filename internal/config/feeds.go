package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// LoadFeeds reads the symbol→feed-URL override map from a YAML file and
// guarantees every configured symbol ends up with at least one feed: symbols
// without an override get a generated search-feed URL. A missing or
// unreadable file is not an error, only a reduced map.
func LoadFeeds(path string, symbols []string, log zerolog.Logger) map[string][]string {
	feeds := make(map[string][]string, len(symbols))

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			var loaded map[string][]string
			if err := yaml.Unmarshal(data, &loaded); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("failed to parse feeds file")
			} else {
				for symbol, urls := range loaded {
					if len(urls) > 0 {
						feeds[symbol] = urls
					}
				}
			}
		} else if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("failed to read feeds file")
		}
	}

	for _, symbol := range symbols {
		if len(feeds[symbol]) == 0 {
			feeds[symbol] = []string{SearchFeedURL(symbol)}
		}
	}
	return feeds
}

// SearchFeedURL builds the fallback search feed for a symbol.
func SearchFeedURL(symbol string) string {
	return fmt.Sprintf("https://news.google.com/rss/search?q=%s&hl=en-GB&gl=GB&ceid=GB:en",
		url.QueryEscape(symbol))
}
