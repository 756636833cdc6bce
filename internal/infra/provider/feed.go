package provider

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"catchup-feed/internal/resilience/circuitbreaker"
	"catchup-feed/internal/resilience/retry"
)

// GofeedFetcher implements FeedFetcher using the gofeed library, wrapped
// with the feed-fetch circuit breaker and retry policy.
type GofeedFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewGofeedFetcher builds a GofeedFetcher over the given HTTP client.
func NewGofeedFetcher(client *http.Client) *GofeedFetcher {
	return &GofeedFetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

// Fetch retrieves and parses an RSS/Atom feed, returning its entries.
func (f *GofeedFetcher) Fetch(ctx context.Context, feedURL string) ([]FeedEntry, error) {
	var entries []FeedEntry

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feedURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.WarnContext(ctx, "feed fetch circuit breaker open, request rejected",
					slog.String("url", feedURL))
			}
			return err
		}
		entries = cbResult.([]FeedEntry)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return entries, nil
}

func (f *GofeedFetcher) doFetch(ctx context.Context, feedURL string) ([]FeedEntry, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = "CatchUpDigestBot"
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]FeedEntry, 0, len(feed.Items))
	for _, it := range feed.Items {
		content := it.Content
		if content == "" {
			content = it.Description
		}
		published := ""
		if it.PublishedParsed != nil {
			published = it.PublishedParsed.Format("2006-01-02T15:04:05Z07:00")
		}
		entries = append(entries, FeedEntry{
			Title:       it.Title,
			URL:         it.Link,
			Content:     content,
			PublishedAt: published,
		})
	}
	return entries, nil
}
