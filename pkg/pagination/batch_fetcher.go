// Package pagination provides parallel batch fetching for paginated
// blog API collections.
package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel page fetches.
	MaxConcurrency int

	// Timeout per page fetch.
	Timeout time.Duration
}

// DefaultConfig returns safe defaults for a typical blog API.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// PageFetcher fetches a single page of a paginated collection and
// reports the total page count.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) (data []byte, totalPages int, err error)
}

// PageFetcherFunc adapts a function to the PageFetcher interface.
type PageFetcherFunc func(ctx context.Context, page int) ([]byte, int, error)

// FetchPage implements PageFetcher.
func (f PageFetcherFunc) FetchPage(ctx context.Context, page int) ([]byte, int, error) {
	return f(ctx, page)
}

// BatchFetcher fetches every page of a collection with bounded
// concurrency.
type BatchFetcher struct {
	fetcher PageFetcher
	config  Config
}

// NewBatchFetcher creates a batch fetcher.
func NewBatchFetcher(fetcher PageFetcher, config Config) *BatchFetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &BatchFetcher{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchAll fetches all pages. Page 1 is probed first to learn the
// total page count; the remaining pages are fetched concurrently.
// On failure the pages fetched so far are returned alongside the
// error.
func (bf *BatchFetcher) FetchAll(ctx context.Context) (map[int][]byte, error) {
	start := time.Now()

	firstPage, totalPages, err := bf.fetcher.FetchPage(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	results := map[int][]byte{1: firstPage}
	if totalPages <= 1 {
		log.Debug().
			Int("pages", 1).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return results, nil
	}

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bf.config.MaxConcurrency)

	for page := 2; page <= totalPages; page++ {
		g.Go(func() error {
			pageCtx, cancel := context.WithTimeout(gctx, bf.config.Timeout)
			defer cancel()

			data, _, err := bf.fetcher.FetchPage(pageCtx, page)
			if err != nil {
				return fmt.Errorf("fetch page %d: %w", page, err)
			}

			mu.Lock()
			results[page] = data
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Warn().
			Err(err).
			Int("fetched", len(results)).
			Int("total", totalPages).
			Msg("Batch fetch failed - returning partial results")
		return results, err
	}

	log.Debug().
		Int("pages", totalPages).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return results, nil
}
