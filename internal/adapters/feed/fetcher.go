package feed

import (
	"context"

	"github.com/hirestorm/matchd/internal/domain/dedupe"
	"github.com/hirestorm/matchd/internal/domain/model"
	"github.com/hirestorm/matchd/pkg/logger"
)

// FetcherOption applies a configuration option to the Fetcher.
type FetcherOption func(*Fetcher)

// WithFetcherLogger sets a custom logger.
func WithFetcherLogger(log logger.Logger) FetcherOption {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// Fetcher runs one query across every configured source and de-duplicates
// the combined result on posting identity. A failing provider is skipped;
// a refresh with partial sources beats no refresh.
type Fetcher struct {
	sources []Source
	deduper dedupe.Deduper
	log     logger.Logger
}

// NewFetcher creates a multi-source fetcher.
func NewFetcher(deduper dedupe.Deduper, sources []Source, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		sources: sources,
		deduper: deduper,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAll fetches from every source and returns postings not seen before.
func (f *Fetcher) FetchAll(ctx context.Context, q Query) []model.Posting {
	var out []model.Posting
	for _, src := range f.sources {
		postings, err := src.Fetch(ctx, q)
		if err != nil {
			if f.log != nil {
				f.log.Warn(ctx, "feed source failed, skipping",
					logger.String("source", src.Name()), logger.Error(err))
			}
			continue
		}
		for _, p := range postings {
			if f.deduper.SeenAndRecord(ctx, dedupe.Key(p.Title, p.Company)) {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
