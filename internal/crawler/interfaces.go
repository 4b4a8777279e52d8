package crawler

import (
	"context"
	"time"
)

// Sender enqueues follow-on work. It is the only pipeline operation a Parser may use.
type Sender interface {
	Send(req WorkRequest) error
}

// Parser handles fetched documents of exactly one category.
type Parser interface {
	// Category is the dispatch key this parser is registered under.
	Category() string
	// CheckSuccess decides whether the result is usable; false triggers a resubmission.
	CheckSuccess(result FetchResult) bool
	// Process extracts data and may send any number of follow-on requests.
	Process(ctx context.Context, result FetchResult, sender Sender) error
}

// Fetcher retrieves the document described by a WorkRequest.
type Fetcher interface {
	Fetch(ctx context.Context, req WorkRequest) (FetchResult, error)
}

// ArticleSink persists articles extracted by detail parsers.
type ArticleSink interface {
	Save(ctx context.Context, article Article) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces request IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
