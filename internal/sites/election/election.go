// Package election crawls election coverage from BBC, CNN, the Guardian, the
// New York Times, AP, the LA Times, Reuters, the Washington Post and HuffPost.
// List and search parsers discover article pages; detail parsers extract
// Articles and hand them to a sink.
package election

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/particle-harvester/internal/clock/system"
	"github.com/JakeFAU/particle-harvester/internal/crawler"
	"github.com/JakeFAU/particle-harvester/internal/hash/sha256"
)

// Categories routed by this package.
const (
	CategoryBBCList   = "ELECTION_BBC_ELECTION_LIST"
	CategoryBBCDetail = "ELECTION_BBC_ELECTION_DETAIL"
	CategoryCNNSearch = "ELECTION_CNN_SEARCH"
	CategoryCNNDetail = "ELECTION_CNN_DETAIL"

	CategoryGuardianList   = "ELECTION_GUARDIAN_ELECTION_LIST"
	CategoryGuardianDetail = "ELECTION_GUARDIAN_ELECTION_DETAIL"
	CategoryNYTimesSearch  = "ELECTION_NYTIMES_SEARCH"
	CategoryNYTimesDetail  = "ELECTION_NYTIMES_DETAIL"
	CategoryAPSearch       = "ELECTION_AP_SEARCH"
	CategoryAPDetail       = "ELECTION_AP_DETAIL"
	CategoryLASearch       = "ELECTION_LA_SEARCH"
	CategoryLADetail       = "ELECTION_LA_DETAIL"
	CategoryReutersSearch  = "ELECTION_REUTERS_SEARCH"
	CategoryReutersDetail  = "ELECTION_REUTERS_DETAIL"
	CategoryWPSearch       = "ELECTION_WP_SEARCH"
	CategoryWPDetail       = "ELECTION_WP_DETAIL"
	CategoryHuffPostList   = "ELECTION_HUFFPOST_SEARCH"
	CategoryHuffPostDetail = "ELECTION_HUFFPOST_DETAIL"
)

// PassthroughSearchKey carries the search term from a search request to the
// articles it discovers.
const PassthroughSearchKey = "searchKey"

// ErrNoContent is returned when a detail page has none of the expected markup.
var ErrNoContent = errors.New("no article content found")

// Registrar accepts the parser set and seals it.
type Registrar interface {
	RegisterAll(parsers ...crawler.Parser) error
	Freeze()
}

type deps struct {
	sink   crawler.ArticleSink
	clock  crawler.Clock
	hasher idHasher
	logger *zap.Logger
}

type idHasher interface {
	HashParts(parts ...string) (string, error)
}

// Option customises the parser set.
type Option func(*deps)

// WithClock overrides the clock used to stamp FetchedAt.
func WithClock(c crawler.Clock) Option {
	return func(d *deps) { d.clock = c }
}

// WithLogger sets the logger used by the parsers.
func WithLogger(l *zap.Logger) Option {
	return func(d *deps) { d.logger = l }
}

// Parsers returns every election parser. Detail parsers save to sink.
func Parsers(sink crawler.ArticleSink, opts ...Option) []crawler.Parser {
	d := &deps{
		sink:   sink,
		clock:  system.New(),
		hasher: sha256.New(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return append([]crawler.Parser{
		&bbcListParser{deps: d},
		&bbcDetailParser{deps: d},
		&cnnSearchParser{deps: d},
		&cnnDetailParser{deps: d},
	}, d.siteParsers()...)
}

// Bootstrap registers the election parsers and freezes the registrar.
func Bootstrap(reg Registrar, sink crawler.ArticleSink, opts ...Option) error {
	if err := reg.RegisterAll(Parsers(sink, opts...)...); err != nil {
		return fmt.Errorf("bootstrap election parsers: %w", err)
	}
	reg.Freeze()
	return nil
}

// fetched is the success predicate shared by every election parser.
func fetched(result crawler.FetchResult) bool {
	return result.OK() && len(result.Body) > 0
}

// newArticle stamps an article with its content-derived ID.
func (d *deps) newArticle(result crawler.FetchResult, title, body, published string) (crawler.Article, error) {
	req := result.Request
	id, err := d.hasher.HashParts(result.Category, req.URL)
	if err != nil {
		return crawler.Article{}, fmt.Errorf("hash article id: %w", err)
	}
	var passthrough map[string]string
	if len(req.Passthrough) > 0 {
		passthrough = req.Passthrough.Clone()
	}
	return crawler.Article{
		ID:          id,
		Category:    result.Category,
		URL:         req.URL,
		Title:       title,
		Body:        body,
		Published:   published,
		Passthrough: passthrough,
		FetchedAt:   d.clock.Now(),
	}, nil
}
