// Package memory keeps extracted articles in process for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/particle-harvester/internal/crawler"
)

// Sink stores articles keyed by ID. Saving an ID twice keeps the first copy.
type Sink struct {
	mu       sync.RWMutex
	articles []crawler.Article
	seen     map[string]struct{}
}

// New returns an empty Sink.
func New() *Sink {
	return &Sink{seen: make(map[string]struct{})}
}

// Save records the article unless its ID was already saved.
func (s *Sink) Save(_ context.Context, article crawler.Article) error {
	if article.ID == "" {
		return fmt.Errorf("article id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[article.ID]; dup {
		return nil
	}
	s.seen[article.ID] = struct{}{}
	s.articles = append(s.articles, article)
	return nil
}

// Articles returns a copy of the saved articles in save order.
func (s *Sink) Articles() []crawler.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]crawler.Article, len(s.articles))
	copy(out, s.articles)
	return out
}

// Len reports how many distinct articles were saved.
func (s *Sink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles)
}
