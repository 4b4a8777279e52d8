package memory

import (
	"context"
	"testing"

	"github.com/JakeFAU/particle-harvester/internal/crawler"
)

func TestSinkStoresArticles(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	if err := s.Save(ctx, crawler.Article{ID: "a", Title: "first"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, crawler.Article{ID: "b", Title: "second"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, crawler.Article{ID: "a", Title: "replayed"}); err != nil {
		t.Fatalf("Save() duplicate error = %v", err)
	}

	got := s.Articles()
	if len(got) != 2 || s.Len() != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	if got[0].Title != "first" || got[1].Title != "second" {
		t.Fatalf("articles not recorded in order: %+v", got)
	}

	got[0].Title = "modified"
	if s.Articles()[0].Title == "modified" {
		t.Fatal("expected Articles() to return a copy")
	}
}

func TestSinkRejectsMissingID(t *testing.T) {
	t.Parallel()

	if err := New().Save(context.Background(), crawler.Article{Title: "orphan"}); err == nil {
		t.Fatal("expected error for article without id")
	}
}
