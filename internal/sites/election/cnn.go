package election

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/particle-harvester/internal/crawler"
)

const cnnBaseURL = "https://www.cnn.com"

type cnnSearchResponse struct {
	Result []struct {
		Path     string `json:"path"`
		URL      string `json:"url"`
		Headline string `json:"headline"`
	} `json:"result"`
}

type cnnSearchParser struct{ *deps }

func (p *cnnSearchParser) Category() string { return CategoryCNNSearch }

func (p *cnnSearchParser) CheckSuccess(result crawler.FetchResult) bool { return fetched(result) }

func (p *cnnSearchParser) Process(_ context.Context, result crawler.FetchResult, s crawler.Sender) error {
	var resp cnnSearchResponse
	if err := decodeJSON(result.Body, &resp); err != nil {
		return fmt.Errorf("cnn search: %w", err)
	}
	sent := 0
	for _, item := range resp.Result {
		path := item.Path
		if path == "" {
			path = item.URL
		}
		target, err := resolve(cnnBaseURL, path)
		if err != nil {
			p.logger.Debug("skipping cnn result", zap.String("path", path), zap.Error(err))
			continue
		}
		if err := s.Send(result.Request.Derive(crawler.MethodGet, CategoryCNNDetail, target)); err != nil {
			return fmt.Errorf("cnn search: send %s: %w", target, err)
		}
		sent++
	}
	p.logger.Debug("cnn search processed",
		zap.String("search_key", result.Request.Passthrough.Get(PassthroughSearchKey)),
		zap.Int("articles", sent),
	)
	return nil
}

// newsArticle is the subset of schema.org NewsArticle CNN embeds as ld+json.
type newsArticle struct {
	Headline      string `json:"headline"`
	ArticleBody   string `json:"articleBody"`
	Description   string `json:"description"`
	DatePublished string `json:"datePublished"`
}

type cnnDetailParser struct{ *deps }

func (p *cnnDetailParser) Category() string { return CategoryCNNDetail }

func (p *cnnDetailParser) CheckSuccess(result crawler.FetchResult) bool { return fetched(result) }

func (p *cnnDetailParser) Process(ctx context.Context, result crawler.FetchResult, _ crawler.Sender) error {
	doc, err := parseHTML(result.Body)
	if err != nil {
		return fmt.Errorf("cnn detail: %w", err)
	}
	script := doc.Find(`script[type="application/ld+json"]`).First()
	if script.Length() == 0 {
		return fmt.Errorf("cnn detail %s: %w", result.Request.URL, ErrNoContent)
	}
	news, err := decodeNewsArticle(script.Text())
	if err != nil {
		return fmt.Errorf("cnn detail %s: %w", result.Request.URL, err)
	}
	body := news.ArticleBody
	if body == "" {
		body = news.Description
	}
	a, err := p.newArticle(result, collapse(news.Headline), collapse(body), news.DatePublished)
	if err != nil {
		return err
	}
	if err := p.sink.Save(ctx, a); err != nil {
		return fmt.Errorf("cnn detail: save: %w", err)
	}
	return nil
}

// decodeNewsArticle accepts a single object or an array of objects and
// returns the first one carrying a headline.
func decodeNewsArticle(raw string) (newsArticle, error) {
	raw = strings.TrimSpace(raw)
	var candidates []newsArticle
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
			return newsArticle{}, fmt.Errorf("decode ld+json: %w", err)
		}
	} else {
		var one newsArticle
		if err := json.Unmarshal([]byte(raw), &one); err != nil {
			return newsArticle{}, fmt.Errorf("decode ld+json: %w", err)
		}
		candidates = append(candidates, one)
	}
	for _, c := range candidates {
		if c.Headline != "" {
			return c, nil
		}
	}
	return newsArticle{}, ErrNoContent
}
