package election

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/particle-harvester/internal/crawler"
)

const bbcBaseURL = "https://www.bbc.com"

type bbcCollection struct {
	Data []struct {
		Path  string `json:"path"`
		Title string `json:"title"`
	} `json:"data"`
}

type bbcListParser struct{ *deps }

func (p *bbcListParser) Category() string { return CategoryBBCList }

func (p *bbcListParser) CheckSuccess(result crawler.FetchResult) bool { return fetched(result) }

func (p *bbcListParser) Process(_ context.Context, result crawler.FetchResult, s crawler.Sender) error {
	var page bbcCollection
	if err := decodeJSON(result.Body, &page); err != nil {
		return fmt.Errorf("bbc list: %w", err)
	}
	sent := 0
	for _, item := range page.Data {
		target, err := resolve(bbcBaseURL, item.Path)
		if err != nil {
			p.logger.Debug("skipping bbc entry", zap.String("path", item.Path), zap.Error(err))
			continue
		}
		if err := s.Send(result.Request.Derive(crawler.MethodGet, CategoryBBCDetail, target)); err != nil {
			return fmt.Errorf("bbc list: send %s: %w", target, err)
		}
		sent++
	}
	p.logger.Debug("bbc list processed", zap.String("url", result.Request.URL), zap.Int("articles", sent))
	return nil
}

type bbcDetailParser struct{ *deps }

func (p *bbcDetailParser) Category() string { return CategoryBBCDetail }

func (p *bbcDetailParser) CheckSuccess(result crawler.FetchResult) bool { return fetched(result) }

func (p *bbcDetailParser) Process(ctx context.Context, result crawler.FetchResult, _ crawler.Sender) error {
	doc, err := parseHTML(result.Body)
	if err != nil {
		return fmt.Errorf("bbc detail: %w", err)
	}
	article := doc.Find("article").First()
	if article.Length() == 0 {
		return fmt.Errorf("bbc detail %s: %w", result.Request.URL, ErrNoContent)
	}
	title := collapse(article.Find("h1").First().Text())
	if title == "" {
		title = collapse(doc.Find("title").First().Text())
	}
	published, _ := article.Find("time").First().Attr("datetime")

	a, err := p.newArticle(result, title, collapse(article.Text()), published)
	if err != nil {
		return err
	}
	if err := p.sink.Save(ctx, a); err != nil {
		return fmt.Errorf("bbc detail: save: %w", err)
	}
	return nil
}
