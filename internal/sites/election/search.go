package election

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/particle-harvester/internal/crawler"
)

// jsonSearchParser follows the article links of a JSON search API response.
type jsonSearchParser struct {
	*deps
	site     string
	category string
	detail   string
	base     string
	links    func(body []byte) ([]string, error)
}

func (p *jsonSearchParser) Category() string { return p.category }

func (p *jsonSearchParser) CheckSuccess(result crawler.FetchResult) bool { return fetched(result) }

func (p *jsonSearchParser) Process(_ context.Context, result crawler.FetchResult, s crawler.Sender) error {
	links, err := p.links(result.Body)
	if err != nil {
		return fmt.Errorf("%s search: %w", p.site, err)
	}
	targets := make([]string, 0, len(links))
	for _, link := range links {
		target, err := resolve(p.base, link)
		if err != nil {
			p.logger.Debug("skipping search result", zap.String("site", p.site), zap.String("link", link), zap.Error(err))
			continue
		}
		targets = append(targets, target)
	}
	if err := sendDetails(s, result.Request, p.detail, targets); err != nil {
		return fmt.Errorf("%s search: %w", p.site, err)
	}
	p.logger.Debug("search processed",
		zap.String("site", p.site),
		zap.String("search_key", result.Request.Passthrough.Get(PassthroughSearchKey)),
		zap.Int("articles", len(targets)),
	)
	return nil
}

type reutersSearchResponse struct {
	Result struct {
		Articles []struct {
			CanonicalURL string `json:"canonical_url"`
		} `json:"articles"`
	} `json:"result"`
}

func reutersLinks(body []byte) ([]string, error) {
	var resp reutersSearchResponse
	if err := decodeJSON(body, &resp); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp.Result.Articles))
	for _, a := range resp.Result.Articles {
		out = append(out, a.CanonicalURL)
	}
	return out, nil
}

type wpSearchResponse struct {
	Body struct {
		Items []struct {
			Link string `json:"link"`
		} `json:"items"`
	} `json:"body"`
}

func wpLinks(body []byte) ([]string, error) {
	var resp wpSearchResponse
	if err := decodeJSON(body, &resp); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp.Body.Items))
	for _, item := range resp.Body.Items {
		out = append(out, item.Link)
	}
	return out, nil
}
