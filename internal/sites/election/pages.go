package election

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/particle-harvester/internal/crawler"
)

// linkListParser follows the anchors a listing or search results page
// matches with selector. Links are resolved against base and deduplicated
// within the page.
type linkListParser struct {
	*deps
	site     string
	category string
	detail   string
	base     string
	selector string
	// keep filters raw hrefs; nil keeps every non-empty href.
	keep func(href string) bool
	// clean rewrites a kept href before it is resolved.
	clean func(href string) string
}

func (p *linkListParser) Category() string { return p.category }

func (p *linkListParser) CheckSuccess(result crawler.FetchResult) bool { return fetched(result) }

func (p *linkListParser) Process(_ context.Context, result crawler.FetchResult, s crawler.Sender) error {
	doc, err := parseHTML(result.Body)
	if err != nil {
		return fmt.Errorf("%s list: %w", p.site, err)
	}
	var targets []string
	seen := map[string]struct{}{}
	doc.Find(p.selector).Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || (p.keep != nil && !p.keep(href)) {
			return
		}
		if p.clean != nil {
			href = p.clean(href)
		}
		target, err := resolve(p.base, href)
		if err != nil {
			p.logger.Debug("skipping link", zap.String("site", p.site), zap.String("href", href), zap.Error(err))
			return
		}
		if _, dup := seen[target]; dup {
			return
		}
		seen[target] = struct{}{}
		targets = append(targets, target)
	})
	if err := sendDetails(s, result.Request, p.detail, targets); err != nil {
		return fmt.Errorf("%s list: %w", p.site, err)
	}
	p.logger.Debug("list processed",
		zap.String("site", p.site),
		zap.String("url", result.Request.URL),
		zap.Int("articles", len(targets)),
	)
	return nil
}

// selectorDetailParser extracts an article from fixed page markup.
type selectorDetailParser struct {
	*deps
	site     string
	category string
	// titles are tried in order before the page h1 and <title>.
	titles []string
	body   string
	// summary is read when body matches nothing.
	summary string
}

func (p *selectorDetailParser) Category() string { return p.category }

func (p *selectorDetailParser) CheckSuccess(result crawler.FetchResult) bool { return fetched(result) }

func (p *selectorDetailParser) Process(ctx context.Context, result crawler.FetchResult, _ crawler.Sender) error {
	doc, err := parseHTML(result.Body)
	if err != nil {
		return fmt.Errorf("%s detail: %w", p.site, err)
	}
	body := texts(doc.Find(p.body))
	if body == "" && p.summary != "" {
		body = texts(doc.Find(p.summary))
	}
	if body == "" {
		return fmt.Errorf("%s detail %s: %w", p.site, result.Request.URL, ErrNoContent)
	}

	var title string
	for _, sel := range slices.Concat(p.titles, []string{"h1", "title"}) {
		if title = collapse(doc.Find(sel).First().Text()); title != "" {
			break
		}
	}
	published := doc.Find(`meta[property="article:published_time"]`).First().AttrOr("content", "")
	if published == "" {
		published = doc.Find("time[datetime]").First().AttrOr("datetime", "")
	}

	a, err := p.newArticle(result, title, body, published)
	if err != nil {
		return err
	}
	if err := p.sink.Save(ctx, a); err != nil {
		return fmt.Errorf("%s detail: save: %w", p.site, err)
	}
	return nil
}

// texts joins the collapsed text of every matched element, skipping empties.
func texts(sel *goquery.Selection) string {
	parts := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := collapse(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}

// sendDetails derives one detail request per target from parent.
func sendDetails(s crawler.Sender, parent crawler.WorkRequest, category string, targets []string) error {
	for _, target := range targets {
		if err := s.Send(parent.Derive(crawler.MethodGet, category, target)); err != nil {
			return fmt.Errorf("send %s: %w", target, err)
		}
	}
	return nil
}
