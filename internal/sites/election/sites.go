package election

import (
	"strings"

	"github.com/JakeFAU/particle-harvester/internal/crawler"
)

const (
	guardianBaseURL = "https://www.theguardian.com"
	nytimesBaseURL  = "https://www.nytimes.com"
	apBaseURL       = "https://apnews.com"
	laBaseURL       = "https://www.latimes.com"
	reutersBaseURL  = "https://www.reuters.com"
	wpBaseURL       = "https://www.washingtonpost.com"
	huffpostBaseURL = "https://www.huffpost.com"
)

// siteParsers returns the selector and search API driven parsers.
func (d *deps) siteParsers() []crawler.Parser {
	return []crawler.Parser{
		&linkListParser{
			deps: d, site: "guardian",
			category: CategoryGuardianList, detail: CategoryGuardianDetail,
			base: guardianBaseURL, selector: "section a",
			keep: sitePath,
		},
		&selectorDetailParser{
			deps: d, site: "guardian", category: CategoryGuardianDetail,
			titles: []string{"h1.dcr-u0152o"}, body: "div#maincontent",
		},
		&linkListParser{
			deps: d, site: "nytimes",
			category: CategoryNYTimesSearch, detail: CategoryNYTimesDetail,
			base: nytimesBaseURL, selector: `li[data-testid="search-bodega-result"] a`,
			keep: sitePath, clean: stripQuery,
		},
		&selectorDetailParser{
			deps: d, site: "nytimes", category: CategoryNYTimesDetail,
			titles: []string{"h1#link-928d3a2", `h1[data-testid="headline"]`}, body: `section[name="articleBody"]`,
		},
		&linkListParser{
			deps: d, site: "ap",
			category: CategoryAPSearch, detail: CategoryAPDetail,
			base: apBaseURL, selector: "div.SearchResultsModule-results div.PagePromo-title a",
			keep: func(href string) bool { return strings.Contains(href, "article") },
		},
		&selectorDetailParser{
			deps: d, site: "ap", category: CategoryAPDetail,
			titles: []string{"h1.Page-headline"}, body: "div.RichTextStoryBody.RichTextBody",
		},
		&linkListParser{
			deps: d, site: "la",
			category: CategoryLASearch, detail: CategoryLADetail,
			base: laBaseURL, selector: ".promo-title a",
			keep: func(href string) bool { return strings.Contains(href, "/story/") },
		},
		&selectorDetailParser{
			deps: d, site: "la", category: CategoryLADetail,
			titles: []string{"h1.headline"}, body: `div[data-element="story-body"]`,
			summary: `div[data-element="story-summary"]`,
		},
		&jsonSearchParser{
			deps: d, site: "reuters",
			category: CategoryReutersSearch, detail: CategoryReutersDetail,
			base: reutersBaseURL, links: reutersLinks,
		},
		&selectorDetailParser{
			deps: d, site: "reuters", category: CategoryReutersDetail,
			titles: []string{`h1[data-testid="Heading"]`}, body: `div[class^="article-body__content"]`,
		},
		&jsonSearchParser{
			deps: d, site: "wp",
			category: CategoryWPSearch, detail: CategoryWPDetail,
			base: wpBaseURL, links: wpLinks,
		},
		&selectorDetailParser{
			deps: d, site: "wp", category: CategoryWPDetail,
			titles: []string{`h1[data-testid="headline"]`}, body: "article p",
			summary: "p",
		},
		&linkListParser{
			deps: d, site: "huffpost",
			category: CategoryHuffPostList, detail: CategoryHuffPostDetail,
			base: huffpostBaseURL, selector: `div[aria-label="article"] > a`,
		},
		&selectorDetailParser{
			deps: d, site: "huffpost", category: CategoryHuffPostDetail,
			titles: []string{"h1.headline"}, body: "section#entry-body p",
		},
	}
}

// sitePath keeps root-relative links, which is how the Guardian and NYTimes
// point at their own articles.
func sitePath(href string) bool {
	return strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//")
}

// stripQuery drops search-position tracking parameters.
func stripQuery(href string) string {
	if i := strings.IndexByte(href, '?'); i >= 0 {
		return href[:i]
	}
	return href
}
