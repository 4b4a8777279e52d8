package election

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/JakeFAU/particle-harvester/internal/crawler"
)

const (
	bbcCollectionURL = "https://web-cdn.api.bbci.co.uk/xd/content-collection/37cc4793-d90a-4e83-993d-36c4144c8d5f"
	bbcPageSize      = 9
	cnnSearchURL     = "https://search.prod.di.api.cnn.io/content"
	cnnPageSize      = 20

	guardianListURL  = guardianBaseURL + "/us-news/us-elections-2024"
	huffpostListURL  = huffpostBaseURL + "/news/politics"
	reutersSearchURL = reutersBaseURL + "/pf/api/v3/content/fetch/articles-by-search-v2"
	reutersPageSize  = 20
	wpSearchURL      = wpBaseURL + "/search/api/search/"
)

// Search site names accepted by SeedPlan.SearchSites.
const (
	SiteCNN     = "cnn"
	SiteNYTimes = "nytimes"
	SiteAP      = "ap"
	SiteLA      = "la"
	SiteReuters = "reuters"
	SiteWP      = "wp"
)

var searchBuilders = map[string]func(term string) crawler.WorkRequest{
	SiteCNN:     CNNSearchRequest,
	SiteNYTimes: NYTimesSearchRequest,
	SiteAP:      APSearchRequest,
	SiteLA:      LASearchRequest,
	SiteReuters: ReutersSearchRequest,
	SiteWP:      WPSearchRequest,
}

// BBCListRequest builds the request for one page of the BBC election collection.
func BBCListRequest(page int) crawler.WorkRequest {
	q := url.Values{}
	q.Set("country", "jp")
	q.Set("page", fmt.Sprint(page))
	q.Set("size", fmt.Sprint(bbcPageSize))
	return crawler.NewRequest(CategoryBBCList, bbcCollectionURL+"?"+q.Encode())
}

// CNNSearchRequest builds a newest-first CNN search for term. The term rides
// along as passthrough so discovered articles remember what found them.
func CNNSearchRequest(term string) crawler.WorkRequest {
	q := url.Values{}
	q.Set("q", term)
	q.Set("size", fmt.Sprint(cnnPageSize))
	q.Set("from", "0")
	q.Set("page", "1")
	q.Set("sort", "newest")
	req := crawler.NewRequest(CategoryCNNSearch, cnnSearchURL+"?"+q.Encode())
	req.Passthrough = crawler.Passthrough{PassthroughSearchKey: term}
	return req
}

// GuardianListRequest builds the request for one page of the Guardian's
// election section.
func GuardianListRequest(page int) crawler.WorkRequest {
	return crawler.NewRequest(CategoryGuardianList, fmt.Sprintf("%s?page=%d", guardianListURL, page))
}

// HuffPostListRequest builds the request for one page of HuffPost politics.
func HuffPostListRequest(page int) crawler.WorkRequest {
	return crawler.NewRequest(CategoryHuffPostList, fmt.Sprintf("%s?page=%d", huffpostListURL, page))
}

// NYTimesSearchRequest builds a NYTimes site search for term.
func NYTimesSearchRequest(term string) crawler.WorkRequest {
	q := url.Values{}
	q.Set("query", term)
	return withSearchKey(crawler.NewRequest(CategoryNYTimesSearch, nytimesBaseURL+"/search?"+q.Encode()), term)
}

// APSearchRequest builds an AP News search for term.
func APSearchRequest(term string) crawler.WorkRequest {
	q := url.Values{}
	q.Set("q", term)
	q.Set("s", "0")
	return withSearchKey(crawler.NewRequest(CategoryAPSearch, apBaseURL+"/search?"+q.Encode()), term)
}

// LASearchRequest builds the first page of an LA Times search for term.
func LASearchRequest(term string) crawler.WorkRequest {
	q := url.Values{}
	q.Set("q", term)
	q.Set("p", "1")
	return withSearchKey(crawler.NewRequest(CategoryLASearch, laBaseURL+"/search?"+q.Encode()), term)
}

// ReutersSearchRequest builds a newest-first query against the Reuters
// search API, whose parameters travel as a JSON document in the query string.
func ReutersSearchRequest(term string) crawler.WorkRequest {
	query, _ := json.Marshal(map[string]any{
		"keyword": term,
		"offset":  0,
		"orderby": "display_date:desc",
		"size":    reutersPageSize,
		"website": "reuters",
	})
	q := url.Values{}
	q.Set("query", string(query))
	q.Set("d", "216")
	q.Set("_website", "reuters")
	return withSearchKey(crawler.NewRequest(CategoryReutersSearch, reutersSearchURL+"?"+q.Encode()), term)
}

type wpSearchFilters struct {
	SortBy        string `json:"sortBy"`
	DateRestrict  string `json:"dateRestrict"`
	Start         int    `json:"start"`
	Author        string `json:"author"`
	Section       string `json:"section"`
	NextPageToken string `json:"nextPageToken"`
}

// WPSearchRequest builds the Washington Post search API POST for term.
func WPSearchRequest(term string) crawler.WorkRequest {
	body, _ := json.Marshal(struct {
		SearchTerm string          `json:"searchTerm"`
		Filters    wpSearchFilters `json:"filters"`
	}{SearchTerm: term, Filters: wpSearchFilters{SortBy: "relevancy"}})
	req := crawler.NewRequest(CategoryWPSearch, wpSearchURL)
	req.Method = crawler.MethodPost
	req.Body = body
	req.Header = http.Header{"Content-Type": []string{"application/json"}}
	return withSearchKey(req, term)
}

func withSearchKey(req crawler.WorkRequest, term string) crawler.WorkRequest {
	req.Passthrough = crawler.Passthrough{PassthroughSearchKey: term}
	return req
}

// SearchTerms pairs every person with every topic ("<person> <topic>"),
// skipping blanks and duplicates while keeping first-seen order.
func SearchTerms(people, topics []string) []string {
	seen := make(map[string]struct{}, len(people)*len(topics))
	terms := make([]string, 0, len(people)*len(topics))
	for _, p := range people {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		for _, t := range topics {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			term := p + " " + t
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			terms = append(terms, term)
		}
	}
	return terms
}

// SeedPlan selects the requests a crawl starts from.
type SeedPlan struct {
	BBCPages      int
	GuardianPages int
	HuffPostPages int
	// SearchSites receive one search per person x topic term.
	SearchSites []string
	People      []string
	Topics      []string
}

// Seeds returns the list pages of each paged site followed by, for every
// search site in order, one search per term. An unknown site is an error.
func Seeds(plan SeedPlan) ([]crawler.WorkRequest, error) {
	builders := make([]func(string) crawler.WorkRequest, 0, len(plan.SearchSites))
	for _, site := range plan.SearchSites {
		build, ok := searchBuilders[strings.ToLower(strings.TrimSpace(site))]
		if !ok {
			return nil, fmt.Errorf("unknown search site %q", site)
		}
		builders = append(builders, build)
	}
	terms := SearchTerms(plan.People, plan.Topics)

	var out []crawler.WorkRequest
	for page := 1; page <= plan.BBCPages; page++ {
		out = append(out, BBCListRequest(page))
	}
	for page := 1; page <= plan.GuardianPages; page++ {
		out = append(out, GuardianListRequest(page))
	}
	for page := 1; page <= plan.HuffPostPages; page++ {
		out = append(out, HuffPostListRequest(page))
	}
	for _, build := range builders {
		for _, term := range terms {
			out = append(out, build(term))
		}
	}
	return out, nil
}
