package election

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/particle-harvester/internal/crawler"
)

func TestBBCListRequest(t *testing.T) {
	t.Parallel()

	req := BBCListRequest(3)
	require.NoError(t, req.Validate())
	assert.Equal(t, CategoryBBCList, req.Category)
	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	assert.Equal(t, "web-cdn.api.bbci.co.uk", u.Host)
	assert.Equal(t, "3", u.Query().Get("page"))
	assert.Equal(t, "9", u.Query().Get("size"))
	assert.Equal(t, "jp", u.Query().Get("country"))
}

func TestCNNSearchRequest(t *testing.T) {
	t.Parallel()

	req := CNNSearchRequest("Kamala Harris Database")
	require.NoError(t, req.Validate())
	assert.Equal(t, CategoryCNNSearch, req.Category)
	assert.Equal(t, "Kamala Harris Database", req.Passthrough.Get(PassthroughSearchKey))
	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "Kamala Harris Database", q.Get("q"))
	assert.Equal(t, "20", q.Get("size"))
	assert.Equal(t, "newest", q.Get("sort"))
}

func TestSearchTerms(t *testing.T) {
	t.Parallel()

	terms := SearchTerms(
		[]string{"Ron DeSantis", "Tim Walz", "Ron DeSantis", " "},
		[]string{"CPU", "Tire", ""},
	)
	assert.Equal(t, []string{
		"Ron DeSantis CPU",
		"Ron DeSantis Tire",
		"Tim Walz CPU",
		"Tim Walz Tire",
	}, terms)
	assert.Empty(t, SearchTerms(nil, []string{"CPU"}))
}

func TestSiteRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		req      crawler.WorkRequest
		category string
		host     string
		query    map[string]string
	}{
		{"guardian", GuardianListRequest(2), CategoryGuardianList, "www.theguardian.com", map[string]string{"page": "2"}},
		{"huffpost", HuffPostListRequest(4), CategoryHuffPostList, "www.huffpost.com", map[string]string{"page": "4"}},
		{"nytimes", NYTimesSearchRequest("Tim Walz CPU"), CategoryNYTimesSearch, "www.nytimes.com", map[string]string{"query": "Tim Walz CPU"}},
		{"ap", APSearchRequest("Tim Walz CPU"), CategoryAPSearch, "apnews.com", map[string]string{"q": "Tim Walz CPU", "s": "0"}},
		{"la", LASearchRequest("Tim Walz CPU"), CategoryLASearch, "www.latimes.com", map[string]string{"q": "Tim Walz CPU", "p": "1"}},
		{"reuters", ReutersSearchRequest("Tim Walz CPU"), CategoryReutersSearch, "www.reuters.com", map[string]string{"_website": "reuters"}},
		{"wp", WPSearchRequest("Tim Walz CPU"), CategoryWPSearch, "www.washingtonpost.com", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.NoError(t, tt.req.Validate())
			assert.Equal(t, tt.category, tt.req.Category)
			u, err := url.Parse(tt.req.URL)
			require.NoError(t, err)
			assert.Equal(t, tt.host, u.Host)
			for k, v := range tt.query {
				assert.Equal(t, v, u.Query().Get(k), k)
			}
		})
	}
}

func TestSearchRequestsCarryTerm(t *testing.T) {
	t.Parallel()

	for site, build := range searchBuilders {
		req := build("Ron DeSantis Tire")
		assert.Equal(t, "Ron DeSantis Tire", req.Passthrough.Get(PassthroughSearchKey), site)
	}
}

func TestReutersSearchRequestEncodesQueryDocument(t *testing.T) {
	t.Parallel()

	u, err := url.Parse(ReutersSearchRequest("Tim Walz Tire").URL)
	require.NoError(t, err)
	var query map[string]any
	require.NoError(t, json.Unmarshal([]byte(u.Query().Get("query")), &query))
	assert.Equal(t, "Tim Walz Tire", query["keyword"])
	assert.Equal(t, "display_date:desc", query["orderby"])
	assert.EqualValues(t, 20, query["size"])
}

func TestWPSearchRequestPostsJSON(t *testing.T) {
	t.Parallel()

	req := WPSearchRequest("Tim Walz Tire")
	assert.Equal(t, crawler.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"searchTerm":"Tim Walz Tire","filters":{"sortBy":"relevancy","dateRestrict":"","start":0,"author":"","section":"","nextPageToken":""}}`, string(req.Body))
}

func TestSeeds(t *testing.T) {
	t.Parallel()

	seeds, err := Seeds(SeedPlan{
		BBCPages:    2,
		SearchSites: []string{SiteCNN},
		People:      []string{"Tim Walz"},
		Topics:      []string{"CPU", "Tire"},
	})
	require.NoError(t, err)
	require.Len(t, seeds, 4)
	assert.Equal(t, CategoryBBCList, seeds[0].Category)
	assert.Equal(t, CategoryBBCList, seeds[1].Category)
	assert.Equal(t, "Tim Walz CPU", seeds[2].Passthrough.Get(PassthroughSearchKey))
	assert.Equal(t, "Tim Walz Tire", seeds[3].Passthrough.Get(PassthroughSearchKey))

	empty, err := Seeds(SeedPlan{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSeedsAcrossSites(t *testing.T) {
	t.Parallel()

	seeds, err := Seeds(SeedPlan{
		GuardianPages: 1,
		HuffPostPages: 2,
		SearchSites:   []string{"AP", " wp "},
		People:        []string{"Tim Walz"},
		Topics:        []string{"CPU"},
	})
	require.NoError(t, err)
	var categories []string
	for _, s := range seeds {
		categories = append(categories, s.Category)
	}
	assert.Equal(t, []string{
		CategoryGuardianList,
		CategoryHuffPostList,
		CategoryHuffPostList,
		CategoryAPSearch,
		CategoryWPSearch,
	}, categories)

	_, err = Seeds(SeedPlan{SearchSites: []string{"bloomberg"}})
	require.ErrorContains(t, err, `unknown search site "bloomberg"`)
}
