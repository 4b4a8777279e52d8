package collyfetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/particle-harvester/internal/crawler"
)

func TestFetchGet(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "harvester-test", r.UserAgent())
		assert.Equal(t, "yes", r.Header.Get("X-Trace"))
		w.Header().Set("X-Resp", "ok")
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "harvester-test", Timeout: time.Second})
	req := crawler.NewRequest("LIST", srv.URL+"/list")
	req.Header = http.Header{"X-Trace": {"yes"}}

	result, err := f.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.JSONEq(t, `{"data":[]}`, result.Text())
	assert.Equal(t, "ok", result.Header.Get("X-Resp"))
	assert.Equal(t, "LIST", result.Category)
	assert.Equal(t, req.URL, result.Request.URL)
	assert.True(t, result.OK())
}

func TestFetchPostSendsJSONBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	f := New(Config{Timeout: time.Second})
	req := crawler.WorkRequest{
		Method:   crawler.MethodPost,
		Category: "SEARCH",
		URL:      srv.URL + "/search",
		Body:     []byte(`{"q":"election"}`),
	}
	result, err := f.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"q":"election"}`, result.Text())
}

func TestFetchErrorStatusIsAResult(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := New(Config{Timeout: time.Second})
	req := crawler.NewRequest("LIST", srv.URL)

	for i := 0; i < 2; i++ {
		result, err := f.Fetch(context.Background(), req)
		require.NoError(t, err, "attempt %d", i)
		assert.Equal(t, http.StatusServiceUnavailable, result.StatusCode)
		assert.False(t, result.OK())
	}
}

func TestFetchTransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f := New(Config{Timeout: time.Second})
	_, err := f.Fetch(context.Background(), crawler.NewRequest("LIST", addr))
	require.Error(t, err)
}

func TestFetchCanceled(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	f := New(Config{Timeout: 5 * time.Second})
	_, err := f.Fetch(ctx, crawler.NewRequest("LIST", srv.URL))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	req := crawler.WorkRequest{
		Method:   crawler.MethodPost,
		Category: "SEARCH",
		URL:      "https://example.com",
		Header:   http.Header{"X-Trace": {"yes"}},
	}
	start := time.Unix(0, 0)
	var result crawler.FetchResult
	var fetchErr error

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, req, start, &result, &fetchErr)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusCreated,
		Body:       []byte("body"),
		Headers:    &http.Header{"X-Resp": {"ok"}},
		Request:    &colly.Request{URL: mustParseURL(t, "https://example.com")},
	})
	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.Equal(t, "body", result.Text())
	assert.Equal(t, "ok", result.Header.Get("X-Resp"))
	assert.Equal(t, "SEARCH", result.Category)

	hooks.onError(&colly.Response{StatusCode: http.StatusNotFound}, errors.New("Not Found"))
	assert.NoError(t, fetchErr)
	hooks.onError(nil, errors.New("boom"))
	assert.EqualError(t, fetchErr, "boom")
}

func TestRequestHeader(t *testing.T) {
	t.Parallel()

	post := crawler.WorkRequest{Method: crawler.MethodPost, Header: http.Header{"X-Trace": {"yes"}}}
	header := requestHeader(post)
	assert.Equal(t, "yes", header.Get("X-Trace"))
	assert.Equal(t, "application/json", header.Get("Content-Type"))
	header.Set("X-Trace", "changed")
	assert.Equal(t, "yes", post.Header.Get("X-Trace"))

	form := crawler.WorkRequest{Method: crawler.MethodPost, Header: http.Header{"Content-Type": {"text/plain"}}}
	assert.Equal(t, "text/plain", requestHeader(form).Get("Content-Type"))

	get := crawler.NewRequest("LIST", "https://example.com")
	assert.Empty(t, requestHeader(get).Get("Content-Type"))
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse url %q: %v", raw, err)
	}
	return u
}

type stubHooks struct {
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}

type recordingLimiter struct {
	urls []string
	err  error
}

func (l *recordingLimiter) Wait(_ context.Context, rawURL string) error {
	l.urls = append(l.urls, rawURL)
	return l.err
}

func TestFetchWaitsOnLimiter(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	limiter := &recordingLimiter{}
	f := New(Config{Timeout: time.Second, Limiter: limiter})
	_, err := f.Fetch(context.Background(), crawler.NewRequest("LIST", srv.URL+"/a"))
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/a"}, limiter.urls)
	assert.EqualValues(t, 1, hits.Load())

	limiter.err = errors.New("rate limit wait: context canceled")
	_, err = f.Fetch(context.Background(), crawler.NewRequest("LIST", srv.URL+"/b"))
	require.Error(t, err)
	assert.EqualValues(t, 1, hits.Load())
}
