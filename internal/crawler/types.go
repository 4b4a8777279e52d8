package crawler

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrInvalidRequest is returned when a WorkRequest cannot be enqueued.
var ErrInvalidRequest = errors.New("invalid work request")

// Method is the HTTP verb used to retrieve a document.
type Method string

// Supported retrieval methods.
const (
	MethodGet  Method = "GET"
	MethodPost Method = "POST"
)

// Normalize upper-cases the method and defaults empty values to GET.
func (m Method) Normalize() Method {
	if m == "" {
		return MethodGet
	}
	return Method(strings.ToUpper(string(m)))
}

// Passthrough is an opaque key/value bag carried from a request to the
// follow-on requests spawned while parsing its page (e.g. a search term).
type Passthrough map[string]string

// Clone returns an independent copy so derived lineages never share a map.
func (p Passthrough) Clone() Passthrough {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Get returns the value stored under key, or "" when absent.
func (p Passthrough) Get(key string) string {
	return p[key]
}

// WorkRequest describes one document to retrieve and the category used to
// route the fetched result to a parser.
type WorkRequest struct {
	ID          string      `json:"id"`
	Method      Method      `json:"method"`
	Category    string      `json:"category"`
	URL         string      `json:"url"`
	Body        []byte      `json:"body,omitempty"`
	Header      http.Header `json:"header,omitempty"`
	Passthrough Passthrough `json:"passthrough,omitempty"`
}

// NewRequest builds a GET request for the given category and URL.
func NewRequest(category, rawURL string) WorkRequest {
	return WorkRequest{Method: MethodGet, Category: category, URL: rawURL}
}

// Derive builds a follow-on request that inherits a copy of the passthrough context.
func (r WorkRequest) Derive(method Method, category, rawURL string) WorkRequest {
	return WorkRequest{
		Method:      method.Normalize(),
		Category:    category,
		URL:         rawURL,
		Passthrough: r.Passthrough.Clone(),
	}
}

// Validate checks the request is routable and fetchable.
func (r WorkRequest) Validate() error {
	if strings.TrimSpace(r.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}
	u, err := url.Parse(r.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: url %q is not absolute", ErrInvalidRequest, r.URL)
	}
	switch r.Method.Normalize() {
	case MethodGet, MethodPost:
	default:
		return fmt.Errorf("%w: unsupported method %q", ErrInvalidRequest, r.Method)
	}
	return nil
}

// FetchResult is the outcome of retrieving a WorkRequest. It always carries
// the request that produced it so parsers can resubmit or derive follow-ons.
type FetchResult struct {
	Request    WorkRequest
	Category   string
	StatusCode int
	Body       []byte
	Header     http.Header
	Duration   time.Duration
	// Err is set when the transport failed before a status was received.
	Err error
}

// FailedResult wraps a transport failure so it can flow through the parse stage.
func FailedResult(req WorkRequest, err error) FetchResult {
	return FetchResult{
		Request:  req,
		Category: req.Category,
		Err:      err,
	}
}

// OK reports whether the fetch produced a 2xx response.
func (r FetchResult) OK() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Text returns the body decoded as a string.
func (r FetchResult) Text() string {
	return string(r.Body)
}

// Article is a structured record extracted from a detail page.
type Article struct {
	ID          string            `json:"id"`
	Category    string            `json:"category"`
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Published   string            `json:"published,omitempty"`
	Passthrough map[string]string `json:"passthrough,omitempty"`
	FetchedAt   time.Time         `json:"fetched_at"`
}

// Stats is a point-in-time snapshot of pipeline activity.
type Stats struct {
	QueuedRequests  int              `json:"queued_requests"`
	QueuedResponses int              `json:"queued_responses"`
	Outstanding     int64            `json:"outstanding"`
	Outcomes        map[string]int64 `json:"outcomes"`
}
