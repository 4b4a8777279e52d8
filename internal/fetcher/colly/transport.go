package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

var transientRetryBackoff = []time.Duration{
	250 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
}

// transientRetryTransport retries GET requests that fail with a dial or TLS
// handshake timeout. Other methods and errors pass through untouched.
type transientRetryTransport struct {
	base    http.RoundTripper
	retries int
}

func newTransientRetryTransport(base http.RoundTripper, retries int) *transientRetryTransport {
	if retries > len(transientRetryBackoff) {
		retries = len(transientRetryBackoff)
	}
	if retries < 0 {
		retries = 0
	}
	return &transientRetryTransport{base: base, retries: retries}
}

func (t *transientRetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("retry transport received nil request")
	}
	attempts := 1
	if req.Method == http.MethodGet {
		attempts += t.retries
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		resp, err := t.base.RoundTrip(req.Clone(req.Context()))
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isTransientError(err) || attempt == attempts-1 {
			break
		}
		if err := sleepWithContext(req.Context(), transientRetryBackoff[attempt]); err != nil {
			return nil, fmt.Errorf("retry transport backoff: %w", err)
		}
	}
	return nil, fmt.Errorf("retry transport roundtrip: %w", lastErr)
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff sleep context: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "tls: handshake timeout")
}
