// Package util holds the HTTP plumbing shared by every adapter and the
// enricher: a client with per-host rate limiting and URL helpers.
package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const userAgent = "job-pipeline/1.0 (+https://github.com/Toymakerftw/job-pipeline)"

// maxBodyBytes caps how much of a source page we are willing to read.
const maxBodyBytes = 8 << 20

// Client wraps http.Client with a per-request deadline and a token bucket
// per target host so page and detail fetches never hammer a single park.
type Client struct {
	hc *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewClient builds a scrape client. timeout bounds every individual fetch;
// reqPerSec/burst bound the request rate against any one host.
func NewClient(timeout time.Duration, reqPerSec float64, burst int) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if reqPerSec <= 0 {
		reqPerSec = 4
	}
	if burst <= 0 {
		burst = 4
	}
	return &Client{
		hc:       &http.Client{Timeout: timeout},
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(reqPerSec),
		burst:    burst,
	}
}

func (c *Client) limiterFor(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if lim, ok := c.limiters[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(c.rps, c.burst)
	c.limiters[host] = lim
	return lim
}

func (c *Client) get(ctx context.Context, target string) (*http.Response, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", target, err)
	}
	if err := c.limiterFor(u.Host).Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 400 {
		res.Body.Close()
		return nil, fmt.Errorf("get %s: status %d", target, res.StatusCode)
	}
	return res, nil
}

// GetDocument fetches target and parses the body as HTML.
func (c *Client) GetDocument(ctx context.Context, target string) (*goquery.Document, error) {
	res, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", target, err)
	}
	return doc, nil
}

// GetBytes fetches target and returns the raw body.
func (c *Client) GetBytes(ctx context.Context, target string) ([]byte, error) {
	res, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	return io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
}
