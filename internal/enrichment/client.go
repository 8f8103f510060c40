package enrichment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// maxBodyBytes caps how much of a homepage is read
const maxBodyBytes = 2 << 20

// Fetcher retrieves a page and parses it into a document
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, int, error)
}

// Client handles HTTP requests to company websites with rate limiting
type Client struct {
	httpClient  *http.Client
	rateLimiter chan struct{}
	userAgent   string
	stop        chan struct{}
	closeOnce   sync.Once
}

// NewClient creates a new fetching client with rate limiting
func NewClient(requestsPerSecond int, timeout time.Duration, userAgent string) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}

	rateLimiter := make(chan struct{}, requestsPerSecond)
	for i := 0; i < requestsPerSecond; i++ {
		rateLimiter <- struct{}{}
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		rateLimiter: rateLimiter,
		userAgent:   userAgent,
		stop:        make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(time.Second / time.Duration(requestsPerSecond))
		defer ticker.Stop()

		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				select {
				case rateLimiter <- struct{}{}:
				default:
				}
			}
		}
	}()

	return c
}

// Fetch performs a rate-limited GET and returns the parsed document and the
// response status. Non-2xx responses are errors.
func (c *Client) Fetch(ctx context.Context, url string) (*goquery.Document, int, error) {
	select {
	case <-c.rateLimiter:
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, resp.StatusCode, nil
}

// Close stops the rate limiter and drops idle connections
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.httpClient.CloseIdleConnections()
	})
}
