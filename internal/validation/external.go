package validation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// ErrLinkUnreachable wraps failed external link checks.
var ErrLinkUnreachable = errors.New("validation: link unreachable")

// LinkChecker verifies a single external URL.
type LinkChecker interface {
	Check(ctx context.Context, url string) error
}

// HTTPChecker checks links with a HEAD request, falling back to GET for
// servers that refuse HEAD.
type HTTPChecker struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPChecker returns a checker with a per-request timeout.
func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPChecker{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: "homepage-linkcheck/1.0",
	}
}

func (c *HTTPChecker) Check(ctx context.Context, url string) error {
	status, err := c.do(ctx, http.MethodHead, url)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusForbidden || status == http.StatusNotImplemented) {
		status, err = c.do(ctx, http.MethodGet, url)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLinkUnreachable, url, err)
	}
	if status >= http.StatusBadRequest {
		return fmt.Errorf("%w: %s: status %d", ErrLinkUnreachable, url, status)
	}
	return nil
}

func (c *HTTPChecker) do(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// checkExternalLinks fans unique URLs out to workers and reports each failure
// against every document that links to it.
func checkExternalLinks(ctx context.Context, report *Report, checker LinkChecker, targets []linkTarget, workers int) error {
	sources := map[string][]string{}
	for _, target := range targets {
		sources[target.URL] = append(sources[target.URL], target.Source)
	}
	if len(sources) == 0 {
		return nil
	}
	urls := make([]string, 0, len(sources))
	for url := range sources {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	if workers <= 0 {
		workers = 4
	}
	if workers > len(urls) {
		workers = len(urls)
	}

	var (
		mu       sync.Mutex
		failures = map[string]error{}
		wg       sync.WaitGroup
		jobs     = make(chan string)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for url := range jobs {
				if err := checker.Check(ctx, url); err != nil {
					mu.Lock()
					failures[url] = err
					mu.Unlock()
				}
			}
		}()
	}

	var cancelled error
feed:
	for _, url := range urls {
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case jobs <- url:
		}
	}
	close(jobs)
	wg.Wait()

	for _, url := range urls {
		err, failed := failures[url]
		if !failed {
			continue
		}
		for _, source := range uniqueStrings(sources[url]) {
			report.add(SeverityWarning, CodeLinkExternal, source, "", err.Error())
		}
	}
	return cancelled
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
