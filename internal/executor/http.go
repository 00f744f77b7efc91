// Package executor issues the individual requests a load run dispatches.
package executor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/service-perf-validator/loadtest-engine/internal/runner"
)

// HTTPExecutor sends real HTTP requests to the system under test.
type HTTPExecutor struct {
	client *http.Client
}

var _ runner.RequestExecutor = (*HTTPExecutor)(nil)

// NewHTTPExecutor creates an executor with a pooled transport sized for
// maxConns concurrent workers. Zero values fall back to 10s / 50.
func NewHTTPExecutor(timeout time.Duration, maxConns int) *HTTPExecutor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxConns <= 0 {
		maxConns = 50
	}
	return &HTTPExecutor{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        maxConns,
				MaxIdleConnsPerHost: maxConns,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Execute sends the request and drains the response body so the
// connection can be reused.
func (e *HTTPExecutor) Execute(ctx context.Context, req runner.Request) (runner.Response, error) {
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return runner.Response{}, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.Body != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := e.client.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		return runner.Response{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, resp.Body)

	return runner.Response{
		StatusCode: resp.StatusCode,
		ElapsedMs:  float64(elapsed.Milliseconds()),
	}, nil
}
