// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the API client and the
// PDF downloader.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultMaxBody caps how much of a response body Get reads (256 MiB).
const DefaultMaxBody int64 = 256 << 20

// snippetLen is how much of an error body StatusError keeps.
const snippetLen = 512

// StatusError reports a response whose status code is not 2xx.
type StatusError struct {
	StatusCode int
	URL        string
	// Body holds the start of the response body, for diagnostics.
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Request describes a GET request.
type Request struct {
	URL       string
	UserAgent string
	Accept    string
	// MaxBody limits the bytes read; zero means DefaultMaxBody.
	MaxBody int64
}

// Get performs a GET request and returns the full body. Non-2xx responses
// fail with *StatusError; transport failures are returned wrapped.
func Get(ctx context.Context, client *http.Client, r Request) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if r.UserAgent != "" {
		req.Header.Set("User-Agent", r.UserAgent)
	}
	if r.Accept != "" {
		req.Header.Set("Accept", r.Accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, snippetLen))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        RedactURL(r.URL),
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	limit := r.MaxBody
	if limit <= 0 {
		limit = DefaultMaxBody
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response body from %s exceeds %d bytes", RedactURL(r.URL), limit)
	}
	return body, nil
}
