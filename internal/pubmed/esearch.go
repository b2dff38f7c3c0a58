// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/pubmed-harvest/pkg/types"
)

const (
	// DefaultMaxResults is used when Search is called with maxResults <= 0.
	DefaultMaxResults = 10

	// maxRetMax is the largest page ESearch serves in one call.
	maxRetMax = 10000
)

type esearchResponse struct {
	Result struct {
		Count            string   `json:"count"`
		IDList           []string `json:"idlist"`
		QueryTranslation string   `json:"querytranslation"`
		Error            string   `json:"ERROR"`
	} `json:"esearchresult"`
	Error string `json:"error"`
}

// Search runs an ESearch query against the pubmed database. The result
// holds at most maxResults unique PMIDs in upstream order, and Count is the
// total number of matches upstream reports.
func (c *Client) Search(ctx context.Context, query string, maxResults int) (types.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.SearchResult{}, fmt.Errorf("query is empty")
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > maxRetMax {
		maxResults = maxRetMax
	}

	body, err := c.eutil(ctx, OpSearch, "esearch.fcgi", query, url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {strconv.Itoa(maxResults)},
		"retmode": {"json"},
	})
	if err != nil {
		return types.SearchResult{}, err
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return types.SearchResult{}, failed(OpSearch, query, fmt.Errorf("parsing response: %w", err))
	}
	if msg := firstNonEmpty(resp.Error, resp.Result.Error); msg != "" {
		return types.SearchResult{}, failed(OpSearch, query, errors.New(msg))
	}

	count := 0
	if resp.Result.Count != "" {
		count, err = strconv.Atoi(resp.Result.Count)
		if err != nil {
			return types.SearchResult{}, failed(OpSearch, query, fmt.Errorf("parsing count %q: %w", resp.Result.Count, err))
		}
	}

	ids := uniqueIDs(resp.Result.IDList, maxResults)
	c.log.Info("search complete",
		zap.String("query", query),
		zap.Int("count", count),
		zap.Int("returned", len(ids)))

	return types.SearchResult{
		Query:            query,
		Count:            count,
		IDs:              ids,
		QueryTranslation: resp.Result.QueryTranslation,
	}, nil
}

// uniqueIDs drops blanks and repeats, keeping first occurrences, and stops at limit.
func uniqueIDs(ids []string, limit int) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, min(len(ids), limit))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
