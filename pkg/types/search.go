// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by the pubmed-harvest
// packages: articles, search results, run summaries and configuration.
package types

import "time"

// SearchResult is the outcome of one ESearch call.
type SearchResult struct {
	// Query is the search term as submitted.
	Query string `json:"query" yaml:"query"`

	// Count is the total number of matches reported upstream. It may exceed
	// len(IDs).
	Count int `json:"count" yaml:"count"`

	// IDs holds the returned PMIDs in upstream order, without duplicates.
	IDs []string `json:"ids" yaml:"ids"`

	// QueryTranslation is PubMed's expansion of the query (MeSH mapping etc.).
	QueryTranslation string `json:"query_translation,omitempty" yaml:"query_translation,omitempty"`
}

// SearchLog is the record written to metadata/searches/ for every search.
type SearchLog struct {
	SearchID   string    `json:"search_id" yaml:"search_id"`
	QueryHash  string    `json:"query_hash" yaml:"query_hash"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	MaxResults int       `json:"max_results" yaml:"max_results"`

	SearchResult `yaml:",inline"`
}
