// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ArticleOutcome records what happened to one article during a run.
type ArticleOutcome struct {
	PMID        string `json:"pmid" yaml:"pmid"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	XMLPath     string `json:"xml_path,omitempty" yaml:"xml_path,omitempty"`
	SummaryPath string `json:"summary_path,omitempty" yaml:"summary_path,omitempty"`
	PDFPath     string `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`

	// Succeeded is false when any fetch or write for the article failed.
	Succeeded bool   `json:"succeeded" yaml:"succeeded"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// HasPDF reports whether a PDF was stored for the article.
func (o ArticleOutcome) HasPDF() bool {
	return o.PDFPath != ""
}

// ProcessSummary is the result of one search-and-process run.
type ProcessSummary struct {
	SearchID    string    `json:"search_id" yaml:"search_id"`
	Query       string    `json:"query" yaml:"query"`
	ProcessedAt time.Time `json:"processed_time" yaml:"processed_time"`

	// TotalArticlesFound is the upstream match count, which may exceed the
	// number of articles actually returned and processed.
	TotalArticlesFound int `json:"total_articles_found" yaml:"total_articles_found"`

	// Returned is the number of identifiers the run attempted.
	Returned int `json:"returned" yaml:"returned"`

	SuccessfullyProcessed int              `json:"successfully_processed" yaml:"successfully_processed"`
	FailedProcessing      int              `json:"failed_processing" yaml:"failed_processing"`
	FailedIDs             []string         `json:"failed_pmids" yaml:"failed_pmids"`
	PDFsSaved             int              `json:"pdfs_saved" yaml:"pdfs_saved"`
	Articles              []ArticleOutcome `json:"articles" yaml:"articles"`
}

// HasFailures reports whether any article failed.
func (s ProcessSummary) HasFailures() bool {
	return s.FailedProcessing > 0
}

// Add folds one article outcome into the counters.
func (s *ProcessSummary) Add(o ArticleOutcome) {
	s.Articles = append(s.Articles, o)
	if !o.Succeeded {
		s.FailedProcessing++
		s.FailedIDs = append(s.FailedIDs, o.PMID)
		return
	}
	s.SuccessfullyProcessed++
	if o.HasPDF() {
		s.PDFsSaved++
	}
}
