// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/pubmed-harvest/pkg/types"
)

// ESummary JSON structures (retmode=json, version 1.0).
type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
	Error  string                     `json:"error"`
}

type esummaryDoc struct {
	UID             string           `json:"uid"`
	PubDate         string           `json:"pubdate"`
	EPubDate        string           `json:"epubdate"`
	SortPubDate     string           `json:"sortpubdate"`
	Source          string           `json:"source"`
	FullJournalName string           `json:"fulljournalname"`
	Title           string           `json:"title"`
	Volume          string           `json:"volume"`
	Issue           string           `json:"issue"`
	Pages           string           `json:"pages"`
	ISSN            string           `json:"issn"`
	ESSN            string           `json:"essn"`
	Lang            []string         `json:"lang"`
	PubType         []string         `json:"pubtype"`
	Authors         []esummaryAuthor `json:"authors"`
	ArticleIDs      []esummaryID     `json:"articleids"`
	Error           string           `json:"error"`
}

type esummaryAuthor struct {
	Name     string `json:"name"`
	AuthType string `json:"authtype"`
}

type esummaryID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}

// FetchSummary retrieves the ESummary document for a PMID and converts it to
// an Article. Abstract, MeSH headings and references are not part of
// ESummary and stay empty; see FetchRecord.
func (c *Client) FetchSummary(ctx context.Context, id string) (*types.Article, error) {
	body, err := c.eutil(ctx, OpSummary, "esummary.fcgi", id, url.Values{
		"db":      {"pubmed"},
		"id":      {id},
		"retmode": {"json"},
	})
	if err != nil {
		return nil, err
	}
	article, err := parseSummary(body, id)
	if err != nil {
		return nil, failed(OpSummary, id, err)
	}
	return article, nil
}

// parseSummary extracts the document for id from an ESummary JSON body.
func parseSummary(body []byte, id string) (*types.Article, error) {
	var resp esummaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}

	raw, ok := resp.Result[id]
	if !ok {
		return nil, ErrNotFound
	}
	var doc esummaryDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing document %s: %w", id, err)
	}
	if doc.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, doc.Error)
	}

	a := &types.Article{
		PMID:             firstNonEmpty(doc.UID, id),
		Title:            cleanText(doc.Title),
		PubDate:          doc.PubDate,
		PublishedDate:    summaryDate(doc),
		PublicationTypes: doc.PubType,
		Journal: types.Journal{
			Title:           firstNonEmpty(doc.FullJournalName, doc.Source),
			ISOAbbreviation: doc.Source,
			ISSN:            firstNonEmpty(doc.ISSN, doc.ESSN),
			Volume:          doc.Volume,
			Issue:           doc.Issue,
			Pages:           doc.Pages,
		},
	}
	if len(doc.Lang) > 0 {
		a.Language = doc.Lang[0]
	}
	for _, au := range doc.Authors {
		if au.Name == "" || (au.AuthType != "" && au.AuthType != "Author") {
			continue
		}
		a.Authors = append(a.Authors, au.Name)
	}
	for _, aid := range doc.ArticleIDs {
		switch strings.ToLower(aid.IDType) {
		case "doi":
			if a.DOI == "" {
				a.DOI = aid.Value
			}
		case "pmc", "pmcid":
			if a.PMCID == "" {
				a.PMCID = NormalizePMCID(aid.Value)
			}
		}
	}
	return a, nil
}

// summaryDate prefers the machine-readable sort date and falls back to the
// free-form publication dates.
func summaryDate(doc esummaryDoc) time.Time {
	if t, err := time.Parse("2006/01/02 15:04", doc.SortPubDate); err == nil {
		return t
	}
	for _, s := range []string{doc.PubDate, doc.EPubDate} {
		if t := parseLooseDate(s); !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

// looseLayouts are the date shapes PubMed uses in free-form date fields.
var looseLayouts = []string{"2006 Jan 2", "2006 Jan", "2006 January 2", "2006 January", "2006/01/02", "2006-01-02", "2006"}

// parseLooseDate parses strings like "2023 Mar 14", "2023 Mar" or
// "2021 Spring". Anything after the recognized prefix is ignored.
func parseLooseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	fields := strings.Fields(s)
	for n := min(len(fields), 3); n > 0; n-- {
		candidate := strings.Join(fields[:n], " ")
		for _, layout := range looseLayouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
