// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

type elinkResponse struct {
	LinkSets []struct {
		LinkSetDBs []struct {
			LinkName string   `json:"linkname"`
			Links    []string `json:"links"`
		} `json:"linksetdbs"`
	} `json:"linksets"`
	Error string `json:"ERROR"`
}

// ResolvePMCID looks up the PubMed Central ID linked to a PMID. It returns
// "" with no error when the article has no PMC record.
func (c *Client) ResolvePMCID(ctx context.Context, id string) (string, error) {
	body, err := c.eutil(ctx, OpLink, "elink.fcgi", id, url.Values{
		"dbfrom":   {"pubmed"},
		"db":       {"pmc"},
		"linkname": {"pubmed_pmc"},
		"id":       {id},
		"retmode":  {"json"},
	})
	if err != nil {
		return "", err
	}

	var resp elinkResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", failed(OpLink, id, fmt.Errorf("parsing response: %w", err))
	}
	if resp.Error != "" {
		return "", failed(OpLink, id, fmt.Errorf("%s", resp.Error))
	}
	for _, ls := range resp.LinkSets {
		for _, db := range ls.LinkSetDBs {
			if db.LinkName != "" && db.LinkName != "pubmed_pmc" {
				continue
			}
			if len(db.Links) > 0 {
				return NormalizePMCID(db.Links[0]), nil
			}
		}
	}
	return "", nil
}

// FetchPDF downloads the PDF rendition of a PMC article. A response that
// does not start with the PDF magic bytes yields ErrNotPDF.
func (c *Client) FetchPDF(ctx context.Context, pmcid string) ([]byte, error) {
	pmcid = NormalizePMCID(pmcid)
	if pmcid == "" {
		return nil, &UpstreamError{Op: OpPDF, Err: fmt.Errorf("empty PMC ID")}
	}
	body, err := c.get(ctx, OpPDF, pmcid, pmcArticleBase+pmcid+"/pdf/", "application/pdf")
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		return nil, failed(OpPDF, pmcid, ErrNotPDF)
	}
	return body, nil
}

// FetchFullText resolves a PMID to its PMC record and downloads the PDF.
// It returns (nil, nil) when the article has no PMC record.
func (c *Client) FetchFullText(ctx context.Context, id string) ([]byte, error) {
	pmcid, err := c.ResolvePMCID(ctx, id)
	if err != nil || pmcid == "" {
		return nil, err
	}
	return c.FetchPDF(ctx, pmcid)
}

// NormalizePMCID returns "PMC" followed by the digits of id, accepting
// "PMC123", "pmc123" and "123". Anything else yields "".
func NormalizePMCID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) >= 3 && strings.EqualFold(id[:3], "PMC") {
		id = id[3:]
	}
	if !isDigits(id) {
		return ""
	}
	return "PMC" + id
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
