// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import "github.com/pdiddy/pubmed-harvest/pkg/types"

// Merge fills empty fields of dst from src. Fields dst already has are kept,
// so the richer record should be dst.
func Merge(dst *types.Article, src *types.Article) {
	if dst == nil || src == nil {
		return
	}
	fill(&dst.PMID, src.PMID)
	fill(&dst.Title, src.Title)
	fill(&dst.Abstract, src.Abstract)
	fill(&dst.DOI, src.DOI)
	fill(&dst.PMCID, src.PMCID)
	fill(&dst.Language, src.Language)
	fill(&dst.PubDate, src.PubDate)
	if dst.PublishedDate.IsZero() && !src.PublishedDate.IsZero() {
		dst.PublishedDate = src.PublishedDate
	}
	if len(dst.Authors) == 0 && len(src.Authors) > 0 {
		dst.Authors = src.Authors
		dst.AuthorDetails = src.AuthorDetails
	}
	if len(dst.PublicationTypes) == 0 {
		dst.PublicationTypes = src.PublicationTypes
	}
	if len(dst.Keywords) == 0 {
		dst.Keywords = src.Keywords
	}

	j, s := &dst.Journal, src.Journal
	fill(&j.Title, s.Title)
	fill(&j.ISOAbbreviation, s.ISOAbbreviation)
	fill(&j.ISSN, s.ISSN)
	fill(&j.Volume, s.Volume)
	fill(&j.Issue, s.Issue)
	fill(&j.Pages, s.Pages)
}

func fill(dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = src
	}
}
