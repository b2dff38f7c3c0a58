// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/pubmed-harvest/pkg/types"
)

// Record is one EFetch result: the raw PubMed XML as served, plus the
// article parsed from it.
type Record struct {
	XML     []byte
	Article *types.Article
}

// EFetch XML structures (PubmedArticleSet DTD), reduced to the fields we keep.
type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation   medlineCitation `xml:"MedlineCitation"`
	PubmedData pubmedData      `xml:"PubmedData"`
}

type medlineCitation struct {
	PMID          string        `xml:"PMID"`
	DateCompleted xmlDate       `xml:"DateCompleted"`
	DateRevised   xmlDate       `xml:"DateRevised"`
	Article       xmlArticle    `xml:"Article"`
	Chemicals     []xmlChemical `xml:"ChemicalList>Chemical"`
	MeSH          []xmlMeSH     `xml:"MeshHeadingList>MeshHeading"`
	Keywords      []innerText   `xml:"KeywordList>Keyword"`
}

type xmlArticle struct {
	Journal struct {
		ISSN         string `xml:"ISSN"`
		JournalIssue struct {
			Volume  string  `xml:"Volume"`
			Issue   string  `xml:"Issue"`
			PubDate xmlDate `xml:"PubDate"`
		} `xml:"JournalIssue"`
		Title           string `xml:"Title"`
		ISOAbbreviation string `xml:"ISOAbbreviation"`
	} `xml:"Journal"`
	Title       innerText `xml:"ArticleTitle"`
	Pagination  string    `xml:"Pagination>MedlinePgn"`
	ELocationID []struct {
		Type  string `xml:"EIdType,attr"`
		Value string `xml:",chardata"`
	} `xml:"ELocationID"`
	Abstract []struct {
		Label string `xml:"Label,attr"`
		Inner string `xml:",innerxml"`
	} `xml:"Abstract>AbstractText"`
	Authors          []xmlAuthor `xml:"AuthorList>Author"`
	Language         []string    `xml:"Language"`
	Grants           []xmlGrant  `xml:"GrantList>Grant"`
	PublicationTypes []string    `xml:"PublicationTypeList>PublicationType"`
	ArticleDate      []xmlDate   `xml:"ArticleDate"`
}

type xmlAuthor struct {
	LastName       string   `xml:"LastName"`
	ForeName       string   `xml:"ForeName"`
	Initials       string   `xml:"Initials"`
	CollectiveName string   `xml:"CollectiveName"`
	Affiliations   []string `xml:"AffiliationInfo>Affiliation"`
}

type xmlGrant struct {
	GrantID string `xml:"GrantID"`
	Acronym string `xml:"Acronym"`
	Agency  string `xml:"Agency"`
	Country string `xml:"Country"`
}

type xmlChemical struct {
	RegistryNumber string `xml:"RegistryNumber"`
	Name           string `xml:"NameOfSubstance"`
}

type xmlMeSH struct {
	Descriptor struct {
		UI         string `xml:"UI,attr"`
		MajorTopic string `xml:"MajorTopicYN,attr"`
		Name       string `xml:",chardata"`
	} `xml:"DescriptorName"`
	Qualifiers []struct {
		Name string `xml:",chardata"`
	} `xml:"QualifierName"`
}

type pubmedData struct {
	ArticleIDs []xmlArticleID `xml:"ArticleIdList>ArticleId"`
	References []struct {
		Citation   innerText      `xml:"Citation"`
		ArticleIDs []xmlArticleID `xml:"ArticleIdList>ArticleId"`
	} `xml:"ReferenceList>Reference"`
}

type xmlArticleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}

// xmlDate covers PubDate, ArticleDate, DateCompleted and DateRevised.
type xmlDate struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"`
	Day         string `xml:"Day"`
	MedlineDate string `xml:"MedlineDate"`
}

// innerText captures element content including inline markup such as
// <i> or <sup>, which cleanText strips afterwards.
type innerText struct {
	Inner string `xml:",innerxml"`
}

func (t innerText) String() string { return cleanText(t.Inner) }

// FetchRecord retrieves the full PubMed XML record for a PMID.
func (c *Client) FetchRecord(ctx context.Context, id string) (*Record, error) {
	body, err := c.eutil(ctx, OpFetch, "efetch.fcgi", id, url.Values{
		"db":      {"pubmed"},
		"id":      {id},
		"retmode": {"xml"},
	})
	if err != nil {
		return nil, err
	}
	article, err := parseRecord(body)
	if err != nil {
		return nil, failed(OpFetch, id, err)
	}
	return &Record{XML: body, Article: article}, nil
}

// parseRecord parses the first PubmedArticle in an EFetch response.
func parseRecord(body []byte) (*types.Article, error) {
	var set pubmedArticleSet
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	if len(set.Articles) == 0 {
		return nil, ErrNotFound
	}
	return set.Articles[0].toArticle(), nil
}

func (p pubmedArticle) toArticle() *types.Article {
	mc := p.Citation
	art := mc.Article
	a := &types.Article{
		PMID:             strings.TrimSpace(mc.PMID),
		Title:            art.Title.String(),
		PublicationTypes: art.PublicationTypes,
		Journal: types.Journal{
			Title:           art.Journal.Title,
			ISOAbbreviation: art.Journal.ISOAbbreviation,
			ISSN:            art.Journal.ISSN,
			Volume:          art.Journal.JournalIssue.Volume,
			Issue:           art.Journal.JournalIssue.Issue,
			Pages:           art.Pagination,
		},
	}
	if len(art.Language) > 0 {
		a.Language = art.Language[0]
	}

	var sections []string
	for _, s := range art.Abstract {
		text := cleanText(s.Inner)
		if text == "" {
			continue
		}
		if s.Label != "" {
			text = s.Label + ": " + text
		}
		sections = append(sections, text)
	}
	a.Abstract = strings.Join(sections, "\n\n")

	for _, au := range art.Authors {
		author := types.Author{
			LastName:       au.LastName,
			ForeName:       au.ForeName,
			Initials:       au.Initials,
			CollectiveName: au.CollectiveName,
			Affiliations:   au.Affiliations,
		}
		if name := author.Name(); name != "" {
			a.Authors = append(a.Authors, name)
			a.AuthorDetails = append(a.AuthorDetails, author)
		}
	}

	pub := art.Journal.JournalIssue.PubDate
	a.PubDate = pub.String()
	dates := append([]xmlDate{pub}, art.ArticleDate...)
	dates = append(dates, mc.DateCompleted, mc.DateRevised)
	for _, d := range dates {
		if t := d.Time(); !t.IsZero() {
			a.PublishedDate = t
			break
		}
	}

	for _, e := range art.ELocationID {
		if strings.EqualFold(e.Type, "doi") && a.DOI == "" {
			a.DOI = strings.TrimSpace(e.Value)
		}
	}
	for _, aid := range p.PubmedData.ArticleIDs {
		v := strings.TrimSpace(aid.Value)
		switch strings.ToLower(aid.IDType) {
		case "doi":
			if a.DOI == "" {
				a.DOI = v
			}
		case "pmc":
			if a.PMCID == "" {
				a.PMCID = NormalizePMCID(v)
			}
		}
	}

	for _, kw := range mc.Keywords {
		if s := kw.String(); s != "" {
			a.Keywords = append(a.Keywords, s)
		}
	}
	for _, m := range mc.MeSH {
		h := types.MeSHHeading{
			Descriptor:   strings.TrimSpace(m.Descriptor.Name),
			DescriptorUI: m.Descriptor.UI,
			MajorTopic:   m.Descriptor.MajorTopic == "Y",
		}
		for _, q := range m.Qualifiers {
			h.Qualifiers = append(h.Qualifiers, strings.TrimSpace(q.Name))
		}
		a.MeSHHeadings = append(a.MeSHHeadings, h)
	}
	for _, g := range art.Grants {
		a.Grants = append(a.Grants, types.Grant(g))
	}
	for _, ch := range mc.Chemicals {
		a.Chemicals = append(a.Chemicals, types.Chemical{Name: ch.Name, RegistryNumber: ch.RegistryNumber})
	}
	for _, ref := range p.PubmedData.References {
		r := types.Reference{Citation: ref.Citation.String()}
		for _, aid := range ref.ArticleIDs {
			v := strings.TrimSpace(aid.Value)
			switch strings.ToLower(aid.IDType) {
			case "pubmed":
				r.PMID = v
			case "doi":
				r.DOI = v
			case "pmc":
				r.PMCID = NormalizePMCID(v)
			}
		}
		a.References = append(a.References, r)
	}
	return a
}

// String renders the date as PubMed displays it, e.g. "2023 Mar 14".
func (d xmlDate) String() string {
	if d.MedlineDate != "" {
		return d.MedlineDate
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{d.Year, d.Month, d.Day} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Time converts the date to UTC midnight. Missing month or day default to 1.
func (d xmlDate) Time() time.Time {
	if d.Year == "" {
		return parseLooseDate(d.MedlineDate)
	}
	year, err := strconv.Atoi(d.Year)
	if err != nil {
		return time.Time{}
	}
	month := monthNumber(d.Month)
	day := 1
	if n, err := strconv.Atoi(d.Day); err == nil && n >= 1 && n <= 31 {
		day = n
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// monthNumber accepts "3", "03", "Mar" or "March"; anything else is January.
func monthNumber(s string) int {
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 12 {
		return n
	}
	if len(s) >= 3 {
		if t, err := time.Parse("Jan", strings.ToUpper(s[:1])+strings.ToLower(s[1:3])); err == nil {
			return int(t.Month())
		}
	}
	return 1
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]+>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// cleanText strips markup, decodes entities and collapses whitespace.
func cleanText(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
