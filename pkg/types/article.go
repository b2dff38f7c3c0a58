// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Article holds the metadata of a PubMed record. Fields that come only from
// the full EFetch record (abstract, MeSH headings, references, grants) are
// empty when the article was built from an ESummary response alone.
type Article struct {
	// PMID is the PubMed identifier (e.g. "36912345").
	PMID string `json:"pmid" yaml:"pmid"`

	// Title is the article title with inline markup removed.
	Title string `json:"title" yaml:"title"`

	// Authors lists author display names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// AuthorDetails carries name parts and affiliations when available.
	AuthorDetails []Author `json:"author_details,omitempty" yaml:"author_details,omitempty"`

	Journal Journal `json:"journal" yaml:"journal"`

	// PublishedDate is the best publication date found; zero when unknown.
	PublishedDate time.Time `json:"published_date" yaml:"published_date"`

	// PubDate is the publication date string as reported upstream
	// (e.g. "2023 Mar 14" or "2021 Spring").
	PubDate string `json:"pub_date,omitempty" yaml:"pub_date,omitempty"`

	Abstract string `json:"abstract" yaml:"abstract"`
	DOI      string `json:"doi,omitempty" yaml:"doi,omitempty"`
	PMCID    string `json:"pmcid,omitempty" yaml:"pmcid,omitempty"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	Keywords         []string      `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	PublicationTypes []string      `json:"publication_types,omitempty" yaml:"publication_types,omitempty"`
	MeSHHeadings     []MeSHHeading `json:"mesh_headings,omitempty" yaml:"mesh_headings,omitempty"`
	Grants           []Grant       `json:"grants,omitempty" yaml:"grants,omitempty"`
	References       []Reference   `json:"references,omitempty" yaml:"references,omitempty"`
	Chemicals        []Chemical    `json:"chemicals,omitempty" yaml:"chemicals,omitempty"`
}

// Author is a single entry of an article's author list.
type Author struct {
	LastName       string   `json:"last_name" yaml:"last_name"`
	ForeName       string   `json:"fore_name,omitempty" yaml:"fore_name,omitempty"`
	Initials       string   `json:"initials,omitempty" yaml:"initials,omitempty"`
	CollectiveName string   `json:"collective_name,omitempty" yaml:"collective_name,omitempty"`
	Affiliations   []string `json:"affiliations,omitempty" yaml:"affiliations,omitempty"`
}

// Name returns "LastName, ForeName", the bare last name, or the collective
// name for group authors.
func (a Author) Name() string {
	switch {
	case a.CollectiveName != "":
		return a.CollectiveName
	case a.ForeName != "":
		return a.LastName + ", " + a.ForeName
	default:
		return a.LastName
	}
}

// Journal identifies where the article was published.
type Journal struct {
	Title           string `json:"title" yaml:"title"`
	ISOAbbreviation string `json:"iso_abbreviation,omitempty" yaml:"iso_abbreviation,omitempty"`
	ISSN            string `json:"issn,omitempty" yaml:"issn,omitempty"`
	Volume          string `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue           string `json:"issue,omitempty" yaml:"issue,omitempty"`
	Pages           string `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// MeSHHeading is a Medical Subject Headings descriptor with its qualifiers.
type MeSHHeading struct {
	Descriptor   string   `json:"descriptor" yaml:"descriptor"`
	DescriptorUI string   `json:"descriptor_ui,omitempty" yaml:"descriptor_ui,omitempty"`
	MajorTopic   bool     `json:"major_topic" yaml:"major_topic"`
	Qualifiers   []string `json:"qualifiers,omitempty" yaml:"qualifiers,omitempty"`
}

// Grant is a funding entry.
type Grant struct {
	GrantID string `json:"grant_id,omitempty" yaml:"grant_id,omitempty"`
	Acronym string `json:"acronym,omitempty" yaml:"acronym,omitempty"`
	Agency  string `json:"agency,omitempty" yaml:"agency,omitempty"`
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
}

// Reference is a cited work from the article's reference list.
type Reference struct {
	Citation string `json:"citation" yaml:"citation"`
	PMID     string `json:"pmid,omitempty" yaml:"pmid,omitempty"`
	DOI      string `json:"doi,omitempty" yaml:"doi,omitempty"`
	PMCID    string `json:"pmcid,omitempty" yaml:"pmcid,omitempty"`
}

// Chemical is a substance from the article's chemical list.
type Chemical struct {
	Name           string `json:"name" yaml:"name"`
	RegistryNumber string `json:"registry_number,omitempty" yaml:"registry_number,omitempty"`
}
