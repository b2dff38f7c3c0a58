// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubmed-harvest/internal/pace"
	"github.com/pdiddy/pubmed-harvest/pkg/types"
)

// overrideBaseURLs points the package-level base URLs at the test server
// and returns a cleanup function that restores the originals.
func overrideBaseURLs(tsURL string) func() {
	origEutils := eutilsBase
	origPMC := pmcArticleBase

	eutilsBase = tsURL + "/eutils/"
	pmcArticleBase = tsURL + "/pmc/"

	return func() {
		eutilsBase = origEutils
		pmcArticleBase = origPMC
	}
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func testConfig() types.PubMedConfig {
	return types.PubMedConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "pubmed-harvest-test"},
		Email:      "dev@example.org",
		Tool:       "pubmed-harvest",
	}
}

// fakeEutils serves canned E-utilities responses and records request queries.
type fakeEutils struct {
	t *testing.T

	mu      sync.Mutex
	queries map[string][]string

	esearch  []byte
	esummary []byte
	efetch   []byte
	elink    string
	pdf      []byte
	status   int
}

func newFakeEutils(t *testing.T) *fakeEutils {
	return &fakeEutils{
		t:        t,
		queries:  map[string][]string{},
		esearch:  readFixture(t, "esearch.json"),
		esummary: readFixture(t, "esummary.json"),
		efetch:   readFixture(t, "efetch.xml"),
		elink:    `{"linksets":[{"dbfrom":"pubmed","ids":["36912345"],"linksetdbs":[{"dbto":"pmc","linkname":"pubmed_pmc","links":["9876543"]}]}]}`,
		pdf:      []byte("%PDF-1.7 fake"),
	}
}

func (f *fakeEutils) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.queries[r.URL.Path] = append(f.queries[r.URL.Path], r.URL.RawQuery)
	f.mu.Unlock()

	if f.status != 0 {
		http.Error(w, "upstream unavailable", f.status)
		return
	}
	switch {
	case r.URL.Path == "/eutils/esearch.fcgi":
		w.Write(f.esearch)
	case r.URL.Path == "/eutils/esummary.fcgi":
		w.Write(f.esummary)
	case r.URL.Path == "/eutils/efetch.fcgi":
		w.Header().Set("Content-Type", "text/xml")
		w.Write(f.efetch)
	case r.URL.Path == "/eutils/elink.fcgi":
		w.Write([]byte(f.elink))
	case strings.HasPrefix(r.URL.Path, "/pmc/") && strings.HasSuffix(r.URL.Path, "/pdf/"):
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(f.pdf)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeEutils) query(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	qs := f.queries[path]
	if len(qs) == 0 {
		return ""
	}
	return qs[len(qs)-1]
}

func newTestClient(t *testing.T, fake *fakeEutils) *Client {
	t.Helper()
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)
	t.Cleanup(overrideBaseURLs(ts.URL))
	return NewClient(ts.Client(), testConfig(), nil, nil)
}

// --- Search ---

func TestSearch(t *testing.T) {
	fake := newFakeEutils(t)
	c := newTestClient(t, fake)

	res, err := c.Search(context.Background(), "  crispr  ", 10)
	require.NoError(t, err)
	assert.Equal(t, "crispr", res.Query)
	assert.Equal(t, 532, res.Count)
	assert.Equal(t, []string{"36912345", "36900001", "36800002"}, res.IDs, "duplicates removed, order kept")
	assert.Equal(t, `"crispr"[All Fields]`, res.QueryTranslation)

	q := fake.query("/eutils/esearch.fcgi")
	for _, want := range []string{"db=pubmed", "term=crispr", "retmax=10", "retmode=json", "tool=pubmed-harvest", "email=dev%40example.org"} {
		assert.Contains(t, q, want)
	}
	assert.NotContains(t, q, "api_key")
}

func TestSearch_TruncatesToMaxResults(t *testing.T) {
	c := newTestClient(t, newFakeEutils(t))

	res, err := c.Search(context.Background(), "crispr", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"36912345", "36900001"}, res.IDs)
	assert.Equal(t, 532, res.Count)
}

func TestSearch_DefaultMaxResults(t *testing.T) {
	fake := newFakeEutils(t)
	c := newTestClient(t, fake)

	_, err := c.Search(context.Background(), "crispr", 0)
	require.NoError(t, err)
	assert.Contains(t, fake.query("/eutils/esearch.fcgi"), "retmax=10")
}

func TestSearch_SendsAPIKey(t *testing.T) {
	fake := newFakeEutils(t)
	ts := httptest.NewServer(fake)
	defer ts.Close()
	defer overrideBaseURLs(ts.URL)()

	cfg := testConfig()
	cfg.APIKey = "secret-key"
	c := NewClient(ts.Client(), cfg, nil, nil)

	_, err := c.Search(context.Background(), "crispr", 5)
	require.NoError(t, err)
	assert.Contains(t, fake.query("/eutils/esearch.fcgi"), "api_key=secret-key")
}

func TestSearch_EmptyResult(t *testing.T) {
	fake := newFakeEutils(t)
	fake.esearch = []byte(`{"esearchresult":{"count":"0","retmax":"0","idlist":[]}}`)
	c := newTestClient(t, fake)

	res, err := c.Search(context.Background(), "zzzzqqq", 10)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)
	assert.Empty(t, res.IDs)
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   int
	}{
		{name: "http 500", status: http.StatusInternalServerError, code: 500},
		{name: "http 429", status: http.StatusTooManyRequests, code: 429},
		{name: "malformed json", body: `{"esearchresult":`},
		{name: "upstream error field", body: `{"esearchresult":{"ERROR":"Invalid query"}}`},
		{name: "bad count", body: `{"esearchresult":{"count":"many","idlist":[]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeEutils(t)
			fake.status = tt.status
			if tt.body != "" {
				fake.esearch = []byte(tt.body)
			}
			c := newTestClient(t, fake)

			_, err := c.Search(context.Background(), "crispr", 10)
			require.Error(t, err)
			var ue *UpstreamError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, OpSearch, ue.Op)
			assert.Equal(t, tt.code, ue.StatusCode)
		})
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	fake := newFakeEutils(t)
	c := newTestClient(t, fake)

	_, err := c.Search(context.Background(), "   ", 10)
	require.Error(t, err)
	assert.Empty(t, fake.query("/eutils/esearch.fcgi"), "no request for an empty query")
}

func TestSearch_Observer(t *testing.T) {
	fake := newFakeEutils(t)
	c := newTestClient(t, fake)
	var ops []string
	c.Observe = func(op string, err error) {
		assert.NoError(t, err)
		ops = append(ops, op)
	}

	_, err := c.Search(context.Background(), "crispr", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{OpSearch}, ops)
}

// --- FetchSummary ---

func TestFetchSummary(t *testing.T) {
	fake := newFakeEutils(t)
	c := newTestClient(t, fake)

	a, err := c.FetchSummary(context.Background(), "36912345")
	require.NoError(t, err)
	assert.Equal(t, "36912345", a.PMID)
	assert.Equal(t, "CRISPR screens in Mus musculus & human cells.", a.Title)
	assert.Equal(t, []string{"Smith J", "Doe JR"}, a.Authors, "collective names are not persons")
	assert.Equal(t, "Nature", a.Journal.Title)
	assert.Equal(t, "615", a.Journal.Volume)
	assert.Equal(t, "0028-0836", a.Journal.ISSN)
	assert.Equal(t, "10.1038/s41586-023-05555-1", a.DOI)
	assert.Equal(t, "PMC9876543", a.PMCID)
	assert.Equal(t, "eng", a.Language)
	assert.Equal(t, "2023 Mar 14", a.PubDate)
	assert.Equal(t, time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC), a.PublishedDate)
	assert.Contains(t, fake.query("/eutils/esummary.fcgi"), "id=36912345")
}

func TestFetchSummary_NotFound(t *testing.T) {
	fake := newFakeEutils(t)
	fake.esummary = []byte(`{"result":{"uids":[],"99999999":{"uid":"99999999","error":"cannot get document summary"}}}`)
	c := newTestClient(t, fake)

	_, err := c.FetchSummary(context.Background(), "99999999")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, OpSummary, ue.Op)
	assert.Equal(t, "99999999", ue.ID)
}

func TestFetchSummary_MissingDocument(t *testing.T) {
	fake := newFakeEutils(t)
	fake.esummary = []byte(`{"result":{"uids":[]}}`)
	c := newTestClient(t, fake)

	_, err := c.FetchSummary(context.Background(), "1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSummaryDate(t *testing.T) {
	tests := []struct {
		name string
		doc  esummaryDoc
		want time.Time
	}{
		{"sort date", esummaryDoc{SortPubDate: "2020/07/09 00:00", PubDate: "2019"}, time.Date(2020, 7, 9, 0, 0, 0, 0, time.UTC)},
		{"pubdate day", esummaryDoc{PubDate: "2021 Feb 3"}, time.Date(2021, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"pubdate month", esummaryDoc{PubDate: "2021 Feb"}, time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"season", esummaryDoc{PubDate: "2021 Spring"}, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"epubdate fallback", esummaryDoc{EPubDate: "2022 Dec 24"}, time.Date(2022, 12, 24, 0, 0, 0, 0, time.UTC)},
		{"none", esummaryDoc{}, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, summaryDate(tt.doc))
		})
	}
}

// --- FetchRecord ---

func TestFetchRecord(t *testing.T) {
	fake := newFakeEutils(t)
	c := newTestClient(t, fake)

	rec, err := c.FetchRecord(context.Background(), "36912345")
	require.NoError(t, err)
	assert.Equal(t, fake.efetch, rec.XML, "raw XML is kept as served")
	assert.Contains(t, fake.query("/eutils/efetch.fcgi"), "retmode=xml")

	a := rec.Article
	assert.Equal(t, "36912345", a.PMID)
	assert.Equal(t, "CRISPR screens in Mus musculus & human cells.", a.Title)
	assert.Equal(t, "BACKGROUND: Gene editing is widely used.\n\nRESULTS: We found 42 hits.", a.Abstract)
	assert.Equal(t, []string{"Smith, Jane", "Doe", "CRISPR Consortium"}, a.Authors)
	require.Len(t, a.AuthorDetails, 3)
	assert.Equal(t, []string{"Broad Institute, Cambridge, MA, USA."}, a.AuthorDetails[0].Affiliations)
	assert.Equal(t, "Nature", a.Journal.Title)
	assert.Equal(t, "7951", a.Journal.Issue)
	assert.Equal(t, "123-130", a.Journal.Pages)
	assert.Equal(t, "2023 Mar 14", a.PubDate)
	assert.Equal(t, time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC), a.PublishedDate)
	assert.Equal(t, "10.1038/s41586-023-05555-1", a.DOI)
	assert.Equal(t, "PMC9876543", a.PMCID)
	assert.Equal(t, "eng", a.Language)
	assert.Equal(t, []string{"gene editing", "screens"}, a.Keywords)
	assert.Equal(t, []string{"Journal Article"}, a.PublicationTypes)

	require.Len(t, a.MeSHHeadings, 2)
	assert.Equal(t, types.MeSHHeading{
		Descriptor: "CRISPR-Cas Systems", DescriptorUI: "D064113", MajorTopic: true, Qualifiers: []string{"genetics"},
	}, a.MeSHHeadings[0])
	assert.False(t, a.MeSHHeadings[1].MajorTopic)

	require.Len(t, a.Grants, 1)
	assert.Equal(t, "R01 GM123456", a.Grants[0].GrantID)
	require.Len(t, a.Chemicals, 1)
	assert.Equal(t, "CRISPR-Associated Protein 9", a.Chemicals[0].Name)
	require.Len(t, a.References, 1)
	assert.Equal(t, "22745249", a.References[0].PMID)
	assert.Equal(t, "10.1126/science.1225829", a.References[0].DOI)
}

func TestFetchRecord_EmptySet(t *testing.T) {
	fake := newFakeEutils(t)
	fake.efetch = []byte(`<?xml version="1.0" ?><PubmedArticleSet></PubmedArticleSet>`)
	c := newTestClient(t, fake)

	_, err := c.FetchRecord(context.Background(), "1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchRecord_MalformedXML(t *testing.T) {
	fake := newFakeEutils(t)
	fake.efetch = []byte(`<PubmedArticleSet><PubmedArticle>`)
	c := newTestClient(t, fake)

	_, err := c.FetchRecord(context.Background(), "1")
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, OpFetch, ue.Op)
}

func TestXMLDate(t *testing.T) {
	tests := []struct {
		name string
		d    xmlDate
		str  string
		want time.Time
	}{
		{"full", xmlDate{Year: "2023", Month: "Mar", Day: "14"}, "2023 Mar 14", time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"numeric month", xmlDate{Year: "2023", Month: "04", Day: "20"}, "2023 04 20", time.Date(2023, 4, 20, 0, 0, 0, 0, time.UTC)},
		{"year only", xmlDate{Year: "2019"}, "2019", time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"medline date", xmlDate{MedlineDate: "2018 Nov-Dec"}, "2018 Nov-Dec", time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"empty", xmlDate{}, "", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.str, tt.d.String())
			assert.Equal(t, tt.want, tt.d.Time())
		})
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "H2O & CO2 < 5", cleanText("H<sub>2</sub>O &amp; CO<sub>2</sub> &lt; 5"))
	assert.Equal(t, "a b", cleanText("  a\n\t b  "))
}

// --- Full text ---

func TestResolvePMCID(t *testing.T) {
	fake := newFakeEutils(t)
	c := newTestClient(t, fake)

	pmcid, err := c.ResolvePMCID(context.Background(), "36912345")
	require.NoError(t, err)
	assert.Equal(t, "PMC9876543", pmcid)
	q := fake.query("/eutils/elink.fcgi")
	assert.Contains(t, q, "dbfrom=pubmed")
	assert.Contains(t, q, "linkname=pubmed_pmc")
}

func TestResolvePMCID_NoLink(t *testing.T) {
	fake := newFakeEutils(t)
	fake.elink = `{"linksets":[{"dbfrom":"pubmed","ids":["1"]}]}`
	c := newTestClient(t, fake)

	pmcid, err := c.ResolvePMCID(context.Background(), "1")
	require.NoError(t, err)
	assert.Empty(t, pmcid)
}

func TestFetchFullText(t *testing.T) {
	fake := newFakeEutils(t)
	c := newTestClient(t, fake)

	data, err := c.FetchFullText(context.Background(), "36912345")
	require.NoError(t, err)
	assert.Equal(t, fake.pdf, data)
	assert.NotNil(t, fake.queries["/pmc/PMC9876543/pdf/"])
}

func TestFetchFullText_NoPMCRecord(t *testing.T) {
	fake := newFakeEutils(t)
	fake.elink = `{"linksets":[{"dbfrom":"pubmed","ids":["1"],"linksetdbs":[]}]}`
	c := newTestClient(t, fake)

	data, err := c.FetchFullText(context.Background(), "1")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestFetchPDF_NotPDF(t *testing.T) {
	fake := newFakeEutils(t)
	fake.pdf = []byte("<html>Preparing to download...</html>")
	c := newTestClient(t, fake)

	_, err := c.FetchPDF(context.Background(), "PMC9876543")
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestFetchPDF_HTTPError(t *testing.T) {
	fake := newFakeEutils(t)
	fake.status = http.StatusForbidden
	c := newTestClient(t, fake)

	_, err := c.FetchPDF(context.Background(), "9876543")
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, OpPDF, ue.Op)
	assert.Equal(t, "PMC9876543", ue.ID)
	assert.Equal(t, http.StatusForbidden, ue.StatusCode)
}

func TestNormalizePMCID(t *testing.T) {
	tests := map[string]string{
		"PMC123":   "PMC123",
		"pmc123":   "PMC123",
		"123":      "PMC123",
		" PMC9 ":   "PMC9",
		"PMC":      "",
		"":         "",
		"PMC12a":   "",
		"NIHMS123": "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePMCID(in), "input %q", in)
	}
}

// --- Pacing ---

func TestClient_WaitsOnPacer(t *testing.T) {
	fake := newFakeEutils(t)
	ts := httptest.NewServer(fake)
	defer ts.Close()
	defer overrideBaseURLs(ts.URL)()

	delay := 40 * time.Millisecond
	c := NewClient(ts.Client(), testConfig(), pace.NewFixedDelay(delay), nil)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.FetchSummary(context.Background(), "36912345")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 2*delay)
}

func TestClient_CancelledContext(t *testing.T) {
	fake := newFakeEutils(t)
	c := newTestClient(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Search(ctx, "crispr", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
