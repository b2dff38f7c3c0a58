// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed is a client for the NCBI E-utilities API: ESearch,
// ESummary, EFetch and ELink against the pubmed database, plus PDF
// retrieval from PubMed Central.
//
// Every request waits on a pace.Pacer first. The client never retries;
// failures surface as *UpstreamError.
package pubmed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/pdiddy/pubmed-harvest/internal/httputil"
	"github.com/pdiddy/pubmed-harvest/internal/pace"
	"github.com/pdiddy/pubmed-harvest/pkg/types"
)

// Base URLs. Declared as vars so tests can substitute httptest servers.
var (
	eutilsBase     = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"
	pmcArticleBase = "https://www.ncbi.nlm.nih.gov/pmc/articles/"
)

// Operation names used in errors, logs and metrics.
const (
	OpSearch  = "esearch"
	OpSummary = "esummary"
	OpFetch   = "efetch"
	OpLink    = "elink"
	OpPDF     = "pmc-pdf"
)

var (
	// ErrNotFound reports that upstream answered but had no record for the ID.
	ErrNotFound = errors.New("record not found")

	// ErrNotPDF reports a full-text response that is not a PDF document.
	ErrNotPDF = errors.New("response is not a PDF")
)

// UpstreamError reports a failed or unsuccessful E-utilities call.
type UpstreamError struct {
	Op string
	// ID is the PMID or query the call was about.
	ID string
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("pubmed %s %q: HTTP %d: %v", e.Op, e.ID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("pubmed %s %q: %v", e.Op, e.ID, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Observer is called once per upstream request with its outcome.
type Observer func(op string, err error)

// Client talks to E-utilities.
type Client struct {
	http  *http.Client
	cfg   types.PubMedConfig
	pacer pace.Pacer
	log   *zap.Logger

	// Observe, when set, receives the outcome of every request.
	Observe Observer
}

// NewClient returns a client. A nil pacer disables pacing and a nil logger
// discards logs.
func NewClient(httpClient *http.Client, cfg types.PubMedConfig, pacer pace.Pacer, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if pacer == nil {
		pacer = pace.NewFixedDelay(0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{http: httpClient, cfg: cfg, pacer: pacer, log: log}
}

// baseParams returns the identification parameters NCBI asks every caller to send.
func (c *Client) baseParams() url.Values {
	v := url.Values{
		"tool":  {c.cfg.Tool},
		"email": {c.cfg.Email},
	}
	if c.cfg.APIKey != "" {
		v.Set("api_key", c.cfg.APIKey)
	}
	return v
}

// eutil calls an E-utilities endpoint (e.g. "esearch.fcgi") with params.
func (c *Client) eutil(ctx context.Context, op, endpoint, id string, params url.Values) ([]byte, error) {
	q := c.baseParams()
	for k, vs := range params {
		q[k] = vs
	}
	return c.get(ctx, op, id, eutilsBase+endpoint+"?"+q.Encode(), "")
}

// get waits on the pacer, then performs one GET.
func (c *Client) get(ctx context.Context, op, id, rawURL, accept string) ([]byte, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	c.log.Debug("upstream request",
		zap.String("op", op),
		zap.String("id", id),
		zap.String("url", httputil.RedactURL(rawURL)))

	body, err := httputil.Get(ctx, c.http, httputil.Request{
		URL:       rawURL,
		UserAgent: c.cfg.UserAgent,
		Accept:    accept,
	})
	if err != nil {
		err = c.upstreamError(op, id, err)
	}
	if c.Observe != nil {
		c.Observe(op, err)
	}
	return body, err
}

func (c *Client) upstreamError(op, id string, err error) *UpstreamError {
	ue := &UpstreamError{Op: op, ID: id, Err: err}
	var se *httputil.StatusError
	if errors.As(err, &se) {
		ue.StatusCode = se.StatusCode
	}
	return ue
}

// failed wraps a failure found in the payload of a successful response.
func failed(op, id string, err error) error {
	return &UpstreamError{Op: op, ID: id, Err: err}
}
