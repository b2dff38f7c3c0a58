// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package process sequences a harvest run: search, then fetch and store
// each article in turn. A failure on one article is recorded in the run
// summary and never aborts the rest of the batch.
package process

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/pubmed-harvest/internal/download"
	"github.com/pdiddy/pubmed-harvest/internal/pubmed"
	"github.com/pdiddy/pubmed-harvest/pkg/types"
)

// Source is the subset of the PubMed client the processor uses.
type Source interface {
	Search(ctx context.Context, query string, maxResults int) (types.SearchResult, error)
	FetchSummary(ctx context.Context, id string) (*types.Article, error)
	FetchRecord(ctx context.Context, id string) (*pubmed.Record, error)
	FetchPDF(ctx context.Context, pmcid string) ([]byte, error)
	FetchFullText(ctx context.Context, id string) ([]byte, error)
}

// Store persists run artifacts.
type Store interface {
	SaveXML(ctx context.Context, id string, raw []byte) (string, error)
	SaveMetadata(ctx context.Context, a *types.Article) (string, error)
	SavePDF(ctx context.Context, id string, data []byte) (string, error)
	SaveSearchLog(ctx context.Context, l types.SearchLog) (string, error)
	SaveRunSummary(ctx context.Context, sum types.ProcessSummary) (string, error)
}

// Recorder keeps a history of runs.
type Recorder interface {
	RecordRun(ctx context.Context, sum types.ProcessSummary) error
}

// Observer receives run-level counts, typically *metrics.Metrics.
type Observer interface {
	SetFound(n int)
	ObserveArticle(succeeded bool)
}

// Processor runs searches and per-article fetch-and-store.
type Processor struct {
	source    Source
	retrier   *download.Retrier
	store     Store
	recorder  Recorder
	observer  Observer
	log       *zap.Logger
	fetchPDFs bool

	now   func() time.Time
	newID func() string
}

// Option configures a Processor.
type Option func(*Processor)

// WithRecorder records every finished run.
func WithRecorder(r Recorder) Option {
	return func(p *Processor) { p.recorder = r }
}

// WithObserver reports run counts.
func WithObserver(o Observer) Option {
	return func(p *Processor) { p.observer = o }
}

// WithPDFs enables or disables full-text downloads. Enabled by default.
func WithPDFs(enabled bool) Option {
	return func(p *Processor) { p.fetchPDFs = enabled }
}

// New returns a Processor. A nil retrier uses download defaults and a nil
// logger discards logs.
func New(source Source, retrier *download.Retrier, store Store, log *zap.Logger, opts ...Option) *Processor {
	if retrier == nil {
		retrier = &download.Retrier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &Processor{
		source:    source,
		retrier:   retrier,
		store:     store,
		log:       log,
		fetchPDFs: true,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SearchAndProcess searches for query and processes up to maxResults
// articles (pubmed.DefaultMaxResults when zero). TotalArticlesFound is the
// upstream match count, raised to the number of returned IDs when the
// upstream count is missing or smaller. Only a failed search or a cancelled context
// returns an error; per-article failures are counted in the summary.
func (p *Processor) SearchAndProcess(ctx context.Context, query string, maxResults int) (types.ProcessSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.ProcessSummary{}, fmt.Errorf("query is empty")
	}
	if maxResults < 0 {
		return types.ProcessSummary{}, fmt.Errorf("max results must not be negative, got %d", maxResults)
	}
	if maxResults == 0 {
		maxResults = pubmed.DefaultMaxResults
	}

	searchID := p.newID()
	log := p.log.With(zap.String("search_id", searchID))
	log.Info("searching", zap.String("query", query), zap.Int("max_results", maxResults))

	res, err := p.source.Search(ctx, query, maxResults)
	if err != nil {
		return types.ProcessSummary{SearchID: searchID, Query: query, ProcessedAt: p.now()},
			fmt.Errorf("searching %q: %w", query, err)
	}
	if p.observer != nil {
		p.observer.SetFound(res.Count)
	}
	log.Info("search returned", zap.Int("found", res.Count), zap.Int("returned", len(res.IDs)))

	if path, err := p.store.SaveSearchLog(ctx, types.SearchLog{
		SearchID:     searchID,
		Timestamp:    p.now().UTC(),
		MaxResults:   maxResults,
		SearchResult: res,
	}); err != nil {
		log.Error("saving search log", zap.Error(err))
	} else {
		log.Debug("search log saved", zap.String("path", path))
	}

	sum := types.ProcessSummary{
		SearchID:           searchID,
		Query:              query,
		TotalArticlesFound: max(res.Count, len(res.IDs)),
	}
	err = p.run(ctx, log, &sum, res.IDs)
	return sum, err
}

// ProcessIDs fetches and stores the given articles without searching.
// Identifiers are normalized with pubmed.ParseID; unparseable ones are
// counted as failed. TotalArticlesFound is the number of unique IDs.
func (p *Processor) ProcessIDs(ctx context.Context, ids []string) (types.ProcessSummary, error) {
	searchID := p.newID()
	log := p.log.With(zap.String("search_id", searchID))

	sum := types.ProcessSummary{SearchID: searchID}
	var valid []string
	seen := map[string]bool{}
	for _, raw := range ids {
		id, err := pubmed.ParseID(raw)
		if err != nil {
			sum.Add(types.ArticleOutcome{PMID: raw, Error: err.Error()})
			sum.Returned++
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		valid = append(valid, id)
	}
	sum.TotalArticlesFound = len(valid) + sum.FailedProcessing

	err := p.run(ctx, log, &sum, valid)
	return sum, err
}

// run processes ids in order, then persists the summary. Persisting uses a
// context detached from cancellation so an interrupted run is still recorded.
func (p *Processor) run(ctx context.Context, log *zap.Logger, sum *types.ProcessSummary, ids []string) error {
	var runErr error
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		log.Info("processing article", zap.String("pmid", id), zap.Int("n", i+1), zap.Int("of", len(ids)))

		outcome := p.processArticle(ctx, log, id)
		if !outcome.Succeeded && isCancel(ctx, outcome.err) {
			runErr = ctx.Err()
			break
		}
		sum.Returned++
		sum.Add(outcome.ArticleOutcome)
		if p.observer != nil {
			p.observer.ObserveArticle(outcome.Succeeded)
		}
		if outcome.Succeeded {
			log.Info("article stored", zap.String("pmid", id), zap.Bool("pdf", outcome.HasPDF()))
		} else {
			log.Warn("article failed", zap.String("pmid", id), zap.Error(outcome.err))
		}
	}
	sum.ProcessedAt = p.now().UTC()

	finishCtx := context.WithoutCancel(ctx)
	if path, err := p.store.SaveRunSummary(finishCtx, *sum); err != nil {
		log.Error("saving run summary", zap.Error(err))
	} else {
		log.Debug("run summary saved", zap.String("path", path))
	}
	if p.recorder != nil {
		if err := p.recorder.RecordRun(finishCtx, *sum); err != nil {
			log.Error("recording run in catalog", zap.Error(err))
		}
	}

	log.Info("run complete",
		zap.Int("found", sum.TotalArticlesFound),
		zap.Int("succeeded", sum.SuccessfullyProcessed),
		zap.Int("failed", sum.FailedProcessing),
		zap.Int("pdfs", sum.PDFsSaved))
	return runErr
}

// outcome pairs the recorded outcome with the error that caused a failure.
type outcome struct {
	types.ArticleOutcome
	err error
}

func failure(o types.ArticleOutcome, err error) outcome {
	o.Succeeded = false
	o.Error = err.Error()
	return outcome{ArticleOutcome: o, err: err}
}

// processArticle fetches metadata, the XML record and optionally the PDF
// for one article, writing each file as soon as it is available. Files
// written before a failure are kept.
func (p *Processor) processArticle(ctx context.Context, log *zap.Logger, id string) outcome {
	o := types.ArticleOutcome{PMID: id}

	summary, err := p.source.FetchSummary(ctx, id)
	if err != nil {
		return failure(o, err)
	}
	rec, err := p.source.FetchRecord(ctx, id)
	if err != nil {
		return failure(o, err)
	}
	article := rec.Article
	pubmed.Merge(article, summary)
	article.PMID = id
	o.Title = article.Title
	logArticle(log, article)

	if o.XMLPath, err = p.store.SaveXML(ctx, id, rec.XML); err != nil {
		return failure(o, err)
	}
	if o.SummaryPath, err = p.store.SaveMetadata(ctx, article); err != nil {
		return failure(o, err)
	}

	if p.fetchPDFs {
		data, err := p.retrier.Fetch(ctx, id, func(ctx context.Context) ([]byte, error) {
			if article.PMCID != "" {
				return p.source.FetchPDF(ctx, article.PMCID)
			}
			return p.source.FetchFullText(ctx, id)
		})
		if err != nil {
			return failure(o, err)
		}
		if data == nil {
			log.Debug("no full text available", zap.String("pmid", id))
		} else if o.PDFPath, err = p.store.SavePDF(ctx, id, data); err != nil {
			return failure(o, err)
		}
	}

	o.Succeeded = true
	return outcome{ArticleOutcome: o}
}

func logArticle(log *zap.Logger, a *types.Article) {
	log.Debug("article details",
		zap.String("pmid", a.PMID),
		zap.String("title", a.Title),
		zap.String("doi", a.DOI),
		zap.String("journal", a.Journal.Title),
		zap.Int("authors", len(a.Authors)),
		zap.Int("mesh_headings", len(a.MeSHHeadings)),
		zap.Int("references", len(a.References)))
}

func isCancel(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}
