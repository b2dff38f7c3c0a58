// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/pubmed-harvest/internal/catalog"
	"github.com/pdiddy/pubmed-harvest/internal/config"
	"github.com/pdiddy/pubmed-harvest/internal/download"
	"github.com/pdiddy/pubmed-harvest/internal/logging"
	"github.com/pdiddy/pubmed-harvest/internal/metrics"
	"github.com/pdiddy/pubmed-harvest/internal/pace"
	"github.com/pdiddy/pubmed-harvest/internal/process"
	"github.com/pdiddy/pubmed-harvest/internal/pubmed"
	"github.com/pdiddy/pubmed-harvest/internal/storage"
	"github.com/pdiddy/pubmed-harvest/pkg/types"
)

// app holds the components wired from one loaded configuration.
type app struct {
	cfg     types.Config
	log     *zap.Logger
	client  *pubmed.Client
	retrier *download.Retrier
	metrics *metrics.Metrics

	store   *storage.Store
	catalog *catalog.Catalog

	closeLog func()
}

// newClientApp loads configuration and builds the logger, pacer and API
// client. Configuration errors surface here, before any network call.
func newClientApp() (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if version != "dev" {
		cfg.PubMed.UserAgent = "pubmed-harvest/" + version
	}

	log, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return nil, &config.Error{Key: config.KeyLogLevel, Reason: "is invalid", Err: err}
	}

	pacer, err := pace.New(cfg.PubMed)
	if err != nil {
		closeLog()
		return nil, err
	}

	m := metrics.New()
	client := pubmed.NewClient(&http.Client{Timeout: cfg.PubMed.Timeout}, cfg.PubMed, pacer, log.Named("pubmed"))
	client.Observe = m.ObserveRequest

	retrier := download.NewRetrier(cfg.Download, log.Named("download"))
	retrier.Observe = m.ObserveDownload

	return &app{
		cfg:      cfg,
		log:      log,
		client:   client,
		retrier:  retrier,
		metrics:  m,
		closeLog: closeLog,
	}, nil
}

// newApp additionally opens storage and the run catalog.
func newApp(ctx context.Context) (*app, error) {
	a, err := newClientApp()
	if err != nil {
		return nil, err
	}

	a.store, err = storage.Open(ctx, a.cfg.Storage, a.log.Named("storage"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	a.store.Observe = a.metrics.ObserveStored

	if a.cfg.Storage.CatalogPath != "" {
		a.catalog, err = catalog.Open(a.cfg.Storage.CatalogPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("opening catalog: %w", err)
		}
	}
	return a, nil
}

// processor builds the orchestrator. fetchPDFs is combined with FETCH_PDFS.
func (a *app) processor(fetchPDFs bool) *process.Processor {
	opts := []process.Option{
		process.WithObserver(a.metrics),
		process.WithPDFs(fetchPDFs && a.cfg.Download.Enabled),
	}
	if a.catalog != nil {
		opts = append(opts, process.WithRecorder(a.catalog))
	}
	return process.New(a.client, a.retrier, a.store, a.log.Named("process"), opts...)
}

// Close writes the metrics textfile, closes the catalog and flushes logs.
func (a *app) Close() {
	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			a.log.Warn("writing metrics textfile", zap.String("path", a.cfg.MetricsFile), zap.Error(err))
		}
	}
	if a.catalog != nil {
		if err := a.catalog.Close(); err != nil {
			a.log.Warn("closing catalog", zap.Error(err))
		}
	}
	if a.closeLog != nil {
		a.closeLog()
	}
}
