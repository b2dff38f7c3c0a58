// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog records harvest runs and the latest outcome per article
// in a SQLite database, so past runs can be listed without scanning the
// storage tree.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pubmed-harvest/pkg/types"
)

// ErrNotFound reports that no row matched.
var ErrNotFound = errors.New("not found")

// Run is one row of the runs table.
type Run struct {
	SearchID    string    `json:"search_id" yaml:"search_id"`
	Query       string    `json:"query" yaml:"query"`
	ProcessedAt time.Time `json:"processed_time" yaml:"processed_time"`
	TotalFound  int       `json:"total_articles_found" yaml:"total_articles_found"`
	Returned    int       `json:"returned" yaml:"returned"`
	Succeeded   int       `json:"successfully_processed" yaml:"successfully_processed"`
	Failed      int       `json:"failed_processing" yaml:"failed_processing"`
	PDFs        int       `json:"pdfs_saved" yaml:"pdfs_saved"`
	FailedIDs   []string  `json:"failed_pmids,omitempty" yaml:"failed_pmids,omitempty"`
}

// Article is the latest recorded outcome for a PMID.
type Article struct {
	PMID        string    `json:"pmid" yaml:"pmid"`
	Title       string    `json:"title" yaml:"title"`
	XMLPath     string    `json:"xml_path,omitempty" yaml:"xml_path,omitempty"`
	SummaryPath string    `json:"summary_path,omitempty" yaml:"summary_path,omitempty"`
	PDFPath     string    `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`
	Succeeded   bool      `json:"succeeded" yaml:"succeeded"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
	LastRun     string    `json:"last_run" yaml:"last_run"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// Catalog is the run catalog database.
type Catalog struct {
	db *sql.DB
}

// Open opens or creates the catalog at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	c := &Catalog{db: db}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return c, nil
}

// Close releases the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			search_id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			processed_at TEXT NOT NULL,
			total_found INTEGER NOT NULL,
			returned INTEGER NOT NULL,
			succeeded INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			pdfs INTEGER NOT NULL,
			failed_ids TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_processed_at ON runs(processed_at)`,
		`CREATE TABLE IF NOT EXISTS articles (
			pmid TEXT PRIMARY KEY,
			title TEXT,
			xml_path TEXT,
			summary_path TEXT,
			pdf_path TEXT,
			succeeded INTEGER NOT NULL,
			error TEXT,
			last_run TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun stores a run and upserts every article outcome in one
// transaction. An article that failed keeps the paths of an earlier
// successful run.
func (c *Catalog) RecordRun(ctx context.Context, sum types.ProcessSummary) error {
	if sum.SearchID == "" {
		return fmt.Errorf("run has no search ID")
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	processedAt := sum.ProcessedAt.UTC().Format(time.RFC3339Nano)
	failedJSON, _ := json.Marshal(sum.FailedIDs)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (search_id, query, processed_at, total_found, returned, succeeded, failed, pdfs, failed_ids)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(search_id) DO UPDATE SET
			query=excluded.query, processed_at=excluded.processed_at,
			total_found=excluded.total_found, returned=excluded.returned,
			succeeded=excluded.succeeded, failed=excluded.failed,
			pdfs=excluded.pdfs, failed_ids=excluded.failed_ids`,
		sum.SearchID, sum.Query, processedAt, sum.TotalArticlesFound, sum.Returned,
		sum.SuccessfullyProcessed, sum.FailedProcessing, sum.PDFsSaved, string(failedJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO articles (pmid, title, xml_path, summary_path, pdf_path, succeeded, error, last_run, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(pmid) DO UPDATE SET
			title=COALESCE(NULLIF(excluded.title, ''), articles.title),
			xml_path=COALESCE(NULLIF(excluded.xml_path, ''), articles.xml_path),
			summary_path=COALESCE(NULLIF(excluded.summary_path, ''), articles.summary_path),
			pdf_path=COALESCE(NULLIF(excluded.pdf_path, ''), articles.pdf_path),
			succeeded=excluded.succeeded, error=excluded.error,
			last_run=excluded.last_run, updated_at=excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("preparing article upsert: %w", err)
	}
	defer stmt.Close()

	for _, a := range sum.Articles {
		_, err := stmt.ExecContext(ctx,
			a.PMID, a.Title, a.XMLPath, a.SummaryPath, a.PDFPath,
			boolInt(a.Succeeded), a.Error, sum.SearchID, processedAt,
		)
		if err != nil {
			return fmt.Errorf("upserting article %s: %w", a.PMID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// Runs returns up to limit runs, newest first. A non-positive limit returns all.
func (c *Catalog) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT search_id, query, processed_at, total_found, returned, succeeded, failed, pdfs, failed_ids
		 FROM runs ORDER BY processed_at DESC, search_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r           Run
			processedAt string
			failedIDs   sql.NullString
		)
		if err := rows.Scan(&r.SearchID, &r.Query, &processedAt, &r.TotalFound, &r.Returned,
			&r.Succeeded, &r.Failed, &r.PDFs, &failedIDs); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.ProcessedAt, _ = time.Parse(time.RFC3339Nano, processedAt)
		if failedIDs.Valid && failedIDs.String != "" {
			_ = json.Unmarshal([]byte(failedIDs.String), &r.FailedIDs)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Article returns the latest outcome recorded for pmid.
func (c *Catalog) Article(ctx context.Context, pmid string) (Article, error) {
	var (
		a         Article
		succeeded int
		updatedAt string
		title     sql.NullString
		xmlPath   sql.NullString
		sumPath   sql.NullString
		pdfPath   sql.NullString
		errText   sql.NullString
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT pmid, title, xml_path, summary_path, pdf_path, succeeded, error, last_run, updated_at
		 FROM articles WHERE pmid = ?`, pmid,
	).Scan(&a.PMID, &title, &xmlPath, &sumPath, &pdfPath, &succeeded, &errText, &a.LastRun, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Article{}, fmt.Errorf("article %s: %w", pmid, ErrNotFound)
	}
	if err != nil {
		return Article{}, fmt.Errorf("querying article %s: %w", pmid, err)
	}
	a.Title = title.String
	a.XMLPath = xmlPath.String
	a.SummaryPath = sumPath.String
	a.PDFPath = pdfPath.String
	a.Error = errText.String
	a.Succeeded = succeeded != 0
	a.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return a, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
