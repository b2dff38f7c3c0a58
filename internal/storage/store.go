// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package storage writes article metadata, raw XML, PDFs and search logs
// to a key-is-filename layout:
//
//	metadata/xml/<id>.xml
//	metadata/summary/<id>.json
//	metadata/searches/<query-hash>.json
//	metadata/searches/<query-hash>_summary.json
//	<pdf-dir>/<id>.pdf
//
// There is no index and no deduplication; existing files are overwritten.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/pubmed-harvest/pkg/types"
)

// Directory keys relative to the metadata root.
const (
	DirXML      = "metadata/xml"
	DirSummary  = "metadata/summary"
	DirSearches = "metadata/searches"
	DirPDFs     = "pdfs"
)

// Layout lists every directory the store writes to, for initialization.
var Layout = []string{DirPDFs, DirXML, DirSummary, DirSearches}

// MetadataTypeSummary labels article metadata files.
const MetadataTypeSummary = "summary"

// Error reports a failed write.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Observer is called after every successful write with the byte count.
type Observer func(kind string, bytes int)

// Store writes domain records through two backends: one for metadata and
// search logs, one for PDFs. Both may be the same backend.
type Store struct {
	meta Backend
	pdfs Backend
	log  *zap.Logger
	now  func() time.Time

	// Observe, when set, is notified of every completed write.
	Observe Observer
}

// New returns a Store. A nil logger discards logs.
func New(meta, pdfs Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{meta: meta, pdfs: pdfs, log: log, now: time.Now}
}

// Open builds the Store selected by cfg. For the local backend metadata
// goes under cfg.Path and PDFs under cfg.PDFPath. For MinIO both share the
// bucket, with PDFs under the "pdfs/" prefix.
func Open(ctx context.Context, cfg types.StorageConfig, log *zap.Logger) (*Store, error) {
	switch cfg.Backend {
	case "", types.BackendLocal:
		return New(NewFSBackend(cfg.Path), NewFSBackend(cfg.PDFPath), log), nil
	case types.BackendMinIO:
		meta, err := NewMinIOBackend(ctx, cfg.MinIO, "")
		if err != nil {
			return nil, err
		}
		pdfs := &MinIOBackend{client: meta.client, bucket: meta.bucket, prefix: DirPDFs}
		return New(meta, pdfs, log), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// SaveXML writes the raw EFetch XML for an article.
func (s *Store) SaveXML(ctx context.Context, id string, raw []byte) (string, error) {
	return s.put(ctx, s.meta, "xml", path.Join(DirXML, id+".xml"), raw, "application/xml")
}

// metadataFile is the on-disk form of article metadata.
type metadataFile struct {
	*types.Article
	SavedAt      time.Time `json:"saved_at"`
	MetadataType string    `json:"metadata_type"`
}

// SaveMetadata writes an article as indented JSON, adding saved_at and
// metadata_type fields.
func (s *Store) SaveMetadata(ctx context.Context, a *types.Article) (string, error) {
	if a == nil || a.PMID == "" {
		return "", &Error{Op: "metadata", Err: fmt.Errorf("article has no PMID")}
	}
	key := path.Join(DirSummary, a.PMID+".json")
	data, err := json.MarshalIndent(metadataFile{
		Article:      a,
		SavedAt:      s.now().UTC(),
		MetadataType: MetadataTypeSummary,
	}, "", "  ")
	if err != nil {
		return "", &Error{Op: "metadata", Key: key, Err: err}
	}
	return s.put(ctx, s.meta, "metadata", key, data, "application/json")
}

// SavePDF writes a PDF to the PDF backend.
func (s *Store) SavePDF(ctx context.Context, id string, data []byte) (string, error) {
	return s.put(ctx, s.pdfs, "pdf", id+".pdf", data, "application/pdf")
}

// SaveSearchLog writes a search log named by the hash of its query.
// QueryHash and Timestamp are filled in when empty.
func (s *Store) SaveSearchLog(ctx context.Context, l types.SearchLog) (string, error) {
	if l.QueryHash == "" {
		l.QueryHash = QueryHash(l.Query)
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = s.now().UTC()
	}
	key := path.Join(DirSearches, l.QueryHash+".json")
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return "", &Error{Op: "search", Key: key, Err: err}
	}
	return s.put(ctx, s.meta, "search", key, data, "application/json")
}

// SaveRunSummary writes the outcome of a run next to its search log. Runs
// without a query are named by search ID.
func (s *Store) SaveRunSummary(ctx context.Context, sum types.ProcessSummary) (string, error) {
	name := sum.SearchID
	if sum.Query != "" {
		name = QueryHash(sum.Query)
	}
	key := path.Join(DirSearches, name+"_summary.json")
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return "", &Error{Op: "summary", Key: key, Err: err}
	}
	return s.put(ctx, s.meta, "summary", key, data, "application/json")
}

func (s *Store) put(ctx context.Context, b Backend, kind, key string, data []byte, contentType string) (string, error) {
	loc, err := b.Put(ctx, key, data, contentType)
	if err != nil {
		return "", &Error{Op: kind, Key: key, Err: err}
	}
	s.log.Debug("saved file", zap.String("kind", kind), zap.String("path", loc), zap.Int("bytes", len(data)))
	if s.Observe != nil {
		s.Observe(kind, len(data))
	}
	return loc, nil
}

// QueryHash returns the hex encoding of the first 8 bytes of the query's
// SHA-256 digest.
func QueryHash(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:8])
}
