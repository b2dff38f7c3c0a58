// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config builds the pubmed-harvest configuration from environment
// variables, an optional .env file and an optional YAML config file.
//
// Settings are read through a caller-supplied *viper.Viper so tests and
// commands can substitute values without touching process state.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubmed-harvest/pkg/types"
)

// Setting names. They double as environment variable names.
const (
	KeyEmail        = "PUBMED_EMAIL"
	KeyTool         = "PUBMED_TOOL"
	KeyAPIKey       = "NCBI_API_KEY"
	KeyStoragePath  = "STORAGE_PATH"
	KeyPDFPath      = "PDF_STORAGE_PATH"
	KeyRequestDelay = "REQUEST_DELAY"
	KeyMaxRetries   = "MAX_RETRIES"
	KeyRetryDelay   = "RETRY_DELAY"
	KeyHTTPTimeout  = "HTTP_TIMEOUT"
	KeyRateLimiter  = "RATE_LIMITER"
	KeyFetchPDFs    = "FETCH_PDFS"
	KeyBackend      = "STORAGE_BACKEND"
	KeyCatalogPath  = "CATALOG_PATH"
	KeyMetricsFile  = "METRICS_FILE"
	KeyLogLevel     = "LOG_LEVEL"
	KeyLogFile      = "LOG_FILE"

	KeyMinIOEndpoint  = "MINIO_ENDPOINT"
	KeyMinIOAccessKey = "MINIO_ACCESS_KEY"
	KeyMinIOSecretKey = "MINIO_SECRET_KEY"
	KeyMinIOBucket    = "MINIO_BUCKET"
	KeyMinIOUseSSL    = "MINIO_USE_SSL"
)

const (
	DefaultStoragePath  = "./data"
	DefaultRequestDelay = 0.34
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 1.0
	DefaultHTTPTimeout  = 60.0
	DefaultUserAgent    = "pubmed-harvest/0.1"
)

// ErrConfig matches every *Error with errors.Is.
var ErrConfig = errors.New("configuration error")

// Error reports a missing or invalid setting.
type Error struct {
	Key    string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("config: %s %s", e.Key, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is ErrConfig.
func (e *Error) Is(target error) bool { return target == ErrConfig }

// CatalogDisabled turns the run catalog off when used as CATALOG_PATH.
const CatalogDisabled = "off"

// keys lists every setting bound to an environment variable.
var keys = []string{
	KeyEmail, KeyTool, KeyAPIKey, KeyStoragePath, KeyPDFPath,
	KeyRequestDelay, KeyMaxRetries, KeyRetryDelay, KeyHTTPTimeout,
	KeyRateLimiter, KeyFetchPDFs, KeyBackend, KeyCatalogPath,
	KeyMetricsFile, KeyLogLevel, KeyLogFile,
	KeyMinIOEndpoint, KeyMinIOAccessKey, KeyMinIOSecretKey,
	KeyMinIOBucket, KeyMinIOUseSSL,
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyStoragePath, DefaultStoragePath)
	v.SetDefault(KeyRequestDelay, DefaultRequestDelay)
	v.SetDefault(KeyMaxRetries, DefaultMaxRetries)
	v.SetDefault(KeyRetryDelay, DefaultRetryDelay)
	v.SetDefault(KeyHTTPTimeout, DefaultHTTPTimeout)
	v.SetDefault(KeyRateLimiter, string(types.LimiterFixed))
	v.SetDefault(KeyFetchPDFs, true)
	v.SetDefault(KeyBackend, string(types.BackendLocal))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyMinIOUseSSL, false)

	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads all settings from v and validates them. It fails with *Error
// when PUBMED_EMAIL or PUBMED_TOOL is absent or when a value cannot be
// parsed. Load performs no network I/O.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config

	email := strings.TrimSpace(v.GetString(KeyEmail))
	if email == "" {
		return cfg, &Error{Key: KeyEmail, Reason: "is required"}
	}
	tool := strings.TrimSpace(v.GetString(KeyTool))
	if tool == "" {
		return cfg, &Error{Key: KeyTool, Reason: "is required"}
	}

	requestDelay, err := seconds(v, KeyRequestDelay)
	if err != nil {
		return cfg, err
	}
	retryDelay, err := seconds(v, KeyRetryDelay)
	if err != nil {
		return cfg, err
	}
	timeout, err := seconds(v, KeyHTTPTimeout)
	if err != nil {
		return cfg, err
	}

	maxRetries, err := cast.ToIntE(v.Get(KeyMaxRetries))
	if err != nil {
		return cfg, &Error{Key: KeyMaxRetries, Reason: "must be an integer", Err: err}
	}
	if maxRetries < 1 {
		return cfg, &Error{Key: KeyMaxRetries, Reason: fmt.Sprintf("must be at least 1, got %d", maxRetries)}
	}

	fetchPDFs, err := cast.ToBoolE(v.Get(KeyFetchPDFs))
	if err != nil {
		return cfg, &Error{Key: KeyFetchPDFs, Reason: "must be a boolean", Err: err}
	}

	limiter := types.RateLimiterKind(strings.ToLower(v.GetString(KeyRateLimiter)))
	switch limiter {
	case types.LimiterFixed, types.LimiterToken:
	default:
		return cfg, &Error{Key: KeyRateLimiter, Reason: fmt.Sprintf("must be %q or %q, got %q", types.LimiterFixed, types.LimiterToken, limiter)}
	}

	storagePath := v.GetString(KeyStoragePath)
	pdfPath := v.GetString(KeyPDFPath)
	if pdfPath == "" {
		pdfPath = filepath.Join(storagePath, "pdfs")
	}
	catalogPath := filepath.Join(storagePath, "index", "catalog.db")
	if p := v.GetString(KeyCatalogPath); p != "" {
		catalogPath = p
	}
	if strings.EqualFold(catalogPath, CatalogDisabled) {
		catalogPath = ""
	}

	cfg = types.Config{
		PubMed: types.PubMedConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   timeout,
				UserAgent: DefaultUserAgent,
			},
			Email:        email,
			Tool:         tool,
			APIKey:       strings.TrimSpace(v.GetString(KeyAPIKey)),
			RequestDelay: requestDelay,
			RateLimiter:  limiter,
		},
		Download: types.DownloadConfig{
			MaxRetries: maxRetries,
			RetryDelay: retryDelay,
			Enabled:    fetchPDFs,
		},
		Storage: types.StorageConfig{
			Backend:     types.StorageBackend(strings.ToLower(v.GetString(KeyBackend))),
			Path:        storagePath,
			PDFPath:     pdfPath,
			CatalogPath: catalogPath,
		},
		Log: types.LogConfig{
			Level: v.GetString(KeyLogLevel),
			File:  v.GetString(KeyLogFile),
		},
		MetricsFile: v.GetString(KeyMetricsFile),
	}

	switch cfg.Storage.Backend {
	case types.BackendLocal:
	case types.BackendMinIO:
		useSSL, err := cast.ToBoolE(v.Get(KeyMinIOUseSSL))
		if err != nil {
			return cfg, &Error{Key: KeyMinIOUseSSL, Reason: "must be a boolean", Err: err}
		}
		cfg.Storage.MinIO = types.MinIOConfig{
			Endpoint:  v.GetString(KeyMinIOEndpoint),
			AccessKey: v.GetString(KeyMinIOAccessKey),
			SecretKey: v.GetString(KeyMinIOSecretKey),
			Bucket:    v.GetString(KeyMinIOBucket),
			UseSSL:    useSSL,
		}
		required := []struct{ key, val string }{
			{KeyMinIOEndpoint, cfg.Storage.MinIO.Endpoint},
			{KeyMinIOAccessKey, cfg.Storage.MinIO.AccessKey},
			{KeyMinIOSecretKey, cfg.Storage.MinIO.SecretKey},
			{KeyMinIOBucket, cfg.Storage.MinIO.Bucket},
		}
		for _, r := range required {
			if r.val == "" {
				return cfg, &Error{Key: r.key, Reason: "is required when STORAGE_BACKEND is minio"}
			}
		}
	default:
		return cfg, &Error{Key: KeyBackend, Reason: fmt.Sprintf("must be %q or %q, got %q", types.BackendLocal, types.BackendMinIO, cfg.Storage.Backend)}
	}

	return cfg, nil
}

// seconds reads a non-negative number of seconds and converts it to a Duration.
func seconds(v *viper.Viper, key string) (time.Duration, error) {
	f, err := cast.ToFloat64E(v.Get(key))
	if err != nil {
		return 0, &Error{Key: key, Reason: "must be a number of seconds", Err: err}
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &Error{Key: key, Reason: fmt.Sprintf("must be a non-negative number of seconds, got %v", f)}
	}
	return time.Duration(math.Round(f * float64(time.Second))), nil
}
