package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pubmed-harvest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RateLimiterKind selects the pacing strategy applied before each request.
type RateLimiterKind string

const (
	LimiterFixed RateLimiterKind = "fixed"
	LimiterToken RateLimiterKind = "token"
)

// PubMedConfig holds the settings for the E-utilities client.
type PubMedConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email and Tool identify the caller to NCBI. Both are required.
	Email string `json:"email" yaml:"email"`
	Tool  string `json:"tool" yaml:"tool"`

	// APIKey is an optional NCBI API key that raises the upstream rate limit.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RequestDelay is the minimum spacing between consecutive requests (default 340ms).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// RateLimiter selects fixed-delay pacing or a token bucket.
	RateLimiter RateLimiterKind `json:"rate_limiter" yaml:"rate_limiter"`
}

// DownloadConfig holds the bounded-retry settings for PDF downloads.
type DownloadConfig struct {
	// MaxRetries is the total number of attempts per PDF (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryDelay is the fixed pause between attempts (default 1s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`

	// Enabled controls whether full-text PDFs are fetched at all.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// StorageBackend selects where files are written.
type StorageBackend string

const (
	BackendLocal StorageBackend = "local"
	BackendMinIO StorageBackend = "minio"
)

// MinIOConfig holds S3-compatible object storage settings.
type MinIOConfig struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	AccessKey string `json:"access_key,omitempty" yaml:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty"`
	Bucket    string `json:"bucket" yaml:"bucket"`
	UseSSL    bool   `json:"use_ssl" yaml:"use_ssl"`
}

// StorageConfig holds the storage layout settings.
type StorageConfig struct {
	Backend StorageBackend `json:"backend" yaml:"backend"`

	// Path is the base directory for metadata (contains metadata/xml,
	// metadata/summary, metadata/searches).
	Path string `json:"path" yaml:"path"`

	// PDFPath is the directory PDFs are written to.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	MinIO MinIOConfig `json:"minio" yaml:"minio"`

	// CatalogPath is the SQLite catalog file; empty disables the catalog.
	CatalogPath string `json:"catalog_path" yaml:"catalog_path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `json:"level" yaml:"level"`

	// File, when set, sends logs to a rotated file instead of stderr.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Config groups every component's settings. It is built once at startup and
// passed by value to constructors.
type Config struct {
	PubMed   PubMedConfig   `json:"pubmed" yaml:"pubmed"`
	Download DownloadConfig `json:"download" yaml:"download"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Log      LogConfig      `json:"log" yaml:"log"`

	// MetricsFile is a Prometheus textfile written after each run; empty disables it.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`
}
