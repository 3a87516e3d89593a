package config

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultAPIURL is the reputation service's v2 API root.
	DefaultAPIURL = "https://www.virustotal.com/vtapi/v2"

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerMinute is the public API allowance.
	// Private API keys can raise it or set 0 to disable throttling.
	DefaultRequestsPerMinute = 4

	// DefaultConcurrency processes canonical types one after another.
	DefaultConcurrency = 1

	// DefaultReportFormat writes the result table as CSV.
	DefaultReportFormat = "csv"

	// AppName is the application name used for XDG directory paths.
	AppName = "vtlookup"

	// DefaultUserAgent identifies vtlookup in HTTP requests.
	DefaultUserAgent = "vtlookup/1.0 (+https://github.com/nao1215/vtlookup)"

	// DefaultMaxBodySize limits the response body size to read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// Default input column names.
	DefaultObservableColumn  = "Observable"
	DefaultTypeColumn        = "IoCType"
	DefaultSourceIndexColumn = "SourceIndex"
)

// reportFormats are the accepted report format names.
var reportFormats = []string{"csv", "json", "markdown", "md", "text", "txt"}

// Config holds all configuration options for vtlookup.
// It is populated from defaults, the config file, the environment and CLI
// flags, in that order, and passed down explicitly.
type Config struct {
	// === Service ===

	// APIKey is the reputation service API key. It is never logged.
	APIKey string

	// APIURL is the API root, overridable for testing or proxies.
	APIURL string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// RequestsPerMinute is the outgoing request budget. 0 disables it.
	RequestsPerMinute int

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	// Set to 0 to use the default.
	MaxBodySize int64

	// === Lookup ===

	// Concurrency is how many canonical types are looked up in parallel.
	Concurrency int

	// ObservableColumn, TypeColumn and SourceIndexColumn name the input columns.
	ObservableColumn  string
	TypeColumn        string
	SourceIndexColumn string

	// TypeAliases maps canonical type names to the labels used in the input.
	TypeAliases map[string]string

	// InputFile is the input path for batch lookups.
	InputFile string

	// InputFormat is the input format; empty means guess from the extension.
	InputFormat string

	// === Output ===

	// ReportFormat is csv, json, markdown or text.
	ReportFormat string

	// ReportFile is the output path. Empty means stdout.
	ReportFile string

	// Verbose enables debug logging and verbose text reports.
	Verbose bool

	// === Archive ===

	// SaveToDB stores each run in the SQLite archive.
	SaveToDB bool

	// DBDir is the archive directory. Defaults to the XDG data directory.
	DBDir string

	// ConfigFilePath is the path to the configuration file.
	// If empty, .vtlookup is searched in the current and home directories.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		APIURL:            DefaultAPIURL,
		Timeout:           DefaultTimeout,
		RequestsPerMinute: DefaultRequestsPerMinute,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		Concurrency:       DefaultConcurrency,
		ObservableColumn:  DefaultObservableColumn,
		TypeColumn:        DefaultTypeColumn,
		SourceIndexColumn: DefaultSourceIndexColumn,
		TypeAliases:       make(map[string]string),
		ReportFormat:      DefaultReportFormat,
		DBDir:             XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for vtlookup.
// On Linux: ~/.local/share/vtlookup
// On macOS: ~/Library/Application Support/vtlookup
// On Windows: %LOCALAPPDATA%\vtlookup
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for vtlookup.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the settings every command needs and returns the first
// problem found. Input checks are left to the commands that take input.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrNoAPIKey
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.RequestsPerMinute < 0 {
		return ErrInvalidRequestsPerMinute
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if !slices.Contains(reportFormats, strings.ToLower(c.ReportFormat)) {
		return ErrInvalidReportFormat
	}

	return nil
}

// ValidateBatch runs Validate and also requires an input file.
func (c *Config) ValidateBatch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.InputFile == "" {
		return ErrNoInput
	}
	return nil
}
