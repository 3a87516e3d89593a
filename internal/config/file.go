package config

import "time"

// Columns names the input columns in the config file.
type Columns struct {
	Observable  string `yaml:"observable,omitempty"`
	Type        string `yaml:"type,omitempty"`
	SourceIndex string `yaml:"source_index,omitempty"`
}

// File represents the structure of the .vtlookup configuration file.
// Unset fields leave the current value alone.
type File struct {
	// APIKey is accepted for convenience; the environment is preferred.
	APIKey string `yaml:"api_key,omitempty"`

	APIURL            string        `yaml:"api_url,omitempty"`
	Timeout           time.Duration `yaml:"timeout,omitempty"`
	RequestsPerMinute *int          `yaml:"requests_per_minute,omitempty"`
	Proxy             string        `yaml:"proxy,omitempty"`
	UserAgent         string        `yaml:"user_agent,omitempty"`
	MaxBodySize       int64         `yaml:"max_body_size,omitempty"`
	Concurrency       int           `yaml:"concurrency,omitempty"`

	// Columns renames the input columns.
	Columns Columns `yaml:"columns,omitempty"`

	// TypeAliases maps canonical type names to input labels,
	// e.g. md5_hash: FileHash-MD5.
	TypeAliases map[string]string `yaml:"type_aliases,omitempty"`

	ReportFormat string `yaml:"report_format,omitempty"`
	DBDir        string `yaml:"db_dir,omitempty"`
}

// Apply copies the values set in the file onto the config.
// RequestsPerMinute is a pointer so that an explicit 0 can disable the budget.
func (f *File) Apply(c *Config) {
	if f.APIKey != "" {
		c.APIKey = f.APIKey
	}
	if f.APIURL != "" {
		c.APIURL = f.APIURL
	}
	if f.Timeout != 0 {
		c.Timeout = f.Timeout
	}
	if f.RequestsPerMinute != nil {
		c.RequestsPerMinute = *f.RequestsPerMinute
	}
	if f.Proxy != "" {
		c.ProxyAddress = f.Proxy
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.MaxBodySize != 0 {
		c.MaxBodySize = f.MaxBodySize
	}
	if f.Concurrency != 0 {
		c.Concurrency = f.Concurrency
	}
	if f.Columns.Observable != "" {
		c.ObservableColumn = f.Columns.Observable
	}
	if f.Columns.Type != "" {
		c.TypeColumn = f.Columns.Type
	}
	if f.Columns.SourceIndex != "" {
		c.SourceIndexColumn = f.Columns.SourceIndex
	}
	if len(f.TypeAliases) > 0 {
		if c.TypeAliases == nil {
			c.TypeAliases = make(map[string]string, len(f.TypeAliases))
		}
		for k, v := range f.TypeAliases {
			c.TypeAliases[k] = v
		}
	}
	if f.ReportFormat != "" {
		c.ReportFormat = f.ReportFormat
	}
	if f.DBDir != "" {
		c.DBDir = f.DBDir
	}
}
