package types

import "time"

// HTTPConfig holds settings for the endpoint fetcher.
type HTTPConfig struct {
	// Timeout bounds each individual request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent identifies the runtime client. When it matches a mobile
	// browser signature the fetcher tries a direct request first.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// Constrained forces the direct-first attempt regardless of UserAgent.
	Constrained bool `json:"constrained" yaml:"constrained" mapstructure:"constrained"`

	// Routes names the fallback route chain in priority order
	// (direct, allorigins, corsproxy, corssh).
	Routes []string `json:"routes" yaml:"routes" mapstructure:"routes"`

	// CorsShAPIKey is sent to proxy.cors.sh when set.
	CorsShAPIKey string `json:"cors_sh_api_key,omitempty" yaml:"cors_sh_api_key,omitempty" mapstructure:"cors_sh_api_key"`

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// RetryConfig configures the exponential backoff used for the listing page.
type RetryConfig struct {
	Attempts   int           `json:"attempts" yaml:"attempts" mapstructure:"attempts"`
	BaseDelay  time.Duration `json:"base_delay" yaml:"base_delay" mapstructure:"base_delay"`
	Multiplier float64       `json:"multiplier" yaml:"multiplier" mapstructure:"multiplier"`
}

// SearchConfig holds settings for the arXiv search API.
type SearchConfig struct {
	// APIBase is the Atom query endpoint.
	APIBase string `json:"api_base" yaml:"api_base" mapstructure:"api_base"`

	// MaxResults caps window and title searches (default 1000).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// KeywordMaxResults caps keyword searches (default 100).
	KeywordMaxResults int `json:"keyword_max_results" yaml:"keyword_max_results" mapstructure:"keyword_max_results"`

	// DefaultQuery is used when a window search is given no expression.
	DefaultQuery string `json:"default_query" yaml:"default_query" mapstructure:"default_query"`
}

// ListingConfig holds settings for the secondary daily listing source.
type ListingConfig struct {
	// BaseURL is the listing site root; the daily page is BaseURL/papers?date=.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
}

// ReconcileConfig bounds supplemental lookups.
type ReconcileConfig struct {
	// Concurrency is the maximum number of lookups in flight (default 8).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// StoreConfig locates the SQLite database of tags, saved queries and
// digest results.
type StoreConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	// Level is trace, debug, info, warn, error, or disabled.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is console or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// Config groups all settings.
type Config struct {
	HTTP      HTTPConfig      `json:"http" yaml:"http" mapstructure:"http"`
	Retry     RetryConfig     `json:"retry" yaml:"retry" mapstructure:"retry"`
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Listing   ListingConfig   `json:"listing" yaml:"listing" mapstructure:"listing"`
	Reconcile ReconcileConfig `json:"reconcile" yaml:"reconcile" mapstructure:"reconcile"`
	Store     StoreConfig     `json:"store" yaml:"store" mapstructure:"store"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
}

// DefaultQuery is the search expression used when none is configured.
const DefaultQuery = `(cat:cs.CL OR cat:cs.CV OR cat:cs.AI) AND (abs:"language model" OR abs:"LLM" OR abs:"MLLM" OR abs:"large language model" OR abs:"small language model")`

// DefaultConfig returns the configuration used when no file or
// environment override is present.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:      60 * time.Second,
			UserAgent:    "arxiv-digest/0.1",
			Routes:       []string{"allorigins", "corsproxy", "corssh"},
			MaxBodyBytes: 32 << 20,
		},
		Retry: RetryConfig{
			Attempts:   3,
			BaseDelay:  1000 * time.Millisecond,
			Multiplier: 2,
		},
		Search: SearchConfig{
			APIBase:           "https://export.arxiv.org/api/query",
			MaxResults:        1000,
			KeywordMaxResults: 100,
			DefaultQuery:      DefaultQuery,
		},
		Listing: ListingConfig{
			BaseURL: "https://huggingface.co",
		},
		Reconcile: ReconcileConfig{
			Concurrency: 8,
		},
		Store: StoreConfig{
			Path: "arxiv-digest.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
