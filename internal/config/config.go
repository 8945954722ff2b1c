// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves types.Config from defaults, an optional YAML
// file, .env files, ARXIV_DIGEST_* environment variables and the secrets
// directory, in increasing order of precedence (secrets only fill keys
// left empty).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/arxiv-digest/internal/logging"
	"github.com/pdiddy/arxiv-digest/internal/secrets"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// EnvPrefix namespaces environment overrides: ARXIV_DIGEST_SEARCH_MAX_RESULTS
// sets search.max_results.
const EnvPrefix = "ARXIV_DIGEST"

// Name is the config file base name searched for in "." and
// ~/.config/arxiv-digest/.
const Name = "arxiv-digest"

// EnvFiles are loaded into the process environment when present;
// later files do not override earlier values.
var EnvFiles = []string{".env", ".env.local"}

// Options tunes Load.
type Options struct {
	// File names an explicit config file. Empty means search the defaults.
	File string
	// SecretsDir overrides secrets.DefaultDir.
	SecretsDir string
	// Secrets, when non-nil, is used instead of reading SecretsDir.
	Secrets secrets.Set
}

// New returns a viper instance primed with defaults and env binding.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v, types.DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("http.constrained", d.HTTP.Constrained)
	v.SetDefault("http.routes", d.HTTP.Routes)
	v.SetDefault("http.cors_sh_api_key", d.HTTP.CorsShAPIKey)
	v.SetDefault("http.max_body_bytes", d.HTTP.MaxBodyBytes)
	v.SetDefault("retry.attempts", d.Retry.Attempts)
	v.SetDefault("retry.base_delay", d.Retry.BaseDelay)
	v.SetDefault("retry.multiplier", d.Retry.Multiplier)
	v.SetDefault("search.api_base", d.Search.APIBase)
	v.SetDefault("search.max_results", d.Search.MaxResults)
	v.SetDefault("search.keyword_max_results", d.Search.KeywordMaxResults)
	v.SetDefault("search.default_query", d.Search.DefaultQuery)
	v.SetDefault("listing.base_url", d.Listing.BaseURL)
	v.SetDefault("reconcile.concurrency", d.Reconcile.Concurrency)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("server.addr", d.Server.Addr)
}

// Load reads configuration into a types.Config. A missing config file is
// not an error unless opts.File names it explicitly.
func Load(v *viper.Viper, opts Options) (types.Config, error) {
	for _, f := range EnvFiles {
		_ = godotenv.Load(f)
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}

	sec := opts.Secrets
	if sec == nil {
		dir := opts.SecretsDir
		if dir == "" {
			dir = secrets.DefaultDir
		}
		loaded, err := secrets.Load(dir, os.Stderr)
		if err != nil {
			return types.Config{}, err
		}
		sec = loaded
	}
	cfg.HTTP.CorsShAPIKey = sec.Or(secrets.CorsShAPIKey, cfg.HTTP.CorsShAPIKey)

	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func Validate(cfg types.Config) error {
	var errs []error
	if cfg.Retry.Attempts < 1 {
		errs = append(errs, fmt.Errorf("retry.attempts must be at least 1, got %d", cfg.Retry.Attempts))
	}
	if cfg.Retry.BaseDelay < 0 {
		errs = append(errs, fmt.Errorf("retry.base_delay must not be negative"))
	}
	if cfg.Search.MaxResults < 1 || cfg.Search.KeywordMaxResults < 1 {
		errs = append(errs, fmt.Errorf("search result caps must be positive"))
	}
	if cfg.Search.APIBase == "" {
		errs = append(errs, fmt.Errorf("search.api_base is required"))
	}
	if cfg.Reconcile.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("reconcile.concurrency must be at least 1"))
	}
	switch strings.ToLower(cfg.Log.Format) {
	case logging.FormatConsole, logging.FormatJSON, "":
	default:
		errs = append(errs, fmt.Errorf("log.format must be %q or %q, got %q", logging.FormatConsole, logging.FormatJSON, cfg.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
