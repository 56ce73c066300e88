// Package config loads the job's tunables (spec.md §4.4, §8's Open
// Question: "SKIP and FILTER_LIMIT [should be exposed] as configuration,
// not constants") via viper, following the teacher's config-loading
// conventions.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds every tunable the BHR/ANR pipelines and the driver need.
type Config struct {
	// SKIP samples 1-in-(SKIP+1) raw records at map time; surviving counts
	// are scaled by SKIP+1. Zero disables sampling.
	SKIP int64 `mapstructure:"skip"`
	// FilterLimit is the top-K distinct (thread,stack) fingerprints kept
	// per dimension by the filter pass (spec.md §4.4, default 10).
	FilterLimit int `mapstructure:"filter_limit"`
	// BuildIDCutoff drops any ping whose appBuildID sorts below it
	// (lexicographic, since buildIDs are "%Y%m%d%H%M%S"-shaped).
	BuildIDCutoff string `mapstructure:"buildid_cutoff"`
	// ReducerCutoff is the minimum total count an aggregated key must reach
	// to be emitted (spec.md §4.4, §7 invariant 7, default 10).
	ReducerCutoff int64 `mapstructure:"reducer_cutoff"`

	NumMappers  int `mapstructure:"num_mappers"`
	NumReducers int `mapstructure:"num_reducers"`

	// Provider selects which pingstore backend serves Bucket: "s3", "gcs",
	// or "azure" (where Bucket names the container).
	Provider string `mapstructure:"provider"`
	Bucket   string `mapstructure:"bucket"`

	SymbolServer   string `mapstructure:"symbol_server"`
	SymbolFTPUser  string `mapstructure:"symbol_ftp_user"`
	MobileFTPHost  string `mapstructure:"mobile_ftp_host"`
	DesktopSymURL  string `mapstructure:"desktop_symbol_url"`
}

// Default returns the job's out-of-the-box tunables, matching the richest
// surviving variant's implicit behavior (SKIP=0, FILTER_LIMIT=10).
func Default() Config {
	return Config{
		FilterLimit:   10,
		ReducerCutoff: 10,
		NumMappers:    32,
		NumReducers:   8,
		Provider:      "s3",
		Bucket:        "telemetry-published-v2",
		MobileFTPHost: "ftp.mozilla.org",
		DesktopSymURL: "https://symbols.mozilla.org",
	}
}

// Load reads YAML configuration from path (if non-empty) over the
// defaults, and lets HANGRD_-prefixed environment variables override
// individual keys (teacher convention: viper + env + yaml, AutomaticEnv).
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("HANGRD")
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("skip", cfg.SKIP)
	v.SetDefault("filter_limit", cfg.FilterLimit)
	v.SetDefault("buildid_cutoff", cfg.BuildIDCutoff)
	v.SetDefault("reducer_cutoff", cfg.ReducerCutoff)
	v.SetDefault("num_mappers", cfg.NumMappers)
	v.SetDefault("num_reducers", cfg.NumReducers)
	v.SetDefault("provider", cfg.Provider)
	v.SetDefault("bucket", cfg.Bucket)
	v.SetDefault("symbol_server", cfg.SymbolServer)
	v.SetDefault("symbol_ftp_user", cfg.SymbolFTPUser)
	v.SetDefault("mobile_ftp_host", cfg.MobileFTPHost)
	v.SetDefault("desktop_symbol_url", cfg.DesktopSymURL)
}
