// Package config loads comicbridge configuration. Sources are layered with
// the following precedence, highest first:
//
//  1. Command-line flags.
//  2. Environment variables (COMICBRIDGE_MYLAR_URL, ...).
//  3. A .env file.
//  4. The config file (config.json by default; JSON or YAML).
//  5. Default values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "COMICBRIDGE"

// Default file locations.
const (
	DefaultConfigFile = "config.json"
	DefaultEnvFile    = ".env"
)

// Config holds the application configuration. The file layout is
// {"mylar": {...}, "kapowarr": {...}, "options": {...}}.
type Config struct {
	Mylar    MylarConfig    `mapstructure:"mylar" json:"mylar" yaml:"mylar"`
	Kapowarr KapowarrConfig `mapstructure:"kapowarr" json:"kapowarr" yaml:"kapowarr"`
	Options  OptionsConfig  `mapstructure:"options" json:"options" yaml:"options"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" json:"-" yaml:"-"`
}

// MylarConfig holds the source catalog connection.
type MylarConfig struct {
	URL     string        `mapstructure:"url" json:"url" yaml:"url" validate:"required,url"`
	APIKey  string        `mapstructure:"api_key" json:"api_key" yaml:"api_key" validate:"required"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout" validate:"gte=0"`
}

// KapowarrConfig holds the destination catalog connection and file layout.
// ContainerRoot is the root folder path as Kapowarr reports it from inside
// its container; Root is the same directory on this host.
type KapowarrConfig struct {
	URL           string        `mapstructure:"url" json:"url" yaml:"url" validate:"required,url"`
	APIKey        string        `mapstructure:"api_key" json:"api_key" yaml:"api_key" validate:"required"`
	RootFolderID  int           `mapstructure:"root_folder_id" json:"root_folder_id" yaml:"root_folder_id" validate:"gte=0"`
	Root          string        `mapstructure:"root" json:"root" yaml:"root" validate:"required"`
	ContainerRoot string        `mapstructure:"container_root" json:"container_root" yaml:"container_root" validate:"required,startswith=/"`
	Timeout       time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout" validate:"gte=0"`
}

// OptionsConfig holds run options.
type OptionsConfig struct {
	CopyFiles   bool `mapstructure:"copy_files" json:"copy_files" yaml:"copy_files"`
	RefreshScan bool `mapstructure:"refresh_scan" json:"refresh_scan" yaml:"refresh_scan"`
	MassRename  bool `mapstructure:"mass_rename" json:"mass_rename" yaml:"mass_rename"`
	DryRun      bool `mapstructure:"dry_run" json:"dry_run" yaml:"dry_run"`
	Limit       int  `mapstructure:"limit" json:"limit" yaml:"limit" validate:"gte=0"`

	// Delay is the minimum number of seconds between source calls.
	Delay int `mapstructure:"delay" json:"delay" yaml:"delay" validate:"gte=0"`

	LogLevel  string `mapstructure:"log_level" json:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat string `mapstructure:"log_format" json:"log_format" yaml:"log_format" validate:"oneof=pretty json"`

	// HistoryDB is the SQLite audit log path; empty disables history.
	HistoryDB string `mapstructure:"history_db" json:"history_db" yaml:"history_db"`
}

// DelayDuration returns Delay as a duration.
func (o OptionsConfig) DelayDuration() time.Duration {
	return time.Duration(o.Delay) * time.Second
}

// defaults lists every key with its default value. Keys not listed here are
// invisible to environment lookups.
var defaults = map[string]any{
	"mylar.url":               "",
	"mylar.api_key":           "",
	"mylar.timeout":           "60s",
	"kapowarr.url":            "",
	"kapowarr.api_key":        "",
	"kapowarr.root_folder_id": 0,
	"kapowarr.root":           "/mnt/user/data/media/kapowarr",
	"kapowarr.container_root": "/comics-1",
	"kapowarr.timeout":        "60s",
	"options.copy_files":      false,
	"options.refresh_scan":    false,
	"options.mass_rename":     false,
	"options.dry_run":         false,
	"options.limit":           0,
	"options.delay":           20,
	"options.log_level":       "info",
	"options.log_format":      "pretty",
	"options.history_db":      "",
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"mylar-url":        "mylar.url",
	"mylar-api-key":    "mylar.api_key",
	"mylar-timeout":    "mylar.timeout",
	"kapowarr-url":     "kapowarr.url",
	"kapowarr-api-key": "kapowarr.api_key",
	"root-folder-id":   "kapowarr.root_folder_id",
	"kapowarr-root":    "kapowarr.root",
	"container-root":   "kapowarr.container_root",
	"kapowarr-timeout": "kapowarr.timeout",
	"copy-files":       "options.copy_files",
	"refresh-scan":     "options.refresh_scan",
	"mass-rename":      "options.mass_rename",
	"dry-run":          "options.dry_run",
	"limit":            "options.limit",
	"delay":            "options.delay",
	"log-level":        "options.log_level",
	"log-format":       "options.log_format",
	"history-db":       "options.history_db",
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// ConfigFile is an explicit config file; it must exist. When empty,
	// DefaultConfigFile is read if present.
	ConfigFile string

	// EnvFile is loaded into the process environment if it exists.
	// Variables already set are not overridden.
	EnvFile string

	// Flags are bound by name; only flags the user set override other sources.
	Flags *pflag.FlagSet
}

// Load builds a Config from all sources. It does not validate; call
// Validate with the scope of the command being run.
func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFile, err := readConfigFile(v, opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if flag := opts.Flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = configFile
	cfg.Options.LogLevel = strings.ToLower(cfg.Options.LogLevel)
	cfg.Options.LogFormat = strings.ToLower(cfg.Options.LogFormat)
	cfg.Mylar.URL = strings.TrimRight(cfg.Mylar.URL, "/")
	cfg.Kapowarr.URL = strings.TrimRight(cfg.Kapowarr.URL, "/")

	return &cfg, nil
}

// readConfigFile reads path, or DefaultConfigFile when path is empty and
// that file exists. It returns the file actually read.
func readConfigFile(v *viper.Viper, path string) (string, error) {
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			return "", nil
		}
		path = DefaultConfigFile
	}

	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("read config file %s: %w", path, err)
	}
	return path, nil
}
