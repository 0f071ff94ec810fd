package config

import (
	"os"
	"sort"
	"strings"

	"codeberg.org/mutker/powertrace/internal/errors"
	"codeberg.org/mutker/powertrace/internal/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel  = "info"
	DefaultFormat    = FormatText
	DefaultBatchSize = 100

	// EnvPrefix prefixes environment overrides, e.g. POWERTRACE_FORMAT.
	EnvPrefix = "POWERTRACE"
)

type Config struct {
	Trace       string
	Start       *float64
	End         *float64
	FreqDomains [][]int
	Clusters    []Cluster
	LogLevel    string
	Format      Format
	Store       string
	BatchSize   int
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"trace":        "trace",
	"start":        "start",
	"end":          "end",
	"freq-domains": "freq_domains",
	"log-level":    "log_level",
	"format":       "format",
	"store":        "store",
	"batch-size":   "batch_size",
}

// RegisterFlags defines the flags Load knows how to bind on fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("trace", "t", "", "Path to the ftrace text file")
	fs.Float64("start", 0, "Start of the analysis window (default: first event)")
	fs.Float64("end", 0, "End of the analysis window (default: last event)")
	fs.StringSlice("freq-domains", nil, "Frequency domains as CPU lists, e.g. 0-3,4-7 (repeatable)")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.StringP("format", "f", string(DefaultFormat), "Output format (text, csv, yaml)")
	fs.String("store", "", "Record results in this SQLite database")
	fs.Int("batch-size", DefaultBatchSize, "Rows buffered before the report store flushes")
}

// Load reads configuration from the config file, the environment and the
// flags in fs, in increasing order of precedence. fs may be nil.
func Load(fs *pflag.FlagSet, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	var o options
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("format", string(DefaultFormat))
	v.SetDefault("batch_size", DefaultBatchSize)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	path := o.configPath
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("powertrace")
		v.AddConfigPath("/etc/powertrace")
		v.AddConfigPath("$HOME/.config/powertrace")
	}
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	if fs != nil {
		for flag, key := range flagKeys {
			f := fs.Lookup(flag)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errFactory.Wrap(errors.ErrBindFlags, err)
			}
		}
	}

	cfg := &Config{
		Trace:     v.GetString("trace"),
		LogLevel:  v.GetString("log_level"),
		Format:    Format(v.GetString("format")),
		Store:     v.GetString("store"),
		BatchSize: v.GetInt("batch_size"),
	}
	if v.IsSet("start") {
		start := v.GetFloat64("start")
		cfg.Start = &start
	}
	if v.IsSet("end") {
		end := v.GetFloat64("end")
		cfg.End = &end
	}

	for _, d := range v.GetStringSlice("freq_domains") {
		cpus, err := ParseCPUList(d)
		if err != nil {
			return nil, err
		}
		cfg.FreqDomains = append(cfg.FreqDomains, cpus)
	}

	for name, list := range v.GetStringMapString("clusters") {
		cpus, err := ParseCPUList(list)
		if err != nil {
			return nil, err
		}
		cfg.Clusters = append(cfg.Clusters, Cluster{Name: name, CPUs: cpus})
	}
	sort.Slice(cfg.Clusters, func(i, j int) bool {
		return cfg.Clusters[i].CPUs[0] < cfg.Clusters[j].CPUs[0]
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	errFactory := errors.New()

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if !c.Format.IsValid() {
		return errFactory.WithData(errors.ErrInvalidFormat, c.Format)
	}
	if c.Start != nil && c.End != nil && *c.Start > *c.End {
		return errFactory.WithMessage(errors.ErrInvalidWindow, "start must not be after end")
	}
	if c.BatchSize <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "batch_size must be positive")
	}

	return nil
}
