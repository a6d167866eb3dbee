// Package config holds the settings of the cmimpute command, loaded by
// viper from defaults, a YAML file, CMIMPUTE_* environment variables and
// flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/brookluers/cmimpute/impute"
	"github.com/brookluers/cmimpute/survival"
)

// EnvPrefix is prepended to environment variable names.
const EnvPrefix = "CMIMPUTE"

// ErrInvalid is returned for settings that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// LogConfig controls the logrus output.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Config is the full configuration.
type Config struct {
	Time        string   `mapstructure:"time" yaml:"time"`
	Event       string   `mapstructure:"event" yaml:"event"`
	Covariates  []string `mapstructure:"covariates" yaml:"covariates"`
	Tail        string   `mapstructure:"tail" yaml:"tail"`
	BeforeFirst string   `mapstructure:"before_first" yaml:"before_first"`

	// Multiple imputation
	M       int    `mapstructure:"m" yaml:"m"`
	Seed    uint64 `mapstructure:"seed" yaml:"seed"`
	Workers int    `mapstructure:"workers" yaml:"workers"`
	Formula string `mapstructure:"formula" yaml:"formula"`

	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// Default returns the built-in settings.  The column names match the
// output of the simulate command.
func Default() Config {
	return Config{
		Time:        "w",
		Event:       "delta",
		Covariates:  []string{},
		Tail:        survival.TailExpo,
		BeforeFirst: string(impute.Origin),
		M:           10,
		Seed:        1,
		Workers:     0,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Bind registers the defaults and environment lookup with v.  Nested keys
// map to names like CMIMPUTE_LOG_LEVEL.
func Bind(v *viper.Viper) {
	d := Default()
	v.SetDefault("time", d.Time)
	v.SetDefault("event", d.Event)
	v.SetDefault("covariates", d.Covariates)
	v.SetDefault("tail", d.Tail)
	v.SetDefault("before_first", d.BeforeFirst)
	v.SetDefault("m", d.M)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("formula", d.Formula)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes the settings held by v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

// Impute converts the settings to an imputation configuration.
func (c Config) Impute(log logrus.FieldLogger) (impute.Config, error) {

	tail, err := survival.ParseTail(c.Tail)
	if err != nil {
		return impute.Config{}, fmt.Errorf("tail: %v: %w", err, ErrInvalid)
	}

	bf, err := impute.ParseBeforeFirst(c.BeforeFirst)
	if err != nil {
		return impute.Config{}, fmt.Errorf("before_first: %v: %w", err, ErrInvalid)
	}

	if c.Time == "" || c.Event == "" {
		return impute.Config{}, fmt.Errorf("time and event columns are required: %w", ErrInvalid)
	}

	return impute.Config{
		Time:        c.Time,
		Event:       c.Event,
		Covariates:  c.Covariates,
		Tail:        tail,
		BeforeFirst: bf,
		Log:         log,
	}, nil
}

// Boot returns the bootstrap settings.
func (c Config) Boot() (impute.BootConfig, error) {
	if c.M < 1 {
		return impute.BootConfig{}, fmt.Errorf("m = %d: %w", c.M, ErrInvalid)
	}
	if c.Workers < 0 {
		return impute.BootConfig{}, fmt.Errorf("workers = %d: %w", c.Workers, ErrInvalid)
	}
	return impute.BootConfig{M: c.M, Seed: c.Seed, Workers: c.Workers}, nil
}

// Logger builds a logger with the configured level and format.
func (c Config) Logger() (*logrus.Logger, error) {

	log := logrus.New()

	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %v: %w", err, ErrInvalid)
	}
	log.SetLevel(level)

	switch c.Log.Format {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("log.format %q: %w", c.Log.Format, ErrInvalid)
	}

	return log, nil
}
