// Package config loads the terminal client's settings from an optional
// YAML file with command-line flags layered on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Session backends.
const (
	SessionFile   = "file"
	SessionRedis  = "redis"
	SessionMemory = "memory"
)

// View sources.
const (
	ViewsAPI      = "api"
	ViewsEmbedded = "embedded"
)

type Config struct {
	// API is the base URL of kairo-api.
	API string `yaml:"api"`
	// Views selects where fragments come from: "api" or "embedded".
	Views   string        `yaml:"views"`
	Session SessionConfig `yaml:"session"`
	// Timeout bounds each auth call. Zero disables the bound.
	Timeout time.Duration `yaml:"timeout"`
	Debug   bool          `yaml:"debug"`
	// Start is the initial location fragment.
	Start string `yaml:"start"`
}

type SessionConfig struct {
	Backend string `yaml:"backend"`
	// Path is the token file for the file backend; empty means the
	// user config directory.
	Path string `yaml:"path"`
	// Redis is a REDIS_CONNECTION_STRING style address.
	Redis string `yaml:"redis"`
	Key   string `yaml:"key"`
}

func Default() Config {
	return Config{
		API:     "http://localhost:8080",
		Views:   ViewsAPI,
		Session: SessionConfig{Backend: SessionFile},
		Timeout: 10 * time.Second,
	}
}

// Load reads path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.API == "" {
		errs = append(errs, errors.New("api base URL is required"))
	}
	switch c.Views {
	case ViewsAPI, ViewsEmbedded:
	default:
		errs = append(errs, fmt.Errorf("unknown views source %q", c.Views))
	}
	switch c.Session.Backend {
	case SessionFile, SessionMemory:
	case SessionRedis:
		if c.Session.Redis == "" {
			errs = append(errs, errors.New("redis session backend needs an address"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session backend %q", c.Session.Backend))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	return errors.Join(errs...)
}

// Flags are the command-line overrides.
type Flags struct {
	set *pflag.FlagSet

	path    string
	api     string
	views   string
	session string
	redis   string
	timeout time.Duration
	debug   bool
	start   string
}

func NewFlags(name string) *Flags {
	f := &Flags{set: pflag.NewFlagSet(name, pflag.ContinueOnError)}
	d := Default()
	f.set.StringVar(&f.path, "config", os.Getenv("KAIRO_CONFIG"), "YAML config file")
	f.set.StringVar(&f.api, "api", d.API, "kairo-api base URL")
	f.set.StringVar(&f.views, "views", d.Views, `view source: "api" or "embedded"`)
	f.set.StringVar(&f.session, "session", d.Session.Backend, "session store: file, redis or memory")
	f.set.StringVar(&f.redis, "redis", "", "redis address for the redis session store")
	f.set.DurationVar(&f.timeout, "timeout", d.Timeout, "per-call timeout for auth requests (0 disables)")
	f.set.BoolVar(&f.debug, "debug", false, "log at debug level")
	f.set.StringVar(&f.start, "start", "", "initial location fragment, e.g. #/login")
	return f
}

// FlagSet exposes the underlying set, for usage output.
func (f *Flags) FlagSet() *pflag.FlagSet { return f.set }

// Parse reads args, loads --config when given and applies every flag
// that was set explicitly. The result is validated.
func (f *Flags) Parse(args []string) (Config, error) {
	if err := f.set.Parse(args); err != nil {
		return Config{}, err
	}
	cfg := Default()
	if f.path != "" {
		var err error
		if cfg, err = Load(f.path); err != nil {
			return Config{}, err
		}
	}
	changed := f.set.Changed
	if changed("api") {
		cfg.API = f.api
	}
	if changed("views") {
		cfg.Views = f.views
	}
	if changed("session") {
		cfg.Session.Backend = f.session
	}
	if changed("redis") {
		cfg.Session.Redis = f.redis
	}
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if changed("debug") {
		cfg.Debug = f.debug
	}
	if changed("start") {
		cfg.Start = f.start
	}
	return cfg, cfg.Validate()
}
