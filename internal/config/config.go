// Package config loads taskboard settings: defaults, then an optional YAML
// file, then environment variables. Command-line flags are applied last by
// the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type StoreMode string

const (
	StoreLocal  StoreMode = "local"
	StoreRemote StoreMode = "remote"
)

type Config struct {
	Addr           string        `yaml:"addr"`
	LogLevel       string        `yaml:"log_level"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Store          StoreConfig   `yaml:"store"`
	Auth           AuthConfig    `yaml:"auth"`
	RateLimit      RateLimit     `yaml:"rate_limit"`
	Tracing        Tracing       `yaml:"tracing"`
	Snapshot       Snapshot      `yaml:"snapshot"`
}

type StoreConfig struct {
	Mode          StoreMode     `yaml:"mode"`
	DataPath      string        `yaml:"data_path"`
	RemoteURL     string        `yaml:"remote_url"`
	RemoteAPIKey  string        `yaml:"remote_api_key"`
	RemoteTimeout time.Duration `yaml:"remote_timeout"`
}

type AuthConfig struct {
	Mode        string `yaml:"mode"`
	APIKey      string `yaml:"api_key"`
	BearerToken string `yaml:"bearer_token"`
}

type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type Tracing struct {
	Exporter     string `yaml:"exporter"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

type Snapshot struct {
	// Schedule is a cron spec (seconds field optional); empty disables it.
	Schedule string `yaml:"schedule"`
	Dir      string `yaml:"dir"`
	Keep     int    `yaml:"keep"`
}

func Default() Config {
	return Config{
		Addr:           ":8080",
		LogLevel:       "info",
		RequestTimeout: 15 * time.Second,
		Store: StoreConfig{
			Mode:     StoreLocal,
			DataPath: "data/taskboard.db",
		},
		Auth:      AuthConfig{Mode: "none"},
		RateLimit: RateLimit{Burst: 10},
		Tracing: Tracing{
			Exporter:    "none",
			ServiceName: "taskboard",
		},
		Snapshot: Snapshot{
			Dir:  "data/snapshots",
			Keep: 7,
		},
	}
}

// Load reads the file at path (skipped when path is empty) and the process
// environment on top of the defaults.
func Load(path string) (Config, error) {
	return LoadFrom(path, os.Getenv)
}

func LoadFrom(path string, getenv func(string) string) (Config, error) {
	return LoadWith(path, getenv, nil)
}

// LoadWith is LoadFrom with a final override step, run before validation.
func LoadWith(path string, getenv func(string) string, override func(*Config)) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return cfg, err
	}
	if override != nil {
		override(&cfg)
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("TASKBOARD_ADDR", &c.Addr)
	str("LOG_LEVEL", &c.LogLevel)
	dur("TASKBOARD_REQUEST_TIMEOUT", &c.RequestTimeout)

	if v := strings.TrimSpace(getenv("TASKBOARD_STORE")); v != "" {
		c.Store.Mode = StoreMode(strings.ToLower(v))
	}
	str("TASKBOARD_DATA", &c.Store.DataPath)
	str("TASKBOARD_REMOTE_URL", &c.Store.RemoteURL)
	str("TASKBOARD_REMOTE_API_KEY", &c.Store.RemoteAPIKey)
	dur("TASKBOARD_REMOTE_TIMEOUT", &c.Store.RemoteTimeout)

	str("TASKBOARD_AUTH_MODE", &c.Auth.Mode)
	str("TASKBOARD_API_KEY", &c.Auth.APIKey)
	str("TASKBOARD_BEARER_TOKEN", &c.Auth.BearerToken)

	if v := strings.TrimSpace(getenv("TASKBOARD_RATE_LIMIT_RPS")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("TASKBOARD_RATE_LIMIT_RPS: %w", err))
		} else {
			c.RateLimit.RPS = f
		}
	}
	if v := strings.TrimSpace(getenv("TASKBOARD_RATE_LIMIT_BURST")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TASKBOARD_RATE_LIMIT_BURST: %w", err))
		} else {
			c.RateLimit.Burst = n
		}
	}

	str("TASKBOARD_TRACE_EXPORTER", &c.Tracing.Exporter)
	str("TASKBOARD_OTLP_ENDPOINT", &c.Tracing.OTLPEndpoint)

	str("TASKBOARD_SNAPSHOT_SCHEDULE", &c.Snapshot.Schedule)
	str("TASKBOARD_SNAPSHOT_DIR", &c.Snapshot.Dir)

	return errors.Join(errs...)
}

// SnapshotParser accepts standard five-field specs, an optional leading
// seconds field, and descriptors such as @daily.
var SnapshotParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func (c Config) Validate() error {
	var errs []error
	switch c.Store.Mode {
	case StoreLocal:
		if c.Store.DataPath == "" {
			errs = append(errs, errors.New("store.data_path is required for the local store"))
		}
	case StoreRemote:
		if c.Store.RemoteURL == "" {
			errs = append(errs, errors.New("store.remote_url is required for the remote store"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.mode must be local or remote, got %q", c.Store.Mode))
	}
	switch strings.ToLower(c.Auth.Mode) {
	case "", "none":
	case "apikey":
		if c.Auth.APIKey == "" {
			errs = append(errs, errors.New("auth.api_key is required for apikey auth"))
		}
	case "bearer":
		if c.Auth.BearerToken == "" {
			errs = append(errs, errors.New("auth.bearer_token is required for bearer auth"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.mode must be none, apikey or bearer, got %q", c.Auth.Mode))
	}
	if c.RateLimit.RPS < 0 {
		errs = append(errs, errors.New("rate_limit.rps must not be negative"))
	}
	if c.Snapshot.Schedule != "" {
		if _, err := SnapshotParser.Parse(c.Snapshot.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("snapshot.schedule: %w", err))
		}
		if c.Snapshot.Dir == "" {
			errs = append(errs, errors.New("snapshot.dir is required when a schedule is set"))
		}
	}
	return errors.Join(errs...)
}
