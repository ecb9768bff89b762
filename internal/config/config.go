package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/thinclient/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "thinclient.json"

	// EnvPrefix prefixes environment variable overrides.
	EnvPrefix = "THINCLIENT_"

	// DefaultEndpoint is the endpoint used when none is configured.
	DefaultEndpoint = "ws://localhost:4000/ws/1"

	// DefaultRootTag is the tag of the mount element.
	DefaultRootTag = "div"

	// DefaultKeyAttribute names the attribute that identifies an element
	// in outbound handler keys.
	DefaultKeyAttribute = "key"

	// Fault policies for path resolution faults inside a batch.
	FaultPolicyHalt     = "halt"
	FaultPolicyContinue = "continue"
)

// Config represents the complete thinclient.json configuration.
type Config struct {
	// Endpoint is the per-session WebSocket URL.
	Endpoint string `json:"endpoint,omitempty"`

	// RootTag is the tag of the root element installed at startup.
	RootTag string `json:"rootTag,omitempty"`

	// KeyAttribute names the attribute whose value prefixes handler keys.
	KeyAttribute string `json:"keyAttribute,omitempty"`

	// FaultPolicy is "halt" (drop the rest of a batch after a path fault)
	// or "continue" (skip only the faulted patch).
	FaultPolicy string `json:"faultPolicy,omitempty"`

	// Transport contains connection settings.
	Transport TransportConfig `json:"transport,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty"`

	// Journal contains session journal settings.
	Journal JournalConfig `json:"journal,omitempty"`

	// Snapshot contains desync snapshot settings.
	Snapshot SnapshotConfig `json:"snapshot,omitempty"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// TransportConfig contains connection settings. Durations are strings
// such as "10s".
type TransportConfig struct {
	HandshakeTimeout string `json:"handshakeTimeout,omitempty"`
	WriteTimeout     string `json:"writeTimeout,omitempty"`
	PingInterval     string `json:"pingInterval,omitempty"`
	SendQueue        int    `json:"sendQueue,omitempty"`
	ReadLimit        int64  `json:"readLimit,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// JournalConfig contains session journal settings.
type JournalConfig struct {
	// Path is the SQLite database file. Empty disables the journal.
	Path string `json:"path,omitempty"`
}

// SnapshotConfig contains desync snapshot settings. Bucket takes
// precedence over Dir; both empty disables snapshots.
type SnapshotConfig struct {
	Dir    string `json:"dir,omitempty"`
	Bucket string `json:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Addr is the listen address for /metrics. Empty disables the endpoint.
	Addr string `json:"addr,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Endpoint:     DefaultEndpoint,
		RootTag:      DefaultRootTag,
		KeyAttribute: DefaultKeyAttribute,
		FaultPolicy:  FaultPolicyHalt,
		Transport: TransportConfig{
			HandshakeTimeout: "10s",
			WriteTimeout:     "5s",
			PingInterval:     "30s",
			SendQueue:        64,
			ReadLimit:        4 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Snapshot: SnapshotConfig{
			Prefix: "desync/",
		},
		Metrics: MetricsConfig{
			Namespace: "thinclient",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for thinclient.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("T020").
				WithField("path", path)
		}
		return nil, errors.New("T021").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("T021").
			WithField("path", path).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// LoadOptional reads path if it exists and returns defaults otherwise.
// Errors other than a missing file are returned.
func LoadOptional(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		if ce, ok := err.(*errors.Error); ok && ce.Code == "T020" {
			return New(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("T021").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("T021").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()
	if c.Endpoint == "" {
		c.Endpoint = d.Endpoint
	}
	if c.RootTag == "" {
		c.RootTag = d.RootTag
	}
	if c.KeyAttribute == "" {
		c.KeyAttribute = d.KeyAttribute
	}
	if c.FaultPolicy == "" {
		c.FaultPolicy = d.FaultPolicy
	}
	if c.Transport.HandshakeTimeout == "" {
		c.Transport.HandshakeTimeout = d.Transport.HandshakeTimeout
	}
	if c.Transport.WriteTimeout == "" {
		c.Transport.WriteTimeout = d.Transport.WriteTimeout
	}
	if c.Transport.PingInterval == "" {
		c.Transport.PingInterval = d.Transport.PingInterval
	}
	if c.Transport.SendQueue == 0 {
		c.Transport.SendQueue = d.Transport.SendQueue
	}
	if c.Transport.ReadLimit == 0 {
		c.Transport.ReadLimit = d.Transport.ReadLimit
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
}

// ApplyEnv overrides fields from THINCLIENT_* variables. lookup is
// usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"ENDPOINT":        &c.Endpoint,
		"ROOT_TAG":        &c.RootTag,
		"KEY_ATTRIBUTE":   &c.KeyAttribute,
		"FAULT_POLICY":    &c.FaultPolicy,
		"LOG_LEVEL":       &c.Log.Level,
		"LOG_FORMAT":      &c.Log.Format,
		"JOURNAL":         &c.Journal.Path,
		"SNAPSHOT_DIR":    &c.Snapshot.Dir,
		"SNAPSHOT_BUCKET": &c.Snapshot.Bucket,
		"SNAPSHOT_REGION": &c.Snapshot.Region,
		"S3_ENDPOINT":     &c.Snapshot.Endpoint,
		"METRICS_ADDR":    &c.Metrics.Addr,
	}
	for name, field := range str {
		if v, ok := lookup(EnvPrefix + name); ok {
			*field = v
		}
	}

	if v, ok := lookup(EnvPrefix + "SEND_QUEUE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("T022").
				WithField("variable", EnvPrefix+"SEND_QUEUE").
				Wrap(err)
		}
		c.Transport.SendQueue = n
	}
	return nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Endpoint, "ws://") && !strings.HasPrefix(c.Endpoint, "wss://") {
		return errors.New("T022").
			WithField("endpoint", c.Endpoint).
			WithDetail("Endpoint must be a ws:// or wss:// URL")
	}
	if c.FaultPolicy != FaultPolicyHalt && c.FaultPolicy != FaultPolicyContinue {
		return errors.New("T022").
			WithField("faultPolicy", c.FaultPolicy).
			WithDetail("Fault policy must be \"halt\" or \"continue\"")
	}
	if c.KeyAttribute == "" || c.KeyAttribute == "on" {
		return errors.New("T022").
			WithField("keyAttribute", c.KeyAttribute).
			WithDetail("Key attribute must be a non-empty name other than the reserved \"on\"")
	}
	if c.Transport.SendQueue < 1 {
		return errors.New("T022").
			WithDetail("Send queue must hold at least one event")
	}
	for name, v := range map[string]string{
		"handshakeTimeout": c.Transport.HandshakeTimeout,
		"writeTimeout":     c.Transport.WriteTimeout,
		"pingInterval":     c.Transport.PingInterval,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return errors.New("T022").
				WithField(name, v).
				Wrap(err)
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("T022").
			WithField("log.level", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("T022").
			WithField("log.format", c.Log.Format)
	}
	return nil
}

// HandshakeTimeout returns the parsed handshake timeout.
func (c *Config) HandshakeTimeout() time.Duration {
	return parseDuration(c.Transport.HandshakeTimeout)
}

// WriteTimeout returns the parsed write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return parseDuration(c.Transport.WriteTimeout)
}

// PingInterval returns the parsed ping interval.
func (c *Config) PingInterval() time.Duration {
	return parseDuration(c.Transport.PingInterval)
}

func parseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
