package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when no --config flag is given.
const DefaultPath = "masterserver.yaml"

const (
	envPrefix = "MASTERSERVER_"

	defaultLogLevel            = "info"
	defaultShutdownGracePeriod = 10 * time.Second
	defaultDBConnectTimeout    = 5 * time.Second
)

const (
	keyProductName             = "product_name"
	keyProductURL              = "product_url"
	keyDBHost                  = "db_host"
	keyDBName                  = "db_name"
	keyDBUser                  = "db_user"
	keyDBPassword              = "db_password"
	keyDBPersistentConnections = "db_persistent_connections"
	keyMaxRecentServers        = "max_recent_servers"
	keyDefaultCountryCode      = "default_country_code"
	keyLogLevel                = "log_level"
	keyShutdownGracePeriod     = "shutdown_grace_period"
	keyDBConnectTimeout        = "db_connect_timeout"
)

var knownKeys = []string{
	keyProductName,
	keyProductURL,
	keyDBHost,
	keyDBName,
	keyDBUser,
	keyDBPassword,
	keyDBPersistentConnections,
	keyMaxRecentServers,
	keyDefaultCountryCode,
	keyLogLevel,
	keyShutdownGracePeriod,
	keyDBConnectTimeout,
}

// Config is the complete masterserver configuration. It is produced once by
// a Loader and never modified afterwards.
type Config struct {
	ProductName string
	ProductURL  string

	DBHost                  string
	DBName                  string
	DBUser                  string
	DBPassword              Secret
	DBPersistentConnections bool
	DBConnectTimeout        time.Duration

	MaxRecentServers   int
	DefaultCountryCode string

	LogLevel            string
	ShutdownGracePeriod time.Duration
}

// MarshalLogObject implements zapcore.ObjectMarshaler. The database password
// is always redacted.
func (c Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString(keyProductName, c.ProductName)
	enc.AddString(keyProductURL, c.ProductURL)
	enc.AddString(keyDBHost, c.DBHost)
	enc.AddString(keyDBName, c.DBName)
	enc.AddString(keyDBUser, c.DBUser)
	enc.AddString(keyDBPassword, c.DBPassword.String())
	enc.AddBool(keyDBPersistentConnections, c.DBPersistentConnections)
	enc.AddDuration(keyDBConnectTimeout, c.DBConnectTimeout)
	enc.AddInt(keyMaxRecentServers, c.MaxRecentServers)
	enc.AddString(keyDefaultCountryCode, c.DefaultCountryCode)
	enc.AddString(keyLogLevel, c.LogLevel)
	enc.AddDuration(keyShutdownGracePeriod, c.ShutdownGracePeriod)
	return nil
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile       string
	DBHost           *string
	MaxRecentServers *int
	LogLevel         *string
}

// Loader reads the configuration sources. Only loaders created by NewLoader
// are permitted to load.
type Loader struct {
	permitted bool
	loaded    bool
	cfg       Config

	lookupEnv func(string) (string, bool)
	readFile  func(string) ([]byte, error)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithEnvLookup replaces os.LookupEnv, primarily for tests.
func WithEnvLookup(lookup func(string) (string, bool)) LoaderOption {
	return func(l *Loader) {
		l.lookupEnv = lookup
	}
}

// WithFileReader replaces os.ReadFile.
func WithFileReader(read func(string) ([]byte, error)) LoaderOption {
	return func(l *Loader) {
		l.readFile = read
	}
}

// NewLoader creates a Loader bound to the process environment and filesystem.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		permitted: true,
		lookupEnv: os.LookupEnv,
		readFile:  os.ReadFile,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves the configuration with precedence:
// CLI flags > environment variables > YAML file > defaults.
// A Loader loads at most once.
func (l *Loader) Load(overrides *CLIOverrides) (Config, error) {
	if l == nil || !l.permitted {
		return Config{}, &AccessError{Reason: "loader was not created by NewLoader"}
	}
	if l.loaded {
		return Config{}, &AccessError{Reason: "configuration already loaded"}
	}

	path := DefaultPath
	if overrides != nil && overrides.ConfigFile != "" {
		path = overrides.ConfigFile
	}

	src, err := l.loadFromFile(path)
	if err != nil {
		return Config{}, err
	}

	l.applyEnvConfig(src)

	if overrides != nil {
		applyCLIOverrides(src, overrides)
	}

	cfg, err := build(src)
	if err != nil {
		return Config{}, err
	}

	l.cfg = cfg
	l.loaded = true
	return cfg, nil
}

// Config returns the configuration produced by a successful Load.
func (l *Loader) Config() (Config, error) {
	if l == nil || !l.permitted {
		return Config{}, &AccessError{Reason: "loader was not created by NewLoader"}
	}
	if !l.loaded {
		return Config{}, &AccessError{Reason: "configuration accessed before load"}
	}
	return l.cfg, nil
}

// source maps configuration keys to their raw values. A key that is present
// with an empty value is distinct from an absent key.
type source map[string]string

// loadFromFile reads the YAML file into a source. Keys outside knownKeys and
// non-scalar values are rejected.
func (l *Loader) loadFromFile(path string) (source, error) {
	data, err := l.readFile(path)
	if err != nil {
		return nil, &AccessError{Reason: "read " + path, Err: err}
	}

	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ValueError{Field: path, Err: fmt.Errorf("parse YAML: %w", err)}
	}

	src := make(source, len(doc))
	for key, node := range doc {
		if !slices.Contains(knownKeys, key) {
			return nil, &ValueError{Field: key, Err: fmt.Errorf("unknown key in %s", path)}
		}
		if node.Kind != yaml.ScalarNode {
			return nil, &ValueError{Field: key, Err: errors.New("expected a scalar value")}
		}
		if node.ShortTag() == "!!null" {
			src[key] = ""
			continue
		}
		src[key] = node.Value
	}
	return src, nil
}

// applyEnvConfig overlays MASTERSERVER_<KEY> variables. Values are kept as
// given. Blank variables are ignored except for the password, which may
// legitimately be empty.
func (l *Loader) applyEnvConfig(src source) {
	for _, key := range knownKeys {
		value, ok := l.lookupEnv(envName(key))
		if !ok {
			continue
		}
		if key == keyDBPassword {
			src[key] = value
			continue
		}
		if strings.TrimSpace(value) != "" {
			src[key] = value
		}
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(src source, overrides *CLIOverrides) {
	if overrides.DBHost != nil && *overrides.DBHost != "" {
		src[keyDBHost] = *overrides.DBHost
	}
	if overrides.MaxRecentServers != nil {
		src[keyMaxRecentServers] = strconv.Itoa(*overrides.MaxRecentServers)
	}
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		src[keyLogLevel] = *overrides.LogLevel
	}
}

// build converts and validates every field. Fields are checked in a fixed
// order so the first reported error is deterministic.
func build(src source) (Config, error) {
	cfg := Config{
		LogLevel:            defaultLogLevel,
		ShutdownGracePeriod: defaultShutdownGracePeriod,
		DBConnectTimeout:    defaultDBConnectTimeout,
	}

	var err error
	if cfg.ProductName, err = src.required(keyProductName); err != nil {
		return Config{}, err
	}
	if cfg.ProductURL, err = src.required(keyProductURL); err != nil {
		return Config{}, err
	}
	if err := validateURL(cfg.ProductURL); err != nil {
		return Config{}, &ValueError{Field: keyProductURL, Value: cfg.ProductURL, Err: err}
	}

	if cfg.DBHost, err = src.required(keyDBHost); err != nil {
		return Config{}, err
	}
	if err := validateHost(cfg.DBHost); err != nil {
		return Config{}, &ValueError{Field: keyDBHost, Value: cfg.DBHost, Err: err}
	}
	if cfg.DBName, err = src.required(keyDBName); err != nil {
		return Config{}, err
	}
	if cfg.DBUser, err = src.required(keyDBUser); err != nil {
		return Config{}, err
	}
	password, ok := src[keyDBPassword]
	if !ok {
		return Config{}, &MissingFieldError{Field: keyDBPassword}
	}
	cfg.DBPassword = Secret(password)

	if raw, ok := src.optional(keyDBPersistentConnections); ok {
		persistent, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, &ValueError{Field: keyDBPersistentConnections, Value: raw, Err: err}
		}
		cfg.DBPersistentConnections = persistent
	}
	if raw, ok := src.optional(keyDBConnectTimeout); ok {
		if cfg.DBConnectTimeout, err = parsePositiveDuration(keyDBConnectTimeout, raw); err != nil {
			return Config{}, err
		}
	}

	rawMax, err := src.required(keyMaxRecentServers)
	if err != nil {
		return Config{}, err
	}
	if cfg.MaxRecentServers, err = parseMaxRecentServers(rawMax); err != nil {
		return Config{}, err
	}

	if cfg.DefaultCountryCode, err = src.required(keyDefaultCountryCode); err != nil {
		return Config{}, err
	}
	if err := validateCountryCode(cfg.DefaultCountryCode); err != nil {
		return Config{}, &ValueError{Field: keyDefaultCountryCode, Value: cfg.DefaultCountryCode, Err: err}
	}

	if raw, ok := src.optional(keyLogLevel); ok {
		if err := validateLogLevel(raw); err != nil {
			return Config{}, &ValueError{Field: keyLogLevel, Value: raw, Err: err}
		}
		cfg.LogLevel = raw
	}
	if raw, ok := src.optional(keyShutdownGracePeriod); ok {
		if cfg.ShutdownGracePeriod, err = parsePositiveDuration(keyShutdownGracePeriod, raw); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

func (s source) required(key string) (string, error) {
	value, ok := s[key]
	if !ok || strings.TrimSpace(value) == "" {
		return "", &MissingFieldError{Field: key}
	}
	return value, nil
}

func (s source) optional(key string) (string, bool) {
	value, ok := s[key]
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

func parseMaxRecentServers(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ValueError{Field: keyMaxRecentServers, Value: raw, Err: errors.New("not an integer")}
	}
	if value <= 0 {
		return 0, &ValueError{Field: keyMaxRecentServers, Value: raw, Err: errors.New("must be greater than zero")}
	}
	return value, nil
}

func parsePositiveDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &ValueError{Field: key, Value: raw, Err: err}
	}
	if d <= 0 {
		return 0, &ValueError{Field: key, Value: raw, Err: errors.New("must be positive")}
	}
	return d, nil
}

func envName(key string) string {
	return envPrefix + strings.ToUpper(key)
}
