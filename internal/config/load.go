package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Resolved is the effective configuration after the full override chain has
// been applied. LogLevel and Timeout are pre-parsed for direct use.
type Resolved struct {
	Credentials Credentials
	LogLevel    string
	Timeout     time.Duration
}

// DefaultConfigPath returns the platform config file location,
// e.g. ~/.config/netsuite/config.toml on Linux.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, "netsuite", "config.toml")
}

// Load reads and parses a TOML config file and validates it. Unknown keys
// are fatal: silently ignoring a typo in a config file leads to
// hard-to-debug behavior.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in config file %s", undecoded[0].String(), path)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns a
// Config populated with defaults. This supports running entirely from
// environment variables with no config file at all.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> environment variables -> CLI flags.
func Resolve(env EnvOverrides, cli CLIOverrides) (*Resolved, error) {
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	cfg, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	applyEnv(&cfg.Credentials, env)

	if cli.AccountID != "" {
		cfg.Credentials.AccountID = cli.AccountID
	}

	if cli.Timeout != "" {
		cfg.Network.Timeout = cli.Timeout
	}

	timeout, err := time.ParseDuration(cfg.Network.Timeout)
	if err != nil {
		return nil, fmt.Errorf("network.timeout: %w", err)
	}

	return &Resolved{
		Credentials: cfg.Credentials,
		LogLevel:    cfg.Logging.LogLevel,
		Timeout:     timeout,
	}, nil
}

// applyEnv overlays non-empty environment values onto the credentials.
func applyEnv(creds *Credentials, env EnvOverrides) {
	if env.AccountID != "" {
		creds.AccountID = env.AccountID
	}

	if env.ClientID != "" {
		creds.ClientID = env.ClientID
	}

	if env.ClientSecret != "" {
		creds.ClientSecret = env.ClientSecret
	}

	if env.AccessToken != "" {
		creds.AccessToken = env.AccessToken
	}

	if env.ScriptID != "" {
		creds.ScriptID = env.ScriptID
	}

	if env.DeployID != "" {
		creds.DeployID = env.DeployID
	}
}
