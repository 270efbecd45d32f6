// Package config implements TOML configuration loading, environment
// overrides, and validation for the netsuite CLI. Values resolve through a
// four-layer override chain (defaults -> config file -> environment -> CLI
// flags) so one-off overrides never require editing the config file.
package config

// Config is the top-level structure parsed from a TOML file.
type Config struct {
	Credentials Credentials   `toml:"credentials"`
	Logging     LoggingConfig `toml:"logging"`
	Network     NetworkConfig `toml:"network"`
}

// Credentials holds everything the request engine needs to talk to a
// NetSuite account. AccountID, ClientID, and ClientSecret are mandatory;
// the rest are optional feature switches.
type Credentials struct {
	AccountID    string `toml:"account_id"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`

	// AccessToken, when set, skips the interactive authorization flow.
	// It is validated with a probe request on sign-in.
	AccessToken string `toml:"access_token"`

	// ScriptID and DeployID identify the file-transfer restlet.
	// DeployID defaults to "1" when unset.
	ScriptID string `toml:"script_id"`
	DeployID string `toml:"deploy_id"`

	// Debug enables wire-level request/response dumps in the log.
	Debug bool `toml:"debug"`

	// LogToken echoes newly issued access tokens to the log. Off by
	// default because tokens in scrollback are a credential leak.
	LogToken bool `toml:"log_token"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel string `toml:"log_level"`
}

// NetworkConfig controls HTTP client behavior.
type NetworkConfig struct {
	Timeout string `toml:"timeout"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings.
type CLIOverrides struct {
	ConfigPath string // --config flag (empty = use default)
	AccountID  string // --account flag
	Timeout    string // --timeout flag
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{LogLevel: "info"},
		Network: NetworkConfig{Timeout: "30s"},
	}
}
