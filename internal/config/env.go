package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names recognized as overrides.
const (
	EnvConfig       = "NETSUITE_CONFIG"
	EnvAccountID    = "NETSUITE_ACCOUNT_ID"
	EnvClientID     = "NETSUITE_CLIENT_ID"
	EnvClientSecret = "NETSUITE_CLIENT_SECRET"
	EnvAccessToken  = "NETSUITE_ACCESS_TOKEN"
	EnvScriptID     = "NETSUITE_SCRIPT_ID"
	EnvDeployID     = "NETSUITE_DEPLOY_ID"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath   string
	AccountID    string
	ClientID     string
	ClientSecret string
	AccessToken  string
	ScriptID     string
	DeployID     string
}

// ReadEnvOverrides loads a .env file when one is present in the working
// directory (its absence is not an error) and returns any NETSUITE_*
// overrides found in the environment.
func ReadEnvOverrides() EnvOverrides {
	_ = godotenv.Load()

	return EnvOverrides{
		ConfigPath:   os.Getenv(EnvConfig),
		AccountID:    os.Getenv(EnvAccountID),
		ClientID:     os.Getenv(EnvClientID),
		ClientSecret: os.Getenv(EnvClientSecret),
		AccessToken:  os.Getenv(EnvAccessToken),
		ScriptID:     os.Getenv(EnvScriptID),
		DeployID:     os.Getenv(EnvDeployID),
	}
}
