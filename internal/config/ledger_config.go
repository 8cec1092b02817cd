package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// LedgerConfig holds the settings for the sales-ledger API client.
type LedgerConfig struct {
	Ledger LedgerAPI `toml:"ledger"`
}

// LedgerAPI contains endpoint and auth settings for the ledger API.
type LedgerAPI struct {
	Endpoint       string `toml:"endpoint"`
	APIToken       string `toml:"api_token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LoadLedgerConfig loads configuration from a TOML file.
func LoadLedgerConfig(filename string) (*LedgerConfig, error) {
	config := &LedgerConfig{}
	_, err := toml.DecodeFile(filename, config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if config.Ledger.TimeoutSeconds <= 0 {
		config.Ledger.TimeoutSeconds = 30
	}
	return config, nil
}

// LedgerConfigFromEnv builds the config from environment variables, used when
// no TOML file is supplied.
func LedgerConfigFromEnv() *LedgerConfig {
	return &LedgerConfig{
		Ledger: LedgerAPI{
			Endpoint:       os.Getenv("LEDGER_API_ENDPOINT"),
			APIToken:       os.Getenv("LEDGER_API_TOKEN"),
			TimeoutSeconds: 30,
		},
	}
}
