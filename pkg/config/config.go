package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/Shopify/ejson"
	"github.com/caarlos0/env/v6"
	"github.com/ghodss/yaml"
	"k8s.io/klog"
)

const (
	ConfigEnvVar       = "LEDGERLINE_CONFIG"
	EjsonSecretKeyEnv  = "LEDGERLINE_EJSON_SECRET_KEY"
	ejsonKeyDir        = "/opt/ejson/keys"
	defaultAddr        = ":8080"
	defaultUserHeader  = "X-User-Id"
	defaultSchedule    = "@daily"
	defaultBatchSize   = 1000
	defaultBase        = "USD"
	defaultDatabase    = "ledgerline"
	defaultShutdown    = "10s"
	defaultCSVDate     = "2006-01-02"
	defaultDriver      = "postgres"
	defaultSQLitePath  = "./ledgerline.db"
	defaultForecastLen = 6
)

var config Config
var secrets Secrets

func ReadConfig(configEnvVar, configFile, secretsFile string) error {
	_, err := readConfig(configEnvVar, configFile)
	if err != nil {
		return err
	}

	_, err = readSecrets(secretsFile)
	if err != nil {
		return err
	}
	return nil
}

func CurrentConfig() *Config {
	return &config
}

func CurrentSecrets() *Secrets {
	return &secrets
}

func CurrentServerConfig() *ServerConfig {
	return &config.Server
}

func CurrentDatabaseConfig() *DatabaseConfig {
	return &config.Database
}

func CurrentCurrencyConfig() *CurrencyConfig {
	return &config.Currency
}

func CurrentYnabConfig() *YnabConfig {
	return &config.Ynab
}

func CurrentCSVConfig() *CSVConfig {
	return &config.CSV
}

func CurrentYnabSecrets() *YnabSecrets {
	return &secrets.Ynab
}

func CurrentExchangeRateAPISecrets() *ExchangerateAPISecrets {
	return &secrets.ExchangerateAPI
}

func CurrentSqlSecrets() *SqlSecrets {
	return &secrets.SQL
}

// Parse reads YAML config into c and fills in defaults.
func Parse(raw []byte, c *Config) error {
	if err := yaml.Unmarshal(raw, c); err != nil {
		return err
	}
	c.SetDefaults()
	return nil
}

func (c *Config) SetDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.UserHeader == "" {
		c.Server.UserHeader = defaultUserHeader
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = defaultShutdown
	}
	if c.Database.Driver == "" {
		c.Database.Driver = defaultDriver
	}
	if c.Database.Name == "" {
		c.Database.Name = defaultDatabase
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = defaultSQLitePath
	}
	if c.Database.BatchSize == 0 {
		c.Database.BatchSize = defaultBatchSize
	}
	if c.Recurring.UpdateFrequency == "" {
		c.Recurring.UpdateFrequency = defaultSchedule
	}
	if c.Snapshot.UpdateFrequency == "" {
		c.Snapshot.UpdateFrequency = defaultSchedule
	}
	if c.Ynab.UpdateFrequency == "" {
		c.Ynab.UpdateFrequency = defaultSchedule
	}
	if c.Forecast.Months == 0 {
		c.Forecast.Months = defaultForecastLen
	}
	if c.Forecast.Lookback == 0 {
		c.Forecast.Lookback = defaultForecastLen
	}
	if c.Currency.Base == "" {
		c.Currency.Base = defaultBase
	}
	if c.CSV.DateFormat == "" {
		c.CSV.DateFormat = defaultCSVDate
	}
}

// ShutdownDuration falls back to the default on an unparsable value.
func (s ServerConfig) ShutdownDuration() time.Duration {
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil {
		d, _ = time.ParseDuration(defaultShutdown)
	}
	return d
}

func readConfig(envName, filename string) (*Config, error) {
	var raw []byte
	var err error

	rawEnv := os.Getenv(envName)
	if rawEnv != "" {
		klog.Infof("Reading config from environment variable %s\n", envName)
		raw = []byte(rawEnv)
	} else {
		raw, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	err = Parse(raw, &config)

	return &config, err
}

func readSecrets(filename string) (*Secrets, error) {
	ejsonSecrets, ejsonErr := readEjsonSecrets(filename)

	envSecrets, envErr := readEnvSecrets()

	if ejsonErr == nil && envErr == nil {
		err := mergo.Merge(envSecrets, *ejsonSecrets)
		secrets = *envSecrets
		if err != nil {
			return nil, fmt.Errorf("failed to merge secrets: %w", err)
		}
	} else if ejsonErr != nil && envErr == nil {
		klog.Warningf("Error parsing ejson secrets, using environment only: %v", ejsonErr)
		secrets = *envSecrets
	} else if ejsonErr == nil && envErr != nil {
		klog.Warningf("Error parsing env secrets, using ejson only: %v", envErr)
		secrets = *ejsonSecrets
	} else {
		return nil, fmt.Errorf("failed to parse secrets. Ejson error: %v. Env error: %v", ejsonErr, envErr)
	}

	return &secrets, nil
}

func readEjsonSecrets(filename string) (*Secrets, error) {
	ejsonSecrets := Secrets{}
	ejsonKeyFile := os.Getenv(EjsonSecretKeyEnv)
	ejsonKey := []byte{}
	var err error

	if ejsonKeyFile != "" {
		ejsonKey, err = os.ReadFile(ejsonKeyFile)
		if err != nil {
			return nil, err
		}
	}
	raw, err := ejson.DecryptFile(filename, ejsonKeyDir, string(ejsonKey))
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(raw, &ejsonSecrets)
	return &ejsonSecrets, err
}

func readEnvSecrets() (*Secrets, error) {
	envSecrets := Secrets{}
	err := env.Parse(&envSecrets)
	return &envSecrets, err
}
