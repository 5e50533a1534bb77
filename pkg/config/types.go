package config

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Recurring JobConfig
	Snapshot  SnapshotConfig
	Forecast  ForecastConfig
	Currency  CurrencyConfig
	Ynab      YnabConfig
	CSV       CSVConfig
}

type Secrets struct {
	Ynab            YnabSecrets
	SQL             SqlSecrets
	ExchangerateAPI ExchangerateAPISecrets `json:"exchangeratesapi"`

	// Alternative to the SQL struct, takes precedence when set
	DatabaseURL string `env:"DATABASE_URL"`
}

///////////////////////////////////////////////////////////////////////////////////////
// Server
///////////////////////////////////////////////////////////////////////////////////////

type ServerConfig struct {
	Addr string `json:"addr"`
	// Header set by the authenticating proxy in front of the API
	UserHeader      string `json:"userHeader"`
	ShutdownTimeout string `json:"shutdownTimeout"`
}

///////////////////////////////////////////////////////////////////////////////////////
// Database
///////////////////////////////////////////////////////////////////////////////////////

type DatabaseConfig struct {
	// postgres or sqlite
	Driver string `json:"driver"`
	Name   string `json:"name"`
	// Path of the sqlite file, ignored for postgres
	Path      string `json:"path"`
	BatchSize int    `json:"batchSize"`
}

type SqlSecrets struct {
	SqlHost     string `env:"SQL_HOST"`
	SqlUsername string `env:"SQL_USERNAME"`
	SqlPassword string `env:"SQL_PASSWORD"`
}

///////////////////////////////////////////////////////////////////////////////////////
// Jobs
///////////////////////////////////////////////////////////////////////////////////////

type JobConfig struct {
	UpdateFrequency string `json:"updateFrequency"`
}

type SnapshotConfig struct {
	UpdateFrequency string `json:"updateFrequency"`
	BackfillDays    int    `json:"backfillDays"`
}

type ForecastConfig struct {
	Months   int `json:"months"`
	Lookback int `json:"lookback"`
}

///////////////////////////////////////////////////////////////////////////////////////
// Currency
///////////////////////////////////////////////////////////////////////////////////////

type CurrencyConfig struct {
	Base string `json:"base"`
	// Static rates that win over the exchange rate API, keyed FROM_TO e.g. CAD_USD
	Conversions CurrencyConversion `json:"conversions"`
}

type CurrencyConversion map[string]float64

type ExchangerateAPISecrets struct {
	AccessKey string `json:"accessKey" env:"EXCHANGE_RATES_API_ACCESS_KEY"`
}

///////////////////////////////////////////////////////////////////////////////////////
// Importers
///////////////////////////////////////////////////////////////////////////////////////

type YnabConfig struct {
	UpdateFrequency string   `json:"updateFrequency"`
	Budgets         []Budget `json:"budgets"`
	Tags            struct {
		Enabled    bool
		RegexMatch string
	}
}

type Budget struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	// User the imported accounts and transactions belong to
	UserID string `json:"userId"`
	// Date to import transactions after, MM-DD-YYYY
	ImportAfterDate string `json:"importAfterDate"`
	Currency        string `json:"currency"`
}

type YnabSecrets struct {
	YnabAccessToken string `json:"ynabAccessToken" env:"YNAB_ACCESS_TOKEN"`
}

type CSVConfig struct {
	// map of our column name to the column name in the file
	ColumnTranslation map[string]string `json:"columnTranslation"`
	DateFormat        string            `json:"dateFormat"`
	// Flip the sign of amounts for exports where spend is positive
	InvertAmounts bool `json:"invertAmounts"`
}
