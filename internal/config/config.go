package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	Server ServerConfig   `envPrefix:"SERVER_"`
	Sheets SheetsConfig   `envPrefix:"SHEETS_"`
	Sync   SyncConfig     `envPrefix:"SYNC_"`
	DB     DatabaseConfig `envPrefix:"DB_"`
}

type ServerConfig struct {
	Port      string `env:"PORT" envDefault:"8080"`
	AuthToken string `env:"AUTH_TOKEN" envDefault:""`
}

type SheetsConfig struct {
	// BaseURL of the upstream spreadsheet-reading endpoint. The workbook is
	// fetched from BaseURL/{spreadsheetId}.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:9090/sheets"`

	// SheetPrefix selects which worksheets take part in syncing: only
	// sheets whose name starts with this prefix are listed.
	SheetPrefix string `env:"PREFIX" envDefault:"S"`

	SampleRows   int           `env:"SAMPLE_ROWS" envDefault:"5"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"35s"`
}

type SyncConfig struct {
	Schedule  string `env:"SCHEDULE" envDefault:"0 */6 * * *"`
	BatchSize int    `env:"BATCH_SIZE" envDefault:"100"`

	// SpreadsheetID is the workbook scheduled runs read from.
	SpreadsheetID string `env:"SPREADSHEET_ID" envDefault:""`

	// AutoSync enables cron-scheduled incremental runs for every table
	// that has a saved column mapping.
	AutoSync bool `env:"AUTO" envDefault:"false"`

	// StateDir holds saved column mappings and the learned sync rate.
	StateDir string `env:"STATE_DIR" envDefault:".sheetsync"`
}

type DatabaseConfig struct {
	// Driver is sqlite3 or mysql.
	Driver string `env:"DRIVER" envDefault:"sqlite3"`

	// DSN for the destination database. For sqlite3 this is a file path.
	DSN string `env:"DSN" envDefault:"sheetsync.db"`

	// StorePath is the local sqlite store for run history and logs.
	StorePath string `env:"STORE_PATH" envDefault:"sheetsync-meta.db"`
}

// Load reads .env (when present) and the process environment.
func Load(envPath string) (*AppConfig, error) {
	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
			}
		}
	}

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.DB.Driver != "sqlite3" && cfg.DB.Driver != "mysql" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want sqlite3 or mysql)", cfg.DB.Driver)
	}

	return cfg, nil
}
