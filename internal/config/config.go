package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"financas"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		// Path to the SQLite database file. The containing directory is
		// created on startup if it does not exist.
		Path string `envconfig:"DB_PATH" default:"banco/financas.db"`
	}

	Upload struct {
		// StagingDir is where the HTTP handler writes incoming files
		// before handing them to the pipeline.
		StagingDir string `envconfig:"UPLOAD_STAGING_DIR" default:"uploads"`
		// HistoryLimit caps how many audit records the history endpoint returns.
		HistoryLimit int `envconfig:"UPLOAD_HISTORY_LIMIT" default:"10"`
	}

	Transactions struct {
		// FetchLimit caps how many transactions the listing endpoint returns.
		FetchLimit int `envconfig:"TRANSACTIONS_FETCH_LIMIT" default:"1000"`
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
