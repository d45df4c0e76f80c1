package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// #region config
// Config is the process configuration shared by the cmd binaries.
type Config struct {
	DBPath        string `env:"ALARMNET_DB" envDefault:"alarmnet.db"`
	ListenAddr    string `env:"ALARMNET_LISTEN_ADDR" envDefault:":50051"`
	MetricsAddr   string `env:"ALARMNET_METRICS_ADDR" envDefault:":9090"`
	ServerAddr    string `env:"ALARMNET_SERVER_ADDR" envDefault:"localhost:50051"`
	LogLevel      string `env:"ALARMNET_LOG_LEVEL" envDefault:"info"`
	Ordering      string `env:"ALARMNET_ORDERING" envDefault:"declaration"`
	RecordHistory bool   `env:"ALARMNET_RECORD_HISTORY" envDefault:"true"`
}

// #endregion config

// #region load
// Load reads optional dotenv files, then parses the environment into Config.
// Variables already set in the environment win over dotenv values.
func Load(dotenvFiles ...string) (Config, error) {
	if err := loadDotenv(dotenvFiles...); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func loadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// #endregion load
