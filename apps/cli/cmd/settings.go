package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/abdul-hamid-achik/stopwatch/packages/core/config"
	"github.com/abdul-hamid-achik/stopwatch/packages/query"
)

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

// loadSettings layers the config file, the .env file, WFM_* variables and
// the global flags, in increasing precedence.
func loadSettings() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	envFile := envFileFlag
	if envFile == "" {
		if _, err := os.Stat(".env"); err == nil {
			envFile = ".env"
		}
	}

	var dotenv map[string]string
	if envFile != "" {
		dotenv, err = config.LoadDotEnv(envFile)
		if err != nil {
			return nil, err
		}
	}

	cfg, err = cfg.ApplyEnv(dotenv)
	if err != nil {
		return nil, err
	}

	flags := &config.Config{}
	if verboseFlag > 0 {
		flags.Verbose = config.BoolPtr(true)
	}
	if noColorFlag {
		flags.NoColor = config.BoolPtr(true)
	}
	return cfg.Merge(flags), nil
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "", log.LstdFlags)
}

// newQueryClient builds the engine every command talks through
func newQueryClient(cfg *config.Config, logger *log.Logger) *query.Client {
	transportOpts := []query.TransportOption{
		query.WithValidateSSL(cfg.GetValidateSSL()),
	}
	if cfg.Proxy != "" {
		transportOpts = append(transportOpts, query.WithProxy(cfg.Proxy))
	}

	return query.NewClient(
		query.WithTransport(query.NewHTTPTransport(transportOpts...)),
		query.WithTimeout(cfg.TimeoutDuration()),
		query.WithMaxRedirects(cfg.MaxRedirects),
		query.WithLogger(logger),
		query.WithVerbose(verboseFlag > 1),
	)
}
