package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

type Config struct {
	AppToken   string
	BotToken   string
	Port       string
	Location   *time.Location
	ScrumStore string
	ScrumFile  string
	DB_DSN     string
	// EnforceAllowAdd makes the allow-add checkbox of a vote binding.
	EnforceAllowAdd bool
	GreetMessages   bool
	SlackDebug      bool
	LogLevel        slog.Level
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppToken:   getEnv("SLACK_APP_TOKEN", ""),
		BotToken:   getEnv("SLACK_BOT_TOKEN", ""),
		Port:       getEnv("APP_PORT", "8080"),
		ScrumStore: strings.ToLower(getEnv("SCRUM_STORE", StoreFile)),
		ScrumFile:  getEnv("SCRUM_FILE", "scrum.json"),
		DB_DSN:     getEnv("DB_DSN", ""),
	}

	var err error
	if cfg.Location, err = time.LoadLocation(getEnv("TIMEZONE", "Local")); err != nil {
		return Config{}, fmt.Errorf("TIMEZONE: %w", err)
	}
	if cfg.EnforceAllowAdd, err = getBool("VOTE_ENFORCE_ALLOW_ADD", false); err != nil {
		return Config{}, err
	}
	if cfg.GreetMessages, err = getBool("GITHUB_GREET_MESSAGES", true); err != nil {
		return Config{}, err
	}
	if cfg.SlackDebug, err = getBool("SLACK_DEBUG", false); err != nil {
		return Config{}, err
	}
	if err = cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.BotToken == "" {
		return errors.New("SLACK_BOT_TOKEN is required")
	}
	if c.AppToken == "" {
		return errors.New("SLACK_APP_TOKEN is required")
	}
	if !strings.HasPrefix(c.AppToken, "xapp-") {
		return errors.New("SLACK_APP_TOKEN must start with xapp-")
	}
	switch c.ScrumStore {
	case StoreFile:
		if c.ScrumFile == "" {
			return errors.New("SCRUM_FILE is required for the file store")
		}
	case StorePostgres, StoreSQLite:
		if c.DB_DSN == "" {
			return fmt.Errorf("DB_DSN is required for the %s store", c.ScrumStore)
		}
	default:
		return fmt.Errorf("SCRUM_STORE must be one of file, postgres, sqlite; got %q", c.ScrumStore)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
