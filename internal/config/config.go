package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	PostgresDSN string

	GoogleCredentialsFile string
	CatalogPath           string

	AdminUserIDs []int64
	SessionTTL   time.Duration
	Location     *time.Location

	MetricsAddr      string
	RetentionDays    int
	RateLimitPerSec  float64
	RateLimitBurst   int
	LogLevel         string
	LogFormat        string
	AppendTimeout    time.Duration
	HeaderCheckSpec  string
	RetentionJobSpec string
}

// LoadEnvFile reads KEY=VALUE pairs from path into the environment. Variables
// that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: loading %s: %w", path, err)
	}
	return nil
}

// FromEnv builds the configuration from environment variables, falling back
// to defaults where that makes sense.
func FromEnv() (*Config, error) {
	cfg := &Config{
		BotToken:              strings.TrimSpace(os.Getenv("BOT_TOKEN")),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisPrefix:           envOr("REDIS_PREFIX", "sheet_bot"),
		PostgresDSN:           strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		GoogleCredentialsFile: envOr("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		CatalogPath:           envOr("SHEETS_CONFIG", "sheets_config.json"),
		MetricsAddr:           envOr("METRICS_ADDR", ":9090"),
		LogLevel:              envOr("LOG_LEVEL", "info"),
		LogFormat:             envOr("LOG_FORMAT", "json"),
		HeaderCheckSpec:       envOr("HEADER_CHECK_SCHEDULE", "@hourly"),
		RetentionJobSpec:      envOr("RETENTION_SCHEDULE", "@daily"),
	}
	if cfg.BotToken == "" {
		// Older deployments of the bot used TELEGRAM_TOKEN.
		cfg.BotToken = strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN"))
	}

	if cfg.PostgresDSN == "" {
		cfg.PostgresDSN = postgresDSNFromParts()
	}

	cfg.RedisAddr = fmt.Sprintf("%s:%s", envOr("REDIS_HOST", "localhost"), envOr("REDIS_PORT", "6379"))

	var errs []error
	var err error
	if cfg.RedisDB, err = envInt("REDIS_DB", 0); err != nil {
		errs = append(errs, err)
	}
	ttlHours, err := envInt("SESSION_TTL_HOURS", 24)
	if err != nil {
		errs = append(errs, err)
	}
	if ttlHours <= 0 {
		ttlHours = 24
	}
	cfg.SessionTTL = time.Duration(ttlHours) * time.Hour

	if cfg.RetentionDays, err = envInt("JOURNAL_RETENTION_DAYS", 90); err != nil {
		errs = append(errs, err)
	}
	if cfg.RateLimitBurst, err = envInt("RATE_LIMIT_BURST", 5); err != nil {
		errs = append(errs, err)
	}
	if cfg.RateLimitPerSec, err = envFloat("RATE_LIMIT_PER_SEC", 2); err != nil {
		errs = append(errs, err)
	}
	appendSec, err := envInt("APPEND_TIMEOUT_SECONDS", 20)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.AppendTimeout = time.Duration(appendSec) * time.Second

	if cfg.AdminUserIDs, err = ParseUserIDs(os.Getenv("ADMIN_USER_IDS")); err != nil {
		errs = append(errs, err)
	}
	// ADMIN_USER_ID is the single-admin form kept from the first version.
	if single := strings.TrimSpace(os.Getenv("ADMIN_USER_ID")); single != "" {
		ids, err := ParseUserIDs(single)
		if err != nil {
			errs = append(errs, err)
		}
		cfg.AdminUserIDs = append(cfg.AdminUserIDs, ids...)
	}

	cfg.Location = time.Local
	if tz := strings.TrimSpace(os.Getenv("BOT_TIMEZONE")); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: BOT_TIMEZONE: %w", err))
		} else {
			cfg.Location = loc
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the bot cannot start without.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return errors.New("config: BOT_TOKEN is required")
	}
	if c.CatalogPath == "" {
		return errors.New("config: SHEETS_CONFIG is required")
	}
	return nil
}

func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ParseUserIDs splits a list of Telegram user ids separated by commas,
// semicolons or whitespace.
func ParseUserIDs(raw string) ([]int64, error) {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t' })
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: invalid user id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// postgresDSNFromParts assembles a DSN from POSTGRES_HOST and friends. Without
// a host the journal is left disabled.
func postgresDSNFromParts() string {
	host := strings.TrimSpace(os.Getenv("POSTGRES_HOST"))
	if host == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(envOr("POSTGRES_USER", "sheet_bot"), os.Getenv("POSTGRES_PASSWORD")),
		Host:     host + ":" + envOr("POSTGRES_PORT", "5432"),
		Path:     "/" + envOr("POSTGRES_DB", "sheet_bot"),
		RawQuery: "sslmode=" + envOr("POSTGRES_SSLMODE", "disable"),
	}
	return u.String()
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}
