package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"jobdash/internal/domain/job"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Feed        FeedConfig
	Suggestions Suggestions
}

type AppConfig struct {
	AppName       string
	Environment   string
	HTTPPort      string
	MigrationsDir string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration

	// ApplicationName shows up in pg_stat_activity.
	ApplicationName  string
	StatementTimeout time.Duration
	SlowQuery        time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	TTL      time.Duration
}

// AuthConfig holds the HS256 secret shared with the external auth provider.
// An empty secret means every request is treated as anonymous.
type AuthConfig struct {
	JWTSecret   string
	JWTAudience string
}

type FeedConfig struct {
	PageSize int
	Debounce time.Duration
}

// Suggestions are UI affordances only; any status or priority string is accepted.
type Suggestions struct {
	Status   []string `yaml:"status"`
	Priority []string `yaml:"priority"`
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

func defaultSuggestions() Suggestions {
	var s Suggestions
	for _, v := range job.StatusSuggestions {
		s.Status = append(s.Status, v.String())
	}
	for _, v := range job.PrioritySuggestions {
		s.Priority = append(s.Priority, v.String())
	}
	return s
}

func Load() (Config, error) {
	cfg := Config{}

	var missing []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}

	cfg.App = AppConfig{
		AppName:       req("APP_NAME"),
		Environment:   req("APP_ENV"),
		HTTPPort:      req("HTTP_PORT"),
		MigrationsDir: opt("MIGRATIONS_DIR"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:     opt("DB_HOST"),
		DBPort:     opt("DB_PORT"),
		DBName:     opt("DB_NAME"),
		DBUser:     opt("DB_USER"),
		DBPassword: opt("DB_PASSWORD"),
		DBSSLMode:  opt("DB_SSL_MODE"),

		ConnectTimeout:        secondsEnv("DB_CONNECT_TIMEOUT", 0),
		PoolMaxConns:          int32(intEnv("DB_POOL_MAX_CONNS", 0)),
		PoolMinConns:          int32(intEnv("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   secondsEnv("DB_POOL_MAX_CONN_LIFETIME", 0),
		PoolMaxConnIdleTime:   secondsEnv("DB_POOL_MAX_CONN_IDLE_TIME", 0),
		PoolHealthCheckPeriod: secondsEnv("DB_POOL_HEALTH_CHECK_PERIOD", 0),

		StatementTimeout: millisEnv("DB_STATEMENT_TIMEOUT_MS", 0),
		SlowQuery:        millisEnv("DB_SLOW_QUERY_MS", 200*time.Millisecond),
	}
	cfg.Database.ApplicationName = cfg.App.AppName

	cfg.Redis = RedisConfig{
		Host:     withDefault(opt("REDIS_HOST"), "localhost"),
		Port:     withDefault(opt("REDIS_PORT"), "6379"),
		Password: opt("REDIS_PASSWORD"),
		TTL:      secondsEnv("REDIS_TTL", 600*time.Second),
	}

	cfg.Auth = AuthConfig{
		JWTSecret:   opt("AUTH_JWT_SECRET"),
		JWTAudience: opt("AUTH_JWT_AUDIENCE"),
	}

	cfg.Feed = FeedConfig{
		PageSize: intEnv("FEED_PAGE_SIZE", 9),
		Debounce: time.Duration(intEnv("FEED_DEBOUNCE_MS", 400)) * time.Millisecond,
	}
	if cfg.Feed.PageSize <= 0 {
		cfg.Feed.PageSize = 9
	}
	if cfg.Feed.Debounce <= 0 {
		cfg.Feed.Debounce = 400 * time.Millisecond
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	sugg, err := LoadSuggestions(opt("SUGGESTIONS_FILE"))
	if err != nil {
		return Config{}, err
	}
	cfg.Suggestions = sugg

	return cfg, nil
}

// LoadSuggestions reads an optional YAML file with `status` and `priority`
// lists. Missing lists fall back to the built-in defaults.
func LoadSuggestions(path string) (Suggestions, error) {
	out := defaultSuggestions()
	path = strings.TrimSpace(path)
	if path == "" {
		return out, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Suggestions{}, fmt.Errorf("read suggestions file: %w", err)
	}
	var fromFile Suggestions
	if err := yaml.Unmarshal(b, &fromFile); err != nil {
		return Suggestions{}, fmt.Errorf("parse suggestions file: %w", err)
	}
	if s := cleanList(fromFile.Status); len(s) > 0 {
		out.Status = s
	}
	if p := cleanList(fromFile.Priority); len(p) > 0 {
		out.Priority = p
	}
	return out, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func withDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func intEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func millisEnv(key string, fallback time.Duration) time.Duration {
	v := intEnv(key, -1)
	if v <= 0 {
		return fallback
	}
	return time.Duration(v) * time.Millisecond
}

func secondsEnv(key string, fallback time.Duration) time.Duration {
	v := intEnv(key, -1)
	if v <= 0 {
		return fallback
	}
	return time.Duration(v) * time.Second
}
