package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	RemotePostgres = "postgres"
	RemoteRedis    = "redis"
	RemoteMemory   = "memory"
	RemoteNone     = "none"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Remote      RemoteConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Sync        SyncConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
	Game        GameConfig
	Boards      BoardsConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxConn      int
}

// RemoteConfig selects the document store boards are mirrored to.
type RemoteConfig struct {
	Backend string
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL         string
	Password    string
	DB          int
	Prefix      string
	PoolSize    int
	DialTimeout time.Duration
}

type JWTConfig struct {
	Secret string
	Issuer string
}

// SyncConfig drives the local cache and the write-back to the remote store.
type SyncConfig struct {
	LocalCachePath  string
	Debounce        time.Duration
	Interval        time.Duration
	MonitorInterval time.Duration
	Concurrency     int
	MaxRetry        int
	BatchSize       int
	RetentionHours  int
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

type GameConfig struct {
	AwardAchievementPoints bool
	Timezone               string
}

type BoardsConfig struct {
	StrictActiveDelete bool
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "kanban"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:      getInt("SERVER_MAX_CONN", 0),
		},
		Remote: RemoteConfig{
			Backend: strings.ToLower(getString("REMOTE_STORE", RemotePostgres)),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "kanban"),
			User:            getString("DB_USER", "kanban"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:         getString("REDIS_URL", "redis://localhost:6379"),
			Password:    os.Getenv("REDIS_PASSWORD"),
			DB:          getInt("REDIS_DB", 0),
			Prefix:      getString("REDIS_PREFIX", "kanban:"),
			PoolSize:    getInt("REDIS_POOL_SIZE", 10),
			DialTimeout: getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getString("JWT_ISSUER", "kanban"),
		},
		Sync: SyncConfig{
			LocalCachePath:  getString("LOCAL_CACHE_PATH", "./data/kanban.db"),
			Debounce:        getDuration("SYNC_DEBOUNCE", time.Second),
			Interval:        getDuration("SYNC_INTERVAL_SECONDS", 30*time.Second),
			MonitorInterval: getDuration("MONITOR_INTERVAL_SECONDS", 10*time.Second),
			Concurrency:     getInt("SYNC_CONCURRENCY", 4),
			MaxRetry:        getInt("MAX_RETRY_ATTEMPTS", 3),
			BatchSize:       getInt("SYNC_BATCH_SIZE", 50),
			RetentionHours:  getInt("SYNC_RETENTION_HOURS", 72),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
		Game: GameConfig{
			AwardAchievementPoints: getBool("GAME_AWARD_ACHIEVEMENT_POINTS", false),
			Timezone:               getString("GAME_TIMEZONE", "Local"),
		},
		Boards: BoardsConfig{
			StrictActiveDelete: getBool("STRICT_ACTIVE_DELETE", false),
		},
	}

	switch cfg.Remote.Backend {
	case RemotePostgres, RemoteRedis, RemoteMemory, RemoteNone:
	default:
		return nil, fmt.Errorf("unsupported REMOTE_STORE %q", cfg.Remote.Backend)
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}

// Location resolves the game timezone, falling back to the local zone.
func (c *Config) Location() *time.Location {
	if c.Game.Timezone == "" || strings.EqualFold(c.Game.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Game.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
