package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// PoolerModeTransaction marks a DATABASE_URL that points at PgBouncer in transaction pooling mode.
const PoolerModeTransaction = "transaction"

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Workers   int

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Schedule ScheduleConfig
	Import   ImportConfig
	Export   ExportConfig
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	PoolerMode   string
	WaitTimeout  time.Duration
	RetryEvery   time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ScheduleConfig tunes schedule resolution and its cache.
type ScheduleConfig struct {
	OddWeekAnchor string
	CacheEnabled  bool
	CacheTTL      time.Duration
}

// ImportConfig controls the Excel importers and the async import API.
type ImportConfig struct {
	ScheduleExcelPath string
	TeachersExcelPath string
	BulkPageSize      int
	APIEnabled        bool
	Workers           int
	ArchiveDir        string
	ArchiveTTL        time.Duration
}

// ExportConfig configures rendered schedule exports.
type ExportConfig struct {
	FontPath string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Workers = v.GetInt("API_WORKERS")
	if cfg.Workers <= 0 {
		cfg.Workers = v.GetInt("UVICORN_WORKERS")
	}

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
		Host:         firstNonEmpty(v.GetString("DB_HOST"), v.GetString("POSTGRES_HOST")),
		Port:         v.GetInt("DB_PORT"),
		User:         firstNonEmpty(v.GetString("DB_USER"), v.GetString("POSTGRES_USER")),
		Password:     firstNonEmpty(v.GetString("DB_PASSWORD"), v.GetString("POSTGRES_PASSWORD")),
		Name:         firstNonEmpty(v.GetString("DB_NAME"), v.GetString("POSTGRES_DB")),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		PoolerMode:   strings.ToLower(v.GetString("DB_POOLER_MODE")),
		WaitTimeout:  parseDuration(v.GetString("DB_WAIT_TIMEOUT"), 300*time.Second),
		RetryEvery:   parseDuration(v.GetString("DB_RETRY_INTERVAL"), 5*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		PoolSize: v.GetInt("REDIS_POOL_SIZE"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Schedule = ScheduleConfig{
		OddWeekAnchor: strings.TrimSpace(v.GetString("ODD_WEEK_ANCHOR")),
		CacheEnabled:  v.GetBool("ENABLE_SCHEDULE_CACHE"),
		CacheTTL:      parseDuration(v.GetString("SCHEDULE_CACHE_TTL"), 5*time.Minute),
	}

	pageSize := v.GetInt("BULK_PAGE_SIZE")
	if pageSize <= 0 {
		pageSize = 2000
	}
	cfg.Import = ImportConfig{
		ScheduleExcelPath: v.GetString("EXCEL_PATH"),
		TeachersExcelPath: v.GetString("TEACHERS_EXCEL_PATH"),
		BulkPageSize:      pageSize,
		APIEnabled:        v.GetBool("ENABLE_IMPORT_API"),
		Workers:           v.GetInt("IMPORT_WORKERS"),
		ArchiveDir:        v.GetString("IMPORT_ARCHIVE_DIR"),
		ArchiveTTL:        parseDuration(v.GetString("IMPORT_ARCHIVE_TTL"), 168*time.Hour),
	}

	cfg.Export = ExportConfig{FontPath: v.GetString("EXPORT_FONT_PATH")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("API_WORKERS", 0)
	v.SetDefault("UVICORN_WORKERS", 0)

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "")
	v.SetDefault("POSTGRES_USER", "schedule_user")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("POSTGRES_PASSWORD", "schedule_pass")
	v.SetDefault("DB_NAME", "")
	v.SetDefault("POSTGRES_DB", "schedule_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("DB_MAX_IDLE_CONNS", 1)
	v.SetDefault("DB_POOLER_MODE", PoolerModeTransaction)
	v.SetDefault("DB_WAIT_TIMEOUT", "300s")
	v.SetDefault("DB_RETRY_INTERVAL", "5s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ODD_WEEK_ANCHOR", "")
	v.SetDefault("ENABLE_SCHEDULE_CACHE", false)
	v.SetDefault("SCHEDULE_CACHE_TTL", "5m")

	v.SetDefault("EXCEL_PATH", "/app/excel/schedule.xlsx")
	v.SetDefault("TEACHERS_EXCEL_PATH", "/app/excel/teachers.xlsx")
	v.SetDefault("BULK_PAGE_SIZE", 2000)
	v.SetDefault("ENABLE_IMPORT_API", false)
	v.SetDefault("IMPORT_WORKERS", 1)
	v.SetDefault("IMPORT_ARCHIVE_DIR", "")
	v.SetDefault("IMPORT_ARCHIVE_TTL", "168h")

	v.SetDefault("EXPORT_FONT_PATH", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
