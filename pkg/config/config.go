package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	Env       string `validate:"oneof=development production test"`
	Port      int    `validate:"min=1,max=65535"`
	APIPrefix string `validate:"required,startswith=/"`

	Database    DatabaseConfig
	Redis       RedisConfig
	CORS        CORSConfig
	Log         LogConfig
	Sheets      SheetsConfig
	Ingestion   IngestionConfig
	Leaderboard LeaderboardConfig
	Docs        DocsConfig
}

type DatabaseConfig struct {
	Host         string `validate:"required"`
	Port         int    `validate:"min=1,max=65535"`
	User         string `validate:"required"`
	Password     string
	Name         string `validate:"required"`
	SSLMode      string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns int    `validate:"min=0"`
	MaxIdleConns int    `validate:"min=0"`
}

type RedisConfig struct {
	Enabled  bool
	Host     string `validate:"required_if=Enabled true"`
	Port     int    `validate:"min=0,max=65535"`
	Password string
	DB       int `validate:"min=0"`
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

// SheetsConfig locates the spreadsheet and the credentials used to read it.
type SheetsConfig struct {
	SpreadsheetID   string
	TaskRange       string `validate:"required"`
	IdentityRange   string `validate:"required"`
	MeetingRange    string `validate:"required"`
	CredentialsFile string
	ClientEmail     string
	PrivateKey      string
	Timeout         time.Duration `validate:"min=0"`
}

// IngestionConfig controls how grids are read and how runs are scheduled.
type IngestionConfig struct {
	Timezone    string         `validate:"required"`
	Location    *time.Location `validate:"-"`
	DateLayouts []string       `validate:"min=1,dive,required"`

	TaskNameRow       int `validate:"min=0"`
	TaskDateColumn    int `validate:"min=0"`
	MeetingNameColumn int `validate:"min=0"`
	MeetingDateRow    int `validate:"min=0"`

	IdentityHeaderRows   int `validate:"min=0"`
	IdentityNameColumn   int `validate:"min=0"`
	IdentityHandleColumn int `validate:"min=0"`
	IdentityActiveColumn int `validate:"min=0"`

	StreakWindow int           `validate:"min=1,max=1000"`
	Interval     time.Duration `validate:"min=0"`
	RunTimeout   time.Duration `validate:"min=0"`
	CronSecret   string        `validate:"omitempty,min=16"`
	QueueSize    int           `validate:"min=1"`
	MaxRetries   int           `validate:"min=0,max=10"`
}

// LeaderboardConfig governs leaderboard caching.
type LeaderboardConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration `validate:"min=0"`
}

// DocsConfig toggles the OpenAPI explorer.
type DocsConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"), ",")}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Sheets = SheetsConfig{
		SpreadsheetID:   v.GetString("SHEET_ID"),
		TaskRange:       v.GetString("SHEET_TASK_RANGE"),
		IdentityRange:   v.GetString("SHEET_IDENTITY_RANGE"),
		MeetingRange:    v.GetString("SHEET_MEETING_RANGE"),
		CredentialsFile: v.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
		ClientEmail:     v.GetString("GOOGLE_CLIENT_EMAIL"),
		PrivateKey:      v.GetString("GOOGLE_PRIVATE_KEY"),
		Timeout:         parseDuration(v.GetString("SHEET_TIMEOUT"), 30*time.Second),
	}

	cfg.Ingestion = IngestionConfig{
		Timezone:             v.GetString("INGEST_TIMEZONE"),
		DateLayouts:          splitAndTrim(v.GetString("INGEST_DATE_LAYOUTS"), "|"),
		TaskNameRow:          v.GetInt("INGEST_TASK_NAME_ROW"),
		TaskDateColumn:       v.GetInt("INGEST_TASK_DATE_COLUMN"),
		MeetingNameColumn:    v.GetInt("INGEST_MEETING_NAME_COLUMN"),
		MeetingDateRow:       v.GetInt("INGEST_MEETING_DATE_ROW"),
		IdentityHeaderRows:   v.GetInt("INGEST_IDENTITY_HEADER_ROWS"),
		IdentityNameColumn:   v.GetInt("INGEST_IDENTITY_NAME_COLUMN"),
		IdentityHandleColumn: v.GetInt("INGEST_IDENTITY_HANDLE_COLUMN"),
		IdentityActiveColumn: v.GetInt("INGEST_IDENTITY_ACTIVE_COLUMN"),
		StreakWindow:         v.GetInt("INGEST_STREAK_WINDOW"),
		Interval:             parseDuration(v.GetString("INGEST_INTERVAL"), 0),
		RunTimeout:           parseDuration(v.GetString("INGEST_RUN_TIMEOUT"), 5*time.Minute),
		CronSecret:           v.GetString("CRON_SECRET"),
		QueueSize:            v.GetInt("INGEST_QUEUE_SIZE"),
		MaxRetries:           v.GetInt("INGEST_MAX_RETRIES"),
	}
	loc, err := time.LoadLocation(cfg.Ingestion.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load INGEST_TIMEZONE %q: %w", cfg.Ingestion.Timezone, err)
	}
	cfg.Ingestion.Location = loc

	cfg.Leaderboard = LeaderboardConfig{
		CacheEnabled: v.GetBool("LEADERBOARD_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("LEADERBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Docs = DocsConfig{Enabled: v.GetBool("ENABLE_DOCS")}

	return cfg, nil
}

// Validate checks the loaded values against their constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ValidateSource additionally requires the spreadsheet settings needed to ingest.
func (c *Config) ValidateSource() error {
	if c.Sheets.SpreadsheetID == "" {
		return errors.New("invalid configuration: SHEET_ID is required")
	}
	if c.Sheets.CredentialsFile == "" && (c.Sheets.ClientEmail == "" || c.Sheets.PrivateKey == "") {
		return errors.New("invalid configuration: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CLIENT_EMAIL and GOOGLE_PRIVATE_KEY")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "mellowboard")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SHEET_ID", "")
	v.SetDefault("SHEET_TASK_RANGE", "Commit Box!A1:Z100")
	v.SetDefault("SHEET_IDENTITY_RANGE", "Github!A1:Z100")
	v.SetDefault("SHEET_MEETING_RANGE", "Weekly StandUp!A1:Z100")
	v.SetDefault("SHEET_TIMEOUT", "30s")

	v.SetDefault("INGEST_TIMEZONE", "UTC")
	v.SetDefault("INGEST_DATE_LAYOUTS", "1/2/2006|2006-01-02|Jan 2, 2006|January 2, 2006|2 Jan 2006|2-Jan-2006|Monday, January 2, 2006")
	v.SetDefault("INGEST_TASK_NAME_ROW", 1)
	v.SetDefault("INGEST_TASK_DATE_COLUMN", 0)
	v.SetDefault("INGEST_MEETING_NAME_COLUMN", 0)
	v.SetDefault("INGEST_MEETING_DATE_ROW", 0)
	v.SetDefault("INGEST_IDENTITY_HEADER_ROWS", 1)
	v.SetDefault("INGEST_IDENTITY_NAME_COLUMN", 0)
	v.SetDefault("INGEST_IDENTITY_HANDLE_COLUMN", 1)
	v.SetDefault("INGEST_IDENTITY_ACTIVE_COLUMN", 2)
	v.SetDefault("INGEST_STREAK_WINDOW", 40)
	v.SetDefault("INGEST_INTERVAL", "0s")
	v.SetDefault("INGEST_RUN_TIMEOUT", "5m")
	v.SetDefault("CRON_SECRET", "")
	v.SetDefault("INGEST_QUEUE_SIZE", 4)
	v.SetDefault("INGEST_MAX_RETRIES", 0)

	v.SetDefault("LEADERBOARD_CACHE_ENABLED", true)
	v.SetDefault("LEADERBOARD_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_DOCS", false)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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

func splitAndTrim(raw, sep string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
