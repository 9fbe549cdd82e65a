package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App         AppConfig      `yaml:"app"`
	Telegram    TelegramConfig `yaml:"telegram"`
	Database    DatabaseConfig `yaml:"database"`
	Redis       RedisConfig    `yaml:"redis"`
	Backup      BackupConfig   `yaml:"backup"`
	Logging     LoggingConfig  `yaml:"logging"`
	API         APIConfig      `yaml:"api"`
	Exports     ExportConfig   `yaml:"exports"`
	Google      GoogleConfig   `yaml:"google"`
	Bot         BotConfig      `yaml:"bot"`
	CatalogPath string         `yaml:"catalog_path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	Timezone    string `yaml:"timezone"`
}

type TelegramConfig struct {
	BotToken       string `yaml:"bot_token" validate:"required"`
	ReceiverChatID int64  `yaml:"receiver_chat_id" validate:"required"`
	Debug          bool   `yaml:"debug"`
	PollTimeout    int    `yaml:"poll_timeout" validate:"gte=0"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output" validate:"omitempty,oneof=stdout stderr file"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled     bool               `yaml:"enabled"`
	HTTPPort    int                `yaml:"http_port" validate:"gte=0,lte=65535"`
	GRPCPort    int                `yaml:"grpc_port" validate:"gte=0,lte=65535"`
	VerifyToken string             `yaml:"whatsapp_verify_token"`
	APIKeys     []string           `yaml:"api_keys"`
	RateLimit   APIRateLimitConfig `yaml:"rate_limit"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type GoogleConfig struct {
	CredentialsFile      string `yaml:"credentials_file"`
	BookingSpreadSheetID string `yaml:"bookings_spreadsheet_id"`
}

// Enabled reports whether the bookings ledger sync has enough settings to run.
func (g GoogleConfig) Enabled() bool {
	return g.CredentialsFile != "" && g.BookingSpreadSheetID != ""
}

type BotConfig struct {
	CleanupDelay       time.Duration `yaml:"cleanup_delay"`
	ReportCleanupDelay time.Duration `yaml:"report_cleanup_delay"`
	RateLimitMessages  int           `yaml:"rate_limit_messages"`
	RateLimitWindow    time.Duration `yaml:"rate_limit_window"`
	Workers            int           `yaml:"workers"`
}

const (
	DefaultCleanupDelay       = 3 * time.Second
	DefaultReportCleanupDelay = 30 * time.Second
	DefaultRateLimitMessages  = 30
	DefaultRateLimitWindow    = time.Minute
)

func Load(configPath string) (*Config, error) {
	// .env is optional; a missing file is not an error.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expanded, &config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}

	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return err
	}

	if c.Logging.Output == "file" && c.Logging.FilePath == "" {
		return errors.New("logging.output=file requires logging.file_path")
	}

	if c.Backup.Enabled && c.Backup.StoragePath == "" {
		return errors.New("backup.storage_path is required when backups are enabled")
	}

	return nil
}

func fieldError(fe validator.FieldError) error {
	switch fe.StructNamespace() {
	case "Config.Telegram.BotToken":
		return errors.New("telegram bot token is required")
	case "Config.Telegram.ReceiverChatID":
		return errors.New("telegram receiver chat id is required")
	case "Config.Database.Path":
		return errors.New("database path is required")
	}
	return fmt.Errorf("invalid %s: failed %q", fe.Namespace(), fe.Tag())
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "backoffice"
	}
	if c.Telegram.PollTimeout == 0 {
		c.Telegram.PollTimeout = 60
	}
	if c.API.HTTPPort == 0 {
		c.API.HTTPPort = 8080
	}
	if c.API.GRPCPort == 0 {
		c.API.GRPCPort = 8081
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 5
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 10
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Bot.CleanupDelay == 0 {
		c.Bot.CleanupDelay = DefaultCleanupDelay
	}
	if c.Bot.ReportCleanupDelay == 0 {
		c.Bot.ReportCleanupDelay = DefaultReportCleanupDelay
	}
	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = DefaultRateLimitMessages
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = DefaultRateLimitWindow
	}
	if c.Bot.Workers == 0 {
		c.Bot.Workers = 8
	}
	if c.Backup.Schedule == "" {
		c.Backup.Schedule = "24h"
	}
}
