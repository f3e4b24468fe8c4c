package config

import (
	"fmt"
	"os"
	"time"

	"cubedraft/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	SheetsToken       string
	SpreadsheetID     string
	DiscordBotToken   string
	AnnounceChannelID string
	FallbackChannelID string
	ServerPort        string
	LogLevel          string

	ReminderDelay  time.Duration
	ResponseWindow time.Duration
	NotifyCooldown time.Duration

	// ExpiryHourScale is how long one opt-in "expiry hour" lasts. Zero means
	// a real hour; tests shrink it.
	ExpiryHourScale time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		SheetsToken:       getEnv("SHEETS_TOKEN", ""),
		SpreadsheetID:     getEnv("SPREADSHEET_ID", ""),
		DiscordBotToken:   getEnv("DISCORD_BOT_TOKEN", ""),
		AnnounceChannelID: getEnv("ANNOUNCE_CHANNEL_ID", ""),
		FallbackChannelID: getEnv("FALLBACK_CHANNEL_ID", ""),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ReminderDelay:     constants.ReminderDelay,
		ResponseWindow:    constants.ResponseWindow,
		NotifyCooldown:    constants.NotifyCooldown,
	}

	if cfg.SheetsToken == "" {
		return nil, fmt.Errorf("SHEETS_TOKEN is required")
	}
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("SPREADSHEET_ID is required")
	}
	if cfg.DiscordBotToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}

	logger.Info().
		Str("spreadsheet_id", cfg.SpreadsheetID).
		Str("announce_channel_id", cfg.AnnounceChannelID).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("reminder_delay", cfg.ReminderDelay).
		Dur("notify_cooldown", cfg.NotifyCooldown).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
