package config

import (
	"log"

	"github.com/spf13/viper"
)

const (
	// FreePlanDisabled refuses scan sessions for organizations on the free plan.
	FreePlanDisabled = "disabled"
	// FreePlanQuota lets free organizations scan with a capped re-entry count.
	FreePlanQuota = "quota"
)

type Config struct {
	Port                          string `mapstructure:"PORT"`
	DatabaseDriver                string `mapstructure:"DATABASE_DRIVER"`
	DatabasePath                  string `mapstructure:"DATABASE_PATH"`
	DatabaseDSN                   string `mapstructure:"DATABASE_DSN"`
	DiscordClientID               string `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret           string `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL            string `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordBotToken               string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	JWTSecret                     string `mapstructure:"JWT_SECRET"`
	FrontendURL                   string `mapstructure:"FRONTEND_URL"`
	FreePlanPolicy                string `mapstructure:"FREE_PLAN_POLICY"`
	FreePlanQuota                 int    `mapstructure:"FREE_PLAN_QUOTA"`
	ScanQueueSize                 int    `mapstructure:"SCAN_QUEUE_SIZE"`
	QRImageURL                    string `mapstructure:"QR_IMAGE_URL"`
	LogLevel                      string `mapstructure:"LOG_LEVEL"`
	LogFormat                     string `mapstructure:"LOG_FORMAT"`
}

func LoadConfig() *Config {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_PATH", "checkin.db")
	viper.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/auth/discord/callback")
	viper.SetDefault("FRONTEND_URL", "http://127.0.0.1:4000/")
	viper.SetDefault("FREE_PLAN_POLICY", FreePlanDisabled)
	viper.SetDefault("FREE_PLAN_QUOTA", 5)
	viper.SetDefault("SCAN_QUEUE_SIZE", 16)
	viper.SetDefault("QR_IMAGE_URL", "https://api.qrserver.com/v1/create-qr-code/?size=300x300&data=")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")

	viper.BindEnv("DATABASE_DSN")
	viper.BindEnv("DISCORD_CLIENT_ID")
	viper.BindEnv("DISCORD_CLIENT_SECRET")
	viper.BindEnv("DISCORD_BOT_TOKEN")
	viper.BindEnv("DISCORD_NOTIFICATIONS_CHANNEL_ID")
	viper.BindEnv("JWT_SECRET")

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	if config.FreePlanPolicy != FreePlanDisabled && config.FreePlanPolicy != FreePlanQuota {
		log.Fatalf("FREE_PLAN_POLICY must be %q or %q, got %q", FreePlanDisabled, FreePlanQuota, config.FreePlanPolicy)
	}
	if config.FreePlanQuota < 1 {
		config.FreePlanQuota = 1
	}
	if config.ScanQueueSize < 1 {
		config.ScanQueueSize = 1
	}

	return &config
}
