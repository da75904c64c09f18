package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL    string
	AMQPURL        string
	HTTPAddr       string
	TrackingHost   string        // base URL embedded in tracking links
	FromAddress    string        // default email "from" when no sender name is set
	ResendCeiling  int           // maximum automatic resends per record
	ResendInterval time.Duration // added to expires_at after each resend
	InitialExpiry  time.Duration // expiry window for newly created records
	RecordTimeout  time.Duration // per-record processing bound within a cycle

	CronSpecResend string // eligibility sweep, every minute in this deployment
	CronSpecStats  string // daily stats summary

	TelegramToken string // optional; ops alerts are disabled when empty
	OpsChatID     int64

	LogLevel    string
	Environment string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.AMQPURL = os.Getenv("AMQP_URL")
	if cfg.AMQPURL == "" {
		return nil, fmt.Errorf("AMQP_URL is not set")
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.TrackingHost = strings.TrimRight(os.Getenv("TRACKING_HOST"), "/")
	if cfg.TrackingHost == "" {
		cfg.TrackingHost = "https://ezreview-ee8f0.web.app"
	}

	cfg.FromAddress = os.Getenv("FROM_ADDRESS")
	if cfg.FromAddress == "" {
		cfg.FromAddress = "feedback@ezreviews.app"
	}

	cfg.ResendCeiling = 3
	if ceilingStr := os.Getenv("RESEND_CEILING"); ceilingStr != "" {
		cfg.ResendCeiling, err = strconv.Atoi(ceilingStr)
		if err != nil || cfg.ResendCeiling < 0 {
			return nil, fmt.Errorf("invalid RESEND_CEILING: %q", ceilingStr)
		}
	}

	// Short interval matches the testing deployment; production should use
	// hours or days.
	cfg.ResendInterval = time.Minute
	if intervalStr := os.Getenv("RESEND_INTERVAL"); intervalStr != "" {
		cfg.ResendInterval, err = time.ParseDuration(intervalStr)
		if err != nil || cfg.ResendInterval <= 0 {
			return nil, fmt.Errorf("invalid RESEND_INTERVAL: %q", intervalStr)
		}
	}

	cfg.InitialExpiry = 72 * time.Hour
	if expiryStr := os.Getenv("INITIAL_EXPIRY"); expiryStr != "" {
		cfg.InitialExpiry, err = time.ParseDuration(expiryStr)
		if err != nil || cfg.InitialExpiry <= 0 {
			return nil, fmt.Errorf("invalid INITIAL_EXPIRY: %q", expiryStr)
		}
	}

	cfg.RecordTimeout = 10 * time.Second
	if timeoutStr := os.Getenv("RECORD_TIMEOUT"); timeoutStr != "" {
		cfg.RecordTimeout, err = time.ParseDuration(timeoutStr)
		if err != nil || cfg.RecordTimeout <= 0 {
			return nil, fmt.Errorf("invalid RECORD_TIMEOUT: %q", timeoutStr)
		}
	}

	cfg.CronSpecResend = os.Getenv("CRON_SPEC_RESEND")
	if cfg.CronSpecResend == "" {
		cfg.CronSpecResend = "* * * * *" // Default: every minute
	}

	cfg.CronSpecStats = os.Getenv("CRON_SPEC_STATS")
	if cfg.CronSpecStats == "" {
		cfg.CronSpecStats = "0 9 * * *" // Default: 9 AM daily
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken != "" {
		opsChatStr := os.Getenv("OPS_CHAT_ID")
		if opsChatStr == "" {
			return nil, fmt.Errorf("OPS_CHAT_ID is required when TELEGRAM_TOKEN is set")
		}
		cfg.OpsChatID, err = strconv.ParseInt(opsChatStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OPS_CHAT_ID: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}
