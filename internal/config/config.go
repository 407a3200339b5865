package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"splitledger/internal/currency"
	applog "splitledger/internal/log"
)

const (
	BackendMemory = "memory"
	BackendSheets = "sheets"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	ShutdownTimeout    time.Duration
	LogLevel           string

	// Ledger
	UserAName          string
	UserBName          string
	SeedDemo           bool
	BaseCurrency       string
	Currencies         string
	HighlightThreshold float64
	ViewCacheSize      int
	ViewCacheTTL       time.Duration

	// Activity journal; empty path disables it
	JournalDBPath string

	// AMQP; empty URL disables event publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	DataBackend              string
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleEventsSheetName    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	SheetsExportSchedule     string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:           getEnv("LOG_LEVEL", "info"),

		UserAName:          getEnv("USER_A_NAME", "Chix"),
		UserBName:          getEnv("USER_B_NAME", "Matilda"),
		SeedDemo:           getEnvBool("SEED_DEMO", false),
		BaseCurrency:       getEnv("BASE_CURRENCY", "SEK"),
		Currencies:         getEnv("CURRENCIES", currency.DefaultTable),
		HighlightThreshold: getEnvFloat("HIGHLIGHT_THRESHOLD", 3000),
		ViewCacheSize:      getEnvInt("VIEW_CACHE_SIZE", 128),
		ViewCacheTTL:       getEnvDuration("VIEW_CACHE_TTL", 5*time.Minute),

		JournalDBPath: getEnv("JOURNAL_DB_PATH", "./data/journal.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "splitledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		DataBackend:              getEnv("DATA_BACKEND", BackendMemory),
		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Ledger"),
		GoogleEventsSheetName:    getEnv("GOOGLE_EVENTS_SHEET_NAME", "Ledger Events"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		SheetsExportSchedule:     getEnv("SHEETS_EXPORT_SCHEDULE", ""),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	// Ledger
	if strings.TrimSpace(c.UserAName) == "" || strings.TrimSpace(c.UserBName) == "" {
		errors = append(errors, "user display names cannot be empty")
	} else if strings.EqualFold(strings.TrimSpace(c.UserAName), strings.TrimSpace(c.UserBName)) {
		errors = append(errors, fmt.Sprintf("user display names must differ, both are '%s'", c.UserAName))
	}
	if _, err := currency.Parse(c.Currencies, c.BaseCurrency); err != nil {
		errors = append(errors, fmt.Sprintf("invalid currencies '%s': %v", c.Currencies, err))
	}
	if c.HighlightThreshold < 0 {
		errors = append(errors, fmt.Sprintf("invalid highlight threshold %v: must not be negative", c.HighlightThreshold))
	}
	if c.ViewCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid view cache size %d: must be at least 1", c.ViewCacheSize))
	}
	if c.ViewCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid view cache TTL %v: must be at least 1 second", c.ViewCacheTTL))
	}

	// Journal directory must exist or be creatable
	if c.JournalDBPath != "" {
		dir := filepath.Dir(c.JournalDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create journal database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate data backend
	switch c.DataBackend {
	case BackendMemory:
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, []string{BackendMemory, BackendSheets}))
	}

	if c.SheetsExportSchedule != "" {
		if _, err := cron.ParseStandard(c.SheetsExportSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid sheets export schedule '%s': %v", c.SheetsExportSchedule, err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
