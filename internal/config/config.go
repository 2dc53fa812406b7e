package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"taxis/internal/core"
)

type Config struct {
	// HTTP Server
	Port string

	// Dataset
	DataBackend  string
	DataFile     string
	SQLiteDBPath string
	CSVDelimiter string
	Columns      core.Columns

	// Exports
	ExportDir string

	// AMQP (empty URL disables the export queue)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Report cache
	CacheTTL  time.Duration
	CacheSize int

	// Reload polling, 0 disables it
	ReloadInterval time.Duration

	LogLevel   string
	ConfigFile string
}

// fileConfig is the optional YAML overlay named by TAXIS_CONFIG.
type fileConfig struct {
	Delimiter string        `yaml:"delimiter"`
	DataFile  string        `yaml:"data_file"`
	Columns   columnsConfig `yaml:"columns"`
}

type columnsConfig struct {
	TotalCost       string `yaml:"total_cost"`
	DistanceKm      string `yaml:"distance_km"`
	Passengers      string `yaml:"passengers"`
	StartTime       string `yaml:"start_time"`
	EndTime         string `yaml:"end_time"`
	BaseFare        string `yaml:"base_fare"`
	Tax             string `yaml:"tax"`
	Tip             string `yaml:"tip"`
	Toll            string `yaml:"toll"`
	Surcharge       string `yaml:"surcharge"`
	Extra           string `yaml:"extra"`
	PaymentCode     string `yaml:"payment_code"`
	OriginZone      string `yaml:"origin_zone"`
	DestinationZone string `yaml:"destination_zone"`
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		DataFile:     getEnv("DATA_FILE", "data/NYC_202501.csv"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/taxis.db"),
		CSVDelimiter: getEnv("CSV_DELIMITER", ","),
		Columns:      core.DefaultColumns(),

		ExportDir: getEnv("EXPORT_DIR", "./exports"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "taxis"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "export_reports"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Reporte_Global"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),

		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheSize: getEnvInt("CACHE_SIZE", 200),

		ReloadInterval: getEnvDuration("RELOAD_INTERVAL", 0),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		ConfigFile: getEnv("TAXIS_CONFIG", ""),
	}

	return cfg
}

// ApplyFile overlays the YAML file at path. Only non-empty values
// override what is already set.
func (c *Config) ApplyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Delimiter != "" {
		c.CSVDelimiter = fc.Delimiter
	}
	if fc.DataFile != "" {
		c.DataFile = fc.DataFile
	}
	c.Columns = core.Columns{
		TotalCost:       fc.Columns.TotalCost,
		DistanceKm:      fc.Columns.DistanceKm,
		Passengers:      fc.Columns.Passengers,
		StartTime:       fc.Columns.StartTime,
		EndTime:         fc.Columns.EndTime,
		BaseFare:        fc.Columns.BaseFare,
		Tax:             fc.Columns.Tax,
		Tip:             fc.Columns.Tip,
		Toll:            fc.Columns.Toll,
		Surcharge:       fc.Columns.Surcharge,
		Extra:           fc.Columns.Extra,
		PaymentCode:     fc.Columns.PaymentCode,
		OriginZone:      fc.Columns.OriginZone,
		DestinationZone: fc.Columns.DestinationZone,
	}.WithDefaults()
	return nil
}

// Delimiter returns the CSV delimiter as a rune. Validate guarantees a
// single character; anything else falls back to comma.
func (c *Config) Delimiter() rune {
	r, size := utf8.DecodeRuneInString(c.CSVDelimiter)
	if r == utf8.RuneError || size != len(c.CSVDelimiter) {
		return ','
	}
	return r
}

// SheetsEnabled reports whether exports should also go to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
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

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if strings.TrimSpace(c.DataFile) == "" {
		errors = append(errors, "data file path cannot be empty")
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if n := utf8.RuneCountInString(c.CSVDelimiter); n != 1 {
		errors = append(errors, fmt.Sprintf("invalid CSV delimiter '%s': must be a single character", c.CSVDelimiter))
	} else if c.CSVDelimiter == "\"" || c.CSVDelimiter == "\n" || c.CSVDelimiter == "\r" {
		errors = append(errors, fmt.Sprintf("invalid CSV delimiter %q", c.CSVDelimiter))
	}

	if c.ExportDir == "" {
		errors = append(errors, "export directory cannot be empty")
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

	// Google Sheets is optional; when a spreadsheet is set it needs a tab and credentials
	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when GOOGLE_SPREADSHEET_ID is set")
		}
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasJSON && !hasFile {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided when GOOGLE_SPREADSHEET_ID is set")
		}
		if hasFile && !hasJSON {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate cache configuration
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	} else if c.CacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at most 10000", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	if c.ReloadInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid reload interval %v: must not be negative", c.ReloadInterval))
	} else if c.ReloadInterval > 0 && c.ReloadInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid reload interval %v: must be 0 or at least 1 second", c.ReloadInterval))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
