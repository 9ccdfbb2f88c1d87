package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	SheetBalance string
	SheetSales   string

	// Efficiency bucket upper bounds, in percent. A record with zero
	// denominator always lands in the "no baseline" bucket regardless of
	// these values.
	EffLowMax    float64
	EffMediumMax float64
	EffHighMax   float64

	// When true the SKU column wins over STYLE_ID as the sales-side style
	// identifier when both resolve.
	PreferSKUStyleID bool

	ServerAddr        string
	ServerShutdownSec int
	MaxUploadBytes    int64

	LogLevel  string
	LogFormat string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		SheetBalance: getEnv("SHEET_BALANCE", "Balance"),
		SheetSales:   getEnv("SHEET_SALES", "Sales"),

		EffLowMax:    getEnvFloat("EFFICIENCY_LOW_MAX", 30),
		EffMediumMax: getEnvFloat("EFFICIENCY_MEDIUM_MAX", 60),
		EffHighMax:   getEnvFloat("EFFICIENCY_HIGH_MAX", 100),

		PreferSKUStyleID: getEnvBool("PREFER_SKU_STYLE_ID", false),

		ServerAddr:        getEnv("SERVER_ADDR", ":8080"),
		ServerShutdownSec: getEnvInt("SERVER_SHUTDOWN_SEC", 15),
		MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_MB", 64)) << 20,

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.SheetBalance) == "" || strings.TrimSpace(c.SheetSales) == "" {
		return fmt.Errorf("sheet names must not be empty")
	}
	if !(c.EffLowMax < c.EffMediumMax && c.EffMediumMax < c.EffHighMax) {
		return fmt.Errorf("efficiency thresholds must be strictly increasing: %v %v %v",
			c.EffLowMax, c.EffMediumMax, c.EffHighMax)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
