package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joineryai/quote-engine/internal/entity"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	OCR     OCRConfig
	Pricing PricingDefaults
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	DownloadTimeout time.Duration
	MaxDocumentSize int64
}

// OCRConfig holds OCR fallback configuration
type OCRConfig struct {
	Pdftoppm  string
	Tesseract string
	Lang      string
	DPI       int
	MaxPages  int
}

// PricingDefaults holds the tenant-independent pricing defaults applied when
// a request does not override them.
type PricingDefaults struct {
	MarkupPercent  float64
	VATPercent     float64
	MarkupDelivery bool
	Amalgamate     bool
	RoundTo        int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8000"),
			DownloadTimeout: getEnvAsDuration("DOWNLOAD_TIMEOUT", 30*time.Second),
			MaxDocumentSize: int64(getEnvAsInt("MAX_DOCUMENT_BYTES", 25<<20)),
		},
		OCR: OCRConfig{
			Pdftoppm:  getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract: getEnv("TESSERACT_BIN", "tesseract"),
			Lang:      getEnv("TESSERACT_LANG", "eng"),
			DPI:       getEnvAsInt("OCR_DPI", 200),
			MaxPages:  getEnvAsInt("OCR_MAX_PAGES", 5),
		},
		Pricing: PricingDefaults{
			MarkupPercent:  getEnvAsFloat64("MARKUP_PERCENT", 20.0),
			VATPercent:     getEnvAsFloat64("VAT_PERCENT", 20.0),
			MarkupDelivery: getEnvAsBool("MARKUP_DELIVERY", false),
			Amalgamate:     getEnvAsBool("AMALGAMATE_DELIVERY", true),
			RoundTo:        getEnvAsInt("ROUND_TO", 2),
		},
	}
}

// Config converts the environment defaults into a pricing configuration.
func (p PricingDefaults) Config() entity.PricingConfig {
	return entity.PricingConfig{
		MarkupPercent:      p.MarkupPercent,
		VATPercent:         p.VATPercent,
		MarkupDelivery:     p.MarkupDelivery,
		AmalgamateDelivery: p.Amalgamate,
		RoundTo:            p.RoundTo,
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.OCR.MaxPages <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_MAX_PAGES must be positive", ErrInvalidInput)
	}
	if c.Pricing.RoundTo < 0 {
		return NewAppError("CONFIG_ERROR", "ROUND_TO must not be negative", ErrInvalidInput)
	}
	return nil
}
