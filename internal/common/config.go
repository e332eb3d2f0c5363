package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
}

// DatabaseConfig holds storage configuration. DSN selects the engine:
// a postgres:// URL opens a Postgres connection, anything else is treated
// as a SQLite file path.
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// OCRConfig holds OCR and page-rendering configuration.
type OCRConfig struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	Pdftoppm      string // binary name or absolute path; if empty -> "pdftoppm"
	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for PDF pages, default 300
	TessdataDir   string
}

// LLMConfig holds model-server configuration.
type LLMConfig struct {
	Host        string // Ollama base URL
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// PipelineConfig holds orchestration configuration.
type PipelineConfig struct {
	SkipPages   int    // leading PDF pages never processed (cover/index)
	ArtifactDir string // where failed-response debug files are written
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_URL", "voter_data.db"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("OCR_TESSERACT", "tesseract"),
			Pdftoppm:      getEnv("OCR_PDFTOPPM", "pdftoppm"),
			TesseractLang: getEnv("OCR_LANG", "eng"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
		},
		LLM: LLMConfig{
			Host:        getEnv("OLLAMA_HOST", "http://localhost:11434"),
			Model:       getEnv("OLLAMA_MODEL", "llama3.2:3b"),
			Temperature: 0, // deterministic decoding only
			Timeout:     getEnvAsDuration("OLLAMA_TIMEOUT", 5*time.Minute),
		},
		Pipeline: PipelineConfig{
			SkipPages:   getEnvAsInt("PIPELINE_SKIP_PAGES", 2),
			ArtifactDir: getEnv("PIPELINE_ARTIFACT_DIR", "."),
		},
	}
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DATABASE_URL is required", ErrInvalidInput)
	}
	if c.LLM.Host == "" {
		return NewAppError("CONFIG_ERROR", "OLLAMA_HOST is required", ErrInvalidInput)
	}
	if c.LLM.Model == "" {
		return NewAppError("CONFIG_ERROR", "OLLAMA_MODEL is required", ErrInvalidInput)
	}
	if c.Pipeline.SkipPages < 0 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_SKIP_PAGES must be >= 0", ErrInvalidInput)
	}
	return nil
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
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
