package docfill

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config contains all configuration options for document generation
type Config struct {
	// TemplatesDir is the directory template files are read from.
	TemplatesDir string
	// CatalogPath is the field and template catalogue (YAML or JSON).
	CatalogPath string
	// HistoryFile stores remembered field values. Empty disables the history.
	HistoryFile string
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string
	// LogFile, when set, receives a JSON copy of the log with size-based rotation.
	LogFile string
	// CacheMaxSize is the maximum number of template files to cache. 0 disables caching.
	CacheMaxSize int
	// CacheTTL is the time-to-live for cached templates. 0 means no expiration.
	CacheTTL time.Duration
	// PDFEnabled turns PDF conversion on.
	PDFEnabled bool
	// SofficePath is the LibreOffice binary, looked up in PATH when it has no directory.
	SofficePath string
	// ConvertTimeout bounds a single PDF conversion.
	ConvertTimeout time.Duration
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

func init() {
	configOnce.Do(func() {
		globalConfig = ConfigFromEnvironment()
	})
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		TemplatesDir:   "templates",
		CatalogPath:    "catalog.yaml",
		HistoryFile:    "",
		LogLevel:       "info",
		CacheMaxSize:   100,
		CacheTTL:       0,
		PDFEnabled:     true,
		SofficePath:    "soffice",
		ConvertTimeout: 2 * time.Minute,
	}
}

// LoadDotEnv loads variables from .env files into the process environment. Variables that
// are already set win. Files that do not exist are skipped; with no arguments ".env" in the
// working directory is tried.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	if val := os.Getenv("DOCFILL_TEMPLATES_DIR"); val != "" {
		config.TemplatesDir = val
	}

	if val := os.Getenv("DOCFILL_CATALOG"); val != "" {
		config.CatalogPath = val
	}

	if val := os.Getenv("DOCFILL_HISTORY_FILE"); val != "" {
		config.HistoryFile = val
	}

	if val := os.Getenv("DOCFILL_LOG_LEVEL"); val != "" {
		config.LogLevel = strings.ToLower(val)
	}

	if val := os.Getenv("DOCFILL_LOG_FILE"); val != "" {
		config.LogFile = val
	}

	if val := os.Getenv("DOCFILL_CACHE_MAX_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.CacheMaxSize = size
		}
	}

	if val := os.Getenv("DOCFILL_CACHE_TTL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.CacheTTL = duration
		}
	}

	if val := os.Getenv("DOCFILL_PDF_ENABLED"); val != "" {
		config.PDFEnabled = parseBool(val)
	}

	if val := os.Getenv("DOCFILL_SOFFICE"); val != "" {
		config.SofficePath = val
	}

	if val := os.Getenv("DOCFILL_CONVERT_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.ConvertTimeout = duration
		}
	}

	return config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.TemplatesDir == "" {
		return errors.New("templates directory must be set")
	}

	if c.CacheMaxSize < 0 {
		return errors.New("cache max size cannot be negative")
	}

	if c.CacheTTL < 0 {
		return errors.New("cache TTL cannot be negative")
	}

	if _, ok := parseLogLevel(c.LogLevel); !ok {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if c.PDFEnabled {
		if c.SofficePath == "" {
			return errors.New("soffice path must be set when pdf conversion is enabled")
		}
		if c.ConvertTimeout <= 0 {
			return errors.New("convert timeout must be positive")
		}
	}

	return nil
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	// Return a copy to prevent modification
	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// Update logger based on new config (outside the lock to avoid deadlock)
	UpdateLoggerFromConfig()
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
