// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Admin       AdminConfig
	Suite       SuiteConfig
	I18n        I18nConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
}

type AdminConfig struct {
	Username string
	Password string
}

// SuiteConfig carries everything the license and update facilities need to
// talk to the Skunk API and to inspect the local plugin installation.
type SuiteConfig struct {
	SiteURL           string
	PluginsDir        string
	ProductionAPIBase string
	LocalAPIBase      string
	APITimeout        int // in seconds
}

type I18nConfig struct {
	DefaultLocale string
	LocalesPath   string
}

var schemePattern = regexp.MustCompile(`^https?://`)

// NormalizedSiteURL returns the site URL with the scheme stripped and no
// trailing slash, the form the license API expects.
func (s *SuiteConfig) NormalizedSiteURL() string {
	url := schemePattern.ReplaceAllString(s.SiteURL, "")
	return strings.TrimRight(url, "/")
}

// APIBase picks the API host. Loopback and .local site URLs are treated as
// development installs and routed to the local endpoint.
func (s *SuiteConfig) APIBase() string {
	site := s.NormalizedSiteURL()

	if strings.Contains(site, "localhost") ||
		strings.Contains(site, "127.0.0.1") ||
		strings.Contains(site, ".local") {
		return s.LocalAPIBase
	}

	return s.ProductionAPIBase
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "skunk_suite"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24), // 24 hours
		},
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
		Suite: SuiteConfig{
			SiteURL:           getEnv("SITE_URL", "http://localhost"),
			PluginsDir:        getEnv("PLUGINS_DIR", "./plugins"),
			ProductionAPIBase: getEnv("SKUNK_API_BASE", "https://skunkglobal.com"),
			LocalAPIBase:      getEnv("SKUNK_LOCAL_API_BASE", "http://localhost:3000"),
			APITimeout:        getEnvAsInt("SKUNK_API_TIMEOUT", 15),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
			LocalesPath:   getEnv("LOCALES_PATH", "./internal/i18n/locales"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
