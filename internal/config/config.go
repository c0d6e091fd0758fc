package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	AutoMigrate bool

	ServerPort string

	RedisURL string

	AdminTokenHash     string
	JWTSecret          string
	AdminSessionMaxAge int

	CheckInRatePerSecond float64
	CheckInRateBurst     int

	LogLevel  string
	LogFormat string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found or error loading it, relying on environment variables")
	}

	adminSessionMaxAge, err := strconv.Atoi(os.Getenv("ADMIN_SESSION_MAX_AGE"))
	if err != nil || adminSessionMaxAge <= 0 {
		adminSessionMaxAge = 3600
	}

	checkInRate, err := strconv.ParseFloat(os.Getenv("CHECKIN_RATE_PER_SECOND"), 64)
	if err != nil || checkInRate <= 0 {
		checkInRate = 1
	}

	checkInBurst, err := strconv.Atoi(os.Getenv("CHECKIN_RATE_BURST"))
	if err != nil || checkInBurst <= 0 {
		checkInBurst = 5
	}

	autoMigrate := true
	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTO_MIGRATE value %q: %w", v, err)
		}
		autoMigrate = parsed
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "require"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	if logFormat == "" {
		logFormat = "json"
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      os.Getenv("DB_PORT"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBSSLMode:   sslMode,
		AutoMigrate: autoMigrate,

		ServerPort: serverPort,

		RedisURL: os.Getenv("REDIS_URL"),

		AdminTokenHash:     strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_TOKEN_HASH"))),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AdminSessionMaxAge: adminSessionMaxAge,

		CheckInRatePerSecond: checkInRate,
		CheckInRateBurst:     checkInBurst,

		LogLevel:  logLevel,
		LogFormat: logFormat,
	}

	if cfg.DatabaseURL == "" && cfg.DBHost == "" {
		return nil, fmt.Errorf("database not configured: set DATABASE_URL or DB_HOST")
	}

	return cfg, nil
}

// DSN returns the Postgres connection string, preferring DATABASE_URL.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// AdminEnabled reports whether admin login can succeed.
func (c *Config) AdminEnabled() bool {
	return c.AdminTokenHash != "" && c.JWTSecret != ""
}
