package configs

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMongoURI = "mongodb://127.0.0.1:27017"
	DefaultPort     = "8080"
	DefaultTokenTTL = time.Hour

	DBName              = "plp_bookstore"
	BooksCollection     = "books"
	AuditLogsCollection = "audit_logs"
)

type Config struct {
	MongoURI     string
	Port         string
	LogLevel     logrus.Level
	RequireMatch bool
	AuditLog     bool

	// serve only
	JWTSecret    string
	AuthUserID   string
	AuthUsername string
	AuthPassword string
	TokenTTL     time.Duration
}

// LoadConfig reads .env and .env.local (if present) without overriding
// variables already set in the environment, then builds the Config.
func LoadConfig() Config {
	if err := godotenv.Load(".env"); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}
	_ = godotenv.Load(".env.local")

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		logrus.Warnf("Invalid LOG_LEVEL %q, using info", os.Getenv("LOG_LEVEL"))
		level = logrus.InfoLevel
	}

	return Config{
		MongoURI:     getEnv("MONGODB_URI", DefaultMongoURI),
		Port:         getEnv("PORT", DefaultPort),
		LogLevel:     level,
		RequireMatch: getBool("REQUIRE_MATCH"),
		AuditLog:     getBool("AUDIT_LOG"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		AuthUserID:   getEnv("AUTH_USER_ID", "admin"),
		AuthUsername: os.Getenv("AUTH_USERNAME"),
		AuthPassword: os.Getenv("AUTH_PASSWORD"),
		TokenTTL:     getDuration("TOKEN_TTL", DefaultTokenTTL),
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string) bool {
	val := os.Getenv(key)
	if val == "" {
		return false
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		logrus.Warnf("Invalid %s %q, using false", key, val)
		return false
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		logrus.Warnf("Invalid %s %q, using %s", key, val, fallback)
		return fallback
	}
	return d
}
