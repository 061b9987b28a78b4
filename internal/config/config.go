package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache backends for the durable reminder-message mirror.
const (
	CacheBackendDatabase = "database"
	CacheBackendRedis    = "redis"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port                 string
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string
	OpenAIAPIKey         string
	OpenAIModel          string
	DatabaseURL          string
	SQLitePath           string
	ReminderCache        string
	RedisURL             string
	DigestSchedule       string
	LogLevel             string
	NameMentionRate      float64
	StatusWait           time.Duration
	LocalTimezone        *time.Location
}

// Load reads configuration values and prepares defaults where applicable.
func Load() *Config {
	_ = godotenv.Load()

	timezoneName := getenvDefault("LOCAL_TIMEZONE", "Local")
	location, err := time.LoadLocation(timezoneName)
	if err != nil {
		log.Printf("config: invalid LOCAL_TIMEZONE %q, defaulting to system local: %v", timezoneName, err)
		location = time.Local
	}

	cacheBackend := strings.ToLower(getenvDefault("REMINDER_CACHE", CacheBackendDatabase))
	if cacheBackend != CacheBackendDatabase && cacheBackend != CacheBackendRedis {
		log.Printf("config: unknown REMINDER_CACHE %q, using %s", cacheBackend, CacheBackendDatabase)
		cacheBackend = CacheBackendDatabase
	}

	rate := ParseFloatEnv("NAME_MENTION_RATE", 0.4)
	if rate < 0 || rate > 1 {
		log.Printf("config: NAME_MENTION_RATE=%v out of range [0,1], using 0.4", rate)
		rate = 0.4
	}

	waitSeconds := ParseIntEnv("STATUS_WAIT_SECONDS", 8)
	if waitSeconds < 0 {
		waitSeconds = 0
	}

	return &Config{
		Port:                 getenvDefault("PORT", "8080"),
		TwilioAccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:          os.Getenv("OPENAI_MODEL"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		SQLitePath:           getenvDefault("SQLITE_PATH", "plants.db"),
		ReminderCache:        cacheBackend,
		RedisURL:             getenvDefault("REDIS_URL", "redis://localhost:6379/0"),
		DigestSchedule:       getenvDefault("DIGEST_SCHEDULE", "0 8 * * *"),
		LogLevel:             getenvDefault("LOG_LEVEL", "info"),
		NameMentionRate:      rate,
		StatusWait:           time.Duration(waitSeconds) * time.Second,
		LocalTimezone:        location,
	}
}

func getenvDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

// ParseIntEnv returns the integer value for an environment variable or the provided default.
func ParseIntEnv(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as int: %v", key, value, err)
		return def
	}
	return parsed
}

// ParseFloatEnv returns the float value for an environment variable or the provided default.
func ParseFloatEnv(key string, def float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as float: %v", key, value, err)
		return def
	}
	return parsed
}
