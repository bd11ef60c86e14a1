package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Edit modes for the admin field-edit flows.
const (
	EditModeLenient = "lenient"
	EditModeStrict  = "strict"
)

// Session backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	DataFile       string
	AdminIDs       []int64
	EditMode       string
	SessionBackend string
	SessionTTL     time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool
	ChatAuthSecret string
	CORSOrigins    []string
	EventQueueSize int
	ClinicName     string
}

// Load reads configuration from environment variables.
// It fails when a value that cannot be defaulted is malformed.
func Load() (*Config, error) {
	adminIDs, err := parseAdminIDs(getEnv("ADMIN_IDS", ""))
	if err != nil {
		return nil, err
	}

	editMode := strings.ToLower(strings.TrimSpace(getEnv("EDIT_MODE", EditModeLenient)))
	if editMode != EditModeLenient && editMode != EditModeStrict {
		return nil, fmt.Errorf("config: unknown EDIT_MODE %q", editMode)
	}

	backend := strings.ToLower(strings.TrimSpace(getEnv("SESSION_BACKEND", SessionBackendMemory)))
	if backend != SessionBackendMemory && backend != SessionBackendRedis {
		return nil, fmt.Errorf("config: unknown SESSION_BACKEND %q", backend)
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DataFile:       getEnv("DATA_FILE", "appointments.json"),
		AdminIDs:       adminIDs,
		EditMode:       editMode,
		SessionBackend: backend,
		SessionTTL:     getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		RedisAddr:      getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),
		ChatAuthSecret: getEnv("CHAT_AUTH_SECRET", ""),
		CORSOrigins:    splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		EventQueueSize: getEnvAsInt("EVENT_QUEUE_SIZE", 128),
		ClinicName:     getEnv("CLINIC_NAME", "Клиника «Здоровье»"),
	}, nil
}

// IsAdmin reports whether id is on the administrator allow-list.
func (c *Config) IsAdmin(id int64) bool {
	for _, admin := range c.AdminIDs {
		if admin == id {
			return true
		}
	}
	return false
}

func parseAdminIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: invalid ADMIN_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
