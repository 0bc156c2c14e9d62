package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr          string
	APIBaseURL        string
	RoutePrefix       string
	InstitutionDomain string
	SessionBackend    string
	SessionDBPath     string
	RedisAddr         string
	RedisPassword     string
	StatusInterval    time.Duration
	StatusTimeout     time.Duration
	APITimeout        time.Duration
	LogLevel          string
	Debug             bool
}

// Load reads the portal configuration from the environment. A .env file (or the
// file named by ENV_FILE) is loaded first when present; real env vars win.
func Load() Config {
	loadDotEnv(getenv("ENV_FILE", ".env"))
	return Config{
		HTTPAddr:          getenv("HTTP_ADDR", "127.0.0.1:8090"),
		APIBaseURL:        strings.TrimRight(getenv("API_BASE_URL", "http://127.0.0.1:5000"), "/"),
		RoutePrefix:       normalizePrefix(getenv("ROUTE_PREFIX", "/Erp_Mnmjec")),
		InstitutionDomain: strings.TrimPrefix(getenv("INSTITUTION_DOMAIN", "mnmjec.ac.in"), "@"),
		SessionBackend:    strings.ToLower(getenv("SESSION_BACKEND", "sqlite")),
		SessionDBPath:     getenv("SESSION_DB_PATH", defaultSessionPath()),
		RedisAddr:         getenv("REDIS_ADDR", ""),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		StatusInterval:    getenvDuration("STATUS_INTERVAL", 10*time.Second),
		StatusTimeout:     getenvDuration("STATUS_TIMEOUT", 3*time.Second),
		APITimeout:        getenvDuration("API_TIMEOUT", 0),
		LogLevel:          strings.ToLower(getenv("LOG_LEVEL", "info")),
		Debug:             getenvBool("DEBUG", false),
	}
}

func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	// Overload is not used: variables already set in the process take precedence.
	_ = godotenv.Load(path)
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "portal-session.db"
	}
	return filepath.Join(dir, "campusportal", "session.db")
}

// EnsureSessionDir creates the parent directory of the sqlite session file.
func (c Config) EnsureSessionDir() error {
	dir := filepath.Dir(c.SessionDBPath)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}
	return nil
}

func normalizePrefix(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimRight(value, "/")
	if value == "" {
		return ""
	}
	if !strings.HasPrefix(value, "/") {
		value = "/" + value
	}
	return value
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
