package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type ThrottleRule struct {
	Count     int
	TimeFrame time.Duration
}

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisDialTimeout time.Duration

	AppSecretKey string
	JWTIssuer    string
	JWTTTL       time.Duration

	RateLimit int
	TimeFrame time.Duration
	Throttle  map[string]ThrottleRule
	WindowTTL time.Duration

	PaginateNum     int
	FirstPage       int
	DefaultLanguage string
	CORSOrigins     []string

	MailHost          string
	MailPort          int
	MailUsername      string
	MailPassword      string
	MailFromName      string
	MailEncryption    string
	MailRatePerSecond float64

	AdminEmail    string
	AdminPassword string
	AdminName     string

	LogLevel          string
	LogFormat         string
	LogFile           string
	LogFileMaxSizeMB  int
	LogFileMaxBackups int
	LogFileMaxAgeDays int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 15*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 1)),
		RedisAddr:               getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 getInt("REDIS_DB", 0),
		RedisDialTimeout:        getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		AppSecretKey:            strings.TrimSpace(os.Getenv("APP_SECRET_KEY")),
		JWTIssuer:               getEnv("JWT_ISSUER", "airport"),
		JWTTTL:                  getDuration("JWT_TTL", time.Hour),
		RateLimit:               getInt("RATE_LIMIT", 5),
		TimeFrame:               getDuration("TIME_FRAME", 60*time.Second),
		Throttle: map[string]ThrottleRule{
			"create": {
				Count:     getInt("THROTTLE_CREATE_COUNT", 10),
				TimeFrame: getDuration("THROTTLE_CREATE_TIME_FRAME", 30*time.Second),
			},
			"update": {
				Count:     getInt("THROTTLE_UPDATE_COUNT", 5),
				TimeFrame: getDuration("THROTTLE_UPDATE_TIME_FRAME", 60*time.Second),
			},
			"delete": {
				Count:     getInt("THROTTLE_DELETE_COUNT", 3),
				TimeFrame: getDuration("THROTTLE_DELETE_TIME_FRAME", 60*time.Second),
			},
		},
		WindowTTL:         getDuration("WINDOW_TTL", time.Hour),
		PaginateNum:       getInt("PAGINATE_NUM", 10),
		FirstPage:         getInt("FIRST_PAGE", 1),
		DefaultLanguage:   getEnv("DEFAULT_LANGUAGE", "en"),
		CORSOrigins:       splitCSV(getEnv("CORS_ORIGINS", "*")),
		MailHost:          strings.TrimSpace(os.Getenv("MAIL_HOST")),
		MailPort:          getInt("MAIL_PORT", 465),
		MailUsername:      strings.TrimSpace(os.Getenv("MAIL_USERNAME")),
		MailPassword:      os.Getenv("MAIL_PASSWORD"),
		MailFromName:      strings.TrimSpace(os.Getenv("MAIL_FROM_NAME")),
		MailEncryption:    strings.ToLower(getEnv("MAIL_ENCRYPTION", "ssl")),
		MailRatePerSecond: getFloat("MAIL_RATE_PER_SECOND", 2),
		AdminEmail:        strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminName:         getEnv("ADMIN_NAME", "Administrator"),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:         strings.ToLower(getEnv("LOG_FORMAT", "pretty")),
		LogFile:           strings.TrimSpace(os.Getenv("LOG_FILE")),
		LogFileMaxSizeMB:  getInt("LOG_FILE_MAX_SIZE_MB", 50),
		LogFileMaxBackups: getInt("LOG_FILE_MAX_BACKUPS", 5),
		LogFileMaxAgeDays: getInt("LOG_FILE_MAX_AGE_DAYS", 28),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.AppSecretKey) == "" {
		return fmt.Errorf("APP_SECRET_KEY is required")
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}

	if c.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT must be positive")
	}

	if c.TimeFrame <= 0 {
		return fmt.Errorf("TIME_FRAME must be positive")
	}

	for action, rule := range c.Throttle {
		if rule.Count <= 0 {
			return fmt.Errorf("THROTTLE_%s_COUNT must be positive", strings.ToUpper(action))
		}
		if rule.TimeFrame <= 0 {
			return fmt.Errorf("THROTTLE_%s_TIME_FRAME must be positive", strings.ToUpper(action))
		}
	}

	if c.WindowTTL <= 0 {
		return fmt.Errorf("WINDOW_TTL must be positive")
	}

	if c.PaginateNum <= 0 {
		return fmt.Errorf("PAGINATE_NUM must be positive")
	}

	if c.FirstPage <= 0 {
		return fmt.Errorf("FIRST_PAGE must be positive")
	}

	if c.MailEncryption != "ssl" && c.MailEncryption != "tls" {
		return fmt.Errorf("MAIL_ENCRYPTION must be ssl or tls")
	}

	if c.LogFormat != "pretty" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be pretty or json")
	}

	if (c.AdminEmail == "") != (strings.TrimSpace(c.AdminPassword) == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}

	return v
}

// getDuration accepts Go durations ("90s") or a bare number of seconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
