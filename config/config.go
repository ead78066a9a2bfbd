package config

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	TokenTTLHours      int
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Database
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Redis for caching and token revocation; disabled by default
	RedisEnabled  bool
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// SMTP used to tell the day's Waldo their secret code
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      bool
	// Registration
	RegisterCaptchaEnabled bool
	// Admins
	AdminUsernames []string
	AdminEnforce   bool
	// Game
	ExcludePreviousWaldo bool
	NoticeTitle          string
	NoticeHTML           string
}

// envBindings maps config keys onto the environment variables that override them.
var envBindings = map[string]string{
	"app.port":                  "APP_PORT",
	"app.jwt_secret":            "JWT_SECRET",
	"app.token_ttl_hours":       "TOKEN_TTL_HOURS",
	"app.rate_limit_per_minute": "RATE_LIMIT_PER_MINUTE",
	"app.allowed_origins":       "CORS_ALLOWED_ORIGINS",
	"database.driver":           "DB_DRIVER",
	"database.uri":              "DATABASE_URI",
	"database.host":             "DB_HOST",
	"database.port":             "DB_PORT",
	"database.user":             "DB_USER",
	"database.password":         "DB_PASSWORD",
	"database.name":             "DB_NAME",
	"gin.mode":                  "GIN_MODE",
	"gin.path":                  "GIN_PATH",
	"redis.enabled":             "REDIS_ENABLED",
	"redis.host":                "REDIS_HOST",
	"redis.port":                "REDIS_PORT",
	"redis.db":                  "REDIS_DB",
	"redis.password":            "REDIS_PASSWORD",
	"log.level":                 "LOG_LEVEL",
	"log.path":                  "LOG_PATH",
	"log.max_size_mb":           "LOG_MAX_SIZE_MB",
	"log.max_backups":           "LOG_MAX_BACKUPS",
	"log.max_age_days":          "LOG_MAX_AGE_DAYS",
	"log.compress":              "LOG_COMPRESS",
	"smtp.host":                 "SMTP_HOST",
	"smtp.port":                 "SMTP_PORT",
	"smtp.username":             "SMTP_USERNAME",
	"smtp.password":             "SMTP_PASSWORD",
	"smtp.from":                 "SMTP_FROM",
	"smtp.from_name":            "SMTP_FROM_NAME",
	"smtp.tls":                  "SMTP_TLS",
	"register.captcha_enabled":  "REGISTER_CAPTCHA_ENABLED",
	"admin.usernames":           "ADMIN_USERNAMES",
	"admin.enforce":             "ADMIN_ENFORCE",
	"game.exclude_previous":     "EXCLUDE_PREVIOUS_WALDO",
	"game.notice_title":         "NOTICE_TITLE",
	"game.notice_html":          "NOTICE_HTML",
}

var (
	cfg    AppConfig
	loaded bool
	mu     sync.RWMutex
)

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	mu.RLock()
	if loaded {
		defer mu.RUnlock()
		return cfg
	}
	mu.RUnlock()

	// Precedence: defaults -> config/config.json -> environment variable overrides.
	// A local .env file only seeds the environment; real env vars win.
	_ = godotenv.Load()

	c, err := LoadFrom(filepath.Join("config", "config.json"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if c.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	Set(c)
	return c
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	mu.RLock()
	ok := loaded
	c := cfg
	mu.RUnlock()
	if !ok {
		return Load()
	}
	return c
}

// Set replaces the cached configuration. Used at boot and by tests.
func Set(c AppConfig) {
	mu.Lock()
	cfg = c
	loaded = true
	mu.Unlock()
}

// LoadFrom reads the JSON file at path (missing file is fine) and applies defaults and env overrides.
func LoadFrom(path string) (AppConfig, error) {
	v := viper.New()
	applyDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return AppConfig{}, err
		}
	}

	if _, statErr := os.Stat(path); statErr == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return AppConfig{}, err
			}
		}
	}

	return AppConfig{
		AppPort:                v.GetString("app.port"),
		JWTSecret:              v.GetString("app.jwt_secret"),
		TokenTTLHours:          v.GetInt("app.token_ttl_hours"),
		RateLimitPerMinute:     v.GetInt("app.rate_limit_per_minute"),
		AllowedOrigins:         readList(v, "app.allowed_origins"),
		DBDriver:               strings.ToLower(v.GetString("database.driver")),
		DatabaseURI:            v.GetString("database.uri"),
		DBHost:                 v.GetString("database.host"),
		DBPort:                 v.GetString("database.port"),
		DBUser:                 v.GetString("database.user"),
		DBPassword:             v.GetString("database.password"),
		DBName:                 v.GetString("database.name"),
		GinMode:                v.GetString("gin.mode"),
		GinPath:                v.GetString("gin.path"),
		RedisEnabled:           v.GetBool("redis.enabled"),
		RedisHost:              v.GetString("redis.host"),
		RedisPort:              v.GetInt("redis.port"),
		RedisDB:                v.GetInt("redis.db"),
		RedisPassword:          v.GetString("redis.password"),
		LogLevel:               v.GetString("log.level"),
		LogPath:                v.GetString("log.path"),
		LogMaxSizeMB:           v.GetInt("log.max_size_mb"),
		LogMaxBackups:          v.GetInt("log.max_backups"),
		LogMaxAgeDays:          v.GetInt("log.max_age_days"),
		LogCompress:            v.GetBool("log.compress"),
		SMTPHost:               v.GetString("smtp.host"),
		SMTPPort:               v.GetInt("smtp.port"),
		SMTPUsername:           v.GetString("smtp.username"),
		SMTPPassword:           v.GetString("smtp.password"),
		SMTPFrom:               v.GetString("smtp.from"),
		SMTPFromName:           v.GetString("smtp.from_name"),
		SMTPTLS:                v.GetBool("smtp.tls"),
		RegisterCaptchaEnabled: v.GetBool("register.captcha_enabled"),
		AdminUsernames:         readList(v, "admin.usernames"),
		AdminEnforce:           v.GetBool("admin.enforce"),
		ExcludePreviousWaldo:   v.GetBool("game.exclude_previous"),
		NoticeTitle:            v.GetString("game.notice_title"),
		NoticeHTML:             v.GetString("game.notice_html"),
	}, nil
}

// applyDefaults sets sane defaults for every key that has one.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.token_ttl_hours", 72)
	v.SetDefault("app.rate_limit_per_minute", 60)
	v.SetDefault("app.allowed_origins", []string{"*"})
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.name", "waldo")
	v.SetDefault("gin.mode", "release")
	v.SetDefault("gin.path", "logs/go_gin.log")
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from_name", "Daily Waldo")
	v.SetDefault("admin.enforce", true)
	v.SetDefault("game.notice_title", "Find today's Waldo")
	v.SetDefault("game.notice_html", "Earlier finds earn more points.")
}

// readList accepts either a JSON array or a comma separated string (as env vars arrive).
func readList(v *viper.Viper, key string) []string {
	if s, ok := v.Get(key).(string); ok {
		return splitAndTrim(s)
	}
	return v.GetStringSlice(key)
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
