package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DBDriver       string `mapstructure:"db_driver"`
	DBHost         string `mapstructure:"db_host"`
	DBPort         string `mapstructure:"db_port"`
	DBUser         string `mapstructure:"db_user"`
	DBPassword     string `mapstructure:"db_password"`
	DBName         string `mapstructure:"db_name"`
	DBSSLMode      string `mapstructure:"db_sslmode"`
	SQLitePath     string `mapstructure:"sqlite_path"`
	SessionStore   string `mapstructure:"session_store"`
	RedisHost      string `mapstructure:"redis_host"`
	RedisPort      string `mapstructure:"redis_port"`
	SessionSecret  string `mapstructure:"session_secret"`
	GinMode        string `mapstructure:"gin_mode"`
	ServerPort     string `mapstructure:"server_port"`
	AllowedOrigins string `mapstructure:"cors_allowed_origins"`
	OpenAIAPIKey   string `mapstructure:"openai_api_key"`
	LogLevel       string `mapstructure:"log_level"`
	LogFile        string `mapstructure:"log_file"`
	LogMaxSize     int    `mapstructure:"log_max_size"`
	LogMaxAge      int    `mapstructure:"log_max_age"`
	LogMaxBackups  int    `mapstructure:"log_max_backups"`
}

var defaults = map[string]any{
	"DB_DRIVER":            "mysql",
	"DB_HOST":              "localhost",
	"DB_PORT":              "3306",
	"DB_USER":              "taskuser",
	"DB_PASSWORD":          "taskpassword",
	"DB_NAME":              "task_management",
	"DB_SSLMODE":           "disable",
	"SQLITE_PATH":          "tasks.db",
	"SESSION_STORE":        "redis",
	"REDIS_HOST":           "localhost",
	"REDIS_PORT":           "6379",
	"SESSION_SECRET":       "default-secret-key-change-me",
	"GIN_MODE":             "debug",
	"SERVER_PORT":          "8080",
	"CORS_ALLOWED_ORIGINS": "http://localhost:5173",
	"OPENAI_API_KEY":       "",
	"LOG_LEVEL":            "info",
	"LOG_FILE":             "",
	"LOG_MAX_SIZE":         100,
	"LOG_MAX_AGE":          28,
	"LOG_MAX_BACKUPS":      3,
}

// Load reads configuration from defaults, an optional config.yaml and the
// environment (highest precedence). A .env file is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.DBDriver = strings.ToLower(cfg.DBDriver)
	cfg.SessionStore = strings.ToLower(cfg.SessionStore)

	if len(cfg.CORSOrigins()) == 0 {
		return nil, errors.New("cors_allowed_origins must list at least one origin")
	}

	return &cfg, nil
}

// IsProduction reports whether gin runs in release mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// CORSOrigins returns the configured origins as a slice
func (c *Config) CORSOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// RedisAddr returns host:port of the session redis
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}
