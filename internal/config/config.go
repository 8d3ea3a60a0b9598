package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	CORS       CORSConfig
	Upload     UploadConfig
	Completion CompletionConfig
	History    HistoryConfig
	DB         DBConfig
	Storage    StorageConfig
	S3         S3Config
	Auth       AuthConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// UploadConfig bounds what a single upload request may carry.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
	MaxFiles      int   `mapstructure:"max_files"`
}

// MaxFileBytes returns the per-file size limit in bytes.
func (u *UploadConfig) MaxFileBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// ProviderConfig holds settings for a single completion provider.
type ProviderConfig struct {
	Name        string   `mapstructure:"name"`
	KeyEnv      string   `mapstructure:"key_env"`
	KeyOptional bool     `mapstructure:"key_optional"`
	BaseURL     string   `mapstructure:"base_url"`
	Models      []string `mapstructure:"models"`
	TimeoutSecs int      `mapstructure:"timeout_secs"`
}

// Timeout returns the per-attempt HTTP timeout.
func (p *ProviderConfig) Timeout() time.Duration {
	if p.TimeoutSecs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(p.TimeoutSecs) * time.Second
}

// CompletionConfig holds the failover settings shared by all providers.
// Providers are listed in priority order.
type CompletionConfig struct {
	Providers          []ProviderConfig
	Temperature        float64 `mapstructure:"temperature"`
	MaxTokens          int     `mapstructure:"max_tokens"`
	RequestTimeoutSecs int     `mapstructure:"request_timeout_secs"`
}

// RequestTimeout returns the wall-clock budget for a whole attempt matrix.
func (c *CompletionConfig) RequestTimeout() time.Duration {
	if c.RequestTimeoutSecs <= 0 {
		return 3 * time.Minute
	}
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// HistoryConfig selects where summaries are recorded.
type HistoryConfig struct {
	Driver      string `mapstructure:"driver"`
	MemoryLimit int    `mapstructure:"memory_limit"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// StorageConfig selects the upload archive backend.
type StorageConfig struct {
	Provider string `mapstructure:"provider"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// AuthConfig holds bearer-token settings for the history endpoints.
type AuthConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

// DefaultJWTSecret is the placeholder secret; it is never accepted for signing.
const DefaultJWTSecret = "change-me-in-production"

// CheckSecret reports whether the signing secret is usable.
func (a *AuthConfig) CheckSecret() error {
	switch a.JWTSecret {
	case "":
		return errors.New("MEDBRIEF_AUTH_JWT_SECRET is empty")
	case DefaultJWTSecret:
		return errors.New("MEDBRIEF_AUTH_JWT_SECRET still has the placeholder default")
	}
	return nil
}

// Validate checks the secret only when auth is enabled.
func (a *AuthConfig) Validate() error {
	if !a.Enabled {
		return nil
	}
	if err := a.CheckSecret(); err != nil {
		return fmt.Errorf("auth is enabled but %w", err)
	}
	return nil
}

// providerDefaults are the static model priority lists, fastest first.
var providerDefaults = map[string]ProviderConfig{
	"openai": {
		KeyEnv:  "GROQ_API_KEY",
		BaseURL: "https://api.groq.com/openai/v1",
		Models:  []string{"llama-3.1-8b-instant", "llama-3.3-70b-versatile", "openai/gpt-oss-20b"},
	},
	"gemini": {
		KeyEnv:  "GEMINI_API_KEY",
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Models:  []string{"gemini-2.0-flash-lite", "gemini-2.0-flash", "gemini-1.5-flash"},
	},
	"ollama": {
		KeyEnv:      "OLLAMA_API_KEY",
		KeyOptional: true,
		BaseURL:     "http://localhost:11434",
		Models:      []string{"llama3.2"},
	},
}

// Load reads configuration from environment variables with the MEDBRIEF_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MEDBRIEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8000")
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "240s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// CORS defaults (Vite/CRA dev servers)
	v.SetDefault("cors.allowed_origins", "http://localhost:5173,http://127.0.0.1:5173,http://localhost:3000,http://127.0.0.1:3000")

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 20)
	v.SetDefault("upload.max_files", 10)

	// Completion defaults
	v.SetDefault("completion.providers", "openai")
	v.SetDefault("completion.temperature", 0.0)
	v.SetDefault("completion.max_tokens", 4096)
	v.SetDefault("completion.timeout_secs", 60)
	v.SetDefault("completion.request_timeout_secs", 180)

	for name, def := range providerDefaults {
		v.SetDefault(name+".key_env", def.KeyEnv)
		v.SetDefault(name+".key_optional", def.KeyOptional)
		v.SetDefault(name+".base_url", def.BaseURL)
		v.SetDefault(name+".models", strings.Join(def.Models, ","))
	}

	// History defaults
	v.SetDefault("history.driver", "memory")
	v.SetDefault("history.memory_limit", 500)

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "medbrief")
	v.SetDefault("db.password", "medbrief_secret")
	v.SetDefault("db.name", "medbrief_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// Storage defaults
	v.SetDefault("storage.provider", "noop")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "medbrief-uploads")
	v.SetDefault("s3.endpoint", "")

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret", DefaultJWTSecret)
	v.SetDefault("auth.issuer", "medbrief")
	v.SetDefault("auth.audience", "medbrief-history")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                     "MEDBRIEF_SERVER_PORT",
		"server.read_timeout":             "MEDBRIEF_SERVER_READ_TIMEOUT",
		"server.write_timeout":            "MEDBRIEF_SERVER_WRITE_TIMEOUT",
		"server.environment":              "MEDBRIEF_SERVER_ENVIRONMENT",
		"log.level":                       "MEDBRIEF_LOG_LEVEL",
		"log.format":                      "MEDBRIEF_LOG_FORMAT",
		"cors.allowed_origins":            "MEDBRIEF_CORS_ALLOWED_ORIGINS",
		"upload.max_file_size_mb":         "MEDBRIEF_UPLOAD_MAX_FILE_SIZE_MB",
		"upload.max_files":                "MEDBRIEF_UPLOAD_MAX_FILES",
		"completion.providers":            "MEDBRIEF_COMPLETION_PROVIDERS",
		"completion.temperature":          "MEDBRIEF_COMPLETION_TEMPERATURE",
		"completion.max_tokens":           "MEDBRIEF_COMPLETION_MAX_TOKENS",
		"completion.timeout_secs":         "MEDBRIEF_COMPLETION_TIMEOUT_SECS",
		"completion.request_timeout_secs": "MEDBRIEF_COMPLETION_REQUEST_TIMEOUT_SECS",
		"history.driver":                  "MEDBRIEF_HISTORY_DRIVER",
		"history.memory_limit":            "MEDBRIEF_HISTORY_MEMORY_LIMIT",
		"db.host":                         "MEDBRIEF_DB_HOST",
		"db.port":                         "MEDBRIEF_DB_PORT",
		"db.user":                         "MEDBRIEF_DB_USER",
		"db.password":                     "MEDBRIEF_DB_PASSWORD",
		"db.name":                         "MEDBRIEF_DB_NAME",
		"db.sslmode":                      "MEDBRIEF_DB_SSLMODE",
		"db.max_open":                     "MEDBRIEF_DB_MAX_OPEN",
		"db.max_idle":                     "MEDBRIEF_DB_MAX_IDLE",
		"storage.provider":                "MEDBRIEF_STORAGE_PROVIDER",
		"s3.region":                       "MEDBRIEF_S3_REGION",
		"s3.bucket":                       "MEDBRIEF_S3_BUCKET",
		"s3.endpoint":                     "MEDBRIEF_S3_ENDPOINT",
		"s3.access_key":                   "MEDBRIEF_S3_ACCESS_KEY",
		"s3.secret_key":                   "MEDBRIEF_S3_SECRET_KEY",
		"auth.enabled":                    "MEDBRIEF_AUTH_ENABLED",
		"auth.jwt_secret":                 "MEDBRIEF_AUTH_JWT_SECRET",
		"auth.issuer":                     "MEDBRIEF_AUTH_ISSUER",
		"auth.audience":                   "MEDBRIEF_AUTH_AUDIENCE",
	}
	for name := range providerDefaults {
		upper := strings.ToUpper(name)
		envBindings[name+".key_env"] = "MEDBRIEF_" + upper + "_KEY_ENV"
		envBindings[name+".key_optional"] = "MEDBRIEF_" + upper + "_KEY_OPTIONAL"
		envBindings[name+".base_url"] = "MEDBRIEF_" + upper + "_BASE_URL"
		envBindings[name+".models"] = "MEDBRIEF_" + upper + "_MODELS"
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if MEDBRIEF_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("MEDBRIEF_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: SplitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
		MaxFiles:      v.GetInt("upload.max_files"),
	}

	cfg.Completion = CompletionConfig{
		Temperature:        v.GetFloat64("completion.temperature"),
		MaxTokens:          v.GetInt("completion.max_tokens"),
		RequestTimeoutSecs: v.GetInt("completion.request_timeout_secs"),
	}
	timeoutSecs := v.GetInt("completion.timeout_secs")
	for _, name := range SplitList(v.GetString("completion.providers")) {
		name = strings.ToLower(name)
		if _, ok := providerDefaults[name]; !ok {
			return nil, fmt.Errorf("unknown completion provider: %s", name)
		}
		cfg.Completion.Providers = append(cfg.Completion.Providers, ProviderConfig{
			Name:        name,
			KeyEnv:      v.GetString(name + ".key_env"),
			KeyOptional: v.GetBool(name + ".key_optional"),
			BaseURL:     v.GetString(name + ".base_url"),
			Models:      SplitList(v.GetString(name + ".models")),
			TimeoutSecs: timeoutSecs,
		})
	}

	cfg.History = HistoryConfig{
		Driver:      v.GetString("history.driver"),
		MemoryLimit: v.GetInt("history.memory_limit"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Storage = StorageConfig{
		Provider: v.GetString("storage.provider"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Auth = AuthConfig{
		Enabled:   v.GetBool("auth.enabled"),
		JWTSecret: v.GetString("auth.jwt_secret"),
		Issuer:    v.GetString("auth.issuer"),
		Audience:  v.GetString("auth.audience"),
	}

	return cfg, nil
}

// SplitList parses a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
