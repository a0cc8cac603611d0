package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	S3        S3Config
	Redis     RedisConfig
	Log       LogConfig
	CORS      CORSConfig
	Queue     QueueConfig
	Upload    UploadConfig
	Extractor ExtractorConfig
	Matcher   MatcherConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
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

// JWTConfig holds JWT signing and expiry settings.
type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	AccessTokenExpiry time.Duration `mapstructure:"access_expiry"`
	Issuer            string        `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// RedisConfig holds the tenant summary cache settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
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

// QueueConfig holds import queue worker settings.
type QueueConfig struct {
	PollIntervalSecs   int `mapstructure:"poll_interval_secs"`
	Concurrency        int `mapstructure:"concurrency"`
	MaxAttempts        int `mapstructure:"max_attempts"`
	BackoffBaseSecs    int `mapstructure:"backoff_base_secs"`
	StaleClaimSecs     int `mapstructure:"stale_claim_secs"`
	ProviderRatePerMin int `mapstructure:"provider_rate_per_min"`
	ProviderBurst      int `mapstructure:"provider_burst"`
}

// UploadConfig holds upload validation settings.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
	MaxParts      int   `mapstructure:"max_parts"`
}

// ExtractorProviderConfig holds settings for a single extraction provider.
type ExtractorProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ExtractorConfig holds extraction provider settings with fallback support.
type ExtractorConfig struct {
	Primary   ExtractorProviderConfig `mapstructure:"primary"`
	Secondary ExtractorProviderConfig `mapstructure:"secondary"`
}

// SecondaryConfig returns the secondary provider config, or nil if not set.
func (e *ExtractorConfig) SecondaryConfig() *ExtractorProviderConfig {
	if e.Secondary.Provider != "" {
		return &e.Secondary
	}
	return nil
}

// MatcherConfig holds the line-item matcher thresholds. The thresholds are
// tunable; lower distance means a stricter match.
type MatcherConfig struct {
	// FuzzyThreshold is the maximum normalized distance for a candidate to be
	// shown at all (0 = exact only, 1 = everything).
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold"`
	// AutoMatchThreshold is the minimum confidence (0-100) for a freshly
	// extracted line to be matched without human review. Stricter than the
	// display threshold.
	AutoMatchThreshold int `mapstructure:"auto_match_threshold"`
	MaxSuggestions     int `mapstructure:"max_suggestions"`
}

// Load reads configuration from environment variables with the LEDGERFLOW_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEDGERFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "ledgerflow")
	v.SetDefault("db.password", "ledgerflow_secret")
	v.SetDefault("db.name", "ledgerflow_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", "15m")
	v.SetDefault("jwt.issuer", "ledgerflow")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "ledgerflow-imports")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.presign_expiry", 900)

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", false)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 5)
	v.SetDefault("queue.concurrency", 5)
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("queue.backoff_base_secs", 30)
	v.SetDefault("queue.stale_claim_secs", 600)
	v.SetDefault("queue.provider_rate_per_min", 10)
	v.SetDefault("queue.provider_burst", 2)

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 10)
	v.SetDefault("upload.max_parts", 10)

	// Extractor defaults
	v.SetDefault("extractor.primary.provider", "gemini")
	v.SetDefault("extractor.primary.api_key", "")
	v.SetDefault("extractor.primary.default_model", "gemini-2.0-flash")
	v.SetDefault("extractor.primary.timeout_secs", 120)
	v.SetDefault("extractor.secondary.provider", "")
	v.SetDefault("extractor.secondary.api_key", "")
	v.SetDefault("extractor.secondary.default_model", "")
	v.SetDefault("extractor.secondary.timeout_secs", 120)

	// Matcher defaults
	v.SetDefault("matcher.fuzzy_threshold", 0.5)
	v.SetDefault("matcher.auto_match_threshold", 85)
	v.SetDefault("matcher.max_suggestions", 5)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                       "LEDGERFLOW_SERVER_PORT",
		"server.read_timeout":               "LEDGERFLOW_SERVER_READ_TIMEOUT",
		"server.write_timeout":              "LEDGERFLOW_SERVER_WRITE_TIMEOUT",
		"server.environment":                "LEDGERFLOW_SERVER_ENVIRONMENT",
		"db.host":                           "LEDGERFLOW_DB_HOST",
		"db.port":                           "LEDGERFLOW_DB_PORT",
		"db.user":                           "LEDGERFLOW_DB_USER",
		"db.password":                       "LEDGERFLOW_DB_PASSWORD",
		"db.name":                           "LEDGERFLOW_DB_NAME",
		"db.sslmode":                        "LEDGERFLOW_DB_SSLMODE",
		"db.max_open":                       "LEDGERFLOW_DB_MAX_OPEN",
		"db.max_idle":                       "LEDGERFLOW_DB_MAX_IDLE",
		"jwt.secret":                        "LEDGERFLOW_JWT_SECRET",
		"jwt.access_expiry":                 "LEDGERFLOW_JWT_ACCESS_EXPIRY",
		"jwt.issuer":                        "LEDGERFLOW_JWT_ISSUER",
		"s3.region":                         "LEDGERFLOW_S3_REGION",
		"s3.bucket":                         "LEDGERFLOW_S3_BUCKET",
		"s3.endpoint":                       "LEDGERFLOW_S3_ENDPOINT",
		"s3.access_key":                     "LEDGERFLOW_S3_ACCESS_KEY",
		"s3.secret_key":                     "LEDGERFLOW_S3_SECRET_KEY",
		"s3.presign_expiry":                 "LEDGERFLOW_S3_PRESIGN_EXPIRY",
		"redis.addr":                        "LEDGERFLOW_REDIS_ADDR",
		"redis.password":                    "LEDGERFLOW_REDIS_PASSWORD",
		"redis.db":                          "LEDGERFLOW_REDIS_DB",
		"redis.enabled":                     "LEDGERFLOW_REDIS_ENABLED",
		"log.level":                         "LEDGERFLOW_LOG_LEVEL",
		"log.format":                        "LEDGERFLOW_LOG_FORMAT",
		"cors.allowed_origins":              "LEDGERFLOW_CORS_ALLOWED_ORIGINS",
		"queue.poll_interval_secs":          "LEDGERFLOW_QUEUE_POLL_INTERVAL_SECS",
		"queue.concurrency":                 "LEDGERFLOW_QUEUE_CONCURRENCY",
		"queue.max_attempts":                "LEDGERFLOW_QUEUE_MAX_ATTEMPTS",
		"queue.backoff_base_secs":           "LEDGERFLOW_QUEUE_BACKOFF_BASE_SECS",
		"queue.stale_claim_secs":            "LEDGERFLOW_QUEUE_STALE_CLAIM_SECS",
		"queue.provider_rate_per_min":       "LEDGERFLOW_QUEUE_PROVIDER_RATE_PER_MIN",
		"queue.provider_burst":              "LEDGERFLOW_QUEUE_PROVIDER_BURST",
		"upload.max_file_size_mb":           "LEDGERFLOW_UPLOAD_MAX_FILE_SIZE_MB",
		"upload.max_parts":                  "LEDGERFLOW_UPLOAD_MAX_PARTS",
		"extractor.primary.provider":        "LEDGERFLOW_EXTRACTOR_PRIMARY_PROVIDER",
		"extractor.primary.api_key":         "LEDGERFLOW_EXTRACTOR_PRIMARY_API_KEY",
		"extractor.primary.default_model":   "LEDGERFLOW_EXTRACTOR_PRIMARY_DEFAULT_MODEL",
		"extractor.primary.timeout_secs":    "LEDGERFLOW_EXTRACTOR_PRIMARY_TIMEOUT_SECS",
		"extractor.secondary.provider":      "LEDGERFLOW_EXTRACTOR_SECONDARY_PROVIDER",
		"extractor.secondary.api_key":       "LEDGERFLOW_EXTRACTOR_SECONDARY_API_KEY",
		"extractor.secondary.default_model": "LEDGERFLOW_EXTRACTOR_SECONDARY_DEFAULT_MODEL",
		"extractor.secondary.timeout_secs":  "LEDGERFLOW_EXTRACTOR_SECONDARY_TIMEOUT_SECS",
		"matcher.fuzzy_threshold":           "LEDGERFLOW_MATCHER_FUZZY_THRESHOLD",
		"matcher.auto_match_threshold":      "LEDGERFLOW_MATCHER_AUTO_MATCH_THRESHOLD",
		"matcher.max_suggestions":           "LEDGERFLOW_MATCHER_MAX_SUGGESTIONS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if LEDGERFLOW_SERVER_PORT
	// is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("LEDGERFLOW_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
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
	cfg.JWT = JWTConfig{
		Secret:            v.GetString("jwt.secret"),
		AccessTokenExpiry: v.GetDuration("jwt.access_expiry"),
		Issuer:            v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Redis = RedisConfig{
		Addr:     v.GetString("redis.addr"),
		Password: v.GetString("redis.password"),
		DB:       v.GetInt("redis.db"),
		Enabled:  v.GetBool("redis.enabled"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Queue = QueueConfig{
		PollIntervalSecs:   v.GetInt("queue.poll_interval_secs"),
		Concurrency:        v.GetInt("queue.concurrency"),
		MaxAttempts:        v.GetInt("queue.max_attempts"),
		BackoffBaseSecs:    v.GetInt("queue.backoff_base_secs"),
		StaleClaimSecs:     v.GetInt("queue.stale_claim_secs"),
		ProviderRatePerMin: v.GetInt("queue.provider_rate_per_min"),
		ProviderBurst:      v.GetInt("queue.provider_burst"),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
		MaxParts:      v.GetInt("upload.max_parts"),
	}
	cfg.Extractor = ExtractorConfig{
		Primary: ExtractorProviderConfig{
			Provider:     v.GetString("extractor.primary.provider"),
			APIKey:       v.GetString("extractor.primary.api_key"),
			DefaultModel: v.GetString("extractor.primary.default_model"),
			TimeoutSecs:  v.GetInt("extractor.primary.timeout_secs"),
		},
		Secondary: ExtractorProviderConfig{
			Provider:     v.GetString("extractor.secondary.provider"),
			APIKey:       v.GetString("extractor.secondary.api_key"),
			DefaultModel: v.GetString("extractor.secondary.default_model"),
			TimeoutSecs:  v.GetInt("extractor.secondary.timeout_secs"),
		},
	}
	cfg.Matcher = MatcherConfig{
		FuzzyThreshold:     v.GetFloat64("matcher.fuzzy_threshold"),
		AutoMatchThreshold: v.GetInt("matcher.auto_match_threshold"),
		MaxSuggestions:     v.GetInt("matcher.max_suggestions"),
	}

	return cfg, nil
}
