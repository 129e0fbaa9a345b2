package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Log       LogConfig
	Storage   StorageConfig
	Asaas     AsaasConfig
	Meta      MetaConfig
	Gemini    GeminiConfig
	Realtime  RealtimeConfig
	Store     StoreConfig
	Printing  PrintingConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// IsProduction reports whether the app runs in production mode
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	MaxHeaderBytes     int
	MaxBodySize        int64
	RateLimitEnabled   bool
	RateLimitRPS       float64 // tokens per second for public storefront writes
	RateLimitBurst     int
	AuthRateLimitRPS   float64 // stricter bucket for admin login
	AuthRateLimitBurst int
	CORSAllowOrigins   []string
	CORSAllowMethods   []string
	CORSAllowHeaders   []string
	TrustedProxies     []string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings.
// An empty Host disables every Redis-backed component and the in-memory fallbacks are used.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Enabled reports whether Redis is configured
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                 string
	RefreshSecret          string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	Issuer                 string
}

// AdminConfig holds the bootstrap administrator credentials
type AdminConfig struct {
	Username string
	Password string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Enabled       bool
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	UsePathStyle  bool
	PublicBaseURL string
	MaxUploadSize int64
}

// AsaasConfig holds payment gateway settings
type AsaasConfig struct {
	APIKey        string
	Sandbox       bool
	WebhookToken  string
	DefaultDomain string // e-mail domain used when the customer gives none
	Timeout       time.Duration

	// ReconcileInterval polls the gateway for unpaid orders; negative disables
	ReconcileInterval time.Duration
	ReconcileMinAge   time.Duration
	ReconcileMaxAge   time.Duration
}

// MetaConfig holds Conversions API settings
type MetaConfig struct {
	GraphURL   string
	APIVersion string
	Timeout    time.Duration
}

// GeminiConfig holds the description enhancer settings
type GeminiConfig struct {
	APIKey   string
	Model    string
	BaseURL  string
	MaxChars int
	Timeout  time.Duration
}

// RealtimeConfig holds SSE settings
type RealtimeConfig struct {
	Heartbeat    time.Duration
	MaxClients   int
	ClientBuffer int
	RedisChannel string
}

// StoreConfig holds storefront-wide defaults
type StoreConfig struct {
	Timezone       string
	CartTTL        time.Duration
	IdempotencyTTL time.Duration
}

// PrintingConfig holds kitchen ticket rendering settings
type PrintingConfig struct {
	Enabled    bool
	ChromePath string
	Timeout    time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	Exporter          string // otlp or stdout
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	// MetricsEnabled exports HTTP and database pool metrics over OTLP
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	// LogsEnabled mirrors zap output to the collector
	LogsEnabled       bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with STOREFRONT_ prefix (e.g., STOREFRONT_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:        v.GetDuration("http.read_timeout"),
			WriteTimeout:       v.GetDuration("http.write_timeout"),
			IdleTimeout:        v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:     v.GetInt("http.max_header_bytes"),
			MaxBodySize:        v.GetInt64("http.max_body_size"),
			RateLimitEnabled:   v.GetBool("http.rate_limit_enabled"),
			RateLimitRPS:       v.GetFloat64("http.rate_limit_rps"),
			RateLimitBurst:     v.GetInt("http.rate_limit_burst"),
			AuthRateLimitRPS:   v.GetFloat64("http.auth_rate_limit_rps"),
			AuthRateLimitBurst: v.GetInt("http.auth_rate_limit_burst"),
			CORSAllowOrigins:   v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:   v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:   v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:     v.GetStringSlice("http.trusted_proxies"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                 v.GetString("jwt.secret"),
			RefreshSecret:          v.GetString("jwt.refresh_secret"),
			AccessTokenExpiration:  v.GetDuration("jwt.access_token_expiration"),
			RefreshTokenExpiration: v.GetDuration("jwt.refresh_token_expiration"),
			Issuer:                 v.GetString("jwt.issuer"),
		},
		Admin: AdminConfig{
			Username: v.GetString("admin.username"),
			Password: v.GetString("admin.password"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Storage: StorageConfig{
			Enabled:       v.GetBool("storage.enabled"),
			Endpoint:      v.GetString("storage.endpoint"),
			Region:        v.GetString("storage.region"),
			Bucket:        v.GetString("storage.bucket"),
			AccessKey:     v.GetString("storage.access_key"),
			SecretKey:     v.GetString("storage.secret_key"),
			UseSSL:        v.GetBool("storage.use_ssl"),
			UsePathStyle:  v.GetBool("storage.use_path_style"),
			PublicBaseURL: v.GetString("storage.public_base_url"),
			MaxUploadSize: v.GetInt64("storage.max_upload_size"),
		},
		Asaas: AsaasConfig{
			APIKey:        v.GetString("asaas.api_key"),
			Sandbox:       v.GetBool("asaas.sandbox"),
			WebhookToken:  v.GetString("asaas.webhook_token"),
			DefaultDomain: v.GetString("asaas.default_email_domain"),
			Timeout:       v.GetDuration("asaas.timeout"),

			ReconcileInterval: v.GetDuration("asaas.reconcile_interval"),
			ReconcileMinAge:   v.GetDuration("asaas.reconcile_min_age"),
			ReconcileMaxAge:   v.GetDuration("asaas.reconcile_max_age"),
		},
		Meta: MetaConfig{
			GraphURL:   v.GetString("meta.graph_url"),
			APIVersion: v.GetString("meta.api_version"),
			Timeout:    v.GetDuration("meta.timeout"),
		},
		Gemini: GeminiConfig{
			APIKey:   v.GetString("gemini.api_key"),
			Model:    v.GetString("gemini.model"),
			BaseURL:  v.GetString("gemini.base_url"),
			MaxChars: v.GetInt("gemini.max_chars"),
			Timeout:  v.GetDuration("gemini.timeout"),
		},
		Realtime: RealtimeConfig{
			Heartbeat:    v.GetDuration("realtime.heartbeat"),
			MaxClients:   v.GetInt("realtime.max_clients"),
			ClientBuffer: v.GetInt("realtime.client_buffer"),
			RedisChannel: v.GetString("realtime.redis_channel"),
		},
		Store: StoreConfig{
			Timezone:       v.GetString("store.timezone"),
			CartTTL:        v.GetDuration("store.cart_ttl"),
			IdempotencyTTL: v.GetDuration("store.idempotency_ttl"),
		},
		Printing: PrintingConfig{
			Enabled:    v.GetBool("printing.enabled"),
			ChromePath: v.GetString("printing.chrome_path"),
			Timeout:    v.GetDuration("printing.timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			Exporter:          v.GetString("telemetry.exporter"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// SSE streams hold the connection open, so no write deadline by default
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 6 << 20
	}
	if cfg.HTTP.RateLimitRPS == 0 {
		cfg.HTTP.RateLimitRPS = 2
	}
	if cfg.HTTP.RateLimitBurst == 0 {
		cfg.HTTP.RateLimitBurst = 10
	}
	if cfg.HTTP.AuthRateLimitRPS == 0 {
		cfg.HTTP.AuthRateLimitRPS = 0.1
	}
	if cfg.HTTP.AuthRateLimitBurst == 0 {
		cfg.HTTP.AuthRateLimitBurst = 5
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-Cart-Token", "Idempotency-Key"}
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "storefront"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "storefront.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}

	if cfg.Redis.Host != "" && cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 30 * time.Minute
	}
	if cfg.JWT.RefreshTokenExpiration == 0 {
		cfg.JWT.RefreshTokenExpiration = 72 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "storefront"
	}
	if cfg.JWT.Secret == "" && !cfg.App.IsProduction() {
		cfg.JWT.Secret = "development-only-secret-change-me-now"
	}
	if cfg.Admin.Username == "" {
		cfg.Admin.Username = "admin"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.MaxUploadSize == 0 {
		cfg.Storage.MaxUploadSize = 5 << 20
	}

	if cfg.Asaas.DefaultDomain == "" {
		cfg.Asaas.DefaultDomain = "japabox.com.br"
	}
	if cfg.Asaas.Timeout == 0 {
		cfg.Asaas.Timeout = 30 * time.Second
	}
	if cfg.Asaas.ReconcileInterval == 0 {
		cfg.Asaas.ReconcileInterval = 2 * time.Minute
	}
	if cfg.Asaas.ReconcileMinAge == 0 {
		cfg.Asaas.ReconcileMinAge = 3 * time.Minute
	}
	if cfg.Asaas.ReconcileMaxAge == 0 {
		cfg.Asaas.ReconcileMaxAge = 24 * time.Hour
	}

	if cfg.Meta.GraphURL == "" {
		cfg.Meta.GraphURL = "https://graph.facebook.com"
	}
	if cfg.Meta.APIVersion == "" {
		cfg.Meta.APIVersion = "v17.0"
	}
	if cfg.Meta.Timeout == 0 {
		cfg.Meta.Timeout = 10 * time.Second
	}

	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-1.5-flash"
	}
	if cfg.Gemini.BaseURL == "" {
		cfg.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Gemini.MaxChars == 0 {
		cfg.Gemini.MaxChars = 150
	}
	if cfg.Gemini.Timeout == 0 {
		cfg.Gemini.Timeout = 15 * time.Second
	}

	if cfg.Realtime.Heartbeat == 0 {
		cfg.Realtime.Heartbeat = 15 * time.Second
	}
	if cfg.Realtime.MaxClients == 0 {
		cfg.Realtime.MaxClients = 5000
	}
	if cfg.Realtime.ClientBuffer == 0 {
		cfg.Realtime.ClientBuffer = 16
	}
	if cfg.Realtime.RedisChannel == "" {
		cfg.Realtime.RedisChannel = "storefront:realtime"
	}

	if cfg.Store.Timezone == "" {
		cfg.Store.Timezone = "America/Sao_Paulo"
	}
	if cfg.Store.CartTTL == 0 {
		cfg.Store.CartTTL = 24 * time.Hour
	}
	if cfg.Store.IdempotencyTTL == 0 {
		cfg.Store.IdempotencyTTL = 24 * time.Hour
	}

	if cfg.Printing.Timeout == 0 {
		cfg.Printing.Timeout = 20 * time.Second
	}

	if cfg.Telemetry.Exporter == "" {
		cfg.Telemetry.Exporter = "otlp"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "storefront"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if _, err := time.LoadLocation(c.Store.Timezone); err != nil {
		return fmt.Errorf("store.timezone %q: %w", c.Store.Timezone, err)
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	switch c.Telemetry.Exporter {
	case "otlp", "stdout":
	default:
		return fmt.Errorf("telemetry.exporter must be otlp or stdout, got %q", c.Telemetry.Exporter)
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}

	if c.App.IsProduction() {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Driver != "postgres" {
			return fmt.Errorf("database.driver must be postgres in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Asaas.APIKey != "" && c.Asaas.WebhookToken == "" {
			return fmt.Errorf("asaas.webhook_token is required in production when asaas is configured")
		}
		if c.Admin.Password == "admin" {
			return fmt.Errorf("admin.password must be changed in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// Location returns the store timezone. validate guarantees it loads.
func (s StoreConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.SQLitePath
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
