package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	Redis     RedisConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Retry     RetryConfig
	Images    ImagesConfig
	Jobs      JobsConfig
	Platforms PlatformsConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	TrustedProxies    []string
}

// StorageConfig holds object storage (S3-compatible) settings
type StorageConfig struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	UsePathStyle      bool
	PublicBaseURL     string
	PresignExpiration time.Duration
}

// RateLimitConfig holds the outbound platform rate limiter settings
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
}

// RetryConfig holds the outbound retrying client settings
type RetryConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	BackoffMultiplier float64
	MaxDelay          time.Duration
	Timeout           time.Duration
}

// ImagesConfig holds the image pipeline settings
type ImagesConfig struct {
	MaxFileSize       int64
	ConcurrentUploads int
	MaxWidth          int
	MaxHeight         int
	ThumbnailSize     int
	JPEGQuality       int
	DownloadTimeout   time.Duration
}

// JobsConfig holds the job tracker settings
type JobsConfig struct {
	Retention     time.Duration
	SweepInterval time.Duration
}

// PlatformsConfig holds per-marketplace credentials
type PlatformsConfig struct {
	Coupang    CoupangConfig
	Eleven     ElevenConfig
	SmartStore SmartStoreConfig
}

// CoupangConfig holds Coupang marketplace credentials
type CoupangConfig struct {
	Enabled   bool
	AccessKey string
	SecretKey string
	VendorID  string
	Sandbox   bool
}

// ElevenConfig holds 11st marketplace credentials
type ElevenConfig struct {
	Enabled  bool
	APIKey   string
	SellerID string
	Sandbox  bool
}

// SmartStoreConfig holds SmartStore marketplace credentials
type SmartStoreConfig struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	ChannelID    string
	Sandbox      bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with CROSSLIST_ prefix (e.g., CROSSLIST_REDIS_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("CROSSLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Storage: StorageConfig{
			Endpoint:          v.GetString("storage.endpoint"),
			Region:            v.GetString("storage.region"),
			Bucket:            v.GetString("storage.bucket"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			PublicBaseURL:     v.GetString("storage.public_base_url"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
		},
		RateLimit: RateLimitConfig{
			MaxRequests: v.GetInt("ratelimit.max_requests"),
			Window:      v.GetDuration("ratelimit.window"),
		},
		Retry: RetryConfig{
			MaxRetries:        v.GetInt("retry.max_retries"),
			InitialDelay:      v.GetDuration("retry.initial_delay"),
			BackoffMultiplier: v.GetFloat64("retry.backoff_multiplier"),
			MaxDelay:          v.GetDuration("retry.max_delay"),
			Timeout:           v.GetDuration("retry.timeout"),
		},
		Images: ImagesConfig{
			MaxFileSize:       v.GetInt64("images.max_file_size"),
			ConcurrentUploads: v.GetInt("images.concurrent_uploads"),
			MaxWidth:          v.GetInt("images.max_width"),
			MaxHeight:         v.GetInt("images.max_height"),
			ThumbnailSize:     v.GetInt("images.thumbnail_size"),
			JPEGQuality:       v.GetInt("images.jpeg_quality"),
			DownloadTimeout:   v.GetDuration("images.download_timeout"),
		},
		Jobs: JobsConfig{
			Retention:     v.GetDuration("jobs.retention"),
			SweepInterval: v.GetDuration("jobs.sweep_interval"),
		},
		Platforms: PlatformsConfig{
			Coupang: CoupangConfig{
				Enabled:   v.GetBool("platforms.coupang.enabled"),
				AccessKey: v.GetString("platforms.coupang.access_key"),
				SecretKey: v.GetString("platforms.coupang.secret_key"),
				VendorID:  v.GetString("platforms.coupang.vendor_id"),
				Sandbox:   v.GetBool("platforms.coupang.sandbox"),
			},
			Eleven: ElevenConfig{
				Enabled:  v.GetBool("platforms.eleven.enabled"),
				APIKey:   v.GetString("platforms.eleven.api_key"),
				SellerID: v.GetString("platforms.eleven.seller_id"),
				Sandbox:  v.GetBool("platforms.eleven.sandbox"),
			},
			SmartStore: SmartStoreConfig{
				Enabled:      v.GetBool("platforms.smartstore.enabled"),
				ClientID:     v.GetString("platforms.smartstore.client_id"),
				ClientSecret: v.GetString("platforms.smartstore.client_secret"),
				ChannelID:    v.GetString("platforms.smartstore.channel_id"),
				Sandbox:      v.GetBool("platforms.smartstore.sandbox"),
			},
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "crosslist-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
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
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "crosslist-images"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = 15 * time.Minute
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = 10
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = time.Second
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Retry.InitialDelay == 0 {
		cfg.Retry.InitialDelay = 100 * time.Millisecond
	}
	if cfg.Retry.BackoffMultiplier == 0 {
		cfg.Retry.BackoffMultiplier = 2
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = 30 * time.Second
	}
	if cfg.Retry.Timeout == 0 {
		cfg.Retry.Timeout = 30 * time.Second
	}
	if cfg.Images.MaxFileSize == 0 {
		cfg.Images.MaxFileSize = 10 << 20 // 10MB
	}
	if cfg.Images.ConcurrentUploads == 0 {
		cfg.Images.ConcurrentUploads = 3
	}
	if cfg.Images.MaxWidth == 0 {
		cfg.Images.MaxWidth = 1200
	}
	if cfg.Images.MaxHeight == 0 {
		cfg.Images.MaxHeight = 1200
	}
	if cfg.Images.ThumbnailSize == 0 {
		cfg.Images.ThumbnailSize = 500
	}
	if cfg.Images.JPEGQuality == 0 {
		cfg.Images.JPEGQuality = 85
	}
	if cfg.Images.DownloadTimeout == 0 {
		cfg.Images.DownloadTimeout = 30 * time.Second
	}
	if cfg.Jobs.Retention == 0 {
		cfg.Jobs.Retention = 24 * time.Hour
	}
	if cfg.Jobs.SweepInterval == 0 {
		cfg.Jobs.SweepInterval = time.Hour
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.RateLimit.MaxRequests < 0 {
		return fmt.Errorf("ratelimit.max_requests cannot be negative")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries cannot be negative")
	}
	if c.Retry.BackoffMultiplier < 1 {
		return fmt.Errorf("retry.backoff_multiplier must be at least 1")
	}
	if c.Images.JPEGQuality < 1 || c.Images.JPEGQuality > 100 {
		return fmt.Errorf("images.jpeg_quality must be between 1 and 100")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return fmt.Errorf("storage credentials are required in production")
		}
		if c.Platforms.Coupang.Enabled && c.Platforms.Coupang.SecretKey == "" {
			return fmt.Errorf("platforms.coupang.secret_key is required when coupang is enabled in production")
		}
		if c.Platforms.Eleven.Enabled && c.Platforms.Eleven.APIKey == "" {
			return fmt.Errorf("platforms.eleven.api_key is required when eleven is enabled in production")
		}
		if c.Platforms.SmartStore.Enabled && c.Platforms.SmartStore.ClientSecret == "" {
			return fmt.Errorf("platforms.smartstore.client_secret is required when smartstore is enabled in production")
		}
	}

	return nil
}

// Addr returns the Redis connection address.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
