// Package config loads jobhunter settings from .env, an optional YAML file and
// JOBHUNTER_* environment variables, in that order of precedence (lowest first).
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when JOBHUNTER_CONFIG is not set. A missing file is fine.
const DefaultPath = "config/jobhunter.yaml"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	JWT        JWTConfig        `yaml:"jwt"`
	Mail       MailConfig       `yaml:"mail"`
	Media      MediaConfig      `yaml:"media"`
	OAuth2     OAuth2Config     `yaml:"oauth2"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Logging    LoggingConfig    `yaml:"logging"`
	Bootstrap  BootstrapConfig  `yaml:"bootstrap"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	FrontendURL     string        `yaml:"frontend_url"`
	CookieSecure    bool          `yaml:"cookie_secure"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	// Driver is mysql, postgres or memory.
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	Migrate         bool          `yaml:"migrate"`
	LogQueries      bool          `yaml:"log_queries"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// Enabled reports whether a Redis server is configured.
func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.Addr) != "" }

type JWTConfig struct {
	Base64Secret         string        `yaml:"base64_secret"`
	AccessTokenValidity  time.Duration `yaml:"access_token_validity"`
	RefreshTokenValidity time.Duration `yaml:"refresh_token_validity"`
}

// Secret decodes the signing key.
func (j JWTConfig) Secret() ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.TrimSpace(j.Base64Secret))
}

type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Enabled reports whether an SMTP relay is configured.
func (m MailConfig) Enabled() bool { return strings.TrimSpace(m.Host) != "" }

type MediaConfig struct {
	// Provider is cloudinary, gcs or none.
	Provider       string `yaml:"provider"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	Folder         string `yaml:"folder"`
	CloudinaryURL  string `yaml:"cloudinary_url"`
	CloudName      string `yaml:"cloud_name"`
	APIKey         string `yaml:"api_key"`
	APISecret      string `yaml:"api_secret"`
	GCSBucket      string `yaml:"gcs_bucket"`
	GCSCredentials string `yaml:"gcs_credentials"`
}

type OAuth2Config struct {
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	GoogleRedirectURL  string `yaml:"google_redirect_url"`
}

// GoogleEnabled reports whether Google sign-in is configured.
func (o OAuth2Config) GoogleEnabled() bool { return strings.TrimSpace(o.GoogleClientID) != "" }

type OpenRouterConfig struct {
	APIKey  string        `yaml:"api_key"`
	APIURL  string        `yaml:"api_url"`
	Model   string        `yaml:"model"`
	Referer string        `yaml:"referer"`
	Timeout time.Duration `yaml:"timeout"`
}

type SchedulerConfig struct {
	Enabled        bool   `yaml:"enabled"`
	ExpiredJobs    string `yaml:"expired_jobs"`
	FilledJobs     string `yaml:"filled_jobs"`
	SubscriberMail string `yaml:"subscriber_mail"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	Burst             int `yaml:"burst"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type BootstrapConfig struct {
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
	Seed          bool   `yaml:"seed"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"http://localhost:5173"},
			FrontendURL:     "http://localhost:5173",
			CookieSecure:    true,
		},
		Database: DatabaseConfig{
			Driver:          "memory",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			Migrate:         true,
		},
		Redis: RedisConfig{PoolSize: 10},
		JWT: JWTConfig{
			AccessTokenValidity:  24 * time.Hour,
			RefreshTokenValidity: 100 * 24 * time.Hour,
		},
		Mail: MailConfig{Port: 587, From: "no-reply@jobhunter.local"},
		Media: MediaConfig{
			Provider:       "none",
			MaxUploadBytes: 50 << 20,
			Folder:         "jobhunter",
		},
		OAuth2: OAuth2Config{GoogleRedirectURL: "http://localhost:8080/login/oauth2/code/google"},
		OpenRouter: OpenRouterConfig{
			APIURL:  "https://openrouter.ai/api/v1/chat/completions",
			Model:   "openai/gpt-3.5-turbo",
			Referer: "http://localhost:5173",
			Timeout: 30 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:        true,
			ExpiredJobs:    "0 0 0 * * *",
			FilledJobs:     "0 */30 * * * *",
			SubscriberMail: "0 0 9 * * *",
		},
		RateLimit: RateLimitConfig{RequestsPerSecond: 20, Burst: 40},
		Logging:   LoggingConfig{Level: "info", Format: "json"},
		Bootstrap: BootstrapConfig{AdminEmail: "admin@gmail.com", AdminPassword: "123456", Seed: true},
	}
}

// Load reads .env, the YAML file and the environment, then validates.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	path := strings.TrimSpace(os.Getenv("JOBHUNTER_CONFIG"))
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	return LoadFromPath(path, explicit)
}

// LoadFromPath is Load without the .env step. When required is false a
// missing file yields the defaults.
func LoadFromPath(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !required:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Database.Driver {
	case "memory":
	case "mysql", "postgres":
		if strings.TrimSpace(c.Database.DSN) == "" {
			result = multierror.Append(result, fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unsupported database.driver %q", c.Database.Driver))
	}

	secret, err := c.JWT.Secret()
	switch {
	case err != nil:
		result = multierror.Append(result, fmt.Errorf("jwt.base64_secret: %w", err))
	case len(secret) < 64:
		result = multierror.Append(result, fmt.Errorf("jwt.base64_secret must decode to at least 64 bytes for HS512"))
	}
	if c.JWT.AccessTokenValidity <= 0 || c.JWT.RefreshTokenValidity <= 0 {
		result = multierror.Append(result, fmt.Errorf("jwt token validity must be positive"))
	}

	switch c.Media.Provider {
	case "none":
	case "cloudinary":
		if c.Media.CloudinaryURL == "" && (c.Media.CloudName == "" || c.Media.APIKey == "" || c.Media.APISecret == "") {
			result = multierror.Append(result, fmt.Errorf("cloudinary requires cloudinary_url or cloud_name/api_key/api_secret"))
		}
	case "gcs":
		if c.Media.GCSBucket == "" {
			result = multierror.Append(result, fmt.Errorf("media.gcs_bucket is required for provider gcs"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unsupported media.provider %q", c.Media.Provider))
	}

	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		result = multierror.Append(result, fmt.Errorf("rate_limit values must not be negative"))
	}

	return result.ErrorOrNil()
}

type envBinding struct {
	name  string
	apply func(string) error
}

func applyEnv(cfg *Config) error {
	bindings := []envBinding{
		{"JOBHUNTER_SERVER_HOST", setString(&cfg.Server.Host)},
		{"JOBHUNTER_SERVER_PORT", setInt(&cfg.Server.Port)},
		{"PORT", setInt(&cfg.Server.Port)},
		{"JOBHUNTER_ALLOWED_ORIGINS", setList(&cfg.Server.AllowedOrigins)},
		{"JOBHUNTER_FRONTEND_URL", setString(&cfg.Server.FrontendURL)},
		{"JOBHUNTER_COOKIE_SECURE", setBool(&cfg.Server.CookieSecure)},
		{"JOBHUNTER_DB_DRIVER", setString(&cfg.Database.Driver)},
		{"JOBHUNTER_DB_DSN", setString(&cfg.Database.DSN)},
		{"JOBHUNTER_DB_MAX_OPEN_CONNS", setInt(&cfg.Database.MaxOpenConns)},
		{"JOBHUNTER_DB_MAX_IDLE_CONNS", setInt(&cfg.Database.MaxIdleConns)},
		{"JOBHUNTER_DB_MIGRATE", setBool(&cfg.Database.Migrate)},
		{"JOBHUNTER_DB_LOG_QUERIES", setBool(&cfg.Database.LogQueries)},
		{"JOBHUNTER_REDIS_ADDR", setString(&cfg.Redis.Addr)},
		{"JOBHUNTER_REDIS_PASSWORD", setString(&cfg.Redis.Password)},
		{"JOBHUNTER_REDIS_DB", setInt(&cfg.Redis.DB)},
		{"JOBHUNTER_JWT_BASE64_SECRET", setString(&cfg.JWT.Base64Secret)},
		{"JOBHUNTER_JWT_ACCESS_TOKEN_VALIDITY", setDuration(&cfg.JWT.AccessTokenValidity)},
		{"JOBHUNTER_JWT_REFRESH_TOKEN_VALIDITY", setDuration(&cfg.JWT.RefreshTokenValidity)},
		{"JOBHUNTER_MAIL_HOST", setString(&cfg.Mail.Host)},
		{"JOBHUNTER_MAIL_PORT", setInt(&cfg.Mail.Port)},
		{"JOBHUNTER_MAIL_USERNAME", setString(&cfg.Mail.Username)},
		{"JOBHUNTER_MAIL_PASSWORD", setString(&cfg.Mail.Password)},
		{"JOBHUNTER_MAIL_FROM", setString(&cfg.Mail.From)},
		{"JOBHUNTER_MEDIA_PROVIDER", setString(&cfg.Media.Provider)},
		{"JOBHUNTER_MEDIA_MAX_UPLOAD_BYTES", setInt64(&cfg.Media.MaxUploadBytes)},
		{"CLOUDINARY_URL", setString(&cfg.Media.CloudinaryURL)},
		{"JOBHUNTER_CLOUDINARY_CLOUD_NAME", setString(&cfg.Media.CloudName)},
		{"JOBHUNTER_CLOUDINARY_API_KEY", setString(&cfg.Media.APIKey)},
		{"JOBHUNTER_CLOUDINARY_API_SECRET", setString(&cfg.Media.APISecret)},
		{"JOBHUNTER_GCS_BUCKET", setString(&cfg.Media.GCSBucket)},
		{"GOOGLE_APPLICATION_CREDENTIALS", setString(&cfg.Media.GCSCredentials)},
		{"JOBHUNTER_GOOGLE_CLIENT_ID", setString(&cfg.OAuth2.GoogleClientID)},
		{"JOBHUNTER_GOOGLE_CLIENT_SECRET", setString(&cfg.OAuth2.GoogleClientSecret)},
		{"JOBHUNTER_GOOGLE_REDIRECT_URL", setString(&cfg.OAuth2.GoogleRedirectURL)},
		{"OPENROUTER_API_KEY", setString(&cfg.OpenRouter.APIKey)},
		{"JOBHUNTER_OPENROUTER_URL", setString(&cfg.OpenRouter.APIURL)},
		{"JOBHUNTER_OPENROUTER_MODEL", setString(&cfg.OpenRouter.Model)},
		{"JOBHUNTER_SCHEDULER_ENABLED", setBool(&cfg.Scheduler.Enabled)},
		{"JOBHUNTER_RATE_LIMIT_RPS", setInt(&cfg.RateLimit.RequestsPerSecond)},
		{"JOBHUNTER_RATE_LIMIT_BURST", setInt(&cfg.RateLimit.Burst)},
		{"LOG_LEVEL", setString(&cfg.Logging.Level)},
		{"LOG_FORMAT", setString(&cfg.Logging.Format)},
		{"JOBHUNTER_ADMIN_EMAIL", setString(&cfg.Bootstrap.AdminEmail)},
		{"JOBHUNTER_ADMIN_PASSWORD", setString(&cfg.Bootstrap.AdminPassword)},
		{"JOBHUNTER_SEED", setBool(&cfg.Bootstrap.Seed)},
	}

	var result *multierror.Error
	for _, b := range bindings {
		raw, ok := os.LookupEnv(b.name)
		if !ok {
			continue
		}
		if err := b.apply(strings.TrimSpace(raw)); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", b.name, err))
		}
	}
	return result.ErrorOrNil()
}

func setString(dst *string) func(string) error {
	return func(v string) error { *dst = v; return nil }
}

func setInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setInt64(dst *int64) func(string) error {
	return func(v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setBool(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func setDuration(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			// plain integers are seconds
			secs, convErr := strconv.ParseInt(v, 10, 64)
			if convErr != nil {
				return err
			}
			d = time.Duration(secs) * time.Second
		}
		*dst = d
		return nil
	}
}

func setList(dst *[]string) func(string) error {
	return func(v string) error {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		*dst = out
		return nil
	}
}
