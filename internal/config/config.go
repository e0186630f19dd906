package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr string `env:"LISTEN_ADDR"`
	Port       string `env:"PORT" envDefault:"8080"`
	GinMode    string `env:"GIN_MODE" envDefault:"release"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabasePath   string `env:"DATABASE_PATH" envDefault:"landingkit.db"`
	DatabaseURL    string `env:"DATABASE_URL"`

	SessionSecret string `env:"SESSION_SECRET" envDefault:"landingkit-dev-secret"`
	SecureCookies bool   `env:"SECURE_COOKIES" envDefault:"false"`

	// RootDomain is the apex domain landing pages hang off as subdomains.
	RootDomain string `env:"ROOT_DOMAIN"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	IdentityJWTSecret   string `env:"IDENTITY_JWT_SECRET"`
	IdentityJWTAudience string `env:"IDENTITY_JWT_AUDIENCE"`

	StorageBackend     string `env:"STORAGE_BACKEND" envDefault:"local"`
	UploadDir          string `env:"UPLOAD_DIR" envDefault:"web/static/uploads"`
	UploadURLPath      string `env:"UPLOAD_URL_PATH" envDefault:"/static/uploads"`
	MaxUploadBytes     int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	SupabaseURL        string `env:"SUPABASE_URL"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_KEY"`
	StorageBucket      string `env:"STORAGE_BUCKET" envDefault:"page-assets"`

	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	RenderCacheTTL time.Duration `env:"RENDER_CACHE_TTL" envDefault:"5m"`

	ComponentsFile  string `env:"COMPONENTS_FILE"`
	EditorAssetsDir string `env:"EDITOR_ASSETS_DIR" envDefault:"web/editor"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"json"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	LoginRateLimit int    `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() (AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c *AppConfig) normalize() {
	c.Port = strings.TrimSpace(c.Port)
	if c.Port == "" {
		c.Port = "8080"
	}

	c.ListenAddr = strings.TrimSpace(c.ListenAddr)
	if c.ListenAddr == "" {
		c.ListenAddr = fmt.Sprintf(":%s", c.Port)
	}

	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	if c.DatabaseDriver == "" {
		c.DatabaseDriver = "sqlite"
	}
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	if c.StorageBackend == "" {
		c.StorageBackend = "local"
	}
	c.RootDomain = strings.ToLower(strings.Trim(strings.TrimSpace(c.RootDomain), "."))
	c.SupabaseURL = strings.TrimRight(strings.TrimSpace(c.SupabaseURL), "/")
	c.AdminEmail = strings.TrimSpace(c.AdminEmail)
	c.AdminPassword = strings.TrimSpace(c.AdminPassword)

	c.UploadURLPath = "/" + strings.Trim(strings.TrimSpace(c.UploadURLPath), "/")
	if c.UploadURLPath == "/" {
		c.UploadURLPath = "/static/uploads"
	}
	if c.LoginRateLimit <= 0 {
		c.LoginRateLimit = 10
	}
}

// Validate reports combinations of settings the server cannot start with.
func (c AppConfig) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	switch c.StorageBackend {
	case "local":
	case "supabase":
		if c.SupabaseURL == "" || strings.TrimSpace(c.SupabaseServiceKey) == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for the supabase storage backend")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}
