package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Addr               string        `yaml:"addr" validate:"required"`
	Database           Database      `yaml:"database"`
	UploadDir          string        `yaml:"upload_dir" validate:"required"`
	MaxUploadSize      int64         `yaml:"max_upload_size" validate:"gt=0"` // total bytes of attachments per request
	SessionTTL         time.Duration `yaml:"session_ttl" validate:"gt=0"`
	SecureCookies      bool          `yaml:"secure_cookies"`
	AdminUsername      string        `yaml:"admin_username" validate:"required,max=50"`
	PasswordMinLen     int           `yaml:"password_min_len" validate:"gte=8"`
	Log                Log           `yaml:"log"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	CSP                CSP           `yaml:"csp"`
	LoginRateLimit     RateLimit     `yaml:"login_rate_limit"`
	Sweep              Sweep         `yaml:"sweep"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

type Database struct {
	Driver  string `yaml:"driver" validate:"required,oneof=sqlite3 postgres"`
	Path    string `yaml:"path" validate:"required_if=Driver sqlite3"`
	Host    string `yaml:"host" validate:"required_if=Driver postgres"`
	Port    int    `yaml:"port"`
	User    string `yaml:"user"`
	Dbname  string `yaml:"dbname"`
	SSLMode string `yaml:"sslmode"`
}

// CSP holds origins allowed next to 'self' in the Content-Security-Policy.
type CSP struct {
	ImageSources []string `yaml:"image_sources"`
	FormActions  []string `yaml:"form_actions"`
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type RateLimit struct {
	PerSecond float64 `yaml:"per_second" validate:"gt=0"`
	Burst     int     `yaml:"burst" validate:"gte=1"`
}

type Sweep struct {
	Interval        time.Duration `yaml:"interval"` // zero disables the background sweep
	SafetyThreshold time.Duration `yaml:"safety_threshold" validate:"gt=0"`
}

type Private struct {
	SessionKey       string `yaml:"session_key" validate:"required,min=32"`
	DatabasePassword string `yaml:"database_password"`
	AdminPassword    string `yaml:"admin_password"` // initial password for the seeded account
}

func DefaultPublic() Public {
	return Public{
		Addr: ":8080",
		Database: Database{
			Driver:  DriverSQLite,
			Path:    "factshield.db",
			Port:    5432,
			SSLMode: "disable",
		},
		UploadDir:       "uploads",
		MaxUploadSize:   16 << 20,
		SessionTTL:      12 * time.Hour,
		AdminUsername:   "admin",
		PasswordMinLen:  8,
		Log:             Log{Level: "info"},
		LoginRateLimit:  RateLimit{PerSecond: 1.0 / 5, Burst: 5},
		Sweep:           Sweep{Interval: time.Hour, SafetyThreshold: time.Hour},
		ShutdownTimeout: 10 * time.Second,
	}
}

// DSN builds the driver-specific connection string.
func (c *Config) DSN() string {
	db := c.Public.Database
	if db.Driver == DriverPostgres {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			db.Host, db.Port, db.User, c.Private.DatabasePassword, db.Dbname, db.SSLMode)
	}
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", db.Path)
}

func loadPath(configPath string, output interface{}) error {
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("can't read config file %s: %w", configPath, err)
	}
	if err := yaml.UnmarshalStrict(configFile, output); err != nil {
		return fmt.Errorf("can't unmarshal config file %s: %w", configPath, err)
	}
	return nil
}

// Load reads public.yaml (required) and private.yaml (optional) from
// configFolder, applies environment overrides and validates the result.
func Load(configFolder string) (*Config, error) {
	public := DefaultPublic()
	if err := loadPath(path.Join(configFolder, "public.yaml"), &public); err != nil {
		return nil, err
	}

	var private Private
	privatePath := path.Join(configFolder, "private.yaml")
	if _, err := os.Stat(privatePath); err == nil {
		if err := loadPath(privatePath, &private); err != nil {
			return nil, err
		}
	}

	cfg := &Config{Public: public, Private: private}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Public.Addr = ":" + port
	}
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		cfg.Public.UploadDir = dir
	}
	if p := os.Getenv("DATABASE_PATH"); p != "" {
		cfg.Public.Database.Path = p
	}
	if pass := os.Getenv("DATABASE_PASSWORD"); pass != "" {
		cfg.Private.DatabasePassword = pass
	}
	if key := os.Getenv("FACTSHIELD_SESSION_KEY"); key != "" {
		cfg.Private.SessionKey = key
	}
	if pass := os.Getenv("FACTSHIELD_ADMIN_PASSWORD"); pass != "" {
		cfg.Private.AdminPassword = pass
	}
}
