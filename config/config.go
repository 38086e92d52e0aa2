package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort    int           `mapstructure:"http_port"`
	GRPCPort    int           `mapstructure:"grpc_port"`
	LogLevel    string        `mapstructure:"log_level"`
	ServiceName string        `mapstructure:"service_name"` // Used for Consul registration
	JwtSecret   string        `mapstructure:"jwt_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`

	Database   DatabaseConfig   `mapstructure:"database"`
	Media      MediaConfig      `mapstructure:"media"`
	Consul     ConsulConfig     `mapstructure:"consul"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Pagination PaginationConfig `mapstructure:"pagination"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // mysql, postgres or sqlite
	DSN    string `mapstructure:"dsn"`
}

type MediaConfig struct {
	Backend   string   `mapstructure:"backend"` // local or s3
	Root      string   `mapstructure:"root"`
	URLPrefix string   `mapstructure:"url_prefix"`
	S3        S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type ConsulConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// AdminConfig replaces the global admin-site settings of the old console.
type AdminConfig struct {
	EmptyValueDisplay string `mapstructure:"empty_value_display"`
	RecipeLimitShow   int    `mapstructure:"recipe_limit_show"`
}

type PaginationConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

var AppConfig Config

// SetDefaults registers the default value of every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http_port", 8080)
	v.SetDefault("grpc_port", 50051)
	v.SetDefault("log_level", "info")
	v.SetDefault("service_name", "foodgram")
	v.SetDefault("jwt_secret", "default-very-insecure-secret-key") // CHANGE THIS IN PRODUCTION
	v.SetDefault("token_ttl", 24*time.Hour)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "foodgram:foodgram@tcp(127.0.0.1:3306)/foodgram?charset=utf8mb4&parseTime=True&loc=Local")

	v.SetDefault("media.backend", "local")
	v.SetDefault("media.root", "./media")
	v.SetDefault("media.url_prefix", "/media/")
	// Empty defaults keep these keys visible to AutomaticEnv during Unmarshal.
	v.SetDefault("media.s3.bucket", "")
	v.SetDefault("media.s3.region", "us-east-1")
	v.SetDefault("media.s3.endpoint", "")
	v.SetDefault("media.s3.access_key", "")
	v.SetDefault("media.s3.secret_key", "")

	v.SetDefault("consul.enabled", false)
	v.SetDefault("consul.address", "127.0.0.1:8500")

	v.SetDefault("admin.empty_value_display", "-empty-")
	v.SetDefault("admin.recipe_limit_show", 5)

	v.SetDefault("pagination.default_limit", 6)
	v.SetDefault("pagination.max_limit", 100)
}

// Load reads configuration from configFile (or config.yaml in . and ./config
// when empty), environment variables prefixed with FOODGRAM and defaults.
func Load(configFile string) (Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variable overrides, e.g. FOODGRAM_DATABASE_DSN
	v.SetEnvPrefix("FOODGRAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// InitConfig loads the configuration into AppConfig.
func InitConfig(configFile string) error {
	cfg, err := Load(configFile)
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Media.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("unsupported media backend %q", c.Media.Backend)
	}
	if c.Media.Backend == "s3" && c.Media.S3.Bucket == "" {
		return errors.New("media.s3.bucket is required for the s3 backend")
	}
	if c.Pagination.DefaultLimit < 1 || c.Pagination.MaxLimit < c.Pagination.DefaultLimit {
		return fmt.Errorf("invalid pagination limits %d/%d", c.Pagination.DefaultLimit, c.Pagination.MaxLimit)
	}
	return nil
}
