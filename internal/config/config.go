package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProtocolChat   = "chat"
	ProtocolLegacy = "legacy"

	StorageMemory = "memory"
	StorageDisk   = "disk"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Backend BackendConfig `mapstructure:"backend"`
	Session SessionConfig `mapstructure:"session"`
	Storage StorageConfig `mapstructure:"storage"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

// BackendConfig points at the remote chat/mapping service.
type BackendConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Protocol string        `mapstructure:"protocol"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type SessionConfig struct {
	Slots        int   `mapstructure:"slots"`
	MaxFileBytes int64 `mapstructure:"max_file_bytes"`
}

type StorageConfig struct {
	Type    string `mapstructure:"type"`
	DataDir string `mapstructure:"data_dir"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	// sends are not bounded by the transport, keep the write side generous
	v.SetDefault("server.write_timeout", 10*time.Minute)
	v.SetDefault("server.max_header_bytes", 1<<20)

	v.SetDefault("backend.base_url", "http://127.0.0.1:8000")
	v.SetDefault("backend.protocol", ProtocolChat)
	v.SetDefault("backend.timeout", time.Duration(0))

	v.SetDefault("session.slots", 3)
	v.SetDefault("session.max_file_bytes", int64(8<<20))

	v.SetDefault("storage.type", StorageMemory)
	v.SetDefault("storage.data_dir", "./data/maps")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept"})
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configPath (optional) on top of defaults, .env and MAPCHAT_*
// environment variables.
func Load(configPath string) (*Config, error) {
	// a missing .env is normal
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MAPCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Session.Slots < 1 {
		errs = append(errs, fmt.Errorf("session.slots must be at least 1, got %d", c.Session.Slots))
	}
	if c.Session.MaxFileBytes <= 0 {
		errs = append(errs, errors.New("session.max_file_bytes must be positive"))
	}
	switch c.Backend.Protocol {
	case ProtocolChat, ProtocolLegacy:
	default:
		errs = append(errs, fmt.Errorf("backend.protocol %q is not one of %s, %s", c.Backend.Protocol, ProtocolChat, ProtocolLegacy))
	}
	if c.Backend.BaseURL == "" {
		errs = append(errs, errors.New("backend.base_url is required"))
	}
	switch c.Storage.Type {
	case StorageMemory:
	case StorageDisk:
		if c.Storage.DataDir == "" {
			errs = append(errs, errors.New("storage.data_dir is required for disk storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type %q is not one of %s, %s", c.Storage.Type, StorageMemory, StorageDisk))
	}

	return errors.Join(errs...)
}
