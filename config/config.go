package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/fragments/auth"
	fraghttp "github.com/sagarc03/fragments/http"
	"github.com/sagarc03/fragments/storage"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Environment names accepted in Config.Env.
const (
	EnvDevelopment = "dev"
	EnvProduction  = "prod"
)

// Config is the root configuration struct for fragments.
type Config struct {
	Env      string              `mapstructure:"env" validate:"required,oneof=dev prod"`
	Server   ServerConfig        `mapstructure:"server"`
	Service  ServiceConfig       `mapstructure:"service"`
	Metadata storage.Config      `mapstructure:"metadata"`
	Payload  storage.Config      `mapstructure:"payload"`
	Types    []string            `mapstructure:"types"`
	Auth     auth.Config         `mapstructure:"auth"`
	CORS     fraghttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig           `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	APIURL      string `mapstructure:"api_url" validate:"omitempty,url"`
	MaxBodySize int64  `mapstructure:"max_body_size" validate:"min=1"`
}

// ServiceConfig holds fragment manager configuration.
type ServiceConfig struct {
	// CleanupTimeout bounds payload cleanup after a failed create, in seconds.
	CleanupTimeout int `mapstructure:"cleanup_timeout" validate:"min=1"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":          "server.port",
	"api-url":       "server.api_url",
	"metadata-type": "metadata.type",
	"payload-type":  "payload.type",
	"auth-strategy": "auth.strategy",
	"log-level":     "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", EnvDevelopment)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_url", "")
	v.SetDefault("server.max_body_size", fraghttp.DefaultMaxBodySize)

	v.SetDefault("service.cleanup_timeout", 30) // seconds

	v.SetDefault("metadata.type", storage.TypeSQLite)
	v.SetDefault("metadata.dsn", "fragments.db")
	v.SetDefault("metadata.table", "fragments_metadata")
	v.SetDefault("metadata.path", "")
	v.SetDefault("metadata.compress", false)

	v.SetDefault("payload.type", storage.TypeFilesystem)
	v.SetDefault("payload.path", "./data")
	v.SetDefault("payload.dsn", "")
	v.SetDefault("payload.table", "")
	v.SetDefault("payload.compress", false)
	v.SetDefault("payload.s3.bucket", "")
	v.SetDefault("payload.s3.region", "")
	v.SetDefault("payload.s3.endpoint", "")
	v.SetDefault("payload.s3.access_key_id", "")
	v.SetDefault("payload.s3.secret_access_key", "")
	v.SetDefault("payload.s3.use_path_style", false)
	v.SetDefault("payload.s3.prefix", "")
	v.SetDefault("payload.s3.create_bucket", false)

	v.SetDefault("types", []string{})

	v.SetDefault("auth.strategy", auth.StrategyBasic)
	v.SetDefault("auth.htpasswd_file", ".htpasswd")
	v.SetDefault("auth.bearer.secret", "")
	v.SetDefault("auth.bearer.issuer", "")
	v.SetDefault("auth.sigv4.region", "us-east-1")
	v.SetDefault("auth.sigv4.service", "s3")
	v.SetDefault("auth.sigv4.keys.file", "")

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	v.SetEnvPrefix("FRAGMENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
