package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. TAKEATASK_SERVER_PORT.
const EnvPrefix = "TAKEATASK"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 10080)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("storage.upload_dir", "./uploads")
	v.SetDefault("storage.max_upload_bytes", 10<<20)

	v.SetDefault("notify.enabled", true)
	v.SetDefault("notify.smtp_host", "")
	v.SetDefault("notify.smtp_port", 587)
	v.SetDefault("notify.smtp_username", "")
	v.SetDefault("notify.smtp_password", "")
	v.SetDefault("notify.from", "no-reply@takeatask.local")
	v.SetDefault("notify.queue_size", 100)
	v.SetDefault("notify.worker_count", 2)

	v.SetDefault("seed.admin_login", "admin")
	v.SetDefault("seed.admin_email", "admin@takeatask.local")
	v.SetDefault("seed.admin_password", "")
	v.SetDefault("seed.user_login", "user")
	v.SetDefault("seed.user_email", "user@takeatask.local")
	v.SetDefault("seed.user_password", "")
}

// Load configuration from defaults, an optional YAML file and environment
// variables, in increasing order of precedence. configFile may be empty, in
// which case ./config.yaml is used when it exists.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
