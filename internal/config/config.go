package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage" validate:"required"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lt=44640"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0,lt=44640,gtfield=TokenLifetimeMinutes"`
	BCryptCost                  int    `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
}

// StorageConfig controls where attachment content is kept.
type StorageConfig struct {
	UploadDir      string `mapstructure:"upload_dir" validate:"required"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" validate:"gt=0"`
}

// NotifyConfig controls assignment and status-change emails.
// With an empty SMTPHost messages are only logged.
type NotifyConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port" validate:"gt=0,lt=65536"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	From         string `mapstructure:"from" validate:"omitempty,email"`
	QueueSize    int    `mapstructure:"queue_size" validate:"gt=0"`
	WorkerCount  int    `mapstructure:"worker_count" validate:"gt=0"`
}

// SeedConfig holds the accounts created by the seed command.
type SeedConfig struct {
	AdminLogin    string `mapstructure:"admin_login" validate:"omitempty,min=3,max=50"`
	AdminEmail    string `mapstructure:"admin_email" validate:"omitempty,email"`
	AdminPassword string `mapstructure:"admin_password" validate:"omitempty,min=6"`
	UserLogin     string `mapstructure:"user_login" validate:"omitempty,min=3,max=50"`
	UserEmail     string `mapstructure:"user_email" validate:"omitempty,email"`
	UserPassword  string `mapstructure:"user_password" validate:"omitempty,min=6"`
}
