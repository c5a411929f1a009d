package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported database types
const (
	DatabaseTypeMySQL    = "mysql"
	DatabaseTypePostgres = "postgres"
	DatabaseTypeSQLite   = "sqlite"
	DatabaseTypeMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabasesConfig    `mapstructure:"database"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	AspspProfile AspspProfileConfig `mapstructure:"aspsp_profile"`
	Audit        AuditConfig        `mapstructure:"audit"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Security     SecurityConfig     `mapstructure:"security"`
	CORS         CORSConfig         `mapstructure:"cors"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Hostname     string        `mapstructure:"hostname"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`
}

// DatabasesConfig holds all database configurations
type DatabasesConfig struct {
	Consent DatabaseConfig `mapstructure:"consent"`
}

// DatabaseConfig holds individual database configuration
type DatabaseConfig struct {
	Type             string        `mapstructure:"type"`
	Hostname         string        `mapstructure:"hostname"`
	Port             int           `mapstructure:"port"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	Database         string        `mapstructure:"database"`
	SSLMode          string        `mapstructure:"ssl_mode"`
	Path             string        `mapstructure:"path"`
	MaxOpenConns     int           `mapstructure:"max_open_conns"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	MigrateOnStartup bool          `mapstructure:"migrate_on_startup"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// AspspProfileConfig is the bank policy applied to consents, payments and authorisations
type AspspProfileConfig struct {
	FrequencyPerDay                            int   `mapstructure:"frequency_per_day"`
	MaxConsentValidityDays                     int   `mapstructure:"max_consent_validity_days"`
	RedirectURLExpirationTimeMs                int64 `mapstructure:"redirect_url_expiration_time_ms"`
	AuthorisationExpirationTimeMs              int64 `mapstructure:"authorisation_expiration_time_ms"`
	PaymentCancellationRedirectURLExpirationMs int64 `mapstructure:"payment_cancellation_redirect_url_expiration_time_ms"`
	NotConfirmedConsentExpirationTimeMs        int64 `mapstructure:"not_confirmed_consent_expiration_time_ms"`
	NotConfirmedPaymentExpirationTimeMs        int64 `mapstructure:"not_confirmed_payment_expiration_time_ms"`
}

// AuditConfig holds the consent action webhook configuration
type AuditConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BaseURL  string        `mapstructure:"base_url"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MetricsConfig holds the prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	BasicAuth BasicAuthConfig `mapstructure:"basic_auth"`
}

// BasicAuthConfig holds basic authentication configuration
type BasicAuthConfig struct {
	Enabled bool            `mapstructure:"enabled"`
	Users   []BasicAuthUser `mapstructure:"users"`
}

// BasicAuthUser represents a basic auth user
type BasicAuthUser struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

var globalConfig *Config

var envKeyReplacer = strings.NewReplacer(".", "_")

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
		v.AddConfigPath(".")
	}

	// Read from environment variables
	v.SetEnvPrefix("CONSENT_MGT")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	globalConfig = &config
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.hostname", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.consent.type", DatabaseTypeMySQL)
	v.SetDefault("database.consent.max_open_conns", 25)
	v.SetDefault("database.consent.max_idle_conns", 5)
	v.SetDefault("database.consent.conn_max_lifetime", "5m")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("aspsp_profile.frequency_per_day", 4)
	v.SetDefault("aspsp_profile.max_consent_validity_days", 0)
	v.SetDefault("aspsp_profile.redirect_url_expiration_time_ms", 600000)
	v.SetDefault("aspsp_profile.authorisation_expiration_time_ms", 86400000)
	v.SetDefault("aspsp_profile.payment_cancellation_redirect_url_expiration_time_ms", 600000)
	v.SetDefault("aspsp_profile.not_confirmed_consent_expiration_time_ms", 86400000)
	v.SetDefault("aspsp_profile.not_confirmed_payment_expiration_time_ms", 86400000)
	v.SetDefault("audit.timeout", "5s")
	v.SetDefault("metrics.path", "/metrics")
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	db := config.Database.Consent
	switch db.Type {
	case DatabaseTypeMySQL, DatabaseTypePostgres:
		if db.Hostname == "" {
			return fmt.Errorf("database hostname is required")
		}
		if db.Database == "" {
			return fmt.Errorf("database name is required")
		}
	case DatabaseTypeSQLite:
		if db.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case DatabaseTypeMemory:
	default:
		return fmt.Errorf("unsupported database type: %s", db.Type)
	}

	if config.Audit.Enabled && config.Audit.BaseURL == "" {
		return fmt.Errorf("audit base URL is required when audit webhook is enabled")
	}

	return config.AspspProfile.validate()
}

func (p *AspspProfileConfig) validate() error {
	if p.FrequencyPerDay <= 0 {
		return fmt.Errorf("aspsp profile frequency_per_day must be positive")
	}
	if p.MaxConsentValidityDays < 0 {
		return fmt.Errorf("aspsp profile max_consent_validity_days must not be negative")
	}
	ttls := map[string]int64{
		"redirect_url_expiration_time_ms":                      p.RedirectURLExpirationTimeMs,
		"authorisation_expiration_time_ms":                     p.AuthorisationExpirationTimeMs,
		"payment_cancellation_redirect_url_expiration_time_ms": p.PaymentCancellationRedirectURLExpirationMs,
		"not_confirmed_consent_expiration_time_ms":             p.NotConfirmedConsentExpirationTimeMs,
		"not_confirmed_payment_expiration_time_ms":             p.NotConfirmedPaymentExpirationTimeMs,
	}
	for key, ttl := range ttls {
		if ttl < 0 {
			return fmt.Errorf("aspsp profile %s must not be negative", key)
		}
	}
	return nil
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDSN returns the driver specific connection string
func (d *DatabaseConfig) GetDSN() string {
	switch d.Type {
	case DatabaseTypePostgres:
		sslMode := d.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Hostname, d.Port, d.User, d.Password, d.Database, sslMode)
	case DatabaseTypeSQLite:
		return d.Path
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true&clientFoundRows=true",
			d.User,
			d.Password,
			d.Hostname,
			d.Port,
			d.Database,
		)
	}
}

// GetServerAddress returns the server address in host:port format
func (s *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}

// GetWebhookURL returns the full URL of the consent action webhook
func (a *AuditConfig) GetWebhookURL() string {
	return a.BaseURL + a.Endpoint
}

// IsBasicAuthEnabled returns whether basic auth is enabled
func (s *SecurityConfig) IsBasicAuthEnabled() bool {
	return s.BasicAuth.Enabled
}

// Accounts returns the configured users in the form gin.BasicAuth expects
func (s *SecurityConfig) Accounts() map[string]string {
	accounts := make(map[string]string, len(s.BasicAuth.Users))
	for _, user := range s.BasicAuth.Users {
		accounts[user.Username] = user.Password
	}
	return accounts
}
