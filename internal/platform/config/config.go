package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Email        EmailConfig        `mapstructure:"email"`
	Registration RegistrationConfig `mapstructure:"registration"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Workers      WorkersConfig      `mapstructure:"workers"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig points at the datastore. A postgres:// URL selects the
// hosted backend; anything else is treated as a sqlite path.
type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	AccessKey      string `mapstructure:"access_key"`
	MaxConnections int    `mapstructure:"max_connections"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

type EmailConfig struct {
	Provider       string         `mapstructure:"provider"`
	SMTP           SMTPConfig     `mapstructure:"smtp"`
	HTTP           HTTPMailConfig `mapstructure:"http"`
	Timeout        time.Duration  `mapstructure:"timeout"`
	ProductName    string         `mapstructure:"product_name"`
	LoginURL       string         `mapstructure:"login_url"`
	SupportContact string         `mapstructure:"support_contact"`
}

type SMTPConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// HTTPMailConfig configures a transactional mail API reached over HTTPS.
type HTTPMailConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	APIKey        string `mapstructure:"api_key"`
	SigningSecret string `mapstructure:"signing_secret"`
	FromAddress   string `mapstructure:"from_address"`
}

type RegistrationConfig struct {
	BcryptCost              int           `mapstructure:"bcrypt_cost"`
	StoreTimeout            time.Duration `mapstructure:"store_timeout"`
	NotifyTimeout           time.Duration `mapstructure:"notify_timeout"`
	LookupAttempts          int           `mapstructure:"lookup_attempts"`
	CompensateOnUserFailure bool          `mapstructure:"compensate_on_user_failure"`
	Plans                   []string      `mapstructure:"plans"`
	PaymentMethods          []string      `mapstructure:"payment_methods"`
}

type RateLimitConfig struct {
	RegisterPerMinute int  `mapstructure:"register_per_minute"`
	TrustForwardedFor bool `mapstructure:"trust_forwarded_for"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

type WorkersConfig struct {
	OrphanSweepSchedule string        `mapstructure:"orphan_sweep_schedule"`
	OrphanGracePeriod   time.Duration `mapstructure:"orphan_grace_period"`
	OrphanSweepDryRun   bool          `mapstructure:"orphan_sweep_dry_run"`
}

const minBcryptCost = 10

var emailProviders = map[string]bool{"smtp": true, "http": true, "log": true}

// legacyEnv maps keys to the variable names used by the previous serverless
// deployment, so existing dashboards keep working.
var legacyEnv = map[string][]string{
	"database.url":                 {"DATABASE_URL", "SUPABASE_URL"},
	"database.access_key":          {"DATABASE_ACCESS_KEY", "SUPABASE_KEY"},
	"email.smtp.username":          {"EMAIL_SMTP_USERNAME", "EMAIL_USER"},
	"email.smtp.password":          {"EMAIL_SMTP_PASSWORD", "EMAIL_PASS"},
	"email.smtp.from_address":      {"EMAIL_SMTP_FROM_ADDRESS", "EMAIL_USER"},
	"registration.plans":           {"REGISTRATION_PLANS"},
	"registration.payment_methods": {"REGISTRATION_PAYMENT_METHODS"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.url", "file:./data/synapselab.db")
	v.SetDefault("database.access_key", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("email.provider", "log")
	v.SetDefault("email.smtp.host", "smtp.gmail.com")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.username", "")
	v.SetDefault("email.smtp.password", "")
	v.SetDefault("email.smtp.from_address", "")
	v.SetDefault("email.smtp.from_name", "SynapseLab")
	v.SetDefault("email.http.endpoint", "")
	v.SetDefault("email.http.api_key", "")
	v.SetDefault("email.http.signing_secret", "")
	v.SetDefault("email.http.from_address", "")
	v.SetDefault("email.timeout", 15*time.Second)
	v.SetDefault("email.product_name", "SynapseLab")
	v.SetDefault("email.login_url", "")
	v.SetDefault("email.support_contact", "")

	v.SetDefault("registration.bcrypt_cost", minBcryptCost)
	v.SetDefault("registration.store_timeout", 5*time.Second)
	v.SetDefault("registration.notify_timeout", 15*time.Second)
	v.SetDefault("registration.lookup_attempts", 3)
	v.SetDefault("registration.compensate_on_user_failure", false)
	v.SetDefault("registration.plans", []string{})
	v.SetDefault("registration.payment_methods", []string{})

	v.SetDefault("rate_limit.register_per_minute", 20)
	v.SetDefault("rate_limit.trust_forwarded_for", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_path", "")

	v.SetDefault("workers.orphan_sweep_schedule", "@every 15m")
	v.SetDefault("workers.orphan_grace_period", 30*time.Minute)
	v.SetDefault("workers.orphan_sweep_dry_run", true)
}

// Load reads the optional YAML file at path, then the environment. A .env
// file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, names := range legacyEnv {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, err
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Registration.Plans = splitList(cfg.Registration.Plans)
	cfg.Registration.PaymentMethods = splitList(cfg.Registration.PaymentMethods)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error
	if c.Registration.BcryptCost < minBcryptCost {
		errs = append(errs, fmt.Errorf("registration.bcrypt_cost must be at least %d", minBcryptCost))
	}
	if c.Registration.StoreTimeout <= 0 {
		errs = append(errs, errors.New("registration.store_timeout must be positive"))
	}
	if c.Registration.NotifyTimeout <= 0 {
		errs = append(errs, errors.New("registration.notify_timeout must be positive"))
	}
	if c.Registration.LookupAttempts < 1 {
		errs = append(errs, errors.New("registration.lookup_attempts must be at least 1"))
	}
	if !emailProviders[c.Email.Provider] {
		errs = append(errs, fmt.Errorf("email.provider %q is not one of smtp, http, log", c.Email.Provider))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	return errors.Join(errs...)
}
