package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"adwords-report/auth"
	"adwords-report/naming"
	"adwords-report/utils"
)

// DefaultFile is the config file used when none is given, relative to the
// project root.
const DefaultFile = "config/adwords.yaml"

// Environments known to the default URL tables.
const (
	Production = "production"
	Sandbox    = "sandbox"
)

type Config struct {
	Service        ServiceConfig                  `yaml:"service" envPrefix:"ADWORDS_"`
	Authentication AuthConfig                     `yaml:"authentication" envPrefix:"ADWORDS_"`
	DownloadURLs   map[string]map[string]string   `yaml:"download_urls"` // environment -> version -> URL
	Extensions     map[string]map[string][]string `yaml:"extensions"`    // version -> service -> methods
	Gateway        GatewayConfig                  `yaml:"gateway" envPrefix:"ADWORDS_GATEWAY_"`
	Archive        ArchiveConfig                  `yaml:"archive" envPrefix:"ADWORDS_ARCHIVE_"`
	Log            LogConfig                      `yaml:"log" envPrefix:"ADWORDS_LOG_"`
}

type ServiceConfig struct {
	Environment    string        `yaml:"environment" env:"ENVIRONMENT"`
	Version        string        `yaml:"version" env:"VERSION"`
	NamingStyle    string        `yaml:"naming_style" env:"NAMING_STYLE"`
	Endpoint       string        `yaml:"endpoint" env:"ENDPOINT"` // SOAP host, e.g. https://adwords.google.com
	PollInterval   time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
	PollTimeout    time.Duration `yaml:"poll_timeout" env:"POLL_TIMEOUT"` // 0 waits forever
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
}

type AuthConfig struct {
	Token            string `yaml:"auth_token" env:"AUTH_TOKEN"`
	ClientEmail      string `yaml:"client_email" env:"CLIENT_EMAIL"`
	ClientCustomerID string `yaml:"client_customer_id" env:"CLIENT_CUSTOMER_ID"`
	DeveloperToken   string `yaml:"developer_token" env:"DEVELOPER_TOKEN"`
	UserAgent        string `yaml:"user_agent" env:"USER_AGENT"`
}

type GatewayConfig struct {
	Listen          string `yaml:"listen" env:"LISTEN"`
	JWTSecret       string `yaml:"jwt_secret" env:"JWT_SECRET"`
	JWTExpiration   int    `yaml:"jwt_expiration" env:"JWT_EXPIRATION"` // minutes
	Workers         int    `yaml:"workers" env:"WORKERS"`
	ReportDir       string `yaml:"report_dir" env:"REPORT_DIR"`
	MaxFileAgeHours int    `yaml:"max_file_age_hours" env:"MAX_FILE_AGE_HOURS"`
	AccessLog       string `yaml:"access_log" env:"ACCESS_LOG"`
}

type ArchiveConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"` // sqlite, mysql or postgres; empty disables the archive
	DSN    string `yaml:"dsn" env:"DSN"`
}

type LogConfig struct {
	Dir    string `yaml:"dir" env:"DIR"`
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

var defaultEndpoints = map[string]string{
	Production: "https://adwords.google.com",
	Sandbox:    "https://adwords-sandbox.google.com",
}

var defaultVersions = []string{"v201003", "v201008", "v201101"}

// Load reads file (relative to the project root unless absolute), then the
// .env files of the project root, then ADWORDS_* environment variables, and
// finally fills defaults and validates the result. A missing file is not an
// error when the environment provides the rest.
func Load(file string) (*Config, error) {
	if file == "" {
		file = DefaultFile
	}
	var cfg Config
	data, err := os.ReadFile(utils.ResolvePath(file))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", file, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("config: read %s: %w", file, err)
	}

	if err := loadEnvFiles(utils.GetProjectRoot()); err != nil {
		return nil, err
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFiles loads root/.env, then root/.env.local with precedence.
func loadEnvFiles(root string) error {
	base := filepath.Join(root, ".env")
	if _, err := os.Stat(base); err == nil {
		if err := godotenv.Load(base); err != nil {
			return fmt.Errorf("config: load %s: %w", base, err)
		}
	}
	local := filepath.Join(root, ".env.local")
	if _, err := os.Stat(local); err == nil {
		if err := godotenv.Overload(local); err != nil {
			return fmt.Errorf("config: load %s: %w", local, err)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	s := &c.Service
	if s.Environment == "" {
		s.Environment = Production
	}
	s.Environment = strings.ToLower(s.Environment)
	if s.Version == "" {
		s.Version = defaultVersions[len(defaultVersions)-1]
	}
	if s.Endpoint == "" {
		s.Endpoint = defaultEndpoints[s.Environment]
	}
	if s.PollInterval == 0 {
		s.PollInterval = 30 * time.Second
	}
	if s.RequestTimeout == 0 {
		s.RequestTimeout = 2 * time.Minute
	}
	if c.Authentication.UserAgent == "" {
		c.Authentication.UserAgent = "adwords-report"
	}

	g := &c.Gateway
	if g.Listen == "" {
		g.Listen = ":8080"
	}
	if g.JWTExpiration == 0 {
		g.JWTExpiration = 60
	}
	if g.Workers == 0 {
		g.Workers = 2
	}
	if g.ReportDir == "" {
		g.ReportDir = "reports"
	}
	if g.MaxFileAgeHours == 0 {
		g.MaxFileAgeHours = 24
	}

	if c.Log.Dir == "" {
		c.Log.Dir = "log"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if _, err := naming.ParseStyle(c.Service.NamingStyle); err != nil {
		errs = append(errs, err)
	}
	if c.Service.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("service.poll_interval must not be negative"))
	}
	if c.Service.PollTimeout < 0 {
		errs = append(errs, fmt.Errorf("service.poll_timeout must not be negative"))
	}
	if c.Service.Endpoint == "" {
		errs = append(errs, fmt.Errorf("service.endpoint is required for environment %q", c.Service.Environment))
	}
	if c.Gateway.Workers < 0 {
		errs = append(errs, fmt.Errorf("gateway.workers must not be negative"))
	}
	switch c.Archive.Driver {
	case "", "sqlite", "sqlite3", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("archive.driver %q is not supported", c.Archive.Driver))
	}
	if c.Archive.Driver != "" && c.Archive.DSN == "" {
		errs = append(errs, fmt.Errorf("archive.dsn is required with driver %q", c.Archive.Driver))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Style returns the validated naming style.
func (c *Config) Style() naming.Style {
	s, _ := naming.ParseStyle(c.Service.NamingStyle)
	return s
}

// Credentials returns the session credentials.
func (c *Config) Credentials() auth.Context {
	return auth.Context{
		Token:            c.Authentication.Token,
		ClientEmail:      c.Authentication.ClientEmail,
		ClientCustomerID: c.Authentication.ClientCustomerID,
	}
}

// DownloadURL returns the report download base URL for the configured
// environment and version, or "" when the version has none (v13).
func (c *Config) DownloadURL() string {
	return c.DownloadURLFor(c.Service.Environment, c.Service.Version)
}

// DownloadURLFor looks up the download_urls table, falling back to the
// built-in URLs of the known environments.
func (c *Config) DownloadURLFor(environment, version string) string {
	if u := c.DownloadURLs[environment][version]; u != "" {
		return u
	}
	host, ok := defaultEndpoints[environment]
	if !ok {
		return ""
	}
	for _, v := range defaultVersions {
		if v == version {
			return host + "/api/adwords/reportdownload"
		}
	}
	return ""
}

// ReportDir returns the gateway report directory resolved against the
// project root.
func (c *Config) ReportDir() string {
	return utils.ResolvePath(c.Gateway.ReportDir)
}

// LogDir returns the log directory resolved against the project root.
func (c *Config) LogDir() string {
	return utils.ResolvePath(c.Log.Dir)
}
