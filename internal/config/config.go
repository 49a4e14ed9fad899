package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const defaultEnvFile = ".env"

// Store backends accepted by MH_LEAD_STORE and MH_APPLICATION_STORE.
const (
	StoreMemory    = "memory"
	StoreSQLite    = "sqlite"
	StoreFirestore = "firestore"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server       ServerConfig
	Paths        PathsConfig
	Site         SiteConfig
	Session      SessionConfig
	Forms        FormsConfig
	Leads        LeadsConfig
	Applications ApplicationsConfig
	Notify       NotifyConfig
	Analytics    AnalyticsConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string        `env:"MH_PORT"`
	Environment  string        `env:"MH_ENV" envDefault:"local"`
	Dev          bool          `env:"MH_DEV"`
	ReadTimeout  time.Duration `env:"MH_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"MH_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"MH_IDLE_TIMEOUT" envDefault:"60s"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
}

// PathsConfig locates the on-disk templates, markdown content and assets.
type PathsConfig struct {
	Templates string `env:"MH_TEMPLATES_DIR" envDefault:"templates"`
	Content   string `env:"MH_CONTENT_DIR" envDefault:"content"`
	Public    string `env:"MH_PUBLIC_DIR" envDefault:"public"`
	Locales   string `env:"MH_LOCALES_DIR" envDefault:"locales"`
}

// SiteConfig carries branding used by SEO metadata and the sitemap.
type SiteConfig struct {
	Name string `env:"MH_SITE_NAME" envDefault:"MerchantHaus"`
	URL  string `env:"MH_SITE_URL" envDefault:"https://www.merchanthaus.io"`
}

// SessionConfig holds the cookie keys. EncryptionKey is optional; when set it must be
// 16, 24 or 32 bytes and cookie payloads are encrypted as well as signed.
type SessionConfig struct {
	SigningKey    string `env:"MH_SESSION_SIGNING_KEY"`
	EncryptionKey string `env:"MH_SESSION_ENCRYPTION_KEY"`
}

// FormsConfig points the contact and quote forms at their form backend.
type FormsConfig struct {
	Endpoint string        `env:"MH_FORM_ENDPOINT"`
	Timeout  time.Duration `env:"MH_FORM_TIMEOUT" envDefault:"15s"`
}

// LeadsConfig selects where the form backend stores received submissions.
type LeadsConfig struct {
	Store      string `env:"MH_LEAD_STORE" envDefault:"memory"`
	SQLitePath string `env:"MH_SQLITE_PATH" envDefault:"merchanthaus.db"`
}

// ApplicationsConfig selects the merchant application record store.
type ApplicationsConfig struct {
	Store                 string `env:"MH_APPLICATION_STORE" envDefault:"memory"`
	FirestoreProject      string `env:"MH_FIRESTORE_PROJECT"`
	FirestoreEmulatorHost string `env:"FIRESTORE_EMULATOR_HOST"`
	Collection            string `env:"MH_FIRESTORE_COLLECTION" envDefault:"merchant_applications"`
}

// NotifyConfig configures the onboarding notification sent after an application insert.
type NotifyConfig struct {
	PubSubProject string `env:"MH_PUBSUB_PROJECT"`
	PubSubTopic   string `env:"MH_PUBSUB_TOPIC"`
	Recipient     string `env:"MH_NOTIFY_RECIPIENT" envDefault:"onboarding@merchanthaus.io"`
	DashboardURL  string `env:"MH_DASHBOARD_URL" envDefault:"https://dashboard.merchanthaus.io"`
}

// AnalyticsConfig holds client instrumentation identifiers surfaced to templates.
type AnalyticsConfig struct {
	GA4MeasurementID string `env:"MH_GA_MEASUREMENT_ID"`
	GTMContainerID   string `env:"MH_GTM_CONTAINER_ID"`
	Debug            bool   `env:"MH_ANALYTICS_DEBUG"`
}

// IsProduction reports whether the server runs with production hardening.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Server.Environment), "prod")
}

// Addr returns the listen address derived from the port.
func (c Config) Addr() string {
	return ":" + c.Server.Port
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map. Values in the map take precedence
// over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, the .env file, the process
// environment and an optional explicit map, in increasing precedence.
func Load(opts ...Option) (Config, error) {
	values, err := EnvironmentValues(opts...)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: values}); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	// Cloud Run injects PORT; MH_PORT wins when both are present.
	if strings.TrimSpace(cfg.Server.Port) == "" {
		cfg.Server.Port = firstNonEmpty(values["PORT"], "8080")
	}
	cfg.Leads.Store = strings.ToLower(strings.TrimSpace(cfg.Leads.Store))
	cfg.Applications.Store = strings.ToLower(strings.TrimSpace(cfg.Applications.Store))
	cfg.Site.URL = strings.TrimRight(strings.TrimSpace(cfg.Site.URL), "/")
	cfg.Forms.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Forms.Endpoint), "/")
	if cfg.Forms.Endpoint == "" {
		cfg.Forms.Endpoint = "http://127.0.0.1:" + cfg.Server.Port
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// EnvironmentValues returns the effective key/value environment map after applying
// the same precedence rules as Load (dotenv < OS env < explicit env map).
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	merge := func(source map[string]string) {
		for key, value := range source {
			values[key] = value
		}
	}
	merge(dotEnvValues)
	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			key, value, ok := strings.Cut(entry, "=")
			if !ok || strings.TrimSpace(key) == "" {
				continue
			}
			values[strings.TrimSpace(key)] = value
		}
	}
	merge(options.envMap)
	return values, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Server.ReadTimeout <= 0 {
		missing = append(missing, "Server.ReadTimeout")
	}
	if cfg.Forms.Timeout <= 0 {
		missing = append(missing, "Forms.Timeout")
	}
	switch cfg.Leads.Store {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(cfg.Leads.SQLitePath) == "" {
			missing = append(missing, "Leads.SQLitePath")
		}
	default:
		missing = append(missing, "Leads.Store")
	}
	switch cfg.Applications.Store {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(cfg.Leads.SQLitePath) == "" {
			missing = append(missing, "Leads.SQLitePath")
		}
	case StoreFirestore:
		if strings.TrimSpace(cfg.Applications.FirestoreProject) == "" {
			missing = append(missing, "Applications.FirestoreProject")
		}
	default:
		missing = append(missing, "Applications.Store")
	}
	if cfg.Notify.PubSubTopic != "" && cfg.Notify.PubSubProject == "" {
		missing = append(missing, "Notify.PubSubProject")
	}
	if strings.TrimSpace(cfg.Notify.Recipient) == "" {
		missing = append(missing, "Notify.Recipient")
	}
	if cfg.IsProduction() && strings.TrimSpace(cfg.Session.SigningKey) == "" {
		missing = append(missing, "Session.SigningKey")
	}
	switch len(cfg.Session.EncryptionKey) {
	case 0, 16, 24, 32:
	default:
		missing = append(missing, "Session.EncryptionKey")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
