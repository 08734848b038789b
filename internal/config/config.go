package config

import (
	"errors"
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/netspider/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "netspider"

	// DefaultBackend stores crawl state in a SQLite database, which also
	// keeps the run history shown by the status command.
	DefaultBackend = "sqlite"

	// DefaultRedisPrefix is prepended to every Redis key.
	DefaultRedisPrefix = "netspider:"

	// DefaultActionTimeout bounds a single browser action. Profile pages
	// of the crawled site can take several seconds to render.
	DefaultActionTimeout = 30 * time.Second

	// DefaultEndorsementLists is the number of endorsement lists read per
	// profile.
	DefaultEndorsementLists = 1

	// DefaultKafkaTopic receives one event per checkpointed visit.
	DefaultKafkaTopic = "netspider.visits"

	// PasswordEnv is the environment variable consulted when no password is
	// configured. Keeping the password out of the config file lets the file
	// be shared.
	PasswordEnv = "NETSPIDER_PASSWORD"
)

// Config holds all configuration options for netspider.
// It is populated from the YAML config file and then from CLI flags, and
// passed through the application rather than kept in global state.
type Config struct {
	// URL is the base URL of the crawled site. Every route is derived from it.
	URL string `yaml:"url"`

	// Username is the sign-in account name.
	Username string `yaml:"username"`

	// Password is the sign-in password.
	Password string `yaml:"password"`

	// Store selects and configures the persistence backend.
	Store StoreConfig `yaml:"store"`

	// Browser configures the controlled browser.
	Browser BrowserConfig `yaml:"browser"`

	// Crawl configures the crawl loop.
	Crawl CrawlConfig `yaml:"crawl"`

	// Pacing configures the delays between browser actions.
	Pacing PacingConfig `yaml:"pacing"`

	// Events configures visit event publishing.
	Events EventsConfig `yaml:"events"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool `yaml:"-"`

	// LogJSON selects JSON log output.
	LogJSON bool `yaml:"-"`

	// ConfigFilePath is the path of the config file that was loaded, if any.
	ConfigFilePath string `yaml:"-"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Backend is sqlite, json or redis.
	Backend string `yaml:"backend"`

	// Dir is the state directory of the sqlite and json backends.
	// Defaults to the XDG data directory (~/.local/share/netspider on Linux).
	Dir string `yaml:"dir"`

	// RedisAddr is the host:port of the Redis server.
	RedisAddr string `yaml:"redisAddr"`

	// RedisPrefix is prepended to every Redis key.
	RedisPrefix string `yaml:"redisPrefix"`
}

// BrowserConfig configures the controlled browser.
type BrowserConfig struct {
	// Headless hides the browser window. The browser is visible by default
	// so the operator can solve challenges the site presents.
	Headless bool `yaml:"headless"`

	// ExecPath is the browser executable. Empty lets chromedp find one.
	ExecPath string `yaml:"execPath"`

	// ActionTimeout bounds every single browser action.
	ActionTimeout time.Duration `yaml:"actionTimeout"`
}

// CrawlConfig configures the crawl loop.
type CrawlConfig struct {
	// CompanyCascade follows the organizations of every visited profile.
	CompanyCascade bool `yaml:"companyCascade"`

	// MaxRetries is how often a unit of work failing with a transient page
	// error is attempted again. 0 makes every failure final.
	MaxRetries int `yaml:"maxRetries"`

	// MaxVisits ends the run after this many visits. 0 means no limit.
	MaxVisits int `yaml:"maxVisits"`

	// ContinueOnError lets a visit complete when a cascade step fails.
	ContinueOnError bool `yaml:"continueOnError"`

	// EndorsementLists is how many endorsement lists are read per profile.
	EndorsementLists int `yaml:"endorsementLists"`
}

// PacingConfig configures the delays between browser actions.
type PacingConfig struct {
	// MaxNavigationsPerMinute caps the rate of paced actions on top of the
	// random delay. 0 means no cap.
	MaxNavigationsPerMinute int `yaml:"maxNavigationsPerMinute"`
}

// EventsConfig configures visit event publishing.
type EventsConfig struct {
	// KafkaBrokers enables publishing when non-empty.
	KafkaBrokers []string `yaml:"kafkaBrokers"`

	// KafkaTopic receives the events.
	KafkaTopic string `yaml:"kafkaTopic"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address of the /metrics endpoint. Empty disables it.
	Addr string `yaml:"addr"`
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, backend).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:     DefaultBackend,
			Dir:         XDGDataDir(),
			RedisPrefix: DefaultRedisPrefix,
		},
		Browser: BrowserConfig{
			ActionTimeout: DefaultActionTimeout,
		},
		Crawl: CrawlConfig{
			EndorsementLists: DefaultEndorsementLists,
		},
		Events: EventsConfig{
			KafkaTopic: DefaultKafkaTopic,
		},
	}
}

// XDGDataDir returns the XDG data directory for netspider.
// On Linux: ~/.local/share/netspider
// On macOS: ~/Library/Application Support/netspider
// On Windows: %LOCALAPPDATA%\netspider
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for netspider.
// On Linux: ~/.config/netspider
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// backends lists the accepted store backends.
var backends = []string{"sqlite", "json", "redis"}

// ValidateStore checks only the store settings. The status command needs
// no site or credentials.
func (c *Config) ValidateStore() error {
	if !slices.Contains(backends, c.Store.Backend) {
		return ErrInvalidBackend
	}
	if c.Store.Backend == "redis" && c.Store.RedisAddr == "" {
		return ErrNoRedisAddr
	}
	return nil
}

// Validate checks if the configuration is valid for a crawl.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrNoBaseURL
	}
	if _, err := model.NewRoutes(c.URL); err != nil {
		if errors.Is(err, model.ErrInvalidBaseURL) {
			return ErrInvalidBaseURL
		}
		return err
	}
	if c.Username == "" || c.Password == "" {
		return ErrNoCredentials
	}
	if err := c.ValidateStore(); err != nil {
		return err
	}
	if c.Browser.ActionTimeout <= 0 {
		return ErrInvalidActionTimeout
	}
	if c.Crawl.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.Crawl.MaxVisits < 0 {
		return ErrInvalidMaxVisits
	}
	if c.Crawl.EndorsementLists < 1 {
		return ErrInvalidEndorsementLists
	}
	if c.Pacing.MaxNavigationsPerMinute < 0 {
		return ErrInvalidNavigationRate
	}
	if len(c.Events.KafkaBrokers) > 0 && c.Events.KafkaTopic == "" {
		return ErrNoKafkaTopic
	}
	return nil
}
