package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults must be intentional: these tests fail when they change.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default backend is sqlite", func(t *testing.T) {
		t.Parallel()
		if cfg.Store.Backend != "sqlite" {
			t.Errorf("expected backend 'sqlite', got '%s'", cfg.Store.Backend)
		}
	})

	t.Run("default state dir is the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if cfg.Store.Dir != XDGDataDir() {
			t.Errorf("expected %q, got %q", XDGDataDir(), cfg.Store.Dir)
		}
	})

	t.Run("default action timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Browser.ActionTimeout != 30*time.Second {
			t.Errorf("expected 30s, got %v", cfg.Browser.ActionTimeout)
		}
	})

	t.Run("browser is visible by default", func(t *testing.T) {
		t.Parallel()
		if cfg.Browser.Headless {
			t.Error("expected Headless to be false")
		}
	})

	t.Run("company cascade and retries are off by default", func(t *testing.T) {
		t.Parallel()
		if cfg.Crawl.CompanyCascade || cfg.Crawl.MaxRetries != 0 || cfg.Crawl.MaxVisits != 0 {
			t.Errorf("unexpected crawl defaults %+v", cfg.Crawl)
		}
		if cfg.Crawl.EndorsementLists != 1 {
			t.Errorf("expected 1 endorsement list, got %d", cfg.Crawl.EndorsementLists)
		}
	})

	t.Run("events and metrics are disabled by default", func(t *testing.T) {
		t.Parallel()
		if len(cfg.Events.KafkaBrokers) != 0 || cfg.Metrics.Addr != "" {
			t.Error("expected no brokers and no metrics address")
		}
		if cfg.Events.KafkaTopic != DefaultKafkaTopic {
			t.Errorf("expected topic %q, got %q", DefaultKafkaTopic, cfg.Events.KafkaTopic)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	// validConfig returns a minimal valid configuration.
	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.URL = "https://www.example.com/"
		cfg.Username = "jane@example.com"
		cfg.Password = "secret"
		return cfg
	}

	tests := []struct {
		name   string
		modify func(c *Config)
		want   error
	}{
		{name: "valid config returns nil", modify: func(*Config) {}},
		{name: "base URL without trailing slash is valid", modify: func(c *Config) { c.URL = "https://www.example.com" }},
		{name: "empty URL", modify: func(c *Config) { c.URL = "" }, want: ErrNoBaseURL},
		{name: "relative URL", modify: func(c *Config) { c.URL = "www.example.com" }, want: ErrInvalidBaseURL},
		{name: "non-http URL", modify: func(c *Config) { c.URL = "ftp://example.com/" }, want: ErrInvalidBaseURL},
		{name: "missing username", modify: func(c *Config) { c.Username = "" }, want: ErrNoCredentials},
		{name: "missing password", modify: func(c *Config) { c.Password = "" }, want: ErrNoCredentials},
		{name: "unknown backend", modify: func(c *Config) { c.Store.Backend = "mongo" }, want: ErrInvalidBackend},
		{name: "json backend", modify: func(c *Config) { c.Store.Backend = "json" }},
		{name: "redis without address", modify: func(c *Config) { c.Store.Backend = "redis" }, want: ErrNoRedisAddr},
		{name: "redis with address", modify: func(c *Config) {
			c.Store.Backend = "redis"
			c.Store.RedisAddr = "localhost:6379"
		}},
		{name: "zero action timeout", modify: func(c *Config) { c.Browser.ActionTimeout = 0 }, want: ErrInvalidActionTimeout},
		{name: "negative retries", modify: func(c *Config) { c.Crawl.MaxRetries = -1 }, want: ErrInvalidMaxRetries},
		{name: "negative visits", modify: func(c *Config) { c.Crawl.MaxVisits = -1 }, want: ErrInvalidMaxVisits},
		{name: "no endorsement lists", modify: func(c *Config) { c.Crawl.EndorsementLists = 0 }, want: ErrInvalidEndorsementLists},
		{name: "negative navigation rate", modify: func(c *Config) { c.Pacing.MaxNavigationsPerMinute = -5 }, want: ErrInvalidNavigationRate},
		{name: "brokers without topic", modify: func(c *Config) {
			c.Events.KafkaBrokers = []string{"localhost:9092"}
			c.Events.KafkaTopic = ""
		}, want: ErrNoKafkaTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestConfigValidateStore tests that status-only validation ignores the
// site and credentials.
func TestConfigValidateStore(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if err := cfg.ValidateStore(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	cfg.Store.Backend = "redis"
	if err := cfg.ValidateStore(); !errors.Is(err, ErrNoRedisAddr) {
		t.Errorf("expected ErrNoRedisAddr, got %v", err)
	}
}

// TestLoadConfigFile tests reading the YAML config file.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		err := NewConfig().LoadConfigFile("/nonexistent/path/.netspider")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".netspider")
		content := `url: https://www.example.com/
username: jane@example.com
store:
  backend: json
  dir: /tmp/netspider
browser:
  headless: true
  actionTimeout: 45s
crawl:
  companyCascade: true
  maxRetries: 2
  maxVisits: 50
pacing:
  maxNavigationsPerMinute: 12
events:
  kafkaBrokers:
    - kafka-1:9092
    - kafka-2:9092
metrics:
  addr: ":9090"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg := NewConfig()
		if err := cfg.LoadConfigFile(configPath); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.URL != "https://www.example.com/" || cfg.Username != "jane@example.com" {
			t.Errorf("unexpected site settings %q %q", cfg.URL, cfg.Username)
		}
		if cfg.Store.Backend != "json" || cfg.Store.Dir != "/tmp/netspider" {
			t.Errorf("unexpected store settings %+v", cfg.Store)
		}
		if !cfg.Browser.Headless || cfg.Browser.ActionTimeout != 45*time.Second {
			t.Errorf("unexpected browser settings %+v", cfg.Browser)
		}
		if !cfg.Crawl.CompanyCascade || cfg.Crawl.MaxRetries != 2 || cfg.Crawl.MaxVisits != 50 {
			t.Errorf("unexpected crawl settings %+v", cfg.Crawl)
		}
		if cfg.Pacing.MaxNavigationsPerMinute != 12 {
			t.Errorf("expected 12 navigations per minute, got %d", cfg.Pacing.MaxNavigationsPerMinute)
		}
		if !slices.Equal(cfg.Events.KafkaBrokers, []string{"kafka-1:9092", "kafka-2:9092"}) {
			t.Errorf("unexpected brokers %v", cfg.Events.KafkaBrokers)
		}
		if cfg.Metrics.Addr != ":9090" {
			t.Errorf("unexpected metrics address %q", cfg.Metrics.Addr)
		}
		if cfg.ConfigFilePath != configPath {
			t.Errorf("expected config path %q, got %q", configPath, cfg.ConfigFilePath)
		}
	})

	t.Run("keeps defaults for absent keys", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".netspider")
		if err := os.WriteFile(configPath, []byte("url: https://www.example.com/\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg := NewConfig()
		if err := cfg.LoadConfigFile(configPath); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Store.Backend != DefaultBackend || cfg.Browser.ActionTimeout != DefaultActionTimeout {
			t.Errorf("defaults were overwritten: %+v %+v", cfg.Store, cfg.Browser)
		}
		if cfg.Events.KafkaTopic != DefaultKafkaTopic {
			t.Errorf("expected default topic, got %q", cfg.Events.KafkaTopic)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".netspider")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		err := NewConfig().LoadConfigFile(configPath)
		if err == nil {
			t.Fatal("expected error for invalid YAML")
		}
		if errors.Is(err, ErrConfigNotFound) {
			t.Error("invalid YAML is not a missing file")
		}
	})
}

// TestApplyEnv tests reading the password from the environment.
func TestApplyEnv(t *testing.T) {
	t.Setenv(PasswordEnv, "from-env")

	t.Run("fills a missing password", func(t *testing.T) {
		cfg := NewConfig()
		cfg.ApplyEnv()
		if cfg.Password != "from-env" {
			t.Errorf("expected password from environment, got %q", cfg.Password)
		}
	})

	t.Run("keeps a configured password", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Password = "from-file"
		cfg.ApplyEnv()
		if cfg.Password != "from-file" {
			t.Errorf("expected configured password, got %q", cfg.Password)
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Run("returns explicit path if exists", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("url: https://www.example.com/"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})

	t.Run("finds config in current directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		configPath := filepath.Join(dir, DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte("{}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		got := FindConfigFile("")
		if got == "" || filepath.Base(got) != DefaultConfigFile {
			t.Errorf("expected config in current directory, got %q", got)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if dir := XDGDataDir(); filepath.Base(dir) != AppName {
		t.Errorf("expected data dir ending in %q, got %q", AppName, dir)
	}
	if dir := XDGConfigDir(); filepath.Base(dir) != AppName {
		t.Errorf("expected config dir ending in %q, got %q", AppName, dir)
	}
}
