package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings are the host-level locations and timing knobs of a provisioning run
type Settings struct {
	SitesAvailable string `yaml:"sites_available" env:"SITES_AVAILABLE"`
	SitesEnabled   string `yaml:"sites_enabled" env:"SITES_ENABLED"`
	WebRoot        string `yaml:"web_root" env:"WEB_ROOT"`
	LogDir         string `yaml:"log_dir" env:"LOG_DIR"`
	PHPSocket      string `yaml:"php_socket" env:"PHP_SOCKET"`
	Service        string `yaml:"service" env:"SERVICE"`

	DNS       DNSSettings       `yaml:"dns" envPrefix:"DNS_"`
	Registrar RegistrarSettings `yaml:"registrar" envPrefix:"REGISTRAR_"`
	Cert      CertSettings      `yaml:"cert" envPrefix:"CERT_"`
}

// DNSSettings configure public IP discovery and propagation polling
type DNSSettings struct {
	WhoamiName   string        `yaml:"whoami_name" env:"WHOAMI_NAME"`
	WhoamiServer string        `yaml:"whoami_server" env:"WHOAMI_SERVER"`
	LookupServer string        `yaml:"lookup_server" env:"LOOKUP_SERVER"`
	Timeout      time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Tries        int           `yaml:"tries" env:"TRIES"`
	PollAttempts int           `yaml:"poll_attempts" env:"POLL_ATTEMPTS"`
	PollInterval time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
}

// RegistrarSettings configure the domain registrar API
type RegistrarSettings struct {
	URL     string        `yaml:"url" env:"URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// CertSettings configure certbot
type CertSettings struct {
	LiveDir string        `yaml:"live_dir" env:"LIVE_DIR"`
	Email   string        `yaml:"email" env:"EMAIL"`
	Delay   time.Duration `yaml:"delay" env:"DELAY"`
}

// EnvPrefix prefixes every environment override
const EnvPrefix = "VHOST_PROVISION_"

// defaultConfigPath is read when VHOST_PROVISION_CONFIG is unset
const defaultConfigPath = "/etc/vhost-provision/config.yaml"

// New returns Settings with the conventional defaults
func New() *Settings {
	return &Settings{
		SitesAvailable: "/etc/nginx/sites-available",
		SitesEnabled:   "/etc/nginx/sites-enabled",
		WebRoot:        "/var/www",
		LogDir:         "/var/log/nginx",
		PHPSocket:      "/run/php/php-fpm.sock",
		Service:        "nginx",
		DNS: DNSSettings{
			WhoamiName:   "o-o.myaddr.l.google.com",
			WhoamiServer: "ns1.google.com:53",
			LookupServer: "8.8.8.8:53",
			Timeout:      3 * time.Second,
			Tries:        1,
			PollAttempts: 30,
			PollInterval: time.Second,
		},
		Registrar: RegistrarSettings{
			URL:     "https://registrar.example/api/domains",
			Timeout: 30 * time.Second,
		},
		Cert: CertSettings{
			LiveDir: "/etc/letsencrypt/live",
			Delay:   5 * time.Second,
		},
	}
}

// ConfigPath returns the settings file path
func ConfigPath() string {
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}

// Load reads settings from the default locations and the process environment
func Load() (*Settings, error) {
	// .env is optional
	_ = godotenv.Load()
	return LoadFrom(ConfigPath(), nil)
}

// LoadFrom reads settings from path (missing file is fine) and applies
// overrides from environ. A nil environ means the process environment.
func LoadFrom(path string, environ map[string]string) (*Settings, error) {
	s := New()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(s, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks settings the pipeline cannot run without
func (s *Settings) Validate() error {
	for name, p := range map[string]string{
		"sites_available": s.SitesAvailable,
		"sites_enabled":   s.SitesEnabled,
		"web_root":        s.WebRoot,
		"cert.live_dir":   s.Cert.LiveDir,
	} {
		if !filepath.IsAbs(p) {
			return fmt.Errorf("%s must be an absolute path: %q", name, p)
		}
	}
	if s.DNS.Tries < 1 {
		return fmt.Errorf("dns.tries must be at least 1")
	}
	if s.DNS.PollAttempts < 1 {
		return fmt.Errorf("dns.poll_attempts must be at least 1")
	}
	if s.DNS.Timeout <= 0 || s.DNS.PollInterval <= 0 {
		return fmt.Errorf("dns.timeout and dns.poll_interval must be positive")
	}
	if s.Registrar.URL == "" {
		return fmt.Errorf("registrar.url cannot be empty")
	}
	if s.Service == "" {
		return fmt.Errorf("service cannot be empty")
	}
	return nil
}

// DocumentRoot returns the static web root for domain
func (s *Settings) DocumentRoot(domain string) string {
	return filepath.Join(s.WebRoot, domain)
}
