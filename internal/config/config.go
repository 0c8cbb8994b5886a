package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every setting of the alarm-portal binary.
type Config struct {
	// Portal is the delivery triple. Nil when the YAML block is absent.
	Portal *Portal `yaml:"alarm_portal"`
	// Source selects and configures the event source.
	Source Source `yaml:"source"`
	// Log controls log level and encoder.
	Log Log `yaml:"log"`
	// MetricsAddress enables the Prometheus endpoint when non-empty.
	MetricsAddress string `yaml:"metrics_addr,omitempty"`
	// HealthAddress enables the gRPC health endpoint when non-empty.
	HealthAddress string `yaml:"health_addr,omitempty"`
}

// Portal is the remote endpoint and the entity it is notified about.
type Portal struct {
	// ServerURL is the portal base URL without trailing slash.
	ServerURL string `yaml:"server_url"`
	// APIToken is sent inside every payload.
	APIToken string `yaml:"api_token"`
	// AlarmEntityID is the watched alarm panel, e.g. alarm_control_panel.home.
	AlarmEntityID string `yaml:"alarm_entity_id"`
}

// Log holds logging preferences.
type Log struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`
	// Format is console or json.
	Format string `yaml:"format,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for portal settings.
	DefaultConfigFilename = "alarm-portal.yaml"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// ErrPortalSectionMissing is returned when the alarm_portal block is absent.
	ErrPortalSectionMissing = errors.New("no alarm_portal configuration found")
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerURLRequired is returned when the portal URL is missing.
	errServerURLRequired = errors.New("server_url must be provided")
	// errServerURLScheme is returned for URLs that are not http or https.
	errServerURLScheme = errors.New("server_url must use http or https")
	// errAPITokenRequired is returned when the API token is empty.
	errAPITokenRequired = errors.New("api_token must be provided")
	// errEntityIDInvalid is returned for malformed entity identifiers.
	errEntityIDInvalid = errors.New("alarm_entity_id is not a valid entity id")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Token inside, keep it private.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the settings, normalizes the portal URL and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := cfg.Portal.Validate(); err != nil {
		return err
	}

	if err := cfg.Source.validate(); err != nil {
		return fmt.Errorf("invalid source: %w", err)
	}

	return nil
}

// Validate checks the delivery triple and strips trailing slashes from ServerURL.
func (p *Portal) Validate() error {
	if p == nil {
		return ErrPortalSectionMissing
	}

	p.ServerURL = strings.TrimRight(strings.TrimSpace(p.ServerURL), "/")
	if p.ServerURL == "" {
		return errServerURLRequired
	}

	u, err := url.ParseRequestURI(p.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server_url: %w", err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", errServerURLScheme, p.ServerURL)
	}

	if p.APIToken == "" {
		return errAPITokenRequired
	}

	if !ValidEntityID(p.AlarmEntityID) {
		return fmt.Errorf("%w: %q", errEntityIDInvalid, p.AlarmEntityID)
	}

	return nil
}

// ValidEntityID reports whether id has the Home Assistant <domain>.<object_id> form:
// lowercase letters, digits and underscores, no leading, trailing or doubled underscore.
func ValidEntityID(id string) bool {
	domain, object, ok := strings.Cut(id, ".")
	if !ok || strings.Contains(id, "__") {
		return false
	}

	return validSlug(domain) && validSlug(object)
}

// validSlug checks one side of an entity id.
func validSlug(s string) bool {
	if s == "" || s[0] == '_' || s[len(s)-1] == '_' {
		return false
	}

	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}

	return true
}
