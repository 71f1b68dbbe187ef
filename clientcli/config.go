package clientcli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is the default server endpoint URL.
const DefaultEndpoint = "http://localhost:8080"

// Authentication schemes a client can use.
const (
	AuthBasic  = "basic"
	AuthBearer = "bearer"
	AuthSigV4  = "sigv4"
)

// Defaults for presigned requests, matching the server's sigv4 defaults.
const (
	DefaultRegion  = "us-east-1"
	DefaultService = "s3"
)

// Profile holds configuration for a single server profile.
type Profile struct {
	Name      string `yaml:"name"`
	Endpoint  string `yaml:"endpoint"`
	Auth      string `yaml:"auth,omitempty"`
	Username  string `yaml:"username,omitempty"`
	Password  string `yaml:"password,omitempty"`
	Token     string `yaml:"token,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Default   bool   `yaml:"default,omitempty"`
}

// ConfigFile holds the full config file structure with multiple profiles.
type ConfigFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// GetProfile returns the profile by name.
// If name is empty, returns the default profile.
func (c *ConfigFile) GetProfile(name string) (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}

	if name == "" {
		return c.GetDefaultProfile()
	}

	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// GetDefaultProfile returns the profile marked as default, or the first one.
func (c *ConfigFile) GetDefaultProfile() (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}

	for i := range c.Profiles {
		if c.Profiles[i].Default {
			return &c.Profiles[i], nil
		}
	}

	return &c.Profiles[0], nil
}

// DefaultName returns the name of the default profile, or "" when there are none.
func (c *ConfigFile) DefaultName() string {
	p, err := c.GetDefaultProfile()
	if err != nil {
		return ""
	}
	return p.Name
}

// AddProfile adds a new profile. Returns ErrProfileExists if a profile
// with the same name already exists.
func (c *ConfigFile) AddProfile(p Profile) error {
	for i := range c.Profiles {
		if c.Profiles[i].Name == p.Name {
			return fmt.Errorf("%w: %s", ErrProfileExists, p.Name)
		}
	}
	c.Profiles = append(c.Profiles, p)
	return nil
}

// UpdateProfile replaces an existing profile.
func (c *ConfigFile) UpdateProfile(p Profile) error {
	for i := range c.Profiles {
		if c.Profiles[i].Name == p.Name {
			c.Profiles[i] = p
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrProfileNotFound, p.Name)
}

// RemoveProfile removes a profile by name.
func (c *ConfigFile) RemoveProfile(name string) error {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			c.Profiles = append(c.Profiles[:i], c.Profiles[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// SetDefault marks name as the default profile and clears the flag on all others.
func (c *ConfigFile) SetDefault(name string) error {
	found := false
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			c.Profiles[i].Default = true
			found = true
		} else {
			c.Profiles[i].Default = false
		}
	}

	if !found {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return nil
}

// Save writes the config to path, creating the parent directory if needed.
func (c *ConfigFile) Save(path string) error {
	cleanPath := filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// LoadConfigFile loads the config file from the specified path.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &cfg, nil
}

// DefaultConfigPath returns ~/.fragments/config.yaml, or "" without a home directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".fragments", "config.yaml")
}

// Config holds resolved client configuration for a single server.
type Config struct {
	Endpoint  string
	Auth      string
	Username  string
	Password  string
	Token     string
	AccessKey string
	SecretKey string
	Region    string
	Service   string
}

// WithDefaults returns a copy of the config with default values applied.
// An empty Auth is inferred from the credentials present: a token means bearer,
// an access key means sigv4, anything else basic.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Auth == "" {
		switch {
		case cfg.Token != "":
			cfg.Auth = AuthBearer
		case cfg.AccessKey != "":
			cfg.Auth = AuthSigV4
		default:
			cfg.Auth = AuthBasic
		}
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.Service == "" {
		cfg.Service = DefaultService
	}
	return &cfg
}

// Validate checks that the credentials required by Auth are set.
func (c *Config) Validate() error {
	switch c.Auth {
	case AuthBasic:
		if c.Username == "" {
			return ErrUsernameRequired
		}
	case AuthBearer:
		if c.Token == "" {
			return ErrTokenRequired
		}
	case AuthSigV4:
		if c.AccessKey == "" {
			return ErrAccessKeyRequired
		}
		if c.SecretKey == "" {
			return ErrSecretKeyRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAuth, c.Auth)
	}
	return nil
}

// ConfigFromProfile creates a Config from a Profile.
func ConfigFromProfile(p *Profile) *Config {
	if p == nil {
		return &Config{}
	}
	return &Config{
		Endpoint:  p.Endpoint,
		Auth:      p.Auth,
		Username:  p.Username,
		Password:  p.Password,
		Token:     p.Token,
		AccessKey: p.AccessKey,
		SecretKey: p.SecretKey,
		Region:    p.Region,
	}
}

// ConfigFromEnv loads config from FRAGMENTS_* environment variables.
func ConfigFromEnv() *Config {
	return &Config{
		Endpoint:  os.Getenv("FRAGMENTS_ENDPOINT"),
		Auth:      os.Getenv("FRAGMENTS_AUTH"),
		Username:  os.Getenv("FRAGMENTS_USERNAME"),
		Password:  os.Getenv("FRAGMENTS_PASSWORD"),
		Token:     os.Getenv("FRAGMENTS_TOKEN"),
		AccessKey: os.Getenv("FRAGMENTS_ACCESS_KEY"),
		SecretKey: os.Getenv("FRAGMENTS_SECRET_KEY"),
		Region:    os.Getenv("FRAGMENTS_REGION"),
	}
}

// ProfileFromEnv returns the profile name from FRAGMENTS_PROFILE.
func ProfileFromEnv() string {
	return os.Getenv("FRAGMENTS_PROFILE")
}

// ConfigPathFromEnv returns the config file path from FRAGMENTS_CLIENT_CONFIG.
func ConfigPathFromEnv() string {
	return os.Getenv("FRAGMENTS_CLIENT_CONFIG")
}

// MergeConfig merges configs, with later configs taking precedence.
// Empty strings never override a value set earlier.
func MergeConfig(configs ...*Config) *Config {
	result := &Config{}
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		mergeString(&result.Endpoint, cfg.Endpoint)
		mergeString(&result.Auth, cfg.Auth)
		mergeString(&result.Username, cfg.Username)
		mergeString(&result.Password, cfg.Password)
		mergeString(&result.Token, cfg.Token)
		mergeString(&result.AccessKey, cfg.AccessKey)
		mergeString(&result.SecretKey, cfg.SecretKey)
		mergeString(&result.Region, cfg.Region)
		mergeString(&result.Service, cfg.Service)
	}
	return result
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}
