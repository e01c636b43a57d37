// Package config provides configuration management for the databusclient.
// It handles loading, validating, and saving application settings such as
// the SPARQL endpoint, the Databus API key and the Vault token exchange
// parameters. Settings live in a YAML file and carry sensible defaults so
// a missing file is never an error.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dbpedia/databusclient/pkg/errors"
	"github.com/dbpedia/databusclient/pkg/fsutil"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// General settings
	Settings Settings `yaml:"settings"`

	// Vault token exchange configuration
	Vault Vault `yaml:"vault"`
}

// Settings represents general application settings.
type Settings struct {
	// Endpoint overrides the auto-detected SPARQL endpoint.
	Endpoint string `yaml:"sparql_endpoint,omitempty"`

	// DatabusKey is the API key sent as X-API-KEY on authenticated calls.
	DatabusKey string `yaml:"databus_key,omitempty"`

	// Network settings
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// ChecksumMode controls validation of downloaded files: off, warning
	// or error.
	ChecksumMode string `yaml:"checksum_mode"`

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`     // error, warn, info, debug
}

// Vault holds the OAuth token exchange parameters for protected downloads.
type Vault struct {
	// TokenFile points at the refresh token on disk. The REFRESH_TOKEN
	// environment variable takes precedence over the file contents.
	TokenFile string `yaml:"token_file,omitempty"`

	// AuthURL is the Keycloak token endpoint.
	AuthURL string `yaml:"auth_url"`

	// ClientID is the OAuth client used for both grant steps.
	ClientID string `yaml:"client_id"`

	// Hosts is the allow-list of download hosts that require vault
	// authentication. Token exchange is never attempted for other hosts.
	Hosts []string `yaml:"hosts"`
}

// Default configuration values.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultAuthURL is the DBpedia Keycloak token endpoint.
	DefaultAuthURL = "https://auth.dbpedia.org/realms/dbpedia/protocol/openid-connect/token"

	// DefaultClientID is the OAuth client registered for vault token
	// exchange.
	DefaultClientID = "vault-token-exchange"

	// DefaultChecksumMode validates downloads but only warns on mismatch.
	DefaultChecksumMode = "warning"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultVaultHosts lists the download hosts known to require vault
// authentication.
func DefaultVaultHosts() []string {
	return []string{"data.dbpedia.io"}
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			HTTPTimeout:  DefaultHTTPTimeout,
			ChecksumMode: DefaultChecksumMode,
			OutputFormat: "text",
			LogLevel:     "info",
		},
		Vault: Vault{
			AuthURL:  DefaultAuthURL,
			ClientID: DefaultClientID,
			Hosts:    DefaultVaultHosts(),
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// default configuration.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return &config, nil
}

// SaveConfig saves configuration to a file.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	// Atomically replace the config file
	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(err, "failed to replace config file")
	}

	if err := os.Chmod(absPath, fsutil.FileModeDefault); err != nil {
		return errors.Wrap(err, "failed to set config file permissions")
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validateSettings(c.Settings); err != nil {
		return err
	}
	return validateVault(c.Vault)
}

func validateSettings(s Settings) error {
	if s.HTTPTimeout < 0 {
		return errors.Wrap(errors.ErrConfigValidation, "http_timeout cannot be negative")
	}
	validModes := map[string]bool{"off": true, "warning": true, "error": true}
	if !validModes[strings.ToLower(s.ChecksumMode)] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid checksum_mode %q", s.ChecksumMode)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[s.OutputFormat] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid output_format %q", s.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid log_level %q", s.LogLevel)
	}
	return nil
}

func validateVault(v Vault) error {
	if v.AuthURL == "" {
		return errors.Wrap(errors.ErrConfigValidation, "vault auth_url cannot be empty")
	}
	if v.ClientID == "" {
		return errors.Wrap(errors.ErrConfigValidation, "vault client_id cannot be empty")
	}
	for _, host := range v.Hosts {
		if strings.TrimSpace(host) == "" {
			return errors.Wrap(errors.ErrConfigValidation, "vault hosts cannot contain empty entries")
		}
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	return filepath.Join(configDir, "databusclient", "config.yaml"), nil
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.ChecksumMode == "" {
		c.Settings.ChecksumMode = defaults.Settings.ChecksumMode
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Vault.AuthURL == "" {
		c.Vault.AuthURL = defaults.Vault.AuthURL
	}
	if c.Vault.ClientID == "" {
		c.Vault.ClientID = defaults.Vault.ClientID
	}
	if c.Vault.Hosts == nil {
		c.Vault.Hosts = defaults.Vault.Hosts
	}
}
