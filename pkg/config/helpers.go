package config

import (
	"fmt"
	"strings"
	"time"
)

// SetValue sets a configuration value by key.
// Supported keys:
//   - sparql_endpoint: string - SPARQL endpoint override
//   - databus_key: string - Databus API key
//   - http_timeout: duration - HTTP timeout (e.g. "30s")
//   - checksum_mode: string - off, warning or error
//   - output_format: string - text or json
//   - log_level: string - debug, info, warn or error
//   - vault.token_file: string - path to the vault refresh token
//   - vault.auth_url: string - Keycloak token endpoint
//   - vault.client_id: string - OAuth client id
//   - vault.hosts: string - comma-separated vault host allow-list
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "sparql_endpoint":
		c.Settings.Endpoint = value
	case "databus_key":
		c.Settings.DatabusKey = value
	case "http_timeout":
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %s", key, value)
		}
		c.Settings.HTTPTimeout = timeout
	case "checksum_mode":
		c.Settings.ChecksumMode = value
	case "output_format":
		c.Settings.OutputFormat = value
	case "log_level":
		c.Settings.LogLevel = value
	case "vault.token_file":
		c.Vault.TokenFile = value
	case "vault.auth_url":
		c.Vault.AuthURL = value
	case "vault.client_id":
		c.Vault.ClientID = value
	case "vault.hosts":
		c.Vault.Hosts = splitHosts(value)
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// GetValue returns a configuration value by key as a string.
func (c *Config) GetValue(key string) (string, error) {
	switch key {
	case "sparql_endpoint":
		return c.Settings.Endpoint, nil
	case "databus_key":
		return c.Settings.DatabusKey, nil
	case "http_timeout":
		return c.Settings.HTTPTimeout.String(), nil
	case "checksum_mode":
		return c.Settings.ChecksumMode, nil
	case "output_format":
		return c.Settings.OutputFormat, nil
	case "log_level":
		return c.Settings.LogLevel, nil
	case "vault.token_file":
		return c.Vault.TokenFile, nil
	case "vault.auth_url":
		return c.Vault.AuthURL, nil
	case "vault.client_id":
		return c.Vault.ClientID, nil
	case "vault.hosts":
		return strings.Join(c.Vault.Hosts, ","), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// ToMap flattens the configuration into display keys. The API key is
// masked; use GetValue to read the raw value.
func (c *Config) ToMap() map[string]string {
	key := c.Settings.DatabusKey
	if key != "" {
		key = "REDACTED"
	}
	return map[string]string{
		"sparql_endpoint":  c.Settings.Endpoint,
		"databus_key":      key,
		"http_timeout":     c.Settings.HTTPTimeout.String(),
		"checksum_mode":    c.Settings.ChecksumMode,
		"output_format":    c.Settings.OutputFormat,
		"log_level":        c.Settings.LogLevel,
		"vault.token_file": c.Vault.TokenFile,
		"vault.auth_url":   c.Vault.AuthURL,
		"vault.client_id":  c.Vault.ClientID,
		"vault.hosts":      strings.Join(c.Vault.Hosts, ","),
	}
}

func splitHosts(value string) []string {
	parts := strings.Split(value, ",")
	hosts := make([]string, 0, len(parts))
	for _, p := range parts {
		if host := strings.TrimSpace(p); host != "" {
			hosts = append(hosts, host)
		}
	}
	return hosts
}
