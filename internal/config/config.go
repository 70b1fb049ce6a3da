// Package config provides configuration management for drive-explorer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/rescale/drive-explorer/internal/constants"
)

// Config holds everything needed to start a session against one drive.
//
// Secrets file format (TOML, same keys as the environment variables):
//
//	TENANT_ID = "your-tenant-id"
//	APPLICATION_ID = "your-application-id"
//	CLIENT_SECRET = "your-client-secret"
//	DRIVE_ID = "your-drive-id"
type Config struct {
	// Required credentials
	TenantID      string `toml:"TENANT_ID"`
	ApplicationID string `toml:"APPLICATION_ID"`
	ClientSecret  string `toml:"CLIENT_SECRET"`
	DriveID       string `toml:"DRIVE_ID"`

	// Listing behaviour
	HiddenPrefixes      []string `toml:"HIDDEN_PREFIXES"`
	DocumentNumberField string   `toml:"DOCUMENT_NUMBER_FIELD"`
	CacheTTLSeconds     int      `toml:"CACHE_TTL_SECONDS"`

	// Endpoints
	ListenAddr    string `toml:"LISTEN_ADDR"`
	GraphBaseURL  string `toml:"GRAPH_BASE_URL"`
	AuthorityHost string `toml:"AUTHORITY_HOST"`

	// HTTPRetryMax is the number of extra attempts per HTTP call (0 = one attempt)
	HTTPRetryMax int `toml:"HTTP_RETRY_MAX"`

	// Proxy settings
	ProxyMode     string `toml:"PROXY_MODE"` // "no-proxy", "ntlm", "basic", "system"
	ProxyHost     string `toml:"PROXY_HOST,omitempty"`
	ProxyPort     int    `toml:"PROXY_PORT,omitempty"`
	ProxyUser     string `toml:"PROXY_USER,omitempty"`
	ProxyPassword string `toml:"-"`
	NoProxy       string `toml:"NO_PROXY,omitempty"` // Comma-separated list of hosts to bypass proxy
	ProxyWarmup   bool   `toml:"PROXY_WARMUP,omitempty"`
}

// Environment variable / secrets file keys
const (
	KeyTenantID            = "TENANT_ID"
	KeyApplicationID       = "APPLICATION_ID"
	KeyClientSecret        = "CLIENT_SECRET"
	KeyDriveID             = "DRIVE_ID"
	KeyHiddenPrefixes      = "HIDDEN_PREFIXES"
	KeyDocumentNumberField = "DOCUMENT_NUMBER_FIELD"
	KeyCacheTTLSeconds     = "CACHE_TTL_SECONDS"
	KeyListenAddr          = "LISTEN_ADDR"
	KeyGraphBaseURL        = "GRAPH_BASE_URL"
	KeyAuthorityHost       = "AUTHORITY_HOST"
	KeyHTTPRetryMax        = "HTTP_RETRY_MAX"
	KeyProxyMode           = "PROXY_MODE"
	KeyProxyHost           = "PROXY_HOST"
	KeyProxyPort           = "PROXY_PORT"
	KeyProxyUser           = "PROXY_USER"
	KeyProxyPassword       = "PROXY_PASSWORD"
	KeyNoProxy             = "NO_PROXY"
)

// RequiredKeys lists the settings without which no session can start.
var RequiredKeys = []string{KeyTenantID, KeyApplicationID, KeyClientSecret, KeyDriveID}

// ConfigurationError reports missing or invalid settings. It is fatal at startup.
type ConfigurationError struct {
	Path    string   // secrets file consulted (may be empty)
	Missing []string // required keys with no value
	Invalid []string // human-readable problems with optional keys
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required settings: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, strings.Join(e.Invalid, "; "))
	}
	return "configuration error: " + strings.Join(parts, "; ")
}

// Guidance returns setup instructions to show alongside the error.
func (e *ConfigurationError) Guidance() string {
	return SetupGuidance(e.Path)
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// NewConfig returns a Config populated with defaults and no credentials.
func NewConfig() *Config {
	return &Config{
		HiddenPrefixes:      append([]string(nil), constants.DefaultHiddenPrefixes...),
		DocumentNumberField: constants.DefaultDocumentNumberField,
		CacheTTLSeconds:     int(constants.DefaultCacheTTL / time.Second),
		ListenAddr:          constants.DefaultListenAddr,
		GraphBaseURL:        constants.DefaultGraphBaseURL,
		AuthorityHost:       constants.DefaultAuthorityHost,
		HTTPRetryMax:        constants.DefaultHTTPRetryMax,
		ProxyMode:           "no-proxy",
	}
}

// Load reads the secrets file at path (if present) and overlays environment variables.
// A missing file is not an error; validation happens separately so callers can show
// setup guidance instead of a raw error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse secrets file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat secrets file: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays values found through lookup (normally os.LookupEnv).
// Priority: environment > secrets file > defaults.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
		return nil
	}

	str(KeyTenantID, &c.TenantID)
	str(KeyApplicationID, &c.ApplicationID)
	str(KeyClientSecret, &c.ClientSecret)
	str(KeyDriveID, &c.DriveID)
	str(KeyDocumentNumberField, &c.DocumentNumberField)
	str(KeyListenAddr, &c.ListenAddr)
	str(KeyGraphBaseURL, &c.GraphBaseURL)
	str(KeyAuthorityHost, &c.AuthorityHost)
	str(KeyProxyMode, &c.ProxyMode)
	str(KeyProxyHost, &c.ProxyHost)
	str(KeyProxyUser, &c.ProxyUser)
	str(KeyProxyPassword, &c.ProxyPassword)
	str(KeyNoProxy, &c.NoProxy)

	if v, ok := lookup(KeyHiddenPrefixes); ok {
		c.HiddenPrefixes = splitList(v)
	}

	for key, dst := range map[string]*int{
		KeyCacheTTLSeconds: &c.CacheTTLSeconds,
		KeyHTTPRetryMax:    &c.HTTPRetryMax,
		KeyProxyPort:       &c.ProxyPort,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// MergeWithFlags applies command-line overrides (highest priority). Empty values are ignored.
func (c *Config) MergeWithFlags(driveID, listenAddr string) {
	if driveID != "" {
		c.DriveID = driveID
	}
	if listenAddr != "" {
		c.ListenAddr = listenAddr
	}
}

// Validate checks that all required settings are present and optional ones are sane.
// The returned error is always a *ConfigurationError.
func (c *Config) Validate(path string) error {
	cfgErr := &ConfigurationError{Path: path}

	values := map[string]string{
		KeyTenantID:      c.TenantID,
		KeyApplicationID: c.ApplicationID,
		KeyClientSecret:  c.ClientSecret,
		KeyDriveID:       c.DriveID,
	}
	for _, key := range RequiredKeys {
		if strings.TrimSpace(values[key]) == "" {
			cfgErr.Missing = append(cfgErr.Missing, key)
		}
	}

	if c.CacheTTLSeconds <= 0 {
		cfgErr.Invalid = append(cfgErr.Invalid, "CACHE_TTL_SECONDS must be positive")
	}
	if c.HTTPRetryMax < 0 {
		cfgErr.Invalid = append(cfgErr.Invalid, "HTTP_RETRY_MAX must not be negative")
	}
	switch strings.ToLower(c.ProxyMode) {
	case "", "no-proxy", "system", "basic", "ntlm":
	default:
		cfgErr.Invalid = append(cfgErr.Invalid, fmt.Sprintf("unsupported PROXY_MODE %q", c.ProxyMode))
	}

	if len(cfgErr.Missing) > 0 || len(cfgErr.Invalid) > 0 {
		return cfgErr
	}
	return nil
}

// CacheTTL returns the configured cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return constants.DefaultCacheTTL
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// MaskedSecret returns the client secret with all but the last four characters hidden.
func (c *Config) MaskedSecret() string {
	s := c.ClientSecret
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

// Save writes the configuration to path as TOML with owner-only permissions.
// The proxy password is never written.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open secrets file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	return nil
}

// SetupGuidance explains how to provide the required settings.
func SetupGuidance(path string) string {
	if path == "" {
		path = DefaultConfigPath()
	}
	return fmt.Sprintf(`To run drive-explorer you need Microsoft Graph application credentials.

Create %s (or run 'drive-explorer config init'):

    # MS Graph API Credentials
    TENANT_ID = "your-tenant-id"
    APPLICATION_ID = "your-application-id"
    CLIENT_SECRET = "your-client-secret"
    DRIVE_ID = "your-drive-id"

Each value may also be supplied through an environment variable of the same name.
The application needs the Files.Read.All (or Sites.Read.All) application permission.`, path)
}

// ConfigDir is the standard configuration directory name
const ConfigDir = "drive-explorer"

// getConfigDir returns the platform-appropriate config directory.
// - Windows: %APPDATA%\DriveExplorer
// - Unix: ~/.config/drive-explorer (XDG standard)
func getConfigDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "DriveExplorer")
		}
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, ConfigDir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", ConfigDir)
	}
	return ""
}

// DefaultConfigPath returns the default secrets file path.
func DefaultConfigPath() string {
	dir := getConfigDir()
	if dir == "" {
		return "secrets.toml"
	}
	return filepath.Join(dir, "secrets.toml")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
