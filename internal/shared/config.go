package shared

import (
	_ "embed"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/spotauth/internal/auth"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	defaultScheme       = "http"
	defaultHost         = "localhost"
	defaultPort         = 8080
	defaultPath         = "/"
	defaultTimeout      = 30 * time.Second
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	ClientID     string            `toml:"client_id"`
	ClientSecret string            `toml:"client_secret"`
	Scope        []string          `toml:"scope"`
	RedirectURI  RedirectURIConfig `toml:"redirect_uri"`
	Provider     ProviderConfig    `toml:"provider"`
	Server       ServerConfig      `toml:"server"`
	Database     DatabaseConfig    `toml:"database"`
	Log          LogConfig         `toml:"log"`
}

// RedirectURIConfig holds the parts of the OAuth redirect URI.
//
// Each part is defaulted independently (http, localhost, 8080, /). The server listens on Host:Port.
type RedirectURIConfig struct {
	Scheme string `toml:"scheme"`
	Host   string `toml:"host"`
	Port   int    `toml:"port"`
	Path   string `toml:"path"`
}

// ProviderConfig points the flow at the identity provider. Defaults to Spotify.
type ProviderConfig struct {
	AuthorizeURL string        `toml:"authorize_url"`
	TokenURL     string        `toml:"token_url"`
	APIURL       string        `toml:"api_url"`
	Timeout      time.Duration `toml:"timeout"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	RateLimit   float64 `toml:"rate_limit"`
	Burst       int     `toml:"burst"`
	OpenBrowser bool    `toml:"open_browser"`
}

// DatabaseConfig contains the audit log database settings. An empty Path disables the log.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// String renders the redirect URI as scheme://host:port/path.
func (r RedirectURIConfig) String() string {
	return fmt.Sprintf("%s://%s%s", r.Scheme, r.ListenAddr(), r.Path)
}

// ListenAddr is the host:port the HTTP server binds to.
func (r RedirectURIConfig) ListenAddr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

func (r *RedirectURIConfig) applyDefaults() {
	if r.Scheme == "" {
		r.Scheme = defaultScheme
	}
	if r.Host == "" {
		r.Host = defaultHost
	}
	if r.Port == 0 {
		r.Port = defaultPort
	}
	if r.Path == "" {
		r.Path = defaultPath
	}
}

func (p *ProviderConfig) applyDefaults() {
	if p.AuthorizeURL == "" {
		p.AuthorizeURL = auth.SpotifyAuthURL
	}
	if p.TokenURL == "" {
		p.TokenURL = auth.SpotifyTokenURL
	}
	if p.APIURL == "" {
		p.APIURL = auth.SpotifyAPIURL
	}
	if p.Timeout <= 0 {
		p.Timeout = defaultTimeout
	}
}

// ApplyDefaults fills every unset field that has a default.
func (c *Config) ApplyDefaults() {
	c.RedirectURI.applyDefaults()
	c.Provider.applyDefaults()

	if c.Server.Burst <= 0 {
		c.Server.Burst = 1
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 1
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports whether the configuration carries client credentials and a usable redirect URI.
func (c *Config) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return auth.ErrMissingCredentials
	}
	if c.RedirectURI.Port < 1 || c.RedirectURI.Port > 65535 {
		return fmt.Errorf("%w: redirect_uri.port %d out of range", ErrInvalidConfig, c.RedirectURI.Port)
	}
	if !strings.HasPrefix(c.RedirectURI.Path, "/") {
		return fmt.Errorf("%w: redirect_uri.path must start with /", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes TOML bytes into a [Config] with defaults applied.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	config, err := ParseConfig(exampleConf)
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Holds the client secret once filled in.
	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
