// Package config handles configuration management for redirectschemed.
//
// Provides functionality for:
// - Loading configuration from YAML files
// - Validating configuration structures
// - Assembling the redirect policy the daemon enforces
package config

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/perdumonocle/redirectscheme"
	"github.com/perdumonocle/redirectscheme/internal/rserr"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// AppConfig represents the complete redirectschemed configuration
// structure.
type AppConfig struct {
	// Server Listener and upstream configuration
	Server ServerConfig `yaml:"server"`
	// Redirect Redirect policy configuration
	Redirect RedirectConfig `yaml:"redirect"`
}

// ServerConfig holds the daemon's listener configuration.
type ServerConfig struct {
	// Address to listen for HTTP traffic (e.g. ":80")
	HTTPAddr string `yaml:"httpAddr"`
	// Address to listen for HTTPS traffic (e.g. ":443"); empty disables the TLS listener
	HTTPSAddr string `yaml:"httpsAddr"`
	// Address for the admin listener serving health and status; empty disables it
	AdminAddr string `yaml:"adminAddr"`
	// URL non-redirected traffic is proxied to (e.g. "http://127.0.0.1:3000")
	Upstream string `yaml:"upstream"`
	// Path to a PEM certificate for the HTTPS listener
	CertFile string `yaml:"certFile"`
	// Path to the certificate's private key
	KeyFile string `yaml:"keyFile"`
	// Domain to obtain an automatic certificate for; alternative to certFile/keyFile
	Domain string `yaml:"domain"`
	// Directory the automatic certificate cache lives in
	CertDir string `yaml:"certDir"`
	// Controls logging verbosity ("debug", "info", "warning", ...)
	LogLevel string `yaml:"logLevel"`

	// Maximum duration to wait for reading HTTP headers (e.g. "30s", "1m")
	// If zero, uses the default HTTP server timeout
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`
}

// RedirectConfig mirrors the redirect policy section of the config file.
type RedirectConfig struct {
	// Disabled switches redirection off while keeping the daemon proxying
	Disabled bool `yaml:"disabled"`
	// Scheme requests are steered to: "https" (default) or "http"
	ToScheme string `yaml:"toScheme"`
	// Temporary selects 307 responses instead of 301
	Temporary bool `yaml:"temporary"`
	// Replacements applied to redirect targets, in order
	Replacements []ReplacementConfig `yaml:"replacements"`
	// IgnorePaths lists path prefixes never redirected
	IgnorePaths []string `yaml:"ignorePaths"`
	// ForwardedHeader names the trusted forwarded-scheme header;
	// empty means X-Forwarded-Proto, "none" disables the signal
	ForwardedHeader string `yaml:"forwardedHeader"`
}

// ReplacementConfig is one literal substitution pair.
type ReplacementConfig struct {
	// From Substring searched for in the target URL
	From string `yaml:"from"`
	// To Substring it is replaced with
	To string `yaml:"to"`
}

// LoadConfig loads configuration from YAML file.
//
// Parameters:
//   - path: Path to configuration file (if empty, searches for
//     .redirectscheme.yaml in current dir then user home)
//   - cfg: Pointer to Config struct to populate
//
// Returns:
//   - error: Any error encountered during loading
//
// The function:
// - Uses findConfigFile to locate the config file
// - Resolves absolute path
// - Reads file contents safely with a size limit
// - Unmarshals YAML into config struct
func LoadConfig(path string, cfg *AppConfig) error {
	foundPath, err := findConfigFile(path)
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(foundPath)
	if err != nil {
		return rserr.New(rserr.CodeConfigError, "invalid config path", rserr.WithError(err))
	}

	file, err := os.Open(filepath.Clean(absPath))
	if err != nil {
		return rserr.New(rserr.CodeConfigError, "failed to open config", rserr.WithError(err))
	}

	defer func() {
		if err := file.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close config file")
		}
	}()

	// Read file with size limit
	data, err := io.ReadAll(io.LimitReader(file, MaxConfigSize))
	if err != nil {
		return rserr.New(rserr.CodeConfigError, "failed to read config", rserr.WithError(err))
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return rserr.New(rserr.CodeConfigError, "invalid config format", rserr.WithError(err))
	}

	return nil
}

// findConfigFile locates the configuration file using the following precedence:
// 1. If path is provided, uses that
// 2. Looks for .redirectscheme.yaml in current directory
// 3. Looks for ~/.redirectscheme.yaml
// Returns the found path or error if no config file found
func findConfigFile(path string) (string, error) {
	if path != "" {
		return path, nil
	}

	localPath := DefaultConfigName
	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", rserr.New(rserr.CodeConfigError, "failed to get user home directory", rserr.WithError(err))
	}

	globalPath := filepath.Join(home, DefaultConfigName)
	if _, err := os.Stat(globalPath); err == nil {
		return globalPath, nil
	}

	return "", rserr.New(rserr.CodeConfigError,
		"no config file found (tried "+DefaultConfigName+" in current dir and ~/"+DefaultConfigName+")")
}

// ValidateServerConfig validates the listener configuration.
//
// Parameters:
//   - cfg: ServerConfig to validate
//
// Returns:
//   - error: First validation error found
//
// Checks:
// - Required fields (HTTPAddr, Upstream)
// - Upstream is an absolute http(s) URL
// - TLS material is coherent when the HTTPS listener is enabled
// - LogLevel parses when set
// - ReadHeaderTimeout stays within bounds
func ValidateServerConfig(cfg ServerConfig) error {
	if cfg.HTTPAddr == "" {
		return rserr.New(rserr.CodeConfigError, "httpAddr is required")
	}

	if cfg.Upstream == "" {
		return rserr.New(rserr.CodeConfigError, "upstream is required")
	}

	upstream, err := url.Parse(cfg.Upstream)
	if err != nil {
		return rserr.New(rserr.CodeConfigError, "upstream is not a valid URL", rserr.WithError(err))
	}

	if (upstream.Scheme != "http" && upstream.Scheme != "https") || upstream.Host == "" {
		return rserr.New(rserr.CodeConfigError, "upstream must be an absolute http(s) URL")
	}

	if err := validateTLS(cfg); err != nil {
		return err
	}

	if cfg.LogLevel != "" {
		if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
			return rserr.New(rserr.CodeConfigError, "invalid logLevel", rserr.WithError(err))
		}
	}

	if cfg.ReadHeaderTimeout < 0 {
		return rserr.New(rserr.CodeConfigError, "readHeaderTimeout cannot be negative")
	}

	if cfg.ReadHeaderTimeout > MaxReadHeaderTimeout {
		return rserr.New(rserr.CodeConfigError, "readHeaderTimeout cannot exceed 5 minutes")
	}

	return nil
}

// validateTLS checks the certificate settings for the HTTPS listener.
// Static files and automatic certificates are mutually exclusive; either
// both halves of a pair are set or neither is.
func validateTLS(cfg ServerConfig) error {
	static := cfg.CertFile != "" || cfg.KeyFile != ""
	auto := cfg.Domain != "" || cfg.CertDir != ""

	if cfg.HTTPSAddr == "" {
		if static || auto {
			return rserr.New(rserr.CodeConfigError, "certificate settings require httpsAddr")
		}

		return nil
	}

	if static && auto {
		return rserr.New(rserr.CodeConfigError, "certFile/keyFile and domain/certDir are mutually exclusive")
	}

	switch {
	case static:
		if cfg.CertFile == "" || cfg.KeyFile == "" {
			return rserr.New(rserr.CodeConfigError, "certFile and keyFile must be set together")
		}
	case auto:
		if cfg.Domain == "" || cfg.CertDir == "" {
			return rserr.New(rserr.CodeConfigError, "domain and certDir must be set together")
		}
	default:
		return rserr.New(rserr.CodeConfigError, "httpsAddr requires certFile/keyFile or domain/certDir")
	}

	return nil
}

// ValidateRedirectConfig validates the redirect policy section.
//
// Parameters:
//   - cfg: RedirectConfig to validate
//
// Returns:
//   - error: First validation error found
//
// Checks:
// - ToScheme is "http", "https" or empty
// - Replacement entries have a non-empty from
func ValidateRedirectConfig(cfg RedirectConfig) error {
	switch cfg.ToScheme {
	case "", "http", "https":
	default:
		return rserr.New(rserr.CodeConfigError,
			"invalid toScheme: "+cfg.ToScheme+" (must be 'http' or 'https')")
	}

	for i, rep := range cfg.Replacements {
		if rep.From == "" {
			return rserr.New(rserr.CodeConfigError, "replacement 'from' cannot be empty",
				rserr.WithDetails(rserr.Details{"index": i}))
		}
	}

	return nil
}

// Policy assembles the immutable redirect policy described by the
// section. Call ValidateRedirectConfig first; Policy itself never
// fails.
func (c RedirectConfig) Policy() *redirectscheme.Config {
	builder := redirectscheme.NewBuilder().
		Enable(!c.Disabled).
		HTTPSToHTTP(c.ToScheme == "http").
		Permanent(!c.Temporary)

	if len(c.Replacements) > 0 {
		pairs := make([]redirectscheme.Replacement, 0, len(c.Replacements))
		for _, rep := range c.Replacements {
			pairs = append(pairs, redirectscheme.Replacement{From: rep.From, To: rep.To})
		}

		builder.Replacements(pairs...)
	}

	for _, prefix := range c.IgnorePaths {
		builder.IgnorePath(prefix)
	}

	switch c.ForwardedHeader {
	case "":
		// keep the default
	case ForwardedHeaderNone:
		builder.ForwardedHeader("")
	default:
		builder.ForwardedHeader(c.ForwardedHeader)
	}

	return builder.Build()
}
