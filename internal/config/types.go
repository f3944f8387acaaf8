package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the complete installer configuration after defaults, the
// optional Lua file and command-line flags have been applied.
type Config struct {
	// BuildRoot is the parent of timestamp-derived build directories.
	BuildRoot string
	// BuildDir overrides the timestamp-derived build directory when set.
	BuildDir string

	// Timeout bounds every HTTP request made by the installer.
	Timeout time.Duration
	// Retries is the number of extra attempts per download. Zero means a
	// failed download is reported immediately.
	Retries int

	Repository Repository

	// Channels maps a release channel label to how many of its newest
	// releases are offered. Channels not listed are never offered.
	Channels map[string]int

	Tool ToolConfig

	Output Output
}

// Repository locates the firmware project on the hosting service.
type Repository struct {
	// TagsURL lists the repository tags as JSON.
	TagsURL string
	// ArchivePrefix is joined with a tag ref and ".zip" to download a release.
	ArchivePrefix string
	// Name is the repository name; it prefixes the archive's top-level
	// folder and names the installed source tree.
	Name string
}

// ToolConfig configures the bootstrapped build tool.
type ToolConfig struct {
	// Name of the executable without platform suffix.
	Name string
	// CacheDir holds the extracted tool across runs.
	CacheDir string
	// URLs overrides download URLs keyed by "<os>/<arch>".
	URLs map[string]string
	// ChecksumURL, when set, points to a checksums.txt used to verify the archive.
	ChecksumURL string
	// SignatureURL, when set, points to a detached OpenPGP signature of the archive.
	SignatureURL string
	// Keyring is the armored or binary public keyring used with SignatureURL.
	Keyring string
}

// Output holds the display switches handed to each collaborator.
type Output struct {
	Quiet   bool // suppress progress lines and warnings
	Verbose bool // emit debug logs
	NoColor bool // disable ANSI colours
}

// Validate performs basic validation on a Config.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BuildRoot) == "" && strings.TrimSpace(c.BuildDir) == "" {
		return &ValidationError{Field: "build_root", Message: "either build_root or build_dir must be set"}
	}

	if c.Timeout <= 0 {
		return &ValidationError{Field: "timeout", Message: fmt.Sprintf("must be positive (got %s)", c.Timeout)}
	}

	if c.Retries < 0 || c.Retries > MaxRetries {
		return &ValidationError{Field: "retries", Message: fmt.Sprintf("must be between 0 and %d (got %d)", MaxRetries, c.Retries)}
	}

	if err := validateHTTPURL(c.Repository.TagsURL); err != nil {
		return &ValidationError{Field: "repository.tags_url", Message: err.Error()}
	}
	if err := validateHTTPURL(c.Repository.ArchivePrefix); err != nil {
		return &ValidationError{Field: "repository.archive_prefix", Message: err.Error()}
	}
	if err := validateName(c.Repository.Name); err != nil {
		return &ValidationError{Field: "repository.name", Message: err.Error()}
	}

	for channel, limit := range c.Channels {
		if channel == "" {
			return &ValidationError{Field: "channels", Message: "channel name cannot be empty"}
		}
		if limit < 0 {
			return &ValidationError{Field: "channels." + channel, Message: fmt.Sprintf("limit cannot be negative (got %d)", limit)}
		}
	}

	if err := validateName(c.Tool.Name); err != nil {
		return &ValidationError{Field: "tool.name", Message: err.Error()}
	}
	if strings.TrimSpace(c.Tool.CacheDir) == "" {
		return &ValidationError{Field: "tool.cache_dir", Message: "cannot be empty"}
	}
	for key, u := range c.Tool.URLs {
		if err := validateHTTPURL(u); err != nil {
			return &ValidationError{Field: "tool.urls." + key, Message: err.Error()}
		}
	}
	if c.Tool.ChecksumURL != "" {
		if err := validateHTTPURL(c.Tool.ChecksumURL); err != nil {
			return &ValidationError{Field: "tool.checksum_url", Message: err.Error()}
		}
	}
	if c.Tool.SignatureURL != "" {
		if err := validateHTTPURL(c.Tool.SignatureURL); err != nil {
			return &ValidationError{Field: "tool.signature_url", Message: err.Error()}
		}
		if c.Tool.Keyring == "" {
			return &ValidationError{Field: "tool.keyring", Message: "required when tool.signature_url is set"}
		}
	}

	return nil
}

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}

// validateHTTPURL accepts absolute http:// and https:// URLs.
func validateHTTPURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("URL must use https:// or http:// scheme (got: %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host: %s", raw)
	}

	return nil
}

// validateName rejects names that could escape the directory they are joined to.
func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("must be a plain name, got %q", name)
	}
	return nil
}
