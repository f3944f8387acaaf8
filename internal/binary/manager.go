package binary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ZebulonRouseFrantzich/exinstall/internal/config"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/platform"
)

// Manager orchestrates tool download, verification, and extraction
type Manager struct {
	cacheDir     string
	name         string
	platformInfo *platform.Info
	source       ToolSource
	downloader   *Downloader
	verifier     *Verifier
	extractor    *Extractor
	logger       config.Logger
}

// Config holds configuration for the tool manager
type Config struct {
	// Name is the executable name without platform suffix.
	Name string
	// CacheDir holds the archive and the extracted tool across runs.
	CacheDir string
	// URLs overrides DefaultToolURLs by "<os>/<arch>" key.
	URLs map[string]string
	// ChecksumURL and SignatureURL enable verification when set.
	ChecksumURL  string
	SignatureURL string
	// Keyring is the public keyring used with SignatureURL.
	Keyring string
	// PlatformInfo contains OS and architecture information
	PlatformInfo *platform.Info
	// Downloader is shared with other components. A default one is created when nil.
	Downloader *Downloader
	Logger     config.Logger
}

// NewManager creates a new tool manager
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("Name is required")
	}
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("CacheDir is required")
	}
	if cfg.PlatformInfo == nil {
		return nil, fmt.Errorf("PlatformInfo is required")
	}

	downloader := cfg.Downloader
	if downloader == nil {
		downloader = NewDownloader(DownloaderOptions{})
	}

	return &Manager{
		cacheDir:     cfg.CacheDir,
		name:         cfg.Name,
		platformInfo: cfg.PlatformInfo,
		source: ToolSource{
			Name:         cfg.Name,
			URLs:         cfg.URLs,
			ChecksumURL:  cfg.ChecksumURL,
			SignatureURL: cfg.SignatureURL,
		},
		downloader: downloader,
		verifier:   NewVerifier(cfg.Keyring),
		extractor:  NewExtractor(),
		logger:     config.OrNop(cfg.Logger),
	}, nil
}

// ToolPath returns the filesystem path the tool executable lives at once installed
func (m *Manager) ToolPath() string {
	return filepath.Join(m.cacheDir, m.platformInfo.ExecutableName(m.name))
}

// IsInstalled checks if the tool is already present and executable
func (m *Manager) IsInstalled() (bool, error) {
	info, err := os.Stat(m.ToolPath())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat tool: %w", err)
	}

	if !info.Mode().IsRegular() {
		return false, nil
	}

	// Windows has no executable bit.
	if !m.platformInfo.IsWindows() && info.Mode().Perm()&0111 == 0 {
		return false, nil
	}

	return true, nil
}

// Download downloads and verifies the tool archive (but doesn't extract it)
func (m *Manager) Download(ctx context.Context) (*DownloadResult, error) {
	startTime := time.Now()

	info, err := constructDownloadInfo(m.source, m.platformInfo)
	if err != nil {
		return nil, fmt.Errorf("construct download info: %w", err)
	}

	archivePath, err := m.downloader.downloadCached(ctx, info.URL, m.cacheDir)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", info.URL, err)
	}

	// Verification material is fetched fresh on every run.
	var signaturePath, checksumPath string
	if info.SignatureURL != "" {
		signaturePath = filepath.Join(m.cacheDir, archiveBaseName(info.SignatureURL))
		if err := m.downloader.DownloadToFile(ctx, info.SignatureURL, signaturePath); err != nil {
			return nil, fmt.Errorf("download signature: %w", err)
		}
	}
	if info.ChecksumURL != "" {
		checksumPath = filepath.Join(m.cacheDir, archiveBaseName(info.ChecksumURL))
		if err := m.downloader.DownloadToFile(ctx, info.ChecksumURL, checksumPath); err != nil {
			return nil, fmt.Errorf("download checksums: %w", err)
		}
	}

	result, err := m.verifier.VerifyFile(archivePath, signaturePath, checksumPath)
	if err != nil {
		// Drop the cached archive so the next run fetches a fresh copy.
		os.Remove(archivePath)
		return nil, fmt.Errorf("verify archive: %w", err)
	}

	return &DownloadResult{
		Path:         archivePath,
		Verified:     result.Method,
		DownloadTime: time.Since(startTime),
	}, nil
}

// EnsureTool makes sure the tool executable exists in the cache directory
// and returns its path. An existing executable is reused without any
// network access. Errors wrap ErrToolFetch or ErrToolExtract; the path is
// returned with ErrToolExtract so callers may still try to use it.
func (m *Manager) EnsureTool(ctx context.Context) (string, error) {
	toolPath := m.ToolPath()

	installed, err := m.IsInstalled()
	if err != nil {
		return "", fmt.Errorf("%w: check if installed: %w", ErrToolFetch, err)
	}
	if installed {
		m.logger.Debug("tool already cached", "path", toolPath)
		return toolPath, nil
	}

	if err := os.MkdirAll(m.cacheDir, 0755); err != nil {
		return "", fmt.Errorf("%w: create cache dir: %w", ErrToolFetch, err)
	}

	lock, err := acquireCacheLock(ctx, m.cacheDir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrToolFetch, err)
	}
	defer func() {
		if err := lock.release(); err != nil {
			m.logger.Warn("release tool cache lock", "error", err)
		}
	}()

	// A concurrent run may have finished between the first check and the lock.
	if installed, _ := m.IsInstalled(); installed {
		return toolPath, nil
	}

	result, err := m.Download(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrToolFetch, err)
	}
	m.logger.Info("tool archive downloaded",
		"path", result.Path,
		"verified", result.Verified.String(),
		"duration", result.DownloadTime)

	if err := m.install(result.Path, toolPath); err != nil {
		// A cached archive that cannot be unpacked would otherwise be
		// reused by every later run.
		if rmErr := os.Remove(result.Path); rmErr != nil && !os.IsNotExist(rmErr) {
			m.logger.Warn("remove unusable tool archive", "path", result.Path, "error", rmErr)
		}
		return toolPath, fmt.Errorf("%w: %w", ErrToolExtract, err)
	}

	return toolPath, nil
}

// install unpacks archivePath into the cache and checks that it produced
// an executable toolPath.
func (m *Manager) install(archivePath, toolPath string) error {
	if err := m.extractor.Extract(archivePath, m.cacheDir); err != nil {
		return err
	}
	if !fileExists(toolPath) {
		return fmt.Errorf("%s not found in %s", filepath.Base(toolPath), filepath.Base(archivePath))
	}
	if !m.platformInfo.IsWindows() {
		return SetExecutable(toolPath)
	}
	return nil
}
