package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/ZebulonRouseFrantzich/exinstall/internal/binary"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/buildtool"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/config"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/github"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/pipeline"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/platform"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/receipt"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/release"
)

// BuildDirLayout is the time layout of a derived build directory name.
const BuildDirLayout = "20060102-150405"

// InstallerOptions configures an Installer.
type InstallerOptions struct {
	// Config must already be validated.
	Config   *config.Config
	Platform *platform.Info
	Selector pipeline.Selector

	Clock  Clock
	Logger config.Logger
	// OnTransition receives every pipeline state change.
	OnTransition func(from, to pipeline.State)

	// HTTPClient is shared by all downloads. Nil uses a client with the
	// configured timeout.
	HTTPClient *http.Client
	// NewTool opens the build tool at path. Nil uses buildtool.NewClient.
	NewTool func(path string) buildtool.Tool
}

// Installer drives one acquisition run and the post-install device check.
type Installer struct {
	cfg          *config.Config
	platform     *platform.Info
	selector     pipeline.Selector
	clock        Clock
	logger       config.Logger
	onTransition func(from, to pipeline.State)
	httpClient   *http.Client
	newTool      func(path string) buildtool.Tool
}

// Report summarises a run.
type Report struct {
	RunID      string
	State      pipeline.State
	Cancelled  bool
	Selected   *release.VersionEntry
	Candidates release.CandidateList
	Workspace  pipeline.Workspace
	// Devices is the second device listing taken after install.
	Devices     []buildtool.Device
	ReceiptPath string
	// Warnings holds every non-fatal failure of the run.
	Warnings []error
}

// Installed reports whether the run reached the Installed state.
func (r *Report) Installed() bool {
	return r.State == pipeline.StateInstalled
}

// NewInstaller creates an Installer.
func NewInstaller(opts InstallerOptions) (*Installer, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.Platform == nil {
		return nil, fmt.Errorf("platform info is required")
	}
	if opts.Selector == nil {
		return nil, fmt.Errorf("selector is required")
	}

	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}
	newTool := opts.NewTool
	if newTool == nil {
		newTool = func(path string) buildtool.Tool { return buildtool.NewClient(path) }
	}

	return &Installer{
		cfg:          opts.Config,
		platform:     opts.Platform,
		selector:     opts.Selector,
		clock:        clock,
		logger:       config.OrNop(opts.Logger),
		onTransition: opts.OnTransition,
		httpClient:   opts.HTTPClient,
		newTool:      newTool,
	}, nil
}

// BuildDir returns the configured build directory, or a new
// timestamp-named directory under the build root.
func (i *Installer) BuildDir() string {
	if i.cfg.BuildDir != "" {
		return i.cfg.BuildDir
	}
	return filepath.Join(i.cfg.BuildRoot, i.clock.Now().Format(BuildDirLayout))
}

// Install runs the pipeline. A nil error with Report.Cancelled set means
// the operator chose to exit. Errors from the pipeline are *pipeline.Error
// values carrying their exit status.
func (i *Installer) Install(ctx context.Context) (*Report, error) {
	rec := receipt.New(i.clock.Now())
	report := &Report{RunID: rec.RunID}

	downloader := i.downloader()
	manager, err := i.toolManager(downloader)
	if err != nil {
		return report, err
	}
	tags, err := github.NewClient(github.Options{
		TagsURL:       i.cfg.Repository.TagsURL,
		ArchivePrefix: i.cfg.Repository.ArchivePrefix,
		Timeout:       i.cfg.Timeout,
		UserAgent:     config.UserAgent,
		HTTPClient:    i.httpClient,
	})
	if err != nil {
		return report, fmt.Errorf("create tag client: %w", err)
	}

	p, err := pipeline.New(pipeline.Options{
		Workspace:    pipeline.NewWorkspace(i.BuildDir(), i.cfg.Repository.Name),
		RepoName:     i.cfg.Repository.Name,
		Limits:       ChannelLimits(i.cfg.Channels),
		Tools:        manager,
		Tags:         tags,
		Fetcher:      downloader,
		Extractor:    binary.NewExtractor(),
		Selector:     i.selector,
		Logger:       i.logger,
		OnTransition: i.onTransition,
	})
	if err != nil {
		return report, fmt.Errorf("create pipeline: %w", err)
	}

	i.logger.Info("starting install", "run_id", rec.RunID, "build_dir", p.Workspace().BuildDir, "platform", i.platform.Key())

	result, runErr := p.Run(ctx)
	report.State = result.State
	report.Cancelled = result.Cancelled
	report.Selected = result.Selected
	report.Candidates = result.Candidates
	report.Workspace = result.Workspace
	report.Warnings = append(report.Warnings, result.Warnings...)

	if runErr != nil || !report.Installed() {
		return report, runErr
	}

	report.Devices = i.listDevicesTwice(ctx, report)

	rec.CompletedAt = i.clock.Now().UTC().Truncate(time.Second)
	rec.Release = receipt.Release{
		Name:       result.Selected.DisplayName,
		Version:    result.Selected.Version(),
		Channel:    result.Selected.Channel.String(),
		Ref:        result.Selected.RawRef,
		ArchiveURL: tags.ArchiveURL(result.Selected.RawRef),
	}
	rec.Tool.Path = result.Workspace.ToolPath
	rec.Paths = receipt.Paths{
		BuildDir:   result.Workspace.BuildDir,
		InstallDir: result.Workspace.InstallDir,
		Archive:    result.Workspace.ArchivePath,
	}
	for _, d := range report.Devices {
		rec.Devices = append(rec.Devices, d.String())
	}

	path, err := rec.Write(result.Workspace.BuildDir)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Errorf("write receipt: %w", err))
		i.logger.Warn("could not write install receipt", "error", err)
	} else {
		report.ReceiptPath = path
	}

	return report, nil
}

// listDevicesTwice calls the build tool's device listing twice. The first
// call lets the tool provision drivers on a fresh install; only the second
// listing is kept. Failures are warnings.
func (i *Installer) listDevicesTwice(ctx context.Context, report *Report) []buildtool.Device {
	tool := i.newTool(report.Workspace.ToolPath)

	if _, err := tool.ListDevices(ctx); err != nil {
		i.logger.Debug("initial device listing failed", "error", err)
	}

	devices, err := tool.ListDevices(ctx)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Errorf("list devices: %w", err))
		i.logger.Warn("could not list connected devices", "error", err)
		return nil
	}
	return devices
}

// ListDevices lists connected devices with the cached build tool without
// installing anything. It returns buildtool.ErrNotInstalled when no run
// has cached the tool yet.
func (i *Installer) ListDevices(ctx context.Context) ([]buildtool.Device, error) {
	manager, err := i.toolManager(i.downloader())
	if err != nil {
		return nil, err
	}

	installed, err := manager.IsInstalled()
	if err != nil {
		return nil, err
	}
	if !installed {
		return nil, fmt.Errorf("%w: run an install first (looked in %s)", buildtool.ErrNotInstalled, manager.ToolPath())
	}

	return i.newTool(manager.ToolPath()).ListDevices(ctx)
}

func (i *Installer) downloader() *binary.Downloader {
	return binary.NewDownloader(binary.DownloaderOptions{
		Timeout:   i.cfg.Timeout,
		Retries:   i.cfg.Retries,
		UserAgent: config.UserAgent,
		Client:    i.httpClient,
	})
}

func (i *Installer) toolManager(downloader *binary.Downloader) (*binary.Manager, error) {
	manager, err := binary.NewManager(binary.Config{
		Name:         i.cfg.Tool.Name,
		CacheDir:     i.cfg.Tool.CacheDir,
		URLs:         i.cfg.Tool.URLs,
		ChecksumURL:  i.cfg.Tool.ChecksumURL,
		SignatureURL: i.cfg.Tool.SignatureURL,
		Keyring:      i.cfg.Tool.Keyring,
		PlatformInfo: i.platform,
		Downloader:   downloader,
		Logger:       i.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create tool manager: %w", err)
	}
	return manager, nil
}

// ChannelLimits converts configured channel limits to ranking limits. A nil
// map yields nil so the ranking defaults apply; an empty map offers nothing.
func ChannelLimits(channels map[string]int) map[release.Channel]int {
	if channels == nil {
		return nil
	}
	limits := make(map[release.Channel]int, len(channels))
	for name, limit := range channels {
		limits[release.Channel(name)] = limit
	}
	return limits
}

// IsCancelled reports whether err stems from context cancellation, such as
// an interrupt during a download.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
