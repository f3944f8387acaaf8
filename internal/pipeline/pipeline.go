// Package pipeline runs the acquisition sequence that stages one firmware
// release into a build directory:
//
//	Idle → DirectoryReady → ToolReady → CatalogFetched →
//	ArchiveDownloaded → Extracted → Installed
//
// Each step is safe to repeat against the same workspace. A fatal step
// failure moves the pipeline to Failed and returns a classified *Error;
// nothing already on disk is rolled back.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/exinstall/internal/binary"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/config"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/release"
)

// ToolInstaller makes the build tool available and returns its path.
type ToolInstaller interface {
	EnsureTool(ctx context.Context) (string, error)
}

// TagSource is the remote hosting API.
type TagSource interface {
	TagRefs(ctx context.Context) ([]string, error)
	ArchiveURL(ref string) string
}

// Fetcher downloads a URL to a file.
type Fetcher interface {
	DownloadToFile(ctx context.Context, url, destPath string) error
}

// Extractor unpacks an archive into a directory.
type Extractor interface {
	Extract(archivePath, destDir string) error
}

// Selector shows the candidate list and returns the operator's choice.
// It returns the sentinel candidate when the operator exits.
type Selector interface {
	Select(ctx context.Context, candidates release.CandidateList) (release.Candidate, error)
}

// Options configures a Pipeline. All collaborators are required.
type Options struct {
	Workspace Workspace
	RepoName  string
	Limits    map[release.Channel]int

	Tools     ToolInstaller
	Tags      TagSource
	Fetcher   Fetcher
	Extractor Extractor
	Selector  Selector

	Logger config.Logger
	// OnTransition is called after every state change.
	OnTransition func(from, to State)
}

// Result describes how a run ended.
type Result struct {
	State      State
	Cancelled  bool
	Selected   *release.VersionEntry
	Candidates release.CandidateList
	Workspace  Workspace
	// Warnings holds non-fatal failures, such as a tool extraction error.
	Warnings []error
}

// Pipeline is a single-use acquisition run.
type Pipeline struct {
	opts     Options
	logger   config.Logger
	state    State
	ws       Workspace
	catalog  release.Catalog
	warnings []error
}

// New validates opts and returns a pipeline in state Idle.
func New(opts Options) (*Pipeline, error) {
	switch {
	case opts.Workspace.BuildDir == "":
		return nil, fmt.Errorf("workspace build directory is required")
	case opts.RepoName == "":
		return nil, fmt.Errorf("repository name is required")
	case opts.Tools == nil, opts.Tags == nil, opts.Fetcher == nil, opts.Extractor == nil, opts.Selector == nil:
		return nil, fmt.Errorf("all pipeline collaborators are required")
	}

	ws := opts.Workspace
	if ws.ArchivePath == "" || ws.InstallDir == "" {
		derived := NewWorkspace(ws.BuildDir, opts.RepoName)
		if ws.ArchivePath == "" {
			ws.ArchivePath = derived.ArchivePath
		}
		if ws.InstallDir == "" {
			ws.InstallDir = derived.InstallDir
		}
	}

	return &Pipeline{
		opts:   opts,
		logger: config.OrNop(opts.Logger),
		state:  StateIdle,
		ws:     ws,
	}, nil
}

// State returns the current state.
func (p *Pipeline) State() State {
	return p.state
}

// Workspace returns the workspace as extended by completed steps.
func (p *Pipeline) Workspace() Workspace {
	return p.ws
}

// Run executes every step in order and stops at the first fatal failure
// or when the operator picks the exit sentinel.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	result := Result{}
	finish := func(err error) (Result, error) {
		result.State = p.state
		result.Workspace = p.ws
		result.Warnings = p.warnings
		return result, err
	}

	if err := p.EnsureBuildDirectory(ctx); err != nil {
		return finish(err)
	}
	if err := p.EnsureDependencyTool(ctx); err != nil {
		return finish(err)
	}
	if _, err := p.FetchCatalog(ctx); err != nil {
		return finish(err)
	}

	candidates, choice, err := p.PresentAndSelect(ctx)
	result.Candidates = candidates
	if err != nil {
		return finish(err)
	}
	if choice.IsExit() {
		result.Cancelled = true
		return finish(nil)
	}
	result.Selected = choice.Entry

	if err := p.DownloadArchive(ctx, *choice.Entry); err != nil {
		return finish(err)
	}
	if err := p.ExtractAndRelocate(ctx, *choice.Entry); err != nil {
		return finish(err)
	}

	return finish(nil)
}

// EnsureBuildDirectory creates the build directory if it is absent.
func (p *Pipeline) EnsureBuildDirectory(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return p.fail(newError(KindDirectoryCreation, p.ws.BuildDir, err))
	}

	if err := os.MkdirAll(p.ws.BuildDir, 0o755); err != nil {
		return p.fail(newError(KindDirectoryCreation, p.ws.BuildDir, err))
	}
	info, err := os.Stat(p.ws.BuildDir)
	if err != nil {
		return p.fail(newError(KindDirectoryCreation, p.ws.BuildDir, err))
	}
	if !info.IsDir() {
		return p.fail(newError(KindDirectoryCreation, p.ws.BuildDir, fmt.Errorf("not a directory")))
	}

	p.logger.Debug("build directory ready", "path", p.ws.BuildDir)
	p.transition(StateDirectoryReady)
	return nil
}

// EnsureDependencyTool makes the build tool available. A download failure
// is fatal; an extraction failure is recorded as a warning and the
// pipeline continues with whatever path the installer reported.
func (p *Pipeline) EnsureDependencyTool(ctx context.Context) error {
	path, err := p.opts.Tools.EnsureTool(ctx)
	if err != nil {
		kind := KindDependencyFetch
		if errors.Is(err, binary.ErrToolExtract) {
			kind = KindDependencyExtract
		}
		if kind.Fatal() {
			return p.fail(newError(kind, "", err))
		}
		p.warnings = append(p.warnings, newError(kind, path, err))
		p.logger.Warn("build tool extraction failed, continuing", "path", path, "error", err)
	}

	p.ws.ToolPath = path
	p.transition(StateToolReady)
	return nil
}

// FetchCatalog lists the remote tags and parses them. Malformed tags are
// logged and skipped.
func (p *Pipeline) FetchCatalog(ctx context.Context) (release.Catalog, error) {
	refs, err := p.opts.Tags.TagRefs(ctx)
	if err != nil {
		return nil, p.fail(newError(KindCatalogFetch, "", err))
	}

	catalog, malformed := release.Parse(refs)
	for _, m := range malformed {
		p.logger.Warn("skipping tag", "ref", m.Ref, "reason", m.Reason)
	}
	p.logger.Debug("catalog fetched", "tags", len(refs), "releases", len(catalog))

	p.catalog = catalog
	p.transition(StateCatalogFetched)
	return catalog, nil
}

// PresentAndSelect ranks the catalog and asks the operator to choose.
// Choosing the sentinel returns the pipeline to Idle.
func (p *Pipeline) PresentAndSelect(ctx context.Context) (release.CandidateList, release.Candidate, error) {
	candidates := release.Rank(p.catalog, p.limits())

	choice, err := p.opts.Selector.Select(ctx, candidates)
	if err != nil {
		return candidates, release.Candidate{}, p.fail(fmt.Errorf("select release: %w", err))
	}

	if _, ok := candidates.Lookup(choice.Index); !ok {
		return candidates, release.Candidate{}, p.fail(fmt.Errorf("select release: index %d out of range", choice.Index))
	}

	if choice.IsExit() {
		p.logger.Info("installation cancelled by operator")
		p.transition(StateIdle)
		return candidates, choice, nil
	}

	p.logger.Info("release selected", "version", choice.Entry.DisplayName, "ref", choice.Entry.RawRef)
	return candidates, choice, nil
}

// DownloadArchive fetches the release archive into the build directory.
// A build directory that already holds an installed tree is refused
// before anything is downloaded.
func (p *Pipeline) DownloadArchive(ctx context.Context, entry release.VersionEntry) error {
	if _, err := os.Lstat(p.ws.InstallDir); err == nil {
		return p.fail(newError(KindRelocate, p.ws.InstallDir,
			fmt.Errorf("%w: a release is already installed here; use a new build directory", os.ErrExist)))
	}

	url := p.opts.Tags.ArchiveURL(entry.RawRef)
	if err := p.opts.Fetcher.DownloadToFile(ctx, url, p.ws.ArchivePath); err != nil {
		return p.fail(newError(KindArchiveDownload, url, err))
	}

	p.logger.Debug("archive downloaded", "url", url, "path", p.ws.ArchivePath)
	p.transition(StateArchiveDownloaded)
	return nil
}

// ExtractAndRelocate unpacks the archive and renames the versioned
// top-level folder to the canonical install directory. On failure the
// extracted files stay where they are.
func (p *Pipeline) ExtractAndRelocate(ctx context.Context, entry release.VersionEntry) error {
	if err := p.opts.Extractor.Extract(p.ws.ArchivePath, p.ws.BuildDir); err != nil {
		return p.fail(newError(KindExtract, p.ws.ArchivePath, err))
	}
	p.transition(StateExtracted)

	source := filepath.Join(p.ws.BuildDir, ExtractedFolderName(p.opts.RepoName, entry))
	info, err := os.Stat(source)
	if err != nil {
		return p.fail(newError(KindRelocate, source, fmt.Errorf("expected folder not found in archive: %w", err)))
	}
	if !info.IsDir() {
		return p.fail(newError(KindRelocate, source, fmt.Errorf("expected a folder")))
	}
	if _, err := os.Lstat(p.ws.InstallDir); err == nil {
		return p.fail(newError(KindRelocate, p.ws.InstallDir, os.ErrExist))
	}

	if err := os.Rename(source, p.ws.InstallDir); err != nil {
		return p.fail(newError(KindRelocate, source, err))
	}

	p.logger.Info("release installed", "version", entry.DisplayName, "path", p.ws.InstallDir)
	p.transition(StateInstalled)
	return nil
}

func (p *Pipeline) limits() map[release.Channel]int {
	if p.opts.Limits == nil {
		return release.DefaultChannelLimits()
	}
	return p.opts.Limits
}

func (p *Pipeline) transition(to State) {
	from := p.state
	p.state = to
	if p.opts.OnTransition != nil {
		p.opts.OnTransition(from, to)
	}
}

func (p *Pipeline) fail(err error) error {
	p.transition(StateFailed)
	return err
}
