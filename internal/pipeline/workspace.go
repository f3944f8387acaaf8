package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/exinstall/internal/release"
)

// Workspace holds the paths one run reads and extends. It is created by
// the caller and filled in as steps complete.
type Workspace struct {
	BuildDir    string // where the archive is downloaded and extracted
	ToolPath    string // build tool executable, set by EnsureDependencyTool
	ArchivePath string // <BuildDir>/<repo>.zip
	InstallDir  string // <BuildDir>/<repo>, the canonical source tree
}

// NewWorkspace derives the fixed archive and install paths for repoName
// inside buildDir.
func NewWorkspace(buildDir, repoName string) Workspace {
	return Workspace{
		BuildDir:    buildDir,
		ArchivePath: filepath.Join(buildDir, repoName+".zip"),
		InstallDir:  filepath.Join(buildDir, repoName),
	}
}

// ExtractedFolderName is the top-level folder GitHub puts in a tag
// archive: the repository name and the tag without its leading "v".
func ExtractedFolderName(repoName string, entry release.VersionEntry) string {
	return repoName + "-" + strings.TrimPrefix(entry.DisplayName, "v")
}
