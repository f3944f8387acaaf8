package binary

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/ZebulonRouseFrantzich/exinstall/internal/platform"
)

const arduinoCLIBase = "https://downloads.arduino.cc/arduino-cli/arduino-cli_latest_"

// DefaultToolURLs maps "<os>/<arch>" to the latest arduino-cli archive.
// The kernel architecture decides between the 32-bit and 64-bit builds.
var DefaultToolURLs = map[string]string{
	"windows/386":   arduinoCLIBase + "Windows_32bit.zip",
	"windows/amd64": arduinoCLIBase + "Windows_64bit.zip",
	"windows/arm64": arduinoCLIBase + "Windows_64bit.zip",
	"linux/386":     arduinoCLIBase + "Linux_32bit.tar.gz",
	"linux/amd64":   arduinoCLIBase + "Linux_64bit.tar.gz",
	"linux/arm":     arduinoCLIBase + "Linux_ARMv7.tar.gz",
	"linux/arm64":   arduinoCLIBase + "Linux_ARM64.tar.gz",
	"darwin/amd64":  arduinoCLIBase + "macOS_64bit.tar.gz",
	"darwin/arm64":  arduinoCLIBase + "macOS_ARM64.tar.gz",
}

// ToolSource names where the tool comes from. URLs entries override
// DefaultToolURLs for the same key.
type ToolSource struct {
	Name         string
	URLs         map[string]string
	ChecksumURL  string
	SignatureURL string
}

// constructDownloadInfo resolves the archive URL for the host platform.
func constructDownloadInfo(src ToolSource, platformInfo *platform.Info) (*DownloadInfo, error) {
	if platformInfo == nil {
		return nil, fmt.Errorf("platform info is required")
	}
	if src.Name == "" {
		return nil, fmt.Errorf("tool name is required")
	}

	key := platformInfo.Key()
	archiveURL, ok := src.URLs[key]
	if !ok {
		archiveURL, ok = DefaultToolURLs[key]
	}
	if !ok {
		return nil, fmt.Errorf("unsupported platform for %s: %s (%d-bit)", src.Name, key, platformInfo.WordSize)
	}

	return &DownloadInfo{
		Name:         src.Name,
		OS:           platformInfo.OS,
		Arch:         platformInfo.Arch,
		URL:          archiveURL,
		SignatureURL: src.SignatureURL,
		ChecksumURL:  src.ChecksumURL,
	}, nil
}

// archiveBaseName returns the last path element of a URL, ignoring any
// query string.
func archiveBaseName(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(strings.SplitN(rawURL, "?", 2)[0])
}
