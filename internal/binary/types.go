package binary

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrToolFetch marks a failure to download or verify the tool archive.
	ErrToolFetch = errors.New("tool fetch failed")
	// ErrToolExtract marks a failure to unpack a downloaded tool archive.
	ErrToolExtract = errors.New("tool extract failed")
)

// VerificationMethod indicates how a download was verified
type VerificationMethod int

const (
	// VerificationNone means no checksum or signature was configured
	VerificationNone VerificationMethod = iota
	// VerificationGPG indicates GPG signature verification was used
	VerificationGPG
	// VerificationSHA256 indicates SHA256 checksum verification was used
	VerificationSHA256
)

// String returns the string representation of the verification method
func (v VerificationMethod) String() string {
	switch v {
	case VerificationGPG:
		return "GPG"
	case VerificationSHA256:
		return "SHA256"
	case VerificationNone:
		return "None"
	default:
		return "Unknown"
	}
}

// DownloadInfo contains metadata needed to download the tool
type DownloadInfo struct {
	Name         string // executable name without suffix
	OS           string // "linux", "darwin", "windows"
	Arch         string // "386", "amd64", "arm", "arm64"
	URL          string // archive URL
	SignatureURL string // detached signature URL (may be empty)
	ChecksumURL  string // checksums.txt URL (may be empty)
}

// ArchiveName returns the file name the archive is cached under.
func (d *DownloadInfo) ArchiveName() string {
	return archiveBaseName(d.URL)
}

// DownloadResult contains information about a completed download
type DownloadResult struct {
	Path         string
	Verified     VerificationMethod
	DownloadTime time.Duration
}

// VerificationResult contains the outcome of a verification attempt
type VerificationResult struct {
	Method  VerificationMethod
	Success bool
	Error   error
}

// String summarizes the verification outcome.
func (r *VerificationResult) String() string {
	if r.Success {
		return fmt.Sprintf("%s: ok", r.Method)
	}
	return fmt.Sprintf("%s: failed: %v", r.Method, r.Error)
}
