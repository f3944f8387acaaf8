// Package binary bootstraps the external build tool the installer hands
// firmware sources to. The tool is fetched on demand from a per-platform
// URL, optionally verified, extracted into a cache directory that outlives
// the process, and reused on every later run.
//
// # Verification
//
// Verification is opt-in because the upstream "latest" archives move:
//   - A detached OpenPGP signature is checked against a configured keyring
//     when a signature URL is set.
//   - A SHA256 entry in a checksums.txt file is checked when a checksum URL
//     is set.
//
// A failed verification is reported as a fetch failure; the archive is
// never extracted.
//
// # Usage
//
//	mgr, err := binary.NewManager(binary.Config{
//	    Name:         "arduino-cli",
//	    CacheDir:     filepath.Join(os.TempDir(), "arduino-cli_installer"),
//	    PlatformInfo: info,
//	})
//	if err != nil {
//	    return err
//	}
//	toolPath, err := mgr.EnsureTool(ctx)
//
// # Architecture
//
// The package is organized into several components:
//   - Manager: skip-if-present check, download, verify, extract
//   - Downloader: HTTP download to a temp file with atomic rename
//   - Verifier: GPG and SHA256 verification
//   - Extractor: zip and tar.gz extraction with path traversal guards
//   - Platform: the "<os>/<arch>" download URL table
package binary
