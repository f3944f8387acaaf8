// Package platform answers the one host question the installer needs:
// which operating system it runs on and whether that system is 32-bit or
// 64-bit. The answer is resolved once at startup and also exposed to Lua
// configuration as a read-only table.
package platform

import "context"

// WordSize is the native integer width of the host operating system.
type WordSize int

const (
	WordSize32 WordSize = 32
	WordSize64 WordSize = 64
)

// Info contains platform detection information.
type Info struct {
	OS       string   // "linux", "darwin", "windows"
	Arch     string   // "386", "amd64", "arm", "arm64" (normalized)
	ArchRaw  string   // kernel-reported architecture (e.g., "x86_64", "armv7l")
	WordSize WordSize // 32 or 64, taken from the kernel rather than the binary
}

// Key returns the "<os>/<arch>" lookup key used by per-platform tables.
func (i *Info) Key() string {
	return i.OS + "/" + i.Arch
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// Is64Bit returns true if the host operating system is 64-bit.
func (i *Info) Is64Bit() bool {
	return i.WordSize == WordSize64
}

// ExecutableName appends the platform executable suffix to name.
func (i *Info) ExecutableName(name string) string {
	if i.IsWindows() {
		return name + ".exe"
	}
	return name
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// StaticDetector returns a fixed Info. Useful when the platform is already
// known, e.g. in tests or when forced from configuration.
type StaticDetector struct {
	Info *Info
	Err  error
}

// Detect returns the configured info and error.
func (s StaticDetector) Detect(ctx context.Context) (*Info, error) {
	return s.Info, s.Err
}
