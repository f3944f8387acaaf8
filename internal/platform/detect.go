package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect reports the host OS and architecture class.
//
// The architecture comes from the kernel via gopsutil, not from GOARCH: a
// 32-bit build of the installer running on a 64-bit Windows must still
// fetch the 64-bit toolchain. If gopsutil cannot answer, GOARCH is used.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	raw := runtime.GOARCH

	hostInfo, err := host.InfoWithContext(ctx)
	if err != nil && ctx.Err() != nil {
		return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
	}
	if err == nil && hostInfo != nil && hostInfo.KernelArch != "" {
		raw = hostInfo.KernelArch
	}

	return newInfo(runtime.GOOS, raw)
}

func newInfo(goos, rawArch string) (*Info, error) {
	arch, size, err := normalizeArch(rawArch)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}

	return &Info{
		OS:       goos,
		Arch:     arch,
		ArchRaw:  rawArch,
		WordSize: size,
	}, nil
}
