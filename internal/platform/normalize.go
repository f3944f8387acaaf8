package platform

import (
	"fmt"
	"strings"
)

// archTable maps kernel and GOARCH spellings to a normalized architecture
// and its word size.
var archTable = map[string]struct {
	arch string
	size WordSize
}{
	"amd64":   {"amd64", WordSize64},
	"x86_64":  {"amd64", WordSize64},
	"x64":     {"amd64", WordSize64},
	"386":     {"386", WordSize32},
	"i386":    {"386", WordSize32},
	"i686":    {"386", WordSize32},
	"x86":     {"386", WordSize32},
	"arm64":   {"arm64", WordSize64},
	"aarch64": {"arm64", WordSize64},
	"arm":     {"arm", WordSize32},
	"armv6l":  {"arm", WordSize32},
	"armv7l":  {"arm", WordSize32},
}

// normalizeArch converts kernel or GOARCH architecture names to the
// normalized name and word size.
func normalizeArch(arch string) (string, WordSize, error) {
	entry, ok := archTable[strings.ToLower(strings.TrimSpace(arch))]
	if !ok {
		return "", 0, fmt.Errorf("unsupported architecture: %q", arch)
	}
	return entry.arch, entry.size, nil
}
