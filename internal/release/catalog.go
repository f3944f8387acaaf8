package release

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// versionPattern matches the full trailing segment of a tag ref.
var versionPattern = regexp.MustCompile(`^v(\d+)\.(\d+)\.(\d+)-(.+)$`)

// MalformedVersionError reports a tag that does not follow
// v<major>.<minor>.<patch>-<channel>.
type MalformedVersionError struct {
	Ref    string
	Reason string
}

func (e *MalformedVersionError) Error() string {
	return fmt.Sprintf("malformed version tag %q: %s", e.Ref, e.Reason)
}

// Parse builds a Catalog from raw tag refs such as "refs/tags/v4.2.1-Prod".
//
// Refs that do not match are skipped and reported in the returned slice;
// they never abort the catalog. When two refs carry the same version string
// the later one wins.
func Parse(refs []string) (Catalog, []*MalformedVersionError) {
	catalog := make(Catalog, len(refs))
	var malformed []*MalformedVersionError

	for _, ref := range refs {
		entry, err := ParseRef(ref)
		if err != nil {
			malformed = append(malformed, err)
			continue
		}
		catalog[entry.DisplayName] = entry
	}

	return catalog, malformed
}

// ParseRef parses a single tag ref.
func ParseRef(ref string) (VersionEntry, *MalformedVersionError) {
	name := ref
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		name = ref[idx+1:]
	}

	m := versionPattern.FindStringSubmatch(name)
	if m == nil {
		return VersionEntry{}, &MalformedVersionError{
			Ref:    ref,
			Reason: "expected v<major>.<minor>.<patch>-<channel>",
		}
	}

	var parts [3]int
	for i := range parts {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return VersionEntry{}, &MalformedVersionError{
				Ref:    ref,
				Reason: fmt.Sprintf("version component %q out of range", m[i+1]),
			}
		}
		parts[i] = n
	}

	return VersionEntry{
		RawRef:      ref,
		Major:       parts[0],
		Minor:       parts[1],
		Patch:       parts[2],
		Channel:     Channel(m[4]),
		DisplayName: name,
	}, nil
}
