// Package release turns the remote tag list of the CommandStation-EX
// repository into structured version entries and derives the bounded
// candidate list an operator picks from.
//
// Both operations are pure: no I/O, no shared state.
package release

import "fmt"

// Channel is the release maturity label trailing a version tag.
// Unrecognized labels are kept verbatim.
type Channel string

const (
	// ChannelProd marks production releases.
	ChannelProd Channel = "Prod"
	// ChannelDevel marks development releases.
	ChannelDevel Channel = "Devel"
)

// String returns the channel label.
func (c Channel) String() string {
	return string(c)
}

// DefaultChannelLimits are the per-channel inclusion limits used when no
// configuration overrides them.
func DefaultChannelLimits() map[Channel]int {
	return map[Channel]int{
		ChannelProd:  2,
		ChannelDevel: 2,
	}
}

// VersionEntry is one parsed remote tag.
type VersionEntry struct {
	RawRef      string  // ref as returned by the hosting API, used verbatim in download URLs
	Major       int     // major version component
	Minor       int     // minor version component
	Patch       int     // patch version component
	Channel     Channel // release maturity label
	DisplayName string  // original version string, e.g. "v4.2.1-Prod"
}

// Version returns the dotted numeric version without prefix or channel.
func (e VersionEntry) Version() string {
	return fmt.Sprintf("%d.%d.%d", e.Major, e.Minor, e.Patch)
}

// Less reports whether e sorts below other by (major, minor, patch).
func (e VersionEntry) Less(other VersionEntry) bool {
	if e.Major != other.Major {
		return e.Major < other.Major
	}
	if e.Minor != other.Minor {
		return e.Minor < other.Minor
	}
	return e.Patch < other.Patch
}

// Catalog maps a version string (DisplayName) to its entry.
// It is built once per run and treated as immutable afterwards.
type Catalog map[string]VersionEntry

// Candidate is one selectable line of a CandidateList.
type Candidate struct {
	Index int           // 1-based selection index
	Entry *VersionEntry // nil for the exit sentinel
}

// IsExit reports whether the candidate is the exit sentinel.
func (c Candidate) IsExit() bool {
	return c.Entry == nil
}

// Label returns the text shown to the operator for this candidate.
func (c Candidate) Label() string {
	if c.IsExit() {
		return "Exit"
	}
	return c.Entry.DisplayName
}

// CandidateList is the ordered selection menu produced by Rank.
// The last element is always the exit sentinel.
type CandidateList []Candidate

// Sentinel returns the trailing exit candidate.
func (l CandidateList) Sentinel() Candidate {
	if len(l) == 0 {
		return Candidate{Index: 1}
	}
	return l[len(l)-1]
}

// Releases returns the candidates excluding the exit sentinel.
func (l CandidateList) Releases() []Candidate {
	if len(l) == 0 {
		return nil
	}
	return l[:len(l)-1]
}

// Lookup resolves a selection index. ok is false when index lies outside
// [1, Sentinel().Index].
func (l CandidateList) Lookup(index int) (Candidate, bool) {
	if index < 1 || index > len(l) {
		return Candidate{}, false
	}
	return l[index-1], true
}
