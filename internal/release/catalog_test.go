package release

import (
	"fmt"
	"testing"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    VersionEntry
		wantErr bool
	}{
		{
			name: "prod_tag",
			ref:  "refs/tags/v4.2.1-Prod",
			want: VersionEntry{RawRef: "refs/tags/v4.2.1-Prod", Major: 4, Minor: 2, Patch: 1, Channel: ChannelProd, DisplayName: "v4.2.1-Prod"},
		},
		{
			name: "devel_tag",
			ref:  "refs/tags/v5.0.12-Devel",
			want: VersionEntry{RawRef: "refs/tags/v5.0.12-Devel", Major: 5, Minor: 0, Patch: 12, Channel: ChannelDevel, DisplayName: "v5.0.12-Devel"},
		},
		{
			name: "unrecognized_channel_kept_verbatim",
			ref:  "refs/tags/v3.1.0-Beta-rc1",
			want: VersionEntry{RawRef: "refs/tags/v3.1.0-Beta-rc1", Major: 3, Minor: 1, Patch: 0, Channel: "Beta-rc1", DisplayName: "v3.1.0-Beta-rc1"},
		},
		{
			name: "bare_version_string",
			ref:  "v1.0.0-Prod",
			want: VersionEntry{RawRef: "v1.0.0-Prod", Major: 1, Channel: ChannelProd, DisplayName: "v1.0.0-Prod"},
		},
		{name: "missing_channel", ref: "refs/tags/v4.2.1", wantErr: true},
		{name: "missing_prefix", ref: "refs/tags/4.2.1-Prod", wantErr: true},
		{name: "two_components", ref: "refs/tags/v4.2-Prod", wantErr: true},
		{name: "empty_channel", ref: "refs/tags/v4.2.1-", wantErr: true},
		{name: "non_numeric", ref: "refs/tags/vX.2.1-Prod", wantErr: true},
		{name: "overflow", ref: "refs/tags/v99999999999999999999.0.0-Prod", wantErr: true},
		{name: "empty", ref: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRef(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRef(%q) expected error, got %+v", tt.ref, got)
				}
				if err.Ref != tt.ref {
					t.Errorf("error Ref = %q, want %q", err.Ref, tt.ref)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRef(%q) unexpected error: %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("ParseRef(%q) = %+v, want %+v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestParseRoundTripsDisplayName(t *testing.T) {
	for major := 0; major < 3; major++ {
		for _, channel := range []string{"Prod", "Devel", "Nightly"} {
			name := fmt.Sprintf("v%d.%d.%d-%s", major, major+1, major+2, channel)
			entry, err := ParseRef("refs/tags/" + name)
			if err != nil {
				t.Fatalf("ParseRef(%q): %v", name, err)
			}
			rebuilt := fmt.Sprintf("v%d.%d.%d-%s", entry.Major, entry.Minor, entry.Patch, entry.Channel)
			if rebuilt != name || entry.DisplayName != name {
				t.Errorf("round trip of %q gave %q / %q", name, rebuilt, entry.DisplayName)
			}
		}
	}
}

func TestParseSkipsMalformed(t *testing.T) {
	refs := []string{
		"refs/tags/v4.2.1-Prod",
		"refs/tags/latest",
		"refs/tags/v4.2.0-Prod",
		"refs/tags/v4.2",
	}

	catalog, malformed := Parse(refs)

	if len(catalog) != 2 {
		t.Fatalf("catalog size = %d, want 2", len(catalog))
	}
	if _, ok := catalog["v4.2.1-Prod"]; !ok {
		t.Error("catalog missing v4.2.1-Prod")
	}
	if len(malformed) != 2 {
		t.Fatalf("malformed count = %d, want 2", len(malformed))
	}
	if malformed[0].Ref != "refs/tags/latest" {
		t.Errorf("first malformed ref = %q", malformed[0].Ref)
	}
}

func TestParseDuplicateLastWins(t *testing.T) {
	refs := []string{
		"refs/tags/v4.2.1-Prod",
		"refs/heads/mirror/v4.2.1-Prod",
	}

	catalog, malformed := Parse(refs)
	if len(malformed) != 0 {
		t.Fatalf("unexpected malformed: %v", malformed)
	}
	if len(catalog) != 1 {
		t.Fatalf("catalog size = %d, want 1", len(catalog))
	}
	if got := catalog["v4.2.1-Prod"].RawRef; got != "refs/heads/mirror/v4.2.1-Prod" {
		t.Errorf("RawRef = %q, want the later ref", got)
	}
}

func TestParseEmpty(t *testing.T) {
	catalog, malformed := Parse(nil)
	if len(catalog) != 0 || len(malformed) != 0 {
		t.Errorf("Parse(nil) = %v, %v", catalog, malformed)
	}
}
