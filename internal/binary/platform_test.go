package binary

import (
	"strings"
	"testing"

	"github.com/ZebulonRouseFrantzich/exinstall/internal/platform"
)

func TestConstructDownloadInfo(t *testing.T) {
	tests := []struct {
		name        string
		os          string
		arch        string
		wordSize    platform.WordSize
		overrides   map[string]string
		expectedURL string
		wantErr     bool
	}{
		{
			name:        "windows_64bit",
			os:          "windows",
			arch:        "amd64",
			wordSize:    platform.WordSize64,
			expectedURL: arduinoCLIBase + "Windows_64bit.zip",
		},
		{
			name:        "windows_32bit",
			os:          "windows",
			arch:        "386",
			wordSize:    platform.WordSize32,
			expectedURL: arduinoCLIBase + "Windows_32bit.zip",
		},
		{
			name:        "linux_amd64",
			os:          "linux",
			arch:        "amd64",
			wordSize:    platform.WordSize64,
			expectedURL: arduinoCLIBase + "Linux_64bit.tar.gz",
		},
		{
			name:        "linux_armv7",
			os:          "linux",
			arch:        "arm",
			wordSize:    platform.WordSize32,
			expectedURL: arduinoCLIBase + "Linux_ARMv7.tar.gz",
		},
		{
			name:        "darwin_arm64",
			os:          "darwin",
			arch:        "arm64",
			wordSize:    platform.WordSize64,
			expectedURL: arduinoCLIBase + "macOS_ARM64.tar.gz",
		},
		{
			name:        "override_wins",
			os:          "linux",
			arch:        "amd64",
			wordSize:    platform.WordSize64,
			overrides:   map[string]string{"linux/amd64": "https://mirror.example.com/cli.tar.gz"},
			expectedURL: "https://mirror.example.com/cli.tar.gz",
		},
		{
			name:        "override_adds_platform",
			os:          "freebsd",
			arch:        "amd64",
			wordSize:    platform.WordSize64,
			overrides:   map[string]string{"freebsd/amd64": "https://mirror.example.com/cli_freebsd.tar.gz"},
			expectedURL: "https://mirror.example.com/cli_freebsd.tar.gz",
		},
		{
			name:     "unsupported_platform",
			os:       "freebsd",
			arch:     "amd64",
			wordSize: platform.WordSize64,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := &platform.Info{OS: tt.os, Arch: tt.arch, WordSize: tt.wordSize}
			src := ToolSource{Name: "arduino-cli", URLs: tt.overrides, ChecksumURL: "https://example.com/checksums.txt"}

			got, err := constructDownloadInfo(src, info)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if !strings.Contains(err.Error(), "unsupported platform") {
					t.Errorf("error = %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.URL != tt.expectedURL {
				t.Errorf("URL = %s, want %s", got.URL, tt.expectedURL)
			}
			if got.ChecksumURL != src.ChecksumURL || got.OS != tt.os || got.Arch != tt.arch {
				t.Errorf("DownloadInfo = %+v", got)
			}
		})
	}
}

func TestConstructDownloadInfoRequiresInputs(t *testing.T) {
	if _, err := constructDownloadInfo(ToolSource{Name: "arduino-cli"}, nil); err == nil {
		t.Error("expected error for nil platform info")
	}
	if _, err := constructDownloadInfo(ToolSource{}, &platform.Info{OS: "linux", Arch: "amd64"}); err == nil {
		t.Error("expected error for empty tool name")
	}
}

func TestArchiveBaseName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://downloads.arduino.cc/arduino-cli/arduino-cli_latest_Linux_64bit.tar.gz", "arduino-cli_latest_Linux_64bit.tar.gz"},
		{"https://example.com/dl/cli.zip?token=abc", "cli.zip"},
		{"https://example.com/releases/checksums.txt", "checksums.txt"},
	}
	for _, tt := range tests {
		if got := archiveBaseName(tt.url); got != tt.want {
			t.Errorf("archiveBaseName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}

	info := &DownloadInfo{URL: tests[1].url}
	if info.ArchiveName() != "cli.zip" {
		t.Errorf("ArchiveName() = %q", info.ArchiveName())
	}
}
