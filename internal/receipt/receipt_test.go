package receipt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNew(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 30, 45, 123456789, time.FixedZone("CET", 3600))
	r := New(started)

	if r.Version != SchemaVersion {
		t.Errorf("Version = %d, want %d", r.Version, SchemaVersion)
	}
	if _, err := uuid.Parse(r.RunID); err != nil {
		t.Errorf("RunID %q is not a UUID: %v", r.RunID, err)
	}
	if want := time.Date(2026, 3, 1, 11, 30, 45, 0, time.UTC); !r.StartedAt.Equal(want) || r.StartedAt.Location() != time.UTC {
		t.Errorf("StartedAt = %v, want %v", r.StartedAt, want)
	}
	if New(started).RunID == r.RunID {
		t.Error("run IDs should be unique")
	}
}

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	r := New(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	r.CompletedAt = r.StartedAt.Add(90 * time.Second)
	r.Release = Release{
		Name:       "v4.2.1-Prod",
		Version:    "4.2.1",
		Channel:    "Prod",
		Ref:        "refs/tags/v4.2.1-Prod",
		ArchiveURL: "https://github.com/DCC-EX/CommandStation-EX/archive/refs/tags/v4.2.1-Prod.zip",
	}
	r.Tool.Path = "/tmp/arduino-cli_installer/arduino-cli"
	r.Paths = Paths{
		BuildDir:   dir,
		InstallDir: filepath.Join(dir, "CommandStation-EX"),
		Archive:    filepath.Join(dir, "CommandStation-EX.zip"),
	}
	r.Devices = []string{"/dev/ttyACM0 (Arduino Mega [arduino:avr:mega])"}

	path, err := r.Write(dir)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if path != Path(dir) {
		t.Errorf("Write() path = %q, want %q", path, Path(dir))
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"run_id = ", "[release]", "channel = 'Prod'", "[paths]"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("receipt missing %q:\n%s", want, data)
		}
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.RunID != r.RunID || got.Release != r.Release || got.Paths != r.Paths || got.Tool != r.Tool {
		t.Errorf("Read() = %+v, want %+v", got, r)
	}
	if !got.CompletedAt.Equal(r.CompletedAt) {
		t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, r.CompletedAt)
	}
	if len(got.Devices) != 1 || got.Devices[0] != r.Devices[0] {
		t.Errorf("Devices = %v", got.Devices)
	}
}

func TestWriteMissingDir(t *testing.T) {
	r := New(time.Now())
	if _, err := r.Write(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error writing into a missing directory")
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantIs  error
	}{
		{name: "newer_version", content: "version = 99\nrun_id = 'x'\n", wantIs: ErrUnsupportedVersion},
		{name: "unknown_key", content: "version = 1\nunexpected = true\n"},
		{name: "syntax_error", content: "version = \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			_, err := Read(path)
			if err == nil {
				t.Fatal("Read() expected error")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("Read() error = %v, want %v", err, tt.wantIs)
			}
		})
	}

	if _, err := Read(filepath.Join(t.TempDir(), "absent.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}
}
