// Package receipt records what an installer run put into a build directory.
//
// The receipt is a small TOML file written next to the installed source
// tree once the run reaches Installed. It is informational: nothing in the
// installer reads it back to make decisions.
package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
)

// FileName is the receipt's name inside the build directory.
const FileName = "exinstall-receipt.toml"

// SchemaVersion is bumped whenever a field changes meaning.
const SchemaVersion = 1

// ErrUnsupportedVersion is returned by Read for receipts from a newer schema.
var ErrUnsupportedVersion = errors.New("unsupported receipt version")

// Receipt describes one completed install.
type Receipt struct {
	Version     int       `toml:"version"`
	RunID       string    `toml:"run_id"`
	StartedAt   time.Time `toml:"started_at"`
	CompletedAt time.Time `toml:"completed_at"`

	Release Release  `toml:"release"`
	Tool    Tool     `toml:"tool"`
	Paths   Paths    `toml:"paths"`
	Devices []string `toml:"devices,omitempty"`
}

// Release identifies the installed firmware release.
type Release struct {
	Name       string `toml:"name"`
	Version    string `toml:"version"`
	Channel    string `toml:"channel"`
	Ref        string `toml:"ref"`
	ArchiveURL string `toml:"archive_url"`
}

// Tool records the build tool used for the install.
type Tool struct {
	Path string `toml:"path"`
}

// Paths records the filesystem layout of the build directory.
type Paths struct {
	BuildDir   string `toml:"build_dir"`
	InstallDir string `toml:"install_dir"`
	Archive    string `toml:"archive"`
}

// New creates a receipt with a fresh run ID.
func New(startedAt time.Time) *Receipt {
	return &Receipt{
		Version:   SchemaVersion,
		RunID:     uuid.New().String(),
		StartedAt: startedAt.UTC().Truncate(time.Second),
	}
}

// Path returns the receipt location for a build directory.
func Path(buildDir string) string {
	return filepath.Join(buildDir, FileName)
}

// Write saves the receipt into buildDir atomically and returns its path.
func (r *Receipt) Write(buildDir string) (string, error) {
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(r); err != nil {
		return "", fmt.Errorf("marshal receipt: %w", err)
	}

	finalPath := Path(buildDir)
	tmpPath := finalPath + ".tmp"

	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write temporary receipt: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename receipt: %w", err)
	}

	return finalPath, nil
}

// Read loads a receipt. Unknown keys are rejected so a hand-edited or
// foreign file is not silently misread.
func Read(path string) (*Receipt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read receipt: %w", err)
	}

	var r Receipt
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&r); err != nil {
		return nil, fmt.Errorf("parse receipt %s: %w", path, err)
	}

	if r.Version > SchemaVersion {
		return nil, fmt.Errorf("%w: %d (this installer writes %d)", ErrUnsupportedVersion, r.Version, SchemaVersion)
	}

	return &r, nil
}
