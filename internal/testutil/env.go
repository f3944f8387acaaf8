// Package testutil provides utilities for testing the installer in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
)

// Env describes the isolated directories created by SetupTestEnv.
type Env struct {
	Root    string // parent of everything below
	Home    string // $HOME
	TempDir string // $TMPDIR, where the tool cache lives
	Builds  string // a build root for installer runs
}

// SetupTestEnv points HOME and TMPDIR at fresh temp directories so tests
// never touch the user's config file, tool cache, or build trees.
//
// The cleanup function is automatically handled by t.TempDir(),
// so callers don't need to manually clean up.
func SetupTestEnv(t *testing.T) Env {
	t.Helper()

	root := t.TempDir()
	env := Env{
		Root:    root,
		Home:    filepath.Join(root, "home"),
		TempDir: filepath.Join(root, "tmp"),
		Builds:  filepath.Join(root, "builds"),
	}

	for _, dir := range []string{env.Home, env.TempDir, env.Builds} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	t.Setenv("HOME", env.Home)
	t.Setenv("USERPROFILE", env.Home)
	t.Setenv("TMPDIR", env.TempDir)
	t.Setenv("EXINSTALL_CONFIG", "")

	// go-homedir caches the first lookup; tests change HOME.
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	return env
}
