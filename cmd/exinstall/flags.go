package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/exinstall/internal/config"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/platform"
	"github.com/spf13/pflag"
)

// options holds the command-line flags shared by install and devices.
type options struct {
	configPath string
	buildDir   string
	buildRoot  string
	timeout    time.Duration
	retries    int
	channels   []string
	quiet      bool
	verbose    bool
	noColor    bool
}

func newFlagSet(name string, o *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	fs.StringVarP(&o.configPath, "config", "c", "", "Lua config file (default $"+config.EnvConfigPath+" or "+config.DefaultConfigPath+")")
	fs.StringVar(&o.buildDir, "build-dir", "", "exact build directory to use")
	fs.StringVar(&o.buildRoot, "build-root", "", "parent of the timestamped build directory (default current directory)")
	fs.DurationVar(&o.timeout, "timeout", config.DefaultTimeout, "timeout for each HTTP request")
	fs.IntVar(&o.retries, "retries", 0, "extra attempts per download")
	fs.StringArrayVar(&o.channels, "channel", nil, "offer LIMIT newest releases of channel NAME, as NAME=LIMIT (repeatable)")
	fs.BoolVarP(&o.quiet, "quiet", "q", false, "only print the menu and errors")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "print debug logs")
	fs.BoolVar(&o.noColor, "no-color", false, "disable colored output")
	return fs
}

// parseFlags parses args and rejects positional arguments.
func parseFlags(name string, args []string, stdout io.Writer) (*options, *pflag.FlagSet, error) {
	o := &options{}
	fs := newFlagSet(name, o)
	fs.BoolP("help", "h", false, "show help")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stdout)
			return nil, nil, &silentExit{code: exitOK}
		}
		return nil, nil, usagef("%v", err)
	}
	if help, _ := fs.GetBool("help"); help {
		printHelp(stdout)
		return nil, nil, &silentExit{code: exitOK}
	}
	if fs.NArg() > 0 {
		return nil, nil, usagef("unexpected argument: %s", fs.Arg(0))
	}
	if o.quiet && o.verbose {
		return nil, nil, usagef("--quiet and --verbose cannot be combined")
	}

	return o, fs, nil
}

// loadConfig resolves the config file, applies flag overrides and
// validates the result. Config problems are usage errors.
func loadConfig(ctx context.Context, o *options, fs *pflag.FlagSet, detector platform.Detector) (*config.Config, string, error) {
	cfg, path, err := config.NewParser(detector).Load(ctx, o.configPath, os.Getenv)
	if err != nil {
		msg := config.FormatError(err, o.verbose)
		if path != "" {
			return nil, path, usagef("load config %s: %s", path, msg)
		}
		return nil, path, usagef("load config: %s", msg)
	}

	if err := applyFlags(cfg, o, fs); err != nil {
		return nil, path, err
	}
	if err := cfg.ExpandPaths(); err != nil {
		return nil, path, usagef("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, usagef("%v", err)
	}

	return cfg, path, nil
}

// applyFlags overrides config values with flags the user actually set.
func applyFlags(cfg *config.Config, o *options, fs *pflag.FlagSet) error {
	if fs.Changed("build-dir") {
		cfg.BuildDir = o.buildDir
	}
	if fs.Changed("build-root") {
		cfg.BuildRoot = o.buildRoot
	}
	if fs.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if fs.Changed("retries") {
		cfg.Retries = o.retries
	}
	if fs.Changed("quiet") {
		cfg.Output.Quiet = o.quiet
	}
	if fs.Changed("verbose") {
		cfg.Output.Verbose = o.verbose
	}
	if fs.Changed("no-color") {
		cfg.Output.NoColor = o.noColor
	}

	for _, raw := range o.channels {
		name, limit, err := parseChannel(raw)
		if err != nil {
			return err
		}
		if cfg.Channels == nil {
			cfg.Channels = make(map[string]int)
		}
		cfg.Channels[name] = limit
	}

	return nil
}

// parseChannel parses NAME=LIMIT.
func parseChannel(raw string) (string, int, error) {
	name, value, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", 0, usagef("invalid --channel %q: want NAME=LIMIT", raw)
	}
	limit, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || limit < 0 {
		return "", 0, usagef("invalid --channel %q: LIMIT must be a non-negative integer", raw)
	}
	return name, limit, nil
}

// newLogger builds the stderr logger: warnings by default, debug with
// --verbose, errors only with --quiet.
func newLogger(w io.Writer, out config.Output) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case out.Verbose:
		level = slog.LevelDebug
	case out.Quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// detectPlatform wraps detection failures for the console.
func detectPlatform(ctx context.Context, detector platform.Detector) (*platform.Info, error) {
	info, err := detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}
	return info, nil
}
