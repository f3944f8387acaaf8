package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

// Exit statuses not owned by the pipeline.
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

// streams are the process's standard streams, replaceable in tests.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], streams{in: os.Stdin, out: os.Stdout, err: os.Stderr})
	stop()
	os.Exit(code)
}

// run dispatches a subcommand and returns the process exit status.
// With no subcommand it installs.
func run(ctx context.Context, args []string, s streams) int {
	command := "install"
	if len(args) > 0 {
		switch args[0] {
		case "--version", "version":
			fmt.Fprintf(s.out, "exinstall %s\n", Version)
			fmt.Fprintln(s.out, "CommandStation-EX bootstrap installer")
			return exitOK
		case "help", "--help", "-h":
			printHelp(s.out)
			return exitOK
		case "install":
			args = args[1:]
		case "devices":
			command = "devices"
			args = args[1:]
		}
	}

	var err error
	switch command {
	case "install":
		err = runInstall(ctx, args, s)
	case "devices":
		err = runDevices(ctx, args, s)
	}
	return exitStatus(err, s.err)
}

// exitStatus prints err and maps it to an exit status. Errors that carry
// their own status through an ExitCode method keep it.
func exitStatus(err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}

	var silent *silentExit
	if errors.As(err, &silent) {
		return silent.code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)

	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return exitFailure
}

// usageError marks bad flags or configuration.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }
func (e *usageError) ExitCode() int { return exitUsage }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// silentExit ends the process with code after the command has already
// reported the outcome itself.
type silentExit struct {
	code int
}

func (e *silentExit) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e *silentExit) ExitCode() int { return e.code }

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "exinstall - CommandStation-EX bootstrap installer")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Downloads the arduino-cli build tool, lets you pick a CommandStation-EX")
	fmt.Fprintln(w, "release, and stages its source tree in a fresh build directory.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  exinstall [install] [flags]   Pick and install a release")
	fmt.Fprintln(w, "  exinstall devices [flags]     List connected devices with the cached build tool")
	fmt.Fprintln(w, "  exinstall --version           Show version information")
	fmt.Fprintln(w, "  exinstall help                Show this help")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, newFlagSet("exinstall", &options{}).FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit status:")
	fmt.Fprintln(w, "  0 installed or cancelled, 2 bad flags or config,")
	fmt.Fprintln(w, "  10 build directory, 11 build tool download, 12 release list,")
	fmt.Fprintln(w, "  13 release download, 14 release extraction, 15 relocation, 130 interrupted")
}
