// Package prompt asks the operator to pick a release from a numbered menu.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ZebulonRouseFrantzich/exinstall/internal/release"
	"github.com/fatih/color"
)

// ErrNoInput is returned when input ends before a valid choice is read.
var ErrNoInput = errors.New("no selection provided")

// Options configures a Selector. Nil In and Out default to the process's
// standard streams.
type Options struct {
	In      io.Reader
	Out     io.Writer
	NoColor bool
}

// Selector prints the candidate list and reads one integer per line.
type Selector struct {
	in  *bufio.Reader
	out io.Writer

	heading *color.Color
	index   *color.Color
	warn    *color.Color
}

// NewSelector creates a Selector.
func NewSelector(opts Options) *Selector {
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	s := &Selector{
		in:      bufio.NewReader(in),
		out:     out,
		heading: color.New(color.Bold),
		index:   color.New(color.FgCyan),
		warn:    color.New(color.FgYellow),
	}
	if opts.NoColor {
		s.heading.DisableColor()
		s.index.DisableColor()
		s.warn.DisableColor()
	}
	return s
}

// Select shows candidates and blocks until the operator enters an index in
// [1, sentinel]. Anything else is rejected and the prompt repeats. The exit
// sentinel is returned like any other candidate.
func (s *Selector) Select(ctx context.Context, candidates release.CandidateList) (release.Candidate, error) {
	if len(candidates) == 0 {
		return release.Candidate{}, fmt.Errorf("no candidates to select from")
	}

	s.render(candidates)
	last := candidates.Sentinel().Index

	for {
		if err := ctx.Err(); err != nil {
			return release.Candidate{}, err
		}

		_, _ = fmt.Fprintf(s.out, "\nChoice [1-%d]: ", last)
		line, readErr := s.readLine(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return release.Candidate{}, ctxErr
		}
		input := strings.TrimSpace(line)

		if input != "" {
			if n, err := strconv.Atoi(input); err == nil {
				if c, ok := candidates.Lookup(n); ok {
					return c, nil
				}
			}
			_, _ = s.warn.Fprintf(s.out, "Invalid choice %q: enter a number between 1 and %d\n", input, last)
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return release.Candidate{}, ErrNoInput
			}
			return release.Candidate{}, fmt.Errorf("read selection: %w", readErr)
		}
	}
}

type readResult struct {
	line string
	err  error
}

// readLine reads one line but gives up when ctx is done. An abandoned
// read keeps its goroutine until input arrives; the Selector must not be
// used after a cancelled Select.
func (s *Selector) readLine(ctx context.Context) (string, error) {
	ch := make(chan readResult, 1)
	go func() {
		line, err := s.in.ReadString('\n')
		ch <- readResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

func (s *Selector) render(candidates release.CandidateList) {
	if len(candidates.Releases()) == 0 {
		_, _ = s.warn.Fprintln(s.out, "No releases match the configured channels.")
	}
	_, _ = s.heading.Fprintln(s.out, "Select a CommandStation-EX release to install:")
	width := len(strconv.Itoa(candidates.Sentinel().Index))
	for _, c := range candidates {
		_, _ = fmt.Fprint(s.out, "  ")
		_, _ = s.index.Fprintf(s.out, "%*d.", width, c.Index)
		_, _ = fmt.Fprintf(s.out, " %s\n", c.Label())
	}
}
