package main

import (
	"fmt"
	"io"

	"github.com/ZebulonRouseFrantzich/exinstall/internal/buildtool"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/config"
	"github.com/ZebulonRouseFrantzich/exinstall/internal/pipeline"
	"github.com/fatih/color"
)

// console prints progress lines for the operator.
type console struct {
	out   io.Writer
	quiet bool

	ok   *color.Color
	warn *color.Color
	bold *color.Color
}

func newConsole(out io.Writer, o config.Output) *console {
	c := &console{
		out:   out,
		quiet: o.Quiet,
		ok:    color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		bold:  color.New(color.Bold),
	}
	if o.NoColor {
		c.ok.DisableColor()
		c.warn.DisableColor()
		c.bold.DisableColor()
	}
	return c
}

// stepMessages describes what reaching each state means.
var stepMessages = map[pipeline.State]string{
	pipeline.StateDirectoryReady:    "Build directory ready",
	pipeline.StateToolReady:         "Build tool ready",
	pipeline.StateCatalogFetched:    "Release list fetched",
	pipeline.StateArchiveDownloaded: "Release archive downloaded",
	pipeline.StateExtracted:         "Release archive extracted",
	pipeline.StateInstalled:         "Release installed",
}

// transition is the pipeline's OnTransition hook.
func (c *console) transition(from, to pipeline.State) {
	if c.quiet {
		return
	}
	if to == pipeline.StateIdle && from != pipeline.StateIdle {
		fmt.Fprintln(c.out, "Installation cancelled.")
		return
	}
	if msg, ok := stepMessages[to]; ok {
		c.ok.Fprint(c.out, "✓ ")
		fmt.Fprintln(c.out, msg)
	}
}

func (c *console) warning(err error) {
	if c.quiet {
		return
	}
	c.warn.Fprint(c.out, "⚠ ")
	fmt.Fprintln(c.out, err)
}

func (c *console) devices(devices []buildtool.Device) {
	if len(devices) == 0 {
		fmt.Fprintln(c.out, "No connected devices detected.")
		return
	}
	c.bold.Fprintln(c.out, "Connected devices:")
	for _, d := range devices {
		fmt.Fprintf(c.out, "  %s\n", d)
	}
}
