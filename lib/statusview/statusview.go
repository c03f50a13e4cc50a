// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

// Package statusview renders access-state snapshots for the terminal.
//
// Two forms match the historic simulator output: a compact single line
// per state transition, and a verbose per-agent listing that redraws
// the whole screen once per refresh. Styling degrades to plain text
// automatically when the destination is not a terminal, so piped
// output and test buffers stay clean.
package statusview

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/libsim-project/libsim/lib/library"
)

// Renderer formats snapshots onto one destination writer. Not safe for
// concurrent use; the simulation's reporter is the single caller.
type Renderer struct {
	out     io.Writer
	verbose bool
	tty     bool

	termOutput *termenv.Output

	headerStyle lipgloss.Style
	readerStyle lipgloss.Style
	writerStyle lipgloss.Style
}

// New returns a renderer for out. Verbose selects the per-agent view;
// otherwise the compact summary line is produced.
func New(out io.Writer, verbose bool) *Renderer {
	tty := false
	if file, ok := out.(*os.File); ok {
		tty = term.IsTerminal(int(file.Fd()))
	}

	// Binding the style renderer to the writer picks the right color
	// profile: full color on a terminal, no escapes into a pipe.
	styles := lipgloss.NewRenderer(out)

	return &Renderer{
		out:         out,
		verbose:     verbose,
		tty:         tty,
		termOutput:  termenv.NewOutput(out),
		headerStyle: styles.NewStyle().Bold(true),
		readerStyle: styles.NewStyle().Foreground(lipgloss.Color("6")),
		writerStyle: styles.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// Render writes one snapshot.
func (r *Renderer) Render(snapshot library.Snapshot) {
	if r.verbose {
		r.renderVerbose(snapshot)
		return
	}
	fmt.Fprintf(r.out, "ReaderQ: %d\tWriterQ: %d\t[ in: R:%d\tW:%d ]\n",
		snapshot.ReaderQueueLen(),
		snapshot.WriterQueueLen(),
		snapshot.ReadersIn(),
		snapshot.WritersIn())
}

// renderVerbose redraws the whole state: both queues and the library,
// one agent per line with whole seconds in its current phase.
func (r *Renderer) renderVerbose(snapshot library.Snapshot) {
	if r.tty {
		r.termOutput.ClearScreen()
	}

	fmt.Fprintln(r.out, r.headerStyle.Render("Readers queue (seconds in queue):"))
	for _, agent := range snapshot.WaitingReaders {
		r.agentLine(agent)
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.headerStyle.Render("Writers queue (seconds in queue):"))
	for _, agent := range snapshot.WaitingWriters {
		r.agentLine(agent)
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.headerStyle.Render("In library (seconds in library):"))
	for _, agent := range snapshot.Occupants {
		r.agentLine(agent)
	}
}

func (r *Renderer) agentLine(agent library.AgentStatus) {
	style := r.readerStyle
	if agent.ID.Kind == library.Writer {
		style = r.writerStyle
	}
	fmt.Fprintf(r.out, "%s\t(%d)\n", style.Render(agent.ID.String()), int(agent.Elapsed.Seconds()))
}
