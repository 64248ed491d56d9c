// Package format renders modsort CLI output.
package format

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/modsort/modsort/pkg/sorting"
)

var (
	indexStyle  = lipgloss.NewStyle().Faint(true).Width(6).Align(lipgloss.Right)
	nameStyle   = lipgloss.NewStyle().PaddingLeft(1)
	headerStyle = lipgloss.NewStyle().Bold(true)
)

// Formatter provides consistent output formatting across CLI commands.
type Formatter struct {
	stdout io.Writer
	stderr io.Writer
	quiet  bool
	color  bool
}

// New creates a new Formatter.
func New(stdout, stderr io.Writer, quiet, useColor bool) *Formatter {
	return &Formatter{
		stdout: stdout,
		stderr: stderr,
		quiet:  quiet,
		color:  useColor,
	}
}

// PrintLoadOrder renders a load order, one indexed line per plugin.
func (f *Formatter) PrintLoadOrder(names []string) error {
	for i, name := range names {
		index := fmt.Sprintf("%d", i)
		line := name
		if f.color {
			line = nameStyle.Render(name)
			index = indexStyle.Render(index)
		} else {
			index = fmt.Sprintf("%6s", index)
			line = " " + line
		}
		if _, err := fmt.Fprintln(f.stdout, index+line); err != nil {
			return err
		}
	}
	return nil
}

// PrintGroupsPath renders a group path with per-edge provenance.
func (f *Formatter) PrintGroupsPath(path []sorting.Vertex) error {
	if len(path) == 0 {
		return f.PrintSummary("No path exists between the given groups.")
	}

	var b strings.Builder
	for i, v := range path {
		b.WriteString(v.Name)
		if i == len(path)-1 {
			break
		}
		source := "masterlist"
		if v.EdgeType.IsUserDefined() {
			source = "user"
		}
		b.WriteString(fmt.Sprintf(" --[%s]-> ", source))
	}

	_, err := fmt.Fprintln(f.stdout, b.String())
	return err
}

// PrintYAML renders any value as YAML, for metadata inspection.
func (f *Formatter) PrintYAML(value any) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	_, err = f.stdout.Write(data)
	return err
}

// PrintTable renders rows under bold uppercase headers.
func (f *Formatter) PrintTable(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(f.stdout, 0, 0, 2, ' ', 0)

	headerLine := make([]string, len(headers))
	for i, h := range headers {
		h = strings.ToUpper(h)
		if f.color {
			h = headerStyle.Render(h)
		}
		headerLine[i] = h
	}
	if _, err := fmt.Fprintln(w, strings.Join(headerLine, "\t")); err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return w.Flush()
}

// PrintSummary outputs a progress message, unless quiet mode is on.
func (f *Formatter) PrintSummary(message string) error {
	if f.quiet {
		return nil
	}
	_, err := fmt.Fprintln(f.stdout, message)
	return err
}

// PrintCycle renders a cyclic-interaction diagnostic to stderr.
func (f *Formatter) PrintCycle(cycle []sorting.Vertex) error {
	description := sorting.DescribeCycle(cycle)
	if f.color {
		description = color.New(color.FgRed).Sprint(description)
	}
	_, err := fmt.Fprintf(f.stderr, "Cyclic interaction detected:\n  %s\n", description)
	return err
}

// PrintError outputs an error to stderr.
func (f *Formatter) PrintError(err error) error {
	message := fmt.Sprintf("Error: %v", err)
	if f.color {
		message = color.New(color.FgRed).Sprint(message)
	}
	_, printErr := fmt.Fprintln(f.stderr, message)
	return printErr
}
