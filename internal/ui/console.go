package ui

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

// Console prints colored status lines. Out defaults to stdout.
type Console struct {
	Out io.Writer
}

func (c *Console) out() io.Writer {
	if c == nil || c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// PrintBanner prints the application name in ASCII art.
func (c *Console) PrintBanner(title string) {
	banner := figure.NewFigure(title, "isometric1", true)
	color.New(color.FgCyan).Fprintln(c.out(), banner.String())
}

// PrintWarning displays a warning message with consistent formatting
func (c *Console) PrintWarning(message string) {
	color.New(color.FgYellow).Fprintf(c.out(), "Warning: %s\n", message)
}

// PrintError displays an error message with consistent formatting
func (c *Console) PrintError(message string) {
	color.New(color.FgRed).Fprintf(c.out(), "\nError: %s\n", message)
}

// PrintSuccess displays a success message with consistent formatting
func (c *Console) PrintSuccess(message string) {
	color.New(color.FgGreen).Fprintf(c.out(), "\n%s\n", message)
}

func (c *Console) PrintInfo(message string) {
	color.New(color.FgBlue).Fprintln(c.out(), message)
}

// PrintTable prints rows in left-aligned columns under a bold header.
func (c *Console) PrintTable(header []string, rows [][]string) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()

	head, body, _ := strings.Cut(buf.String(), "\n")
	color.New(color.Bold).Fprintln(c.out(), head)
	fmt.Fprint(c.out(), body)
}
