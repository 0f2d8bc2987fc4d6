// Package commands implements CLI command handlers for framestack.
package commands

import (
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/framestack/pkg/format"
)

// NewFormatsCommand creates the formats subcommand.
func NewFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List registered format backends in resolution order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			writeFormats(cmd.OutOrStdout(), format.Descriptors())

			return nil
		},
	}
}

func writeFormats(w io.Writer, descriptors []format.Descriptor) {
	header := color.New(color.FgCyan, color.Bold)
	header.Fprintln(w, "Registered backends (first match wins):")

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Name", "Extensions", "Modes"})

	for i, d := range descriptors {
		t.AppendRow(table.Row{i + 1, d.Name, strings.Join(d.Extensions, ", "), d.Modes})
	}

	t.Render()
}
