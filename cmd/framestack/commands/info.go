package commands

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/framestack/pkg/framestack"
	"github.com/Sumatoshi-tech/framestack/pkg/sequence"
)

// NewInfoCommand creates the info subcommand.
func NewInfoCommand() *cobra.Command {
	var frameIndex int

	var showFrame bool

	cmd := &cobra.Command{
		Use:   "info <path-or-glob>",
		Short: "Inspect a sequence's length, shape, dtype, and metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := framestack.Open(args[0], nil)
			if err != nil {
				return err
			}
			defer func() { _ = seq.Close() }()

			if showFrame {
				return writeFrameInfo(cmd.OutOrStdout(), seq, frameIndex)
			}

			return writeInfo(cmd.OutOrStdout(), args[0], seq)
		},
	}

	cmd.Flags().IntVar(&frameIndex, "frame", 0, "show per-frame metadata for this index")
	cmd.Flags().BoolVar(&showFrame, "frame-meta", false, "show per-frame metadata instead of the summary")

	return cmd
}

func writeInfo(w io.Writer, pattern string, seq sequence.Sequence) error {
	header := color.New(color.FgCyan, color.Bold)
	header.Fprintf(w, "%s\n", pattern)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendRow(table.Row{"frames", seq.Len()})
	t.AppendRow(table.Row{"shape", fmt.Sprintf("%v", seq.FrameShape())})
	t.AppendRow(table.Row{"dtype", string(seq.PixelType())})

	appendMetadata(t, seq.Metadata())
	t.Render()

	return nil
}

func writeFrameInfo(w io.Writer, seq sequence.Sequence, index int) error {
	meta, err := seq.FrameMetadata(index)
	if err != nil {
		return err
	}

	slog.Debug("frame metadata fetched", "index", index, "keys", len(meta))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Key", "Value"})
	appendMetadata(t, meta)
	t.Render()

	return nil
}

// appendMetadata adds metadata entries in sorted key order, humanizing
// byte sizes.
func appendMetadata(t table.Writer, meta map[string]any) {
	keys := make([]string, 0, len(meta))
	for key := range meta {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		value := meta[key]
		if key == "size" {
			if size, ok := value.(int64); ok {
				value = humanize.Bytes(uint64(size))
			}
		}

		t.AppendRow(table.Row{key, fmt.Sprintf("%v", value)})
	}
}
