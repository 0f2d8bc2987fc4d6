package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/framestack/pkg/backends/rawstack"
	"github.com/Sumatoshi-tech/framestack/pkg/config"
	"github.com/Sumatoshi-tech/framestack/pkg/framestack"
	"github.com/Sumatoshi-tech/framestack/pkg/frame"
	"github.com/Sumatoshi-tech/framestack/pkg/pipeline"
	"github.com/Sumatoshi-tech/framestack/pkg/sequence"
)

// exportOptions holds the export command's resolved flags.
type exportOptions struct {
	output    string
	start     int
	stop      int
	step      int
	invert    bool
	gain      float64
	normalize bool
	sidecar   bool
}

// NewExportCommand creates the export subcommand.
func NewExportCommand() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export <path-or-glob>",
		Short: "Re-encode a sequence (optionally transformed) as a rawstack file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("step") {
				opts.step = cfg.Export.Step
			}

			if !cmd.Flags().Changed("invert") {
				opts.invert = cfg.Export.Invert
			}

			if !cmd.Flags().Changed("sidecar") {
				opts.sidecar = cfg.Export.Sidecar
			}

			return runExport(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "out.fstk", "output rawstack file")
	cmd.Flags().IntVar(&opts.start, "start", 0, "first frame index")
	cmd.Flags().IntVar(&opts.stop, "stop", -1, "stop before this index (-1 = end)")
	cmd.Flags().IntVar(&opts.step, "step", 1, "frame stride")
	cmd.Flags().BoolVar(&opts.invert, "invert", false, "invert pixel values")
	cmd.Flags().Float64Var(&opts.gain, "gain", 0, "scale pixels by this factor (output becomes float64)")
	cmd.Flags().BoolVar(&opts.normalize, "normalize", false, "stretch each frame to [0,1] float64")
	cmd.Flags().BoolVar(&opts.sidecar, "sidecar", true, "write a YAML metadata sidecar")

	return cmd
}

func runExport(pattern string, opts exportOptions) error {
	seq, err := framestack.Open(pattern, nil)
	if err != nil {
		return err
	}
	defer func() { _ = seq.Close() }()

	composed := composeTransforms(seq, opts)

	stop := opts.stop
	if stop < 0 || stop > composed.Len() {
		stop = composed.Len()
	}

	indices := sequence.Span(opts.start, stop, opts.step)

	frames, err := composed.Frames(indices)
	if err != nil {
		return err
	}

	var w *rawstack.Writer

	exported := 0

	for fr, err := range frames {
		if err != nil {
			if w != nil {
				_ = w.Close()
			}

			return err
		}

		// The first exported frame fixes the container shape and dtype.
		if w == nil {
			var werr error

			w, werr = rawstack.NewWriter(opts.output, fr.Payload.Shape, fr.Payload.DType)
			if werr != nil {
				return werr
			}
		}

		if err := w.Append(fr.Payload); err != nil {
			_ = w.Close()

			return err
		}

		exported++
	}

	if w != nil {
		if err := w.Close(); err != nil {
			return err
		}
	}

	slog.Debug("export finished", "frames", exported, "output", opts.output)

	if opts.sidecar {
		return writeSidecar(opts.output+".yaml", seq, indices, exported)
	}

	return nil
}

func composeTransforms(seq sequence.Sequence, opts exportOptions) sequence.Sequence {
	out := seq

	if opts.invert {
		out = pipeline.Compose(out, pipeline.Invert())
	}

	if opts.gain != 0 {
		out = pipeline.ComposeReshaped(out, pipeline.Gain(opts.gain), out.FrameShape(), frame.Float64)
	}

	if opts.normalize {
		out = pipeline.ComposeReshaped(out, pipeline.Normalize(), out.FrameShape(), frame.Float64)
	}

	return out
}

// sidecar is the YAML metadata document written next to an export.
type sidecar struct {
	Source   map[string]any `yaml:"source"`
	Shape    []int          `yaml:"shape"`
	Dtype    string         `yaml:"dtype"`
	Indices  []int          `yaml:"indices"`
	Exported int            `yaml:"exported"`
}

func writeSidecar(path string, seq sequence.Sequence, indices []int, exported int) error {
	doc := sidecar{
		Source:   seq.Metadata(),
		Shape:    seq.FrameShape(),
		Dtype:    string(seq.PixelType()),
		Indices:  indices,
		Exported: exported,
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}

	return nil
}
