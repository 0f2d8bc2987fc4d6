package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/framestack/pkg/config"
	"github.com/Sumatoshi-tech/framestack/pkg/framestack"
	"github.com/Sumatoshi-tech/framestack/pkg/sequence"
)

const plotLineWidth = 2

// NewPlotCommand creates the plot subcommand.
func NewPlotCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "plot <path-or-glob>",
		Short: "Render a per-frame mean-intensity chart as HTML",
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

			return runPlot(args[0], output, cfg.Plot.Theme)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "intensity.html", "output HTML file")

	return cmd
}

func runPlot(pattern, output, theme string) error {
	seq, err := framestack.Open(pattern, nil)
	if err != nil {
		return err
	}
	defer func() { _ = seq.Close() }()

	labels, means, err := meanIntensities(seq)
	if err != nil {
		return err
	}

	line := buildIntensityChart(pattern, theme, labels, means)

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	defer func() { _ = f.Close() }()

	if err := line.Render(f); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	return nil
}

func meanIntensities(seq sequence.Sequence) (labels []string, means []opts.LineData, err error) {
	frames, err := seq.Frames(sequence.All(seq))
	if err != nil {
		return nil, nil, err
	}

	for fr, err := range frames {
		if err != nil {
			return nil, nil, err
		}

		sum := 0.0
		for _, v := range fr.Payload.AsFloat64() {
			sum += v
		}

		labels = append(labels, strconv.Itoa(fr.Index))
		means = append(means, opts.LineData{Value: sum / float64(fr.Payload.Elems())})
	}

	return labels, means, nil
}

func buildIntensityChart(title, theme string, labels []string, means []opts.LineData) *charts.Line {
	chartTheme := "chalk"
	if theme == "light" {
		chartTheme = "westeros"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: chartTheme, PageTitle: title}),
		charts.WithTitleOpts(opts.Title{Title: "Mean intensity per frame", Subtitle: title, Left: "center"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Mean intensity"}),
	)

	line.SetXAxis(labels)
	line.AddSeries("mean", means,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: plotLineWidth}),
	)

	return line
}
