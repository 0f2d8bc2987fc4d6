package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/framestack/pkg/backends/rawstack"
	"github.com/Sumatoshi-tech/framestack/pkg/format"
	"github.com/Sumatoshi-tech/framestack/pkg/frame"
	"github.com/Sumatoshi-tech/framestack/pkg/framestack"
)

// createStackFixture writes a small rawstack file with four 2x2 uint8
// frames and returns its path.
func createStackFixture(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.fstk")

	w, err := rawstack.NewWriter(path, []int{2, 2}, frame.Uint8)
	require.NoError(t, err)

	for i := range 4 {
		payload, perr := frame.NewUint8([]int{2, 2}, []uint8{
			uint8(i * 10), uint8(i*10 + 1),
			uint8(i*10 + 2), uint8(i*10 + 3),
		})
		require.NoError(t, perr)
		require.NoError(t, w.Append(payload))
	}

	require.NoError(t, w.Close())

	return path
}

func TestWriteFormats_ListsRegisteredBackends(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	writeFormats(&buf, format.Descriptors())

	out := buf.String()
	require.Contains(t, out, "imagedir")
	require.Contains(t, out, "rawstack")
	require.Contains(t, out, "fstk")
}

func TestWriteInfo_SummarizesSequence(t *testing.T) {
	t.Parallel()

	path := createStackFixture(t)

	seq, err := framestack.Open(path, nil)
	require.NoError(t, err)

	defer func() { _ = seq.Close() }()

	var buf bytes.Buffer

	require.NoError(t, writeInfo(&buf, path, seq))

	out := buf.String()
	require.Contains(t, out, "frames")
	require.Contains(t, out, "4")
	require.Contains(t, out, "[2 2]")
	require.Contains(t, out, "uint8")
}

func TestWriteFrameInfo_RejectsOutOfRange(t *testing.T) {
	t.Parallel()

	path := createStackFixture(t)

	seq, err := framestack.Open(path, nil)
	require.NoError(t, err)

	defer func() { _ = seq.Close() }()

	var buf bytes.Buffer

	err = writeFrameInfo(&buf, seq, 99)
	require.Error(t, err)
}

func TestAppendMetadata_HumanizesSizes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	tw := table.NewWriter()
	tw.SetOutputMirror(&buf)
	appendMetadata(tw, map[string]any{"size": int64(2048), "name": "clip"})
	tw.Render()

	out := buf.String()
	require.Contains(t, out, "2.0 kB")
	require.Contains(t, out, "clip")
}

func TestRunExport_RoundTrip(t *testing.T) {
	t.Parallel()

	src := createStackFixture(t)
	out := filepath.Join(t.TempDir(), "export.fstk")

	err := runExport(src, exportOptions{
		output:  out,
		start:   0,
		stop:    -1,
		step:    2,
		sidecar: false,
	})
	require.NoError(t, err)

	stack, err := rawstack.Open(out)
	require.NoError(t, err)

	defer func() { _ = stack.Close() }()

	require.Equal(t, 2, stack.Len())

	fr, err := stack.FrameAt(1)
	require.NoError(t, err)
	// Frame 2 of the source, selected by the stride of two.
	require.Equal(t, []uint8{20, 21, 22, 23}, fr.Payload.Uint8s)
}

func TestRunExport_InvertChangesPixels(t *testing.T) {
	t.Parallel()

	src := createStackFixture(t)
	out := filepath.Join(t.TempDir(), "inverted.fstk")

	err := runExport(src, exportOptions{
		output: out,
		stop:   -1,
		step:   1,
		invert: true,
	})
	require.NoError(t, err)

	stack, err := rawstack.Open(out)
	require.NoError(t, err)

	defer func() { _ = stack.Close() }()

	fr, err := stack.FrameAt(0)
	require.NoError(t, err)
	require.Equal(t, []uint8{255, 254, 253, 252}, fr.Payload.Uint8s)
}

func TestRunExport_GainProducesFloat64(t *testing.T) {
	t.Parallel()

	src := createStackFixture(t)
	out := filepath.Join(t.TempDir(), "scaled.fstk")

	err := runExport(src, exportOptions{
		output: out,
		stop:   -1,
		step:   1,
		gain:   0.5,
	})
	require.NoError(t, err)

	stack, err := rawstack.Open(out)
	require.NoError(t, err)

	defer func() { _ = stack.Close() }()

	fr, err := stack.FrameAt(1)
	require.NoError(t, err)
	require.Equal(t, frame.Float64, fr.Payload.DType)
	require.InDelta(t, 5.0, fr.Payload.Float64s[0], 1e-9)
}

func TestRunExport_WritesSidecar(t *testing.T) {
	t.Parallel()

	src := createStackFixture(t)
	out := filepath.Join(t.TempDir(), "export.fstk")

	err := runExport(src, exportOptions{
		output:  out,
		stop:    -1,
		step:    1,
		sidecar: true,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out + ".yaml")
	require.NoError(t, err)

	var doc sidecar

	require.NoError(t, yaml.Unmarshal(data, &doc))
	require.Equal(t, []int{2, 2}, doc.Shape)
	require.Equal(t, "uint8", doc.Dtype)
	require.Equal(t, 4, doc.Exported)
	require.Equal(t, []int{0, 1, 2, 3}, doc.Indices)
}

func TestRunExport_UnresolvableSource(t *testing.T) {
	t.Parallel()

	err := runExport(filepath.Join(t.TempDir(), "missing.fstk"), exportOptions{
		output: "unused.fstk",
		stop:   -1,
		step:   1,
	})
	require.ErrorIs(t, err, framestack.ErrNoMatchingFiles)
}

func TestRunPlot_ProducesHTML(t *testing.T) {
	t.Parallel()

	src := createStackFixture(t)
	out := filepath.Join(t.TempDir(), "intensity.html")

	require.NoError(t, runPlot(src, out, "dark"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(data), "Mean intensity per frame")
	require.Contains(t, string(data), "echarts")
}

func TestRunPlot_LightTheme(t *testing.T) {
	t.Parallel()

	src := createStackFixture(t)
	out := filepath.Join(t.TempDir(), "light.html")

	require.NoError(t, runPlot(src, out, "light"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(data), "westeros")
}
