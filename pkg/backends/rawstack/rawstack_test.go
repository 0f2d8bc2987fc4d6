package rawstack_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/framestack/pkg/backends/rawstack"
	"github.com/Sumatoshi-tech/framestack/pkg/format"
	"github.com/Sumatoshi-tech/framestack/pkg/frame"
	"github.com/Sumatoshi-tech/framestack/pkg/sequence"
)

func writeStack(t *testing.T, path string, frames ...*frame.Array) {
	t.Helper()

	w, err := rawstack.NewWriter(path, frames[0].Shape, frames[0].DType)
	require.NoError(t, err)

	for _, fr := range frames {
		require.NoError(t, w.Append(fr))
	}

	require.NoError(t, w.Close())
}

func uint16Frame(t *testing.T, vals ...uint16) *frame.Array {
	t.Helper()

	arr, err := frame.NewUint16([]int{2, len(vals) / 2}, vals)
	require.NoError(t, err)

	return arr
}

func TestWriteOpenRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stack.fstk")
	writeStack(t, path,
		uint16Frame(t, 0, 1, 2, 3),
		uint16Frame(t, 1000, 1001, 1002, 1003),
		uint16Frame(t, 9, 9, 9, 9),
	)

	s, err := rawstack.Open(path)
	require.NoError(t, err)

	defer func() { require.NoError(t, s.Close()) }()

	require.Equal(t, 3, s.Len())

	fr, err := s.FrameAt(1)
	require.NoError(t, err)
	assert.Equal(t, []uint16{1000, 1001, 1002, 1003}, fr.Payload.Uint16s)
	assert.Equal(t, 1, fr.Index)

	meta := s.Metadata()
	assert.Equal(t, "uint16", meta["dtype"])
	assert.Equal(t, []int{2, 2}, meta["shape"])
}

func TestRandomAccessOrder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stack.fstk")
	writeStack(t, path,
		uint16Frame(t, 0, 0, 0, 0),
		uint16Frame(t, 1, 1, 1, 1),
		uint16Frame(t, 2, 2, 2, 2),
	)

	s, err := rawstack.Open(path)
	require.NoError(t, err)

	defer func() { require.NoError(t, s.Close()) }()

	// Access out of order; seeks must land on the right blocks.
	for _, i := range []int{2, 0, 1, 2} {
		fr, err := s.FrameAt(i)
		require.NoError(t, err)
		assert.Equal(t, uint16(i), fr.Payload.Uint16s[0])
	}
}

func TestFloat64Frames(t *testing.T) {
	t.Parallel()

	arr, err := frame.NewFloat64([]int{1, 3}, []float64{0.25, -1.5, 1e9})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "floats.fstk")
	writeStack(t, path, arr)

	s, err := rawstack.Open(path)
	require.NoError(t, err)

	defer func() { require.NoError(t, s.Close()) }()

	fr, err := s.FrameAt(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, -1.5, 1e9}, fr.Payload.Float64s)
}

func TestAppendRejectsMismatchedFrames(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stack.fstk")

	w, err := rawstack.NewWriter(path, []int{2, 2}, frame.Uint16)
	require.NoError(t, err)

	defer func() { require.NoError(t, w.Close()) }()

	wrongShape, err := frame.NewUint16([]int{2, 3}, make([]uint16, 6))
	require.NoError(t, err)
	require.ErrorIs(t, w.Append(wrongShape), rawstack.ErrFrameMismatch)

	wrongType, err := frame.NewUint8([]int{2, 2}, make([]uint8, 4))
	require.NoError(t, err)
	require.ErrorIs(t, w.Append(wrongType), rawstack.ErrFrameMismatch)
}

func TestOpenRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "junk.fstk")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a stack"), 0o600))

	_, err := rawstack.Open(path)
	require.ErrorIs(t, err, rawstack.ErrBadContainer)
}

func TestRegisteredWithDefaultRegistry(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reg.fstk")
	writeStack(t, path, uint16Frame(t, 5, 6, 7, 8))

	ctor, err := format.Resolve(path, format.ModeVolume)
	require.NoError(t, err)

	r, err := ctor(path, nil)
	require.NoError(t, err)

	seq, err := sequence.New(r)
	require.NoError(t, err)

	defer func() { require.NoError(t, seq.Close()) }()

	assert.Equal(t, 1, seq.Len())
	assert.Equal(t, frame.Uint16, seq.PixelType())
}
