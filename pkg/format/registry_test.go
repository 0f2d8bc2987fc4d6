package format_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/framestack/pkg/format"
	"github.com/Sumatoshi-tech/framestack/pkg/frame"
	"github.com/Sumatoshi-tech/framestack/pkg/reader"
)

func stubConstructor(tag string) format.Constructor {
	return func(_ string, _ format.Options) (reader.Reader, error) {
		arr, err := frame.NewUint8([]int{1, 1}, []uint8{0})
		if err != nil {
			return nil, err
		}

		stub := reader.NewStub(arr)
		stub.Global["constructor"] = tag

		return stub, nil
	}
}

func constructorTag(t *testing.T, ctor format.Constructor) string {
	t.Helper()

	r, err := ctor("x", nil)
	require.NoError(t, err)

	defer func() { require.NoError(t, r.Close()) }()

	tag, ok := r.Metadata()["constructor"].(string)
	require.True(t, ok)

	return tag
}

func TestResolveMatchesExtensionCaseInsensitive(t *testing.T) {
	t.Parallel()

	reg := format.NewRegistry()
	reg.Register(format.Descriptor{
		Name:       "tiffstack",
		Extensions: []string{"tif", "tiff"},
		Modes:      "iv",
	}, stubConstructor("tiffstack"))

	ctor, err := reg.Resolve("/data/run42/Scan_001.TIF", format.ModeAny)
	require.NoError(t, err)
	assert.Equal(t, "tiffstack", constructorTag(t, ctor))
}

func TestResolveRespectsRegistrationOrder(t *testing.T) {
	t.Parallel()

	reg := format.NewRegistry()
	reg.Register(format.Descriptor{
		Name:       "specialized",
		Extensions: []string{"seq"},
		Modes:      "iv",
	}, stubConstructor("specialized"))
	reg.Register(format.Descriptor{
		Name:       "generic",
		Extensions: []string{"seq", "raw"},
		Modes:      "iv",
	}, stubConstructor("generic"))

	// The first-registered matching entry wins, every time.
	for range 3 {
		ctor, err := reg.Resolve("capture.seq", format.ModeAny)
		require.NoError(t, err)
		assert.Equal(t, "specialized", constructorTag(t, ctor))
	}

	ctor, err := reg.Resolve("capture.raw", format.ModeAny)
	require.NoError(t, err)
	assert.Equal(t, "generic", constructorTag(t, ctor))
}

func TestResolveFiltersByMode(t *testing.T) {
	t.Parallel()

	reg := format.NewRegistry()
	reg.Register(format.Descriptor{
		Name:       "stills-only",
		Extensions: []string{"img"},
		Modes:      "i",
	}, stubConstructor("stills-only"))
	reg.Register(format.Descriptor{
		Name:       "video-capable",
		Extensions: []string{"img"},
		Modes:      "iI",
	}, stubConstructor("video-capable"))

	ctor, err := reg.Resolve("a.img", format.ModeMultiImage)
	require.NoError(t, err)
	assert.Equal(t, "video-capable", constructorTag(t, ctor))

	// Wildcard mode falls back to registration order.
	ctor, err = reg.Resolve("a.img", format.ModeAny)
	require.NoError(t, err)
	assert.Equal(t, "stills-only", constructorTag(t, ctor))
}

func TestResolveUnsupportedExtension(t *testing.T) {
	t.Parallel()

	reg := format.NewRegistry()
	reg.Register(format.Descriptor{
		Name:       "stub",
		Extensions: []string{"stub"},
		Modes:      "i",
	}, stubConstructor("stub"))

	_, err := reg.Resolve("file.unknownext", format.ModeAny)
	require.ErrorIs(t, err, format.ErrUnsupportedFormat)

	_, err = reg.Resolve("file.stub", format.ModeVolume)
	require.ErrorIs(t, err, format.ErrUnsupportedFormat)
}

func TestUnavailableConstructorNamesDependency(t *testing.T) {
	t.Parallel()

	reg := format.NewRegistry()
	reg.Register(format.Descriptor{
		Name:       "nd2",
		Extensions: []string{"nd2"},
		Modes:      "iIvV",
	}, format.Unavailable("nd2", "the Nikon SDK bindings"))

	ctor, err := reg.Resolve("cells.nd2", format.ModeAny)
	require.NoError(t, err)

	_, err = ctor("cells.nd2", nil)
	require.ErrorIs(t, err, format.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "Nikon SDK")
}

func TestExt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tiff", format.Ext("/a/b/stack.TIFF"))
	assert.Equal(t, "", format.Ext("noext"))
}
