package video_test

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/framestack/pkg/backends/video"
	"github.com/Sumatoshi-tech/framestack/pkg/format"
)

func ffmpegPresent() bool {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return false
	}

	_, err := exec.LookPath("ffprobe")

	return err == nil
}

func TestRegistrationMatchesAvailability(t *testing.T) {
	t.Parallel()

	ctor, err := format.Resolve("clip.mp4", format.ModeMultiImage)
	require.NoError(t, err, "video backend must be registered either way")

	if ffmpegPresent() {
		// Real constructor: a missing file is an ffprobe failure, not
		// a backend-unavailable one.
		_, err = ctor("definitely-missing.mp4", nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, format.ErrBackendUnavailable)

		return
	}

	_, err = ctor("clip.mp4", nil)
	require.ErrorIs(t, err, format.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "ffmpeg")
}

func TestOpenSyntheticClip(t *testing.T) {
	t.Parallel()

	if !ffmpegPresent() {
		t.Skip("ffmpeg/ffprobe not in PATH")
	}

	dir := t.TempDir()
	clip := dir + "/clip.mp4"

	// Generate a tiny 4-frame test pattern.
	cmd := exec.Command("ffmpeg",
		"-v", "error",
		"-f", "lavfi",
		"-i", "testsrc=size=32x24:rate=4:duration=1",
		"-pix_fmt", "yuv420p",
		clip,
	)
	require.NoError(t, cmd.Run())

	v, err := video.Open(clip, nil)
	require.NoError(t, err)

	defer func() { require.NoError(t, v.Close()) }()

	require.Equal(t, 4, v.Len())

	fr, err := v.FrameAt(2)
	require.NoError(t, err)
	assert.Equal(t, []int{24, 32, 3}, fr.Payload.Shape)
	assert.Equal(t, 2, fr.Index)

	meta := v.Metadata()
	assert.Equal(t, 32, meta["width"])
	assert.Equal(t, 24, meta["height"])
}
