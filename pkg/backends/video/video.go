// Package video reads video containers by driving the ffmpeg and
// ffprobe binaries: ffprobe supplies stream geometry and frame counts,
// ffmpeg decodes single frames to raw rgb24. Availability of both
// binaries is probed once at process start; when either is missing the
// backend registers an unavailable constructor so callers get an error
// naming the dependency instead of a misleading unsupported-format
// failure.
package video

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/framestack/pkg/format"
	"github.com/Sumatoshi-tech/framestack/pkg/frame"
	"github.com/Sumatoshi-tech/framestack/pkg/reader"
)

// Extensions lists the container extensions this backend declares.
var Extensions = []string{"mp4", "avi", "mov", "mkv", "webm"}

// ErrNoVideoStream is returned when ffprobe finds no video stream.
var ErrNoVideoStream = errors.New("video: no video stream in container")

// ErrDecodeFailed is returned when ffmpeg exits nonzero or emits a
// short frame.
var ErrDecodeFailed = errors.New("video: ffmpeg decode failed")

const channels = 3

func init() {
	descriptor := format.Descriptor{
		Name:       "video",
		Extensions: Extensions,
		Modes:      "I",
	}

	if !available() {
		format.Register(descriptor, format.Unavailable("video", "ffmpeg and ffprobe in PATH"))

		return
	}

	format.Register(descriptor, func(filename string, opts format.Options) (reader.Reader, error) {
		return Open(filename, opts)
	})
}

func available() bool {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return false
	}

	_, err := exec.LookPath("ffprobe")

	return err == nil
}

// probeResult is the subset of ffprobe -show_streams/-show_format JSON
// output the backend needs.
type probeResult struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		NbFrames     string `json:"nb_frames"`
		NbReadFrames string `json:"nb_read_frames"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Video is a Reader over one video file's first video stream.
type Video struct {
	path   string
	width  int
	height int
	length int
	codec  string
	fps    float64
}

// Open probes the file. Frame count comes from the container's nb_frames
// when present; otherwise ffprobe counts packets, which is slower but
// exact.
func Open(path string, _ format.Options) (*Video, error) {
	probe, err := runProbe(path, false)
	if err != nil {
		return nil, err
	}

	stream := -1

	for i, s := range probe.Streams {
		if s.CodecType == "video" {
			stream = i

			break
		}
	}

	if stream == -1 {
		return nil, fmt.Errorf("%w: %s", ErrNoVideoStream, path)
	}

	v := &Video{
		path:   path,
		width:  probe.Streams[stream].Width,
		height: probe.Streams[stream].Height,
		codec:  probe.Streams[stream].CodecName,
		fps:    parseRate(probe.Streams[stream].AvgFrameRate),
	}

	v.length, err = strconv.Atoi(probe.Streams[stream].NbFrames)
	if err != nil {
		counted, err := runProbe(path, true)
		if err != nil {
			return nil, err
		}

		v.length, err = strconv.Atoi(counted.Streams[stream].NbReadFrames)
		if err != nil {
			return nil, fmt.Errorf("video: cannot determine frame count of %s: %w", path, err)
		}
	}

	return v, nil
}

func runProbe(path string, countFrames bool) (*probeResult, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "v",
		"-show_streams", "-show_format",
		"-of", "json",
	}
	if countFrames {
		args = append(args, "-count_frames")
	}

	args = append(args, path)

	out, err := exec.Command("ffprobe", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("video: ffprobe %s: %w", path, err)
	}

	var probe probeResult
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("video: ffprobe output for %s: %w", path, err)
	}

	return &probe, nil
}

// parseRate parses ffprobe's "num/den" rational frame rate.
func parseRate(rate string) float64 {
	num, den, ok := strings.Cut(rate, "/")
	if !ok {
		return 0
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}

	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}

	return n / d
}

// Len returns the stream's frame count.
func (v *Video) Len() int { return v.length }

// FrameAt decodes frame i to raw rgb24 via ffmpeg's select filter.
func (v *Video) FrameAt(i int) (*frame.Frame, error) {
	var out bytes.Buffer

	cmd := exec.Command("ffmpeg",
		"-v", "error",
		"-i", v.path,
		"-vf", fmt.Sprintf("select=eq(n\\,%d)", i),
		"-vsync", "0",
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	)
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: frame %d of %s: %w", ErrDecodeFailed, i, v.path, err)
	}

	want := v.width * v.height * channels
	if out.Len() != want {
		return nil, fmt.Errorf("%w: frame %d of %s: got %d bytes, want %d",
			ErrDecodeFailed, i, v.path, out.Len(), want)
	}

	payload, err := frame.NewUint8([]int{v.height, v.width, channels}, out.Bytes())
	if err != nil {
		return nil, err
	}

	meta, err := v.FrameMetadata(i)
	if err != nil {
		return nil, err
	}

	return frame.New(payload, i, meta), nil
}

// Metadata reports stream-level facts.
func (v *Video) Metadata() map[string]any {
	return map[string]any{
		"backend": "video",
		"path":    v.path,
		"codec":   v.codec,
		"width":   v.width,
		"height":  v.height,
		"fps":     v.fps,
		"frames":  v.length,
	}
}

// FrameMetadata derives the frame's timestamp from the stream rate.
func (v *Video) FrameMetadata(i int) (map[string]any, error) {
	meta := map[string]any{"frame": i}
	if v.fps > 0 {
		meta["timestamp"] = float64(i) / v.fps
	}

	return meta, nil
}

// Close is a no-op: each decode runs its own subprocess, so there is no
// persistent handle to release.
func (v *Video) Close() error { return nil }
