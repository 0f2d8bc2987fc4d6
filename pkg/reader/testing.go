package reader

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/framestack/pkg/frame"
)

// ErrStubClosed is returned by a Stub after Close.
var ErrStubClosed = errors.New("stub: reader closed")

// ErrStubDecode is the injected decode failure for failing stub indices.
var ErrStubDecode = errors.New("stub: decode failed")

// Stub is an in-memory Reader for tests. Frames are served from a fixed
// slice; individual indices can be made to fail decoding.
type Stub struct {
	Frames     []*frame.Frame
	Global     map[string]any
	FailAt     map[int]bool
	Closed     bool
	CloseCount int
	DecodeLog  []int
}

// NewStub builds a stub over the given payloads, assigning frame indices
// in order.
func NewStub(payloads ...*frame.Array) *Stub {
	frames := make([]*frame.Frame, len(payloads))
	for i, payload := range payloads {
		frames[i] = frame.New(payload, i, map[string]any{"stub_index": i})
	}

	return &Stub{Frames: frames, Global: map[string]any{"source": "stub"}}
}

// Len returns the stubbed frame count.
func (s *Stub) Len() int { return len(s.Frames) }

// FrameAt serves the stored frame, recording the access.
func (s *Stub) FrameAt(i int) (*frame.Frame, error) {
	if s.Closed {
		return nil, ErrStubClosed
	}

	if s.FailAt[i] {
		return nil, fmt.Errorf("%w: index %d", ErrStubDecode, i)
	}

	s.DecodeLog = append(s.DecodeLog, i)

	return s.Frames[i], nil
}

// Metadata returns the stubbed global metadata.
func (s *Stub) Metadata() map[string]any { return s.Global }

// FrameMetadata returns the stored frame's metadata without counting as
// a decode.
func (s *Stub) FrameMetadata(i int) (map[string]any, error) {
	if s.Closed {
		return nil, ErrStubClosed
	}

	return s.Frames[i].Metadata, nil
}

// Close marks the stub closed and counts invocations.
func (s *Stub) Close() error {
	s.Closed = true
	s.CloseCount++

	return nil
}
