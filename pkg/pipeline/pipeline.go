// Package pipeline composes lazy per-frame transforms over a sequence.
// A node holds only its immediate upstream reference, so chains of any
// depth cost one transform application per node per accessed frame and
// nothing is evaluated until a frame is pulled.
package pipeline

import (
	"errors"
	"fmt"
	"iter"

	"github.com/Sumatoshi-tech/framestack/pkg/frame"
	"github.com/Sumatoshi-tech/framestack/pkg/sequence"
)

// ErrTransform wraps a transform failure during evaluation. Failures are
// isolated to the accessed index; other indices remain accessible.
var ErrTransform = errors.New("transform failed")

// Transform is a pure per-frame function. It must not mutate its input;
// use Frame.WithPayload or Frame.Clone to build the result.
type Transform func(*frame.Frame) (*frame.Frame, error)

// PayloadFunc is a payload-only transform.
type PayloadFunc func(*frame.Array) (*frame.Array, error)

// Payload lifts a payload-only function into a Transform that carries
// the upstream frame's index and metadata through unchanged.
func Payload(fn PayloadFunc) Transform {
	return func(fr *frame.Frame) (*frame.Frame, error) {
		payload, err := fn(fr.Payload)
		if err != nil {
			return nil, err
		}

		return fr.WithPayload(payload), nil
	}
}

// Pipeline is a lazy sequence applying a transform to every frame pulled
// from its upstream. It implements sequence.Sequence, so pipelines nest.
type Pipeline struct {
	upstream  sequence.Sequence
	transform Transform
	shape     []int
	dtype     frame.DType
	reshaped  bool
}

// Compose wraps upstream with a transform. The node reports its
// upstream's shape and dtype; use ComposeReshaped for transforms that
// change either.
func Compose(upstream sequence.Sequence, transform Transform) *Pipeline {
	return &Pipeline{upstream: upstream, transform: transform}
}

// ComposeReshaped wraps upstream with a transform that declares a new
// output shape and dtype.
func ComposeReshaped(upstream sequence.Sequence, transform Transform, shape []int, dtype frame.DType) *Pipeline {
	return &Pipeline{
		upstream:  upstream,
		transform: transform,
		shape:     shape,
		dtype:     dtype,
		reshaped:  true,
	}
}

// Len matches the upstream length.
func (p *Pipeline) Len() int { return p.upstream.Len() }

func (p *Pipeline) apply(fr *frame.Frame) (*frame.Frame, error) {
	out, err := p.transform(fr)
	if err != nil {
		return nil, fmt.Errorf("%w at index %d: %w", ErrTransform, fr.Index, err)
	}

	return out, nil
}

// Get pulls the frame from upstream and applies the transform.
func (p *Pipeline) Get(i int) (*frame.Frame, error) {
	fr, err := p.upstream.Get(i)
	if err != nil {
		return nil, err
	}

	return p.apply(fr)
}

// Frames returns the upstream iteration with the transform applied to
// each yielded frame. Upstream errors pass through untouched; transform
// errors are wrapped with ErrTransform.
func (p *Pipeline) Frames(indices []int) (iter.Seq2[*frame.Frame, error], error) {
	upstream, err := p.upstream.Frames(indices)
	if err != nil {
		return nil, err
	}

	return func(yield func(*frame.Frame, error) bool) {
		for fr, err := range upstream {
			if err != nil {
				if !yield(nil, err) {
					return
				}

				continue
			}

			out, terr := p.apply(fr)
			if !yield(out, terr) {
				return
			}
		}
	}, nil
}

// FrameShape reports the declared shape, or the upstream's.
func (p *Pipeline) FrameShape() []int {
	if p.reshaped {
		return p.shape
	}

	return p.upstream.FrameShape()
}

// PixelType reports the declared dtype, or the upstream's.
func (p *Pipeline) PixelType() frame.DType {
	if p.reshaped {
		return p.dtype
	}

	return p.upstream.PixelType()
}

// Metadata forwards to the upstream.
func (p *Pipeline) Metadata() map[string]any {
	return p.upstream.Metadata()
}

// FrameMetadata forwards to the upstream.
func (p *Pipeline) FrameMetadata(i int) (map[string]any, error) {
	return p.upstream.FrameMetadata(i)
}

// Close propagates down the chain to the root facade. Pipeline nodes
// hold no closable resource of their own.
func (p *Pipeline) Close() error {
	return p.upstream.Close()
}
