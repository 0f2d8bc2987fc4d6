// Package sequence provides the uniform lazy view over a backend reader:
// cached length, Python-style negative indexing, lazy ordered-index
// iteration, shape/dtype introspection probed from frame 0, and an
// explicit close lifecycle.
package sequence

import (
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/Sumatoshi-tech/framestack/internal/metrics"
	"github.com/Sumatoshi-tech/framestack/pkg/frame"
	"github.com/Sumatoshi-tech/framestack/pkg/reader"
)

// ErrIndexOutOfRange is returned for indices outside [-len, len).
var ErrIndexOutOfRange = errors.New("frame index out of range")

// ErrClosedSequence is returned for any access after Close.
var ErrClosedSequence = errors.New("sequence is closed")

// Sequence is the uniform lazy-access contract shared by the backend
// facade and pipeline nodes. Indexing is Python-style: negative indices
// count from the end, -1 is the last frame.
type Sequence interface {
	// Len returns the total frame count. O(1).
	Len() int

	// Get decodes the frame at index i. Repeated calls re-decode; there
	// is no cache.
	Get(i int) (*frame.Frame, error)

	// Frames returns a single-pass lazy iteration over the given
	// indices, decoding one frame per step. Indices may repeat and may
	// be in any order; all are validated before the first decode.
	Frames(indices []int) (iter.Seq2[*frame.Frame, error], error)

	// FrameShape returns the payload shape of frame 0, probed at open.
	FrameShape() []int

	// PixelType returns the payload dtype of frame 0, probed at open.
	PixelType() frame.DType

	// Metadata returns container-level metadata.
	Metadata() map[string]any

	// FrameMetadata returns per-frame metadata, without a facade-level
	// decode.
	FrameMetadata(i int) (map[string]any, error)

	// Close releases backend resources. Idempotent. For pipeline nodes
	// it propagates to the root facade.
	Close() error
}

// Facade wraps a backend reader as a Sequence. A mutex serializes
// backend access: readers hold a single mutable cursor, so at most one
// get is in flight per facade. Open independent facades for parallel
// reads.
type Facade struct {
	mu     sync.Mutex
	r      reader.Reader
	length int
	shape  []int
	dtype  frame.DType
	closed bool
}

// New wraps the reader, caching its length and probing frame 0 for shape
// and dtype. A malformed container surfaces here, at open, not
// mid-iteration; on probe failure the reader is closed before the error
// is returned.
func New(r reader.Reader) (*Facade, error) {
	f := &Facade{r: r, length: r.Len()}

	if f.length == 0 {
		return f, nil
	}

	probe, err := f.decode(0)
	if err != nil {
		_ = r.Close()

		return nil, fmt.Errorf("probing frame 0: %w", err)
	}

	f.shape = probe.Payload.Shape
	f.dtype = probe.Payload.DType

	return f, nil
}

func (f *Facade) decode(i int) (*frame.Frame, error) {
	start := time.Now()

	fr, err := f.r.FrameAt(i)
	metrics.ObserveDecode(start, err)

	return fr, err
}

// normalize maps a possibly-negative index into [0, length), or fails.
func (f *Facade) normalize(i int) (int, error) {
	if i < -f.length || i >= f.length {
		return 0, fmt.Errorf("%w: %d not in [-%d, %d)", ErrIndexOutOfRange, i, f.length, f.length)
	}

	if i < 0 {
		return i + f.length, nil
	}

	return i, nil
}

// Len returns the cached frame count.
func (f *Facade) Len() int { return f.length }

// Get decodes the frame at index i.
func (f *Facade) Get(i int) (*frame.Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosedSequence
	}

	idx, err := f.normalize(i)
	if err != nil {
		return nil, err
	}

	return f.decode(idx)
}

// Frames validates all indices up front, then returns a lazy single-pass
// iteration decoding one frame at a time. The iteration itself is not
// restartable mid-stream; call Frames again for a fresh pass.
func (f *Facade) Frames(indices []int) (iter.Seq2[*frame.Frame, error], error) {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()

	if closed {
		return nil, ErrClosedSequence
	}

	normalized := make([]int, len(indices))

	for pos, i := range indices {
		idx, err := f.normalize(i)
		if err != nil {
			return nil, err
		}

		normalized[pos] = idx
	}

	return func(yield func(*frame.Frame, error) bool) {
		for _, idx := range normalized {
			fr, err := f.Get(idx)
			if !yield(fr, err) {
				return
			}
		}
	}, nil
}

// FrameShape returns the probed payload shape, nil for empty sequences.
func (f *Facade) FrameShape() []int { return f.shape }

// PixelType returns the probed payload dtype.
func (f *Facade) PixelType() frame.DType { return f.dtype }

// Metadata returns the backend's container-level metadata.
func (f *Facade) Metadata() map[string]any {
	return f.r.Metadata()
}

// FrameMetadata forwards per-frame metadata retrieval to the backend.
func (f *Facade) FrameMetadata(i int) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosedSequence
	}

	idx, err := f.normalize(i)
	if err != nil {
		return nil, err
	}

	return f.r.FrameMetadata(idx)
}

// Close releases the backend reader. Safe to call more than once; only
// the first call reaches the reader.
func (f *Facade) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}

	f.closed = true

	return f.r.Close()
}
