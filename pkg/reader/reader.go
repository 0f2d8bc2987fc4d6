// Package reader defines the minimal contract every backend decoder
// implements. A Reader knows how many frames its container holds, can
// decode any frame by index, and exposes container-level and per-frame
// metadata. Readers own a decoder context or file handle and must be
// closed by whoever opened them.
package reader

import "github.com/Sumatoshi-tech/framestack/pkg/frame"

// Reader is the backend decoder contract. Indices passed to FrameAt and
// FrameMetadata are already normalized to [0, Len); wraparound and bounds
// checking happen one layer up, in the sequence facade.
//
// Readers are not safe for concurrent use: most hold a single mutable
// file cursor. The facade serializes access.
type Reader interface {
	// Len returns the total frame count. Fixed for the reader's lifetime.
	Len() int

	// FrameAt decodes the frame at the given index. Every call decodes
	// anew; readers do not cache.
	FrameAt(i int) (*frame.Frame, error)

	// Metadata returns container-level metadata.
	Metadata() map[string]any

	// FrameMetadata returns per-frame metadata. Backends that cannot
	// supply it without decoding may decode internally.
	FrameMetadata(i int) (map[string]any, error)

	// Close releases the underlying handle or decoder context.
	Close() error
}
