// Package frame defines the immutable per-frame value returned by every
// backend reader: a dense numeric payload plus the frame index and metadata.
package frame

import (
	"errors"
	"fmt"
	"maps"
)

// DType identifies the element type of an Array.
type DType string

// Supported element types.
const (
	Uint8   DType = "uint8"
	Uint16  DType = "uint16"
	Float64 DType = "float64"
)

// ErrShapeMismatch is returned when a data slice does not match its shape.
var ErrShapeMismatch = errors.New("data length does not match shape")

// ErrBadShape is returned for shapes that are not 2D or 3D with positive dims.
var ErrBadShape = errors.New("shape must be 2D or 3D with positive dimensions")

// Array is a dense row-major numeric array holding one decoded frame's
// pixels. Exactly one of the data slices is non-nil, matching DType.
// Arrays are treated as immutable once constructed; transforms allocate
// a new Array rather than writing through the slices.
type Array struct {
	Shape    []int
	DType    DType
	Uint8s   []uint8
	Uint16s  []uint16
	Float64s []float64
}

func checkShape(shape []int, n int) error {
	if len(shape) != 2 && len(shape) != 3 {
		return fmt.Errorf("%w: %v", ErrBadShape, shape)
	}

	elems := 1
	for _, dim := range shape {
		if dim <= 0 {
			return fmt.Errorf("%w: %v", ErrBadShape, shape)
		}

		elems *= dim
	}

	if elems != n {
		return fmt.Errorf("%w: shape %v wants %d elements, got %d", ErrShapeMismatch, shape, elems, n)
	}

	return nil
}

// NewUint8 constructs a uint8 Array over the given data.
func NewUint8(shape []int, data []uint8) (*Array, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}

	return &Array{Shape: shape, DType: Uint8, Uint8s: data}, nil
}

// NewUint16 constructs a uint16 Array over the given data.
func NewUint16(shape []int, data []uint16) (*Array, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}

	return &Array{Shape: shape, DType: Uint16, Uint16s: data}, nil
}

// NewFloat64 constructs a float64 Array over the given data.
func NewFloat64(shape []int, data []float64) (*Array, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}

	return &Array{Shape: shape, DType: Float64, Float64s: data}, nil
}

// Elems returns the total element count.
func (a *Array) Elems() int {
	elems := 1
	for _, dim := range a.Shape {
		elems *= dim
	}

	return elems
}

// Clone returns a deep copy of the array.
func (a *Array) Clone() *Array {
	out := &Array{Shape: append([]int(nil), a.Shape...), DType: a.DType}

	switch a.DType {
	case Uint8:
		out.Uint8s = append([]uint8(nil), a.Uint8s...)
	case Uint16:
		out.Uint16s = append([]uint16(nil), a.Uint16s...)
	case Float64:
		out.Float64s = append([]float64(nil), a.Float64s...)
	}

	return out
}

// AsFloat64 returns the element data widened to float64. The result is a
// fresh slice except when the array is already float64, in which case the
// underlying slice is returned as-is.
func (a *Array) AsFloat64() []float64 {
	switch a.DType {
	case Uint8:
		out := make([]float64, len(a.Uint8s))
		for i, v := range a.Uint8s {
			out[i] = float64(v)
		}

		return out
	case Uint16:
		out := make([]float64, len(a.Uint16s))
		for i, v := range a.Uint16s {
			out[i] = float64(v)
		}

		return out
	default:
		return a.Float64s
	}
}

// MaxValue returns the largest representable element value for the dtype.
// For float arrays it returns 1.0, the conventional normalized full scale.
func (a *Array) MaxValue() float64 {
	switch a.DType {
	case Uint8:
		return 255
	case Uint16:
		return 65535
	default:
		return 1.0
	}
}

// Frame is one decoded frame: payload, position in the sequence, and
// per-frame metadata. Frames are never mutated in place; transforms build
// a new Frame via WithPayload or Clone.
type Frame struct {
	Payload  *Array
	Index    int
	Metadata map[string]any
}

// New constructs a frame.
func New(payload *Array, index int, metadata map[string]any) *Frame {
	return &Frame{Payload: payload, Index: index, Metadata: metadata}
}

// WithPayload returns a new frame carrying the given payload and this
// frame's index and metadata.
func (f *Frame) WithPayload(payload *Array) *Frame {
	return &Frame{Payload: payload, Index: f.Index, Metadata: f.Metadata}
}

// Clone returns a deep copy of the frame, including metadata.
func (f *Frame) Clone() *Frame {
	var meta map[string]any
	if f.Metadata != nil {
		meta = make(map[string]any, len(f.Metadata))
		maps.Copy(meta, f.Metadata)
	}

	return &Frame{Payload: f.Payload.Clone(), Index: f.Index, Metadata: meta}
}
