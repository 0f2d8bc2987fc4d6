// Package rawstack implements a minimal seekable frame container: a
// fixed header describing dtype and frame shape, followed by one
// LZ4-compressed block per frame. It exists for fast intermediate
// storage of decoded stacks and as the reference multi-frame container
// in tests, playing the role proprietary camera formats play in
// production deployments.
package rawstack

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/framestack/pkg/format"
	"github.com/Sumatoshi-tech/framestack/pkg/frame"
	"github.com/Sumatoshi-tech/framestack/pkg/reader"
)

// Extension is the registered file extension.
const Extension = "fstk"

var magic = [5]byte{'F', 'S', 'T', 'K', '1'}

// Block flags.
const (
	blockStored uint8 = 0
	blockLZ4    uint8 = 1
)

// ErrBadContainer is returned for malformed rawstack files.
var ErrBadContainer = errors.New("rawstack: malformed container")

// ErrFrameMismatch is returned when an appended frame does not match the
// writer's declared shape and dtype.
var ErrFrameMismatch = errors.New("rawstack: frame does not match container shape/dtype")

func init() {
	format.Register(format.Descriptor{
		Name:       "rawstack",
		Extensions: []string{Extension},
		Modes:      "iv",
	}, func(filename string, _ format.Options) (reader.Reader, error) {
		return Open(filename)
	})
}

// header is the fixed-size on-disk prelude, little-endian.
type header struct {
	Magic  [5]byte
	DType  uint8
	NDims  uint8
	Dims   [3]uint32
	Frames uint32
}

const headerSize = 5 + 1 + 1 + 12 + 4

func dtypeCode(dt frame.DType) (uint8, bool) {
	switch dt {
	case frame.Uint8:
		return 1, true
	case frame.Uint16:
		return 2, true
	case frame.Float64:
		return 3, true
	}

	return 0, false
}

func codeDType(code uint8) (frame.DType, bool) {
	switch code {
	case 1:
		return frame.Uint8, true
	case 2:
		return frame.Uint16, true
	case 3:
		return frame.Float64, true
	}

	return "", false
}

func elemSize(dt frame.DType) int {
	switch dt {
	case frame.Uint8:
		return 1
	case frame.Uint16:
		return 2
	default:
		return 8
	}
}

// encodeElems serializes array elements little-endian.
func encodeElems(a *frame.Array) []byte {
	switch a.DType {
	case frame.Uint8:
		return a.Uint8s
	case frame.Uint16:
		out := make([]byte, 2*len(a.Uint16s))
		for i, v := range a.Uint16s {
			binary.LittleEndian.PutUint16(out[2*i:], v)
		}

		return out
	default:
		out := make([]byte, 8*len(a.Float64s))
		for i, v := range a.Float64s {
			binary.LittleEndian.PutUint64(out[8*i:], math.Float64bits(v))
		}

		return out
	}
}

func decodeElems(raw []byte, shape []int, dt frame.DType) (*frame.Array, error) {
	switch dt {
	case frame.Uint8:
		return frame.NewUint8(shape, raw)
	case frame.Uint16:
		data := make([]uint16, len(raw)/2)
		for i := range data {
			data[i] = binary.LittleEndian.Uint16(raw[2*i:])
		}

		return frame.NewUint16(shape, data)
	default:
		data := make([]float64, len(raw)/8)
		for i := range data {
			data[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
		}

		return frame.NewFloat64(shape, data)
	}
}

// Writer appends frames to a rawstack file. The frame count is patched
// into the header on Close.
type Writer struct {
	f     *os.File
	shape []int
	dtype frame.DType
	count uint32
}

// NewWriter creates a rawstack file for frames of the given shape and
// dtype.
func NewWriter(path string, shape []int, dtype frame.DType) (*Writer, error) {
	code, ok := dtypeCode(dtype)
	if !ok {
		return nil, fmt.Errorf("%w: dtype %q", ErrFrameMismatch, dtype)
	}

	if len(shape) != 2 && len(shape) != 3 {
		return nil, fmt.Errorf("%w: shape %v", ErrFrameMismatch, shape)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("rawstack: create %s: %w", path, err)
	}

	hdr := header{Magic: magic, DType: code, NDims: uint8(len(shape))}
	for i, dim := range shape {
		hdr.Dims[i] = uint32(dim)
	}

	if err := binary.Write(f, binary.LittleEndian, &hdr); err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("rawstack: write header: %w", err)
	}

	return &Writer{f: f, shape: append([]int(nil), shape...), dtype: dtype}, nil
}

// Append writes one frame. The payload must match the declared shape
// and dtype exactly.
func (w *Writer) Append(a *frame.Array) error {
	if a.DType != w.dtype || len(a.Shape) != len(w.shape) {
		return ErrFrameMismatch
	}

	for i, dim := range a.Shape {
		if dim != w.shape[i] {
			return ErrFrameMismatch
		}
	}

	raw := encodeElems(a)

	flag := blockLZ4

	comp := make([]byte, lz4.CompressBlockBound(len(raw)))

	written, err := lz4.CompressBlock(raw, comp, nil)
	if err != nil || written == 0 || written >= len(raw) {
		// Incompressible frames are stored as-is.
		flag = blockStored
		comp = raw
	} else {
		comp = comp[:written]
	}

	if err := binary.Write(w.f, binary.LittleEndian, flag); err != nil {
		return fmt.Errorf("rawstack: write block: %w", err)
	}

	sizes := [2]uint32{uint32(len(comp)), uint32(len(raw))}
	if err := binary.Write(w.f, binary.LittleEndian, sizes); err != nil {
		return fmt.Errorf("rawstack: write block: %w", err)
	}

	if _, err := w.f.Write(comp); err != nil {
		return fmt.Errorf("rawstack: write block: %w", err)
	}

	w.count++

	return nil
}

// Close patches the frame count into the header and closes the file.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}

	defer func() { w.f = nil }()

	if _, err := w.f.Seek(headerSize-4, io.SeekStart); err != nil {
		_ = w.f.Close()

		return fmt.Errorf("rawstack: finalize: %w", err)
	}

	if err := binary.Write(w.f, binary.LittleEndian, w.count); err != nil {
		_ = w.f.Close()

		return fmt.Errorf("rawstack: finalize: %w", err)
	}

	if err := w.f.Close(); err != nil {
		return fmt.Errorf("rawstack: close: %w", err)
	}

	return nil
}

// Stack reads a rawstack file with random frame access via an offset
// index built once at open.
type Stack struct {
	f       *os.File
	path    string
	shape   []int
	dtype   frame.DType
	offsets []int64
}

// Open reads the header and scans the block layout.
func Open(path string) (*Stack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rawstack: open %s: %w", path, err)
	}

	var hdr header
	if err := binary.Read(f, binary.LittleEndian, &hdr); err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("%w: %s: %w", ErrBadContainer, path, err)
	}

	if hdr.Magic != magic {
		_ = f.Close()

		return nil, fmt.Errorf("%w: %s: bad magic", ErrBadContainer, path)
	}

	dt, ok := codeDType(hdr.DType)
	if !ok || (hdr.NDims != 2 && hdr.NDims != 3) {
		_ = f.Close()

		return nil, fmt.Errorf("%w: %s: bad dtype/dims", ErrBadContainer, path)
	}

	shape := make([]int, hdr.NDims)
	for i := range shape {
		shape[i] = int(hdr.Dims[i])
	}

	s := &Stack{f: f, path: path, shape: shape, dtype: dt}

	if err := s.scan(int(hdr.Frames)); err != nil {
		_ = f.Close()

		return nil, err
	}

	return s, nil
}

// scan walks the block chain once to record each frame's offset.
func (s *Stack) scan(count int) error {
	offset := int64(headerSize)

	for range count {
		s.offsets = append(s.offsets, offset)

		if _, err := s.f.Seek(offset+1, io.SeekStart); err != nil {
			return fmt.Errorf("%w: %s: truncated", ErrBadContainer, s.path)
		}

		var sizes [2]uint32
		if err := binary.Read(s.f, binary.LittleEndian, &sizes); err != nil {
			return fmt.Errorf("%w: %s: truncated", ErrBadContainer, s.path)
		}

		offset += 1 + 8 + int64(sizes[0])
	}

	return nil
}

// Len returns the frame count.
func (s *Stack) Len() int { return len(s.offsets) }

// FrameAt decodes the i-th block.
func (s *Stack) FrameAt(i int) (*frame.Frame, error) {
	if _, err := s.f.Seek(s.offsets[i], io.SeekStart); err != nil {
		return nil, fmt.Errorf("rawstack: seek frame %d: %w", i, err)
	}

	var flag uint8
	if err := binary.Read(s.f, binary.LittleEndian, &flag); err != nil {
		return nil, fmt.Errorf("%w: frame %d", ErrBadContainer, i)
	}

	var sizes [2]uint32
	if err := binary.Read(s.f, binary.LittleEndian, &sizes); err != nil {
		return nil, fmt.Errorf("%w: frame %d", ErrBadContainer, i)
	}

	comp := make([]byte, sizes[0])
	if _, err := io.ReadFull(s.f, comp); err != nil {
		return nil, fmt.Errorf("%w: frame %d: %w", ErrBadContainer, i, err)
	}

	raw := comp

	if flag == blockLZ4 {
		raw = make([]byte, sizes[1])
		if _, err := lz4.UncompressBlock(comp, raw); err != nil {
			return nil, fmt.Errorf("%w: frame %d: %w", ErrBadContainer, i, err)
		}
	}

	if len(raw) != s.frameBytes() {
		return nil, fmt.Errorf("%w: frame %d: size mismatch", ErrBadContainer, i)
	}

	payload, err := decodeElems(raw, append([]int(nil), s.shape...), s.dtype)
	if err != nil {
		return nil, err
	}

	meta, err := s.FrameMetadata(i)
	if err != nil {
		return nil, err
	}

	return frame.New(payload, i, meta), nil
}

func (s *Stack) frameBytes() int {
	elems := 1
	for _, dim := range s.shape {
		elems *= dim
	}

	return elems * elemSize(s.dtype)
}

// Metadata describes the container.
func (s *Stack) Metadata() map[string]any {
	return map[string]any{
		"backend": "rawstack",
		"path":    s.path,
		"dtype":   string(s.dtype),
		"shape":   append([]int(nil), s.shape...),
		"frames":  len(s.offsets),
	}
}

// FrameMetadata reports block layout facts; no decode required.
func (s *Stack) FrameMetadata(i int) (map[string]any, error) {
	return map[string]any{
		"offset": s.offsets[i],
	}, nil
}

// Close releases the file handle.
func (s *Stack) Close() error {
	if s.f == nil {
		return nil
	}

	f := s.f
	s.f = nil

	if err := f.Close(); err != nil {
		return fmt.Errorf("rawstack: close: %w", err)
	}

	return nil
}
