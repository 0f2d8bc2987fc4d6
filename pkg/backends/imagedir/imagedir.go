// Package imagedir reads ordered collections of single-image files as one
// sequence: one frame per file, in stable sorted filename order. It also
// registers itself for individual still images, which open as length-1
// sequences.
package imagedir

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // decoder registration
	_ "image/jpeg" // decoder registration
	_ "image/png"  // decoder registration
	"os"
	"sort"

	_ "golang.org/x/image/bmp"  // decoder registration
	_ "golang.org/x/image/tiff" // decoder registration
	_ "golang.org/x/image/webp" // decoder registration

	"github.com/Sumatoshi-tech/framestack/pkg/format"
	"github.com/Sumatoshi-tech/framestack/pkg/frame"
	"github.com/Sumatoshi-tech/framestack/pkg/reader"
)

// ErrEmptyCollection is returned when a collection is built over zero files.
var ErrEmptyCollection = errors.New("imagedir: no files in collection")

// Extensions lists the still-image extensions this backend declares.
var Extensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "webp"}

func init() {
	format.Register(format.Descriptor{
		Name:       "imagedir",
		Extensions: Extensions,
		Modes:      "i",
	}, func(filename string, opts format.Options) (reader.Reader, error) {
		return NewCollection([]string{filename}, opts)
	})
}

// Collection is a Reader over a fixed, sorted list of image files.
type Collection struct {
	files []string
}

// NewCollection builds a collection over the given files. The list is
// sorted lexicographically (stable) so frame order is deterministic
// regardless of how the glob expanded.
func NewCollection(files []string, _ format.Options) (*Collection, error) {
	if len(files) == 0 {
		return nil, ErrEmptyCollection
	}

	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	return &Collection{files: sorted}, nil
}

// Len returns the file count.
func (c *Collection) Len() int { return len(c.files) }

// FrameAt decodes the i-th file.
func (c *Collection) FrameAt(i int) (*frame.Frame, error) {
	payload, err := decodeFile(c.files[i])
	if err != nil {
		return nil, err
	}

	meta, err := c.FrameMetadata(i)
	if err != nil {
		return nil, err
	}

	return frame.New(payload, i, meta), nil
}

// Metadata describes the collection as a whole.
func (c *Collection) Metadata() map[string]any {
	return map[string]any{
		"backend": "imagedir",
		"files":   len(c.files),
		"first":   c.files[0],
		"last":    c.files[len(c.files)-1],
	}
}

// FrameMetadata stats the i-th file; no decode is needed.
func (c *Collection) FrameMetadata(i int) (map[string]any, error) {
	info, err := os.Stat(c.files[i])
	if err != nil {
		return nil, fmt.Errorf("imagedir: stat %s: %w", c.files[i], err)
	}

	return map[string]any{
		"filename": c.files[i],
		"size":     info.Size(),
		"modified": info.ModTime(),
	}, nil
}

// Close is a no-op: files are opened and closed per decode.
func (c *Collection) Close() error { return nil }

func decodeFile(path string) (*frame.Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imagedir: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imagedir: decode %s: %w", path, err)
	}

	return fromImage(img)
}

// fromImage converts a decoded image to the frame array convention:
// grayscale to 2D uint8, 16-bit grayscale to 2D uint16, everything else
// to HxWx3 uint8.
func fromImage(img image.Image) (*frame.Array, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	switch im := img.(type) {
	case *image.Gray:
		data := make([]uint8, w*h)
		for y := range h {
			copy(data[y*w:(y+1)*w], im.Pix[y*im.Stride:y*im.Stride+w])
		}

		return frame.NewUint8([]int{h, w}, data)
	case *image.Gray16:
		data := make([]uint16, w*h)
		for y := range h {
			row := im.Pix[y*im.Stride:]
			for x := range w {
				data[y*w+x] = uint16(row[2*x])<<8 | uint16(row[2*x+1])
			}
		}

		return frame.NewUint16([]int{h, w}, data)
	default:
		const channels = 3

		data := make([]uint8, w*h*channels)
		for y := range h {
			for x := range w {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				base := (y*w + x) * channels
				data[base] = uint8(r >> 8)
				data[base+1] = uint8(g >> 8)
				data[base+2] = uint8(b >> 8)
			}
		}

		return frame.NewUint8([]int{h, w, channels}, data)
	}
}
