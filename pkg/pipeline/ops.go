package pipeline

import (
	"errors"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/Sumatoshi-tech/framestack/pkg/frame"
)

// ErrConstantFrame is returned by Normalize when a frame has no
// intensity range to stretch.
var ErrConstantFrame = errors.New("frame has constant intensity")

// Invert returns a transform flipping every pixel around the dtype's
// full scale, preserving shape and dtype.
func Invert() Transform {
	return Payload(func(a *frame.Array) (*frame.Array, error) {
		out := a.Clone()

		switch a.DType {
		case frame.Uint8:
			for i, v := range a.Uint8s {
				out.Uint8s[i] = 255 - v
			}
		case frame.Uint16:
			for i, v := range a.Uint16s {
				out.Uint16s[i] = 65535 - v
			}
		case frame.Float64:
			for i, v := range a.Float64s {
				out.Float64s[i] = a.MaxValue() - v
			}
		}

		return out, nil
	})
}

// Gain returns a transform scaling every pixel by k in float64 space,
// declared via ComposeReshaped when applied to integer input. Output is
// always float64 with the input shape.
func Gain(k float64) Transform {
	return Payload(func(a *frame.Array) (*frame.Array, error) {
		src := a.AsFloat64()
		dst := make([]float64, len(src))
		vecmath.ScaleBlock(dst, src, k)

		return frame.NewFloat64(append([]int(nil), a.Shape...), dst)
	})
}

// ToFloat64 returns a transform widening the payload to float64 without
// rescaling.
func ToFloat64() Transform {
	return Gain(1)
}

// Normalize returns a transform stretching each frame to [0, 1] float64
// using its own min and max. Constant frames fail with ErrConstantFrame.
func Normalize() Transform {
	return Payload(func(a *frame.Array) (*frame.Array, error) {
		src := a.AsFloat64()

		lo, hi := src[0], src[0]
		for _, v := range src {
			if v < lo {
				lo = v
			}

			if v > hi {
				hi = v
			}
		}

		if hi == lo {
			return nil, ErrConstantFrame
		}

		shifted := make([]float64, len(src))
		for i, v := range src {
			shifted[i] = v - lo
		}

		vecmath.ScaleBlockInPlace(shifted, 1/(hi-lo))

		return frame.NewFloat64(append([]int(nil), a.Shape...), shifted)
	})
}
