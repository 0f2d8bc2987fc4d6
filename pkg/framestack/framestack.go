// Package framestack is the user-facing entry point: Open turns a path
// or glob pattern into a lazy, indexable frame sequence, dispatching to
// whichever registered backend can read the input.
//
// Importing this package registers the built-in backends (still-image
// collections, rawstack containers, ffmpeg video) with the default
// format registry.
package framestack

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// rawstack and video register themselves with the default registry;
	// imagedir does too and is also used directly for collections.
	_ "github.com/Sumatoshi-tech/framestack/pkg/backends/rawstack"
	_ "github.com/Sumatoshi-tech/framestack/pkg/backends/video"

	"github.com/Sumatoshi-tech/framestack/pkg/backends/imagedir"
	"github.com/Sumatoshi-tech/framestack/pkg/format"
	"github.com/Sumatoshi-tech/framestack/pkg/sequence"
)

// ErrNoMatchingFiles is returned when a pattern matches nothing and the
// literal path does not exist either.
var ErrNoMatchingFiles = errors.New("no matching files")

// Open resolves a path expression to a sequence.
//
// A pattern expanding to more than one file becomes an ordered image
// collection: matched names are sorted lexicographically and each file
// is one frame. A single match, or a literal path, is dispatched
// through the format registry by extension with no mode preference.
// Options pass through to the selected backend unmodified.
func Open(pattern string, opts format.Options) (sequence.Sequence, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", pattern, err)
	}

	if len(matches) > 1 {
		coll, err := imagedir.NewCollection(matches, opts)
		if err != nil {
			return nil, err
		}

		return sequence.New(coll)
	}

	path := pattern
	if len(matches) == 1 {
		path = matches[0]
	} else if _, err := os.Stat(pattern); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNoMatchingFiles, pattern)
	}

	ctor, err := format.Resolve(path, format.ModeAny)
	if err != nil {
		return nil, err
	}

	r, err := ctor(path, opts)
	if err != nil {
		return nil, err
	}

	// sequence.New closes the reader itself if the probe fails.
	return sequence.New(r)
}
