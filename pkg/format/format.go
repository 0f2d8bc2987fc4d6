// Package format implements the capability-based format registry: backends
// declare which file extensions and access modes they support, and the
// registry resolves a filename plus requested mode to the first capable
// backend constructor in registration order.
package format

import (
	"path/filepath"
	"strings"

	"github.com/Sumatoshi-tech/framestack/pkg/reader"
)

// Mode is a single-character access-mode flag, following the imageio
// convention: lower-case for single items, upper-case for multiples.
type Mode byte

// Access modes.
const (
	// ModeAny matches any mode during resolution ("don't care").
	ModeAny Mode = 0
	// ModeImage is single still images.
	ModeImage Mode = 'i'
	// ModeMultiImage is multi-image files and video.
	ModeMultiImage Mode = 'I'
	// ModeVolume is volumetric data.
	ModeVolume Mode = 'v'
	// ModeMultiVolume is multiple volumes.
	ModeMultiVolume Mode = 'V'
)

// Options is the opaque configuration bag passed through to a backend
// constructor. The core never interprets it.
type Options map[string]any

// Constructor opens a backend reader for the given filename.
type Constructor func(filename string, opts Options) (reader.Reader, error)

// Descriptor declares a backend's capabilities: its name, the file
// extensions it reads (lower-case, no leading dot), and the access modes
// it supports as a string of Mode characters.
type Descriptor struct {
	Name       string
	Extensions []string
	Modes      string
}

func (d Descriptor) matches(ext string, mode Mode) bool {
	if mode != ModeAny && !strings.ContainsRune(d.Modes, rune(mode)) {
		return false
	}

	for _, candidate := range d.Extensions {
		if candidate == ext {
			return true
		}
	}

	return false
}

// Ext extracts the lower-case extension of a filename without the leading
// dot, the form descriptors declare.
func Ext(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
