// Package batch runs an image processor over every image in a folder.
//
// Each file is an independent work item: it is loaded, processed and saved
// next to the input (or into a mirrored output tree) with a name suffix.
// Failures are recorded per file and never stop the batch; there is no
// retry and no ordering between files.
package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aistudio/studio/internal/image"
)

// Defaults for Options.
const (
	DefaultSuffix     = "_clean"
	DefaultExtension  = ".png"
	DefaultIgnoreFile = ".studioignore"
)

// ErrNoInput is returned when Options.Input is empty or missing.
var ErrNoInput = errors.New("batch: input path required")

// Options selects the files of a batch and where the results go.
type Options struct {
	// Input is a folder, or a single image file.
	Input string
	// Output is the destination folder. Empty means next to each input.
	Output string
	// Suffix is appended to the output file stem.
	Suffix string
	// Extension picks the output encoder, e.g. ".png".
	Extension string
	// Workers bounds concurrency; 0 uses GOMAXPROCS.
	Workers int
	// Recursive descends into sub-folders and mirrors them under Output.
	Recursive bool
	// Overwrite replaces existing outputs instead of skipping them.
	Overwrite bool
	// IgnoreFile is a gitignore-style file in the input root. Empty
	// disables it.
	IgnoreFile string

	// Save is passed to the encoder.
	Save image.SaveOptions
}

// withDefaults fills empty fields and checks the rest.
func (o Options) withDefaults() (Options, error) {
	if o.Input == "" {
		return o, ErrNoInput
	}
	if _, err := os.Stat(o.Input); err != nil {
		return o, fmt.Errorf("%w: %w", ErrNoInput, err)
	}
	if o.Suffix == "" {
		o.Suffix = DefaultSuffix
	}
	if o.Extension == "" {
		o.Extension = DefaultExtension
	}
	if !strings.HasPrefix(o.Extension, ".") {
		o.Extension = "." + o.Extension
	}
	o.Extension = strings.ToLower(o.Extension)
	if !image.CanEncode(o.Extension) {
		return o, fmt.Errorf("batch: output %w: %s", image.ErrUnsupportedFormat, o.Extension)
	}
	if o.Workers < 0 {
		return o, fmt.Errorf("batch: workers must be >= 0, got %d", o.Workers)
	}
	o.Input = filepath.Clean(o.Input)
	if o.Output != "" {
		o.Output = filepath.Clean(o.Output)
	}
	return o, nil
}
