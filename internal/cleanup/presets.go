package cleanup

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aistudio/studio/internal/filter"
	"github.com/aistudio/studio/internal/suggest"
)

// ErrUnknownPreset is returned for preset names that are not registered.
var ErrUnknownPreset = errors.New("cleanup: unknown preset")

var white = filter.RGB{R: 255, G: 255, B: 255}

var builtinPresets = map[string]Params{
	// Gentle edge for illustrations on transparent backgrounds.
	"soft": {
		Matte:          white,
		SmoothRadius:   1,
		FeatherRadius:  2,
		Contrast:       1,
		FringeBand:     2,
		FringeStrength: 0.6,
		AlphaThreshold: 0.02,
	},
	// Tight edge that trims one pixel of fringe.
	"crisp": {
		Matte:          white,
		SmoothRadius:   0.5,
		FeatherRadius:  0.5,
		Contrast:       1.05,
		EdgeShift:      -1,
		FringeBand:     2,
		FringeStrength: 0.8,
		AlphaThreshold: 0.1,
	},
	// Binary alpha for pixel art.
	"sprite": {
		Matte:          white,
		Contrast:       1,
		FringeBand:     1,
		FringeStrength: 1,
		AlphaThreshold: 0.5,
	},
	// Product shots cut from a white studio backdrop.
	"photo": {
		Matte:          white,
		Unmatte:        true,
		SmoothRadius:   1.5,
		FeatherRadius:  3,
		Contrast:       1,
		FringeBand:     3,
		FringeStrength: 0.5,
		AlphaThreshold: 0.01,
	},
}

// Registry holds the built-in presets plus any user-defined ones.
type Registry struct {
	presets map[string]Params
}

// NewRegistry returns a registry with the built-in presets.
func NewRegistry() *Registry {
	return &Registry{presets: maps.Clone(builtinPresets)}
}

// Add registers or replaces a preset after validating it.
func (r *Registry) Add(name string, p Params) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("%w: empty preset name", ErrInvalidParams)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("preset %q: %w", name, err)
	}
	r.presets[name] = p
	return nil
}

// Lookup returns the named preset. Unknown names wrap ErrUnknownPreset
// with the closest known name.
func (r *Registry) Lookup(name string) (Params, error) {
	if p, ok := r.presets[strings.ToLower(name)]; ok {
		return p, nil
	}
	return Params{}, fmt.Errorf("%w: %q%s", ErrUnknownPreset, name, suggest.Hint(name, r.Names()))
}

// Names returns the registered preset names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.presets))
}

// Preset looks up a built-in preset.
func Preset(name string) (Params, error) {
	return NewRegistry().Lookup(name)
}
