package prompt

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aistudio/studio"
	"github.com/aistudio/studio/internal/suggest"
)

// Extensions recognised as templates.
var templateExts = []string{".tmpl", ".md", ".txt"}

// Library is a set of templates keyed by name.
type Library struct {
	templates map[string]*Template
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{templates: map[string]*Template{}}
}

// Load parses every template file directly inside dir. The template name
// is the file name without its extension.
func Load(dir string) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("prompt: read %s: %w", dir, err)
	}
	lib := NewLibrary()
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !slices.Contains(templateExts, ext) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("prompt: %w", err)
		}
		t, err := Parse(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())), src)
		if err != nil {
			return nil, err
		}
		t.Path = path
		if err := lib.Add(t); err != nil {
			return nil, err
		}
	}
	studio.Logger().Debug("prompt: library loaded", "dir", dir, "templates", len(lib.templates))
	return lib, nil
}

// Add registers t. Names must be unique.
func (l *Library) Add(t *Template) error {
	if _, dup := l.templates[t.Name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateTemplate, t.Name)
	}
	l.templates[t.Name] = t
	return nil
}

// Get returns the named template.
func (l *Library) Get(name string) (*Template, error) {
	if t, ok := l.templates[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %q%s", ErrUnknownTemplate, name, suggest.Hint(name, l.Names()))
}

// Names lists template names in sorted order.
func (l *Library) Names() []string {
	return slices.Sorted(maps.Keys(l.templates))
}

// ByRole returns the templates for role in name order.
func (l *Library) ByRole(role string) []*Template {
	var out []*Template
	for _, name := range l.Names() {
		if t := l.templates[name]; strings.EqualFold(t.Role, role) {
			out = append(out, t)
		}
	}
	return out
}
