package prompt

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Step is one prompt in a sequence.
type Step struct {
	Template string            `mapstructure:"template"`
	Vars     map[string]string `mapstructure:"vars"`
	Note     string            `mapstructure:"note"`
}

// Sequence is an ordered list of prompts sharing a set of variables.
type Sequence struct {
	Name        string            `mapstructure:"name"`
	Description string            `mapstructure:"description"`
	Vars        map[string]string `mapstructure:"vars"`
	Steps       []Step            `mapstructure:"steps"`
}

// Rendered is the output of one step.
type Rendered struct {
	Index    int
	Template string
	Note     string
	Text     string
}

// StepError identifies the failing step (1-based).
type StepError struct {
	Sequence string
	Index    int
	Template string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("prompt: sequence %s step %d (%s): %v", e.Sequence, e.Index, e.Template, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// LoadSequence reads a YAML, JSON or TOML sequence file. The name defaults
// to the file name.
func LoadSequence(path string) (*Sequence, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("prompt: read sequence %s: %w", path, err)
	}
	var s Sequence
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("prompt: decode sequence %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("prompt: sequence %s has no steps", s.Name)
	}
	return &s, nil
}

// Render renders every step in order. Step variables override sequence
// variables, which override template defaults. The first failing step
// stops rendering.
func (s *Sequence) Render(lib *Library, extra map[string]string) ([]Rendered, error) {
	out := make([]Rendered, 0, len(s.Steps))
	for i, step := range s.Steps {
		fail := func(err error) error {
			return &StepError{Sequence: s.Name, Index: i + 1, Template: step.Template, Err: err}
		}
		t, err := lib.Get(step.Template)
		if err != nil {
			return out, fail(err)
		}
		text, err := t.Render(mergeVars(s.Vars, step.Vars, extra))
		if err != nil {
			return out, fail(err)
		}
		out = append(out, Rendered{Index: i + 1, Template: step.Template, Note: step.Note, Text: text})
	}
	return out, nil
}

// mergeVars folds the layers left to right under lower-case keys.
func mergeVars(layers ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, layer := range layers {
		for k, v := range layer {
			out[strings.ToLower(k)] = v
		}
	}
	return out
}
