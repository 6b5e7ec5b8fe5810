// Package prompt manages a folder of prompt templates and renders them,
// one at a time or as an ordered sequence.
//
// A template file may start with a front matter block:
//
//	---
//	role: writer
//	title: Scene outline
//	vars:
//	  tone: wry
//	---
//	Outline a {{.tone}} scene about {{.subject}}.
//
// Variable names are case-insensitive and are stored lower-case, so
// templates refer to them in lower case.
package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"strings"
	"text/template"

	"github.com/spf13/viper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrFrontMatter       = errors.New("prompt: malformed front matter")
	ErrUnknownTemplate   = errors.New("prompt: unknown template")
	ErrDuplicateTemplate = errors.New("prompt: duplicate template name")
)

const fence = "---"

var funcs = template.FuncMap{
	"upper":   strings.ToUpper,
	"lower":   strings.ToLower,
	"title":   titleCase,
	"trim":    strings.TrimSpace,
	"join":    strings.Join,
	"default": defaultValue,
}

// titleCase builds a fresh Caser per call; Casers are stateful.
func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

// defaultValue returns def when v is empty. Plain field access fails on a
// missing key, so optional variables go through index, which yields "" for
// absent keys: {{default "none" (index . "tone")}}.
func defaultValue(def, v string) string {
	if v == "" {
		return def
	}
	return v
}

// Template is one parsed prompt.
type Template struct {
	Name        string
	Role        string
	Title       string
	Description string
	Tags        []string
	// Vars holds defaults for template variables.
	Vars map[string]string
	Body string
	Path string

	tmpl *template.Template
}

// Parse builds a template from file content.
func Parse(name string, src []byte) (*Template, error) {
	meta, body, err := splitFrontMatter(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	t := &Template{Name: name, Body: body, Vars: map[string]string{}}
	if len(meta) > 0 {
		v := viper.New()
		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewReader(meta)); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", name, ErrFrontMatter, err)
		}
		t.Role = v.GetString("role")
		t.Title = v.GetString("title")
		t.Description = v.GetString("description")
		t.Tags = v.GetStringSlice("tags")
		t.Vars = v.GetStringMapString("vars")
	}
	if t.Title == "" {
		t.Title = name
	}

	t.tmpl, err = template.New(name).Funcs(funcs).Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("prompt: parse %s: %w", name, err)
	}
	return t, nil
}

// Render executes the template. vars override the front matter defaults;
// a variable missing from both is an error.
func (t *Template) Render(vars map[string]string) (string, error) {
	data := maps.Clone(t.Vars)
	if data == nil {
		data = map[string]string{}
	}
	for k, v := range vars {
		data[strings.ToLower(k)] = v
	}
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("prompt: render %s: %w", t.Name, err)
	}
	return buf.String(), nil
}

// splitFrontMatter separates a leading --- block from the body.
func splitFrontMatter(src []byte) (meta []byte, body string, err error) {
	text := strings.TrimPrefix(string(src), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.HasPrefix(text, fence+"\n") {
		return nil, text, nil
	}
	rest := text[len(fence)+1:]
	if strings.HasPrefix(rest, fence+"\n") || rest == fence {
		return nil, strings.TrimPrefix(strings.TrimPrefix(rest, fence), "\n"), nil
	}
	end := strings.Index(rest, "\n"+fence+"\n")
	if end < 0 {
		if strings.HasSuffix(rest, "\n"+fence) {
			return []byte(rest[:len(rest)-len(fence)-1]), "", nil
		}
		return nil, "", ErrFrontMatter
	}
	return []byte(rest[:end]), rest[end+len(fence)+2:], nil
}
