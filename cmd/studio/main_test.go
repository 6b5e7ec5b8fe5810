package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aistudio/studio"
	"github.com/aistudio/studio/internal/image"
	"github.com/aistudio/studio/internal/jobcard"
)

// run executes the studio app with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("STUDIO_CONFIG", "")
	t.Cleanup(func() { studio.SetLogger(nil) })

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(context.Background(), append([]string{"studio"}, args...))
	return out.String(), err
}

func writeCutout(t *testing.T, path string) {
	t.Helper()
	buf := image.MustNew(16, 16, image.FormatRGBA8)
	for y := 4; y < 12; y++ {
		for x := 4; x < 12; x++ {
			require.NoError(t, buf.SetRGBA(x, y, 200, 40, 40, 255))
		}
	}
	require.NoError(t, image.Save(path, buf, image.SaveOptions{}))
}

func TestCleanCommand(t *testing.T) {
	dir := t.TempDir()
	writeCutout(t, filepath.Join(dir, "a.png"))
	writeCutout(t, filepath.Join(dir, "b.png"))

	out, err := run(t, "clean", "--preset", "crisp", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "2/2")

	for _, name := range []string{"a_clean.png", "b_clean.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	_, err = run(t, "clean", "--preset", "crips", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "crisp"`)
}

func TestCleanListPresets(t *testing.T) {
	out, err := run(t, "clean", "--list-presets")
	require.NoError(t, err)
	assert.Equal(t, "crisp\nphoto\nsoft\nsprite\n", out)
}

func TestResizeCommand(t *testing.T) {
	dir := t.TempDir()
	writeCutout(t, filepath.Join(dir, "a.png"))

	_, err := run(t, "resize", "--scale", "0.5", "--interp", "nearest", dir)
	require.NoError(t, err)

	got, err := image.Load(filepath.Join(dir, "a_resized.png"))
	require.NoError(t, err)
	assert.Equal(t, 8, got.Width())
}

func TestSeamlessCommand(t *testing.T) {
	dir := t.TempDir()
	flat := image.MustNew(8, 8, image.FormatRGBA8)
	flat.Fill(90, 120, 30, 255)
	path := filepath.Join(dir, "flat.png")
	require.NoError(t, image.Save(path, flat, image.SaveOptions{}))

	out, err := run(t, "seamless", "--json", "--preview", "--strict", path)
	require.NoError(t, err)

	var reports []struct {
		File     string  `json:"file"`
		Score    float64 `json:"score"`
		Seamless bool    `json:"seamless"`
		Preview  string  `json:"preview"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Seamless)
	assert.InDelta(t, 1.0, reports[0].Score, 1e-9)
	assert.FileExists(t, reports[0].Preview)

	_, err = run(t, "seamless", "--strict", filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestSplitCommand(t *testing.T) {
	dir := t.TempDir()
	sheet := image.MustNew(8, 4, image.FormatRGBA8)
	sheet.Fill(255, 255, 255, 255)
	path := filepath.Join(dir, "hero.png")
	require.NoError(t, image.Save(path, sheet, image.SaveOptions{}))

	out, err := run(t, "split", "--rows", "1", "--cols", "2", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 tiles")
	assert.FileExists(t, filepath.Join(dir, "hero_tiles", "hero_r1_c1.png"))
	assert.FileExists(t, filepath.Join(dir, "hero_tiles", "hero_r1_c2.png"))
}

func TestJobsCommands(t *testing.T) {
	root := t.TempDir()

	_, err := run(t, "jobs", "--root", root, "init")
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(root, "inbox"))

	out, err := run(t, "jobs", "--root", root, "new", "--role", "writer", "--priority", "high", "Draft", "scene")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	_, err = run(t, "jobs", "--root", root, "new", "--role", "wrtier", "x")
	require.ErrorIs(t, err, jobcard.ErrInvalidRole)

	out, err = run(t, "jobs", "--root", root, "move", id[:8], "doing")
	require.NoError(t, err)
	assert.Contains(t, out, "doing")

	out, err = run(t, "jobs", "--root", root, "list", "--json")
	require.NoError(t, err)
	var cards []jobcard.Card
	require.NoError(t, json.Unmarshal([]byte(out), &cards))
	require.Len(t, cards, 1)
	assert.Equal(t, "Draft scene", cards[0].Title)
	assert.Equal(t, jobcard.StatusDoing, cards[0].Status)

	out, err = run(t, "jobs", "--root", root, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Doing")
	assert.Contains(t, out, "Draft scene")

	out, err = run(t, "jobs", "--root", root, "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, `"priority": "high"`)

	_, err = run(t, "jobs", "--root", root, "delete", id)
	require.NoError(t, err)
	_, err = run(t, "jobs", "--root", root, "show", id)
	assert.ErrorIs(t, err, jobcard.ErrNotFound)
}

func TestPromptsCommands(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "outline.md"),
		[]byte("---\nrole: writer\nvars:\n  tone: wry\n---\nA {{.tone}} scene about {{.subject}}."), 0o644))
	seq := filepath.Join(t.TempDir(), "story.yaml")
	require.NoError(t, os.WriteFile(seq, []byte("steps:\n  - template: outline\n    note: go\n"), 0o644))

	out, err := run(t, "prompts", "list", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "outline")
	assert.Contains(t, out, "tone")

	out, err = run(t, "prompts", "render", "--dir", dir, "--var", "subject=rain", "outline")
	require.NoError(t, err)
	assert.Equal(t, "A wry scene about rain.", strings.TrimSpace(out))

	out, err = run(t, "prompts", "run", "--dir", dir, "--var", "subject=fog", "--print", seq)
	require.NoError(t, err)
	assert.Contains(t, out, "## 1/1 outline")
	assert.Contains(t, out, "A wry scene about fog.")

	_, err = run(t, "prompts", "run", "--dir", dir, "--print", seq)
	assert.Error(t, err, "subject is missing")
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studio.yaml")

	_, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = run(t, "config", "init", path)
	assert.Error(t, err, "refuses to overwrite")

	out, err := run(t, "--config", path, "config", "show", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.Contains(t, out, `"suffix": "_clean"`)
}

func TestLaunchCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studio.yaml")
	require.NoError(t, os.WriteFile(path, []byte("launcher:\n  presets:\n    comfy:\n      command: python\n      args: [main.py]\n"), 0o644))

	out, err := run(t, "--config", path, "launch", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "comfy")
	assert.Contains(t, out, "main.py")

	_, err = run(t, "--config", path, "launch", "run", "comfi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "comfy"`)
}
