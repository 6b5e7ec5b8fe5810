package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/aistudio/studio"
	"github.com/aistudio/studio/internal/image"
)

// ErrOutputConflict is returned when two inputs would write the same file.
var ErrOutputConflict = errors.New("batch: output conflict")

// Item is one planned unit of work.
type Item struct {
	Input  string
	Output string
}

// Discover lists the work items for opts, sorted by input path.
//
// Only supported image files are picked up. Files whose stem already ends
// with the suffix are previous outputs and are skipped, as are paths
// matched by the ignore file.
func Discover(opts Options) ([]Item, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("batch: stat %s: %w", opts.Input, err)
	}
	if !info.IsDir() {
		if !image.IsImageFile(opts.Input) {
			return nil, fmt.Errorf("batch: %s: %w", opts.Input, image.ErrUnsupportedFormat)
		}
		outDir := opts.Output
		if outDir == "" {
			outDir = filepath.Dir(opts.Input)
		}
		return []Item{{Input: opts.Input, Output: outputPath(outDir, filepath.Base(opts.Input), opts)}}, nil
	}

	ignore, err := loadIgnore(opts)
	if err != nil {
		return nil, err
	}

	root := opts.Input
	outRoot := opts.Output
	if outRoot == "" {
		outRoot = root
	}

	var items []Item
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == root {
				return nil
			}
			if !opts.Recursive || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			// Do not feed outputs back in when they live under the input.
			if opts.Output != "" && path == opts.Output {
				return filepath.SkipDir
			}
			if ignore != nil && ignore.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !image.IsImageFile(d.Name()) {
			return nil
		}
		if ignore != nil && ignore.MatchesPath(rel) {
			studio.Logger().Debug("batch: ignored", "path", rel)
			return nil
		}
		stem := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		if strings.HasSuffix(stem, opts.Suffix) {
			return nil
		}

		outDir := filepath.Join(outRoot, filepath.FromSlash(filepath.Dir(rel)))
		items = append(items, Item{Input: path, Output: outputPath(outDir, d.Name(), opts)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch: walk %s: %w", root, err)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Input < items[j].Input })
	if err := disambiguate(items, opts); err != nil {
		return nil, err
	}
	return items, nil
}

func outputPath(dir, name string, opts Options) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(dir, stem+opts.Suffix+opts.Extension)
}

// disambiguate gives inputs that share a stem (hero.png, hero.jpg) distinct
// outputs by keeping the source extension in the name: hero_png_clean.png,
// hero_jpg_clean.png. Outputs that still collide are an error.
func disambiguate(items []Item, opts Options) error {
	byOutput := make(map[string][]int, len(items))
	for i, it := range items {
		byOutput[it.Output] = append(byOutput[it.Output], i)
	}
	for _, group := range byOutput {
		if len(group) < 2 {
			continue
		}
		for _, i := range group {
			name := filepath.Base(items[i].Input)
			ext := filepath.Ext(name)
			tagged := strings.TrimSuffix(name, ext) + "_" + strings.ToLower(strings.TrimPrefix(ext, ".")) + ext
			items[i].Output = outputPath(filepath.Dir(items[i].Output), tagged, opts)
		}
	}

	seen := make(map[string]string, len(items))
	for _, it := range items {
		if prev, ok := seen[it.Output]; ok {
			return fmt.Errorf("%w: %s and %s both write %s", ErrOutputConflict, prev, it.Input, it.Output)
		}
		seen[it.Output] = it.Input
	}
	return nil
}

// loadIgnore compiles the ignore file in the input root, if any.
func loadIgnore(opts Options) (*gitignore.GitIgnore, error) {
	if opts.IgnoreFile == "" {
		return nil, nil
	}
	path := filepath.Join(opts.Input, opts.IgnoreFile)
	ignore, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("batch: read %s: %w", path, err)
	}
	return ignore, nil
}
