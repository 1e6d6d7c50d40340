// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package harness

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// DefaultPattern selects Rust source files anywhere below the root.
const DefaultPattern = "**/*.rs"

// CollectInputs returns the files below root that match any of the
// patterns, in walk order. Patterns are matched against the slash
// separated path relative to root. If root is a file, it is matched by
// its base name.
func CollectInputs(fs afero.Fs, root string, patterns []string) ([]string, error) {
	info, err := fs.Stat(root)
	if err != nil {
		return nil, &ErrWalk{Root: root, Err: err}
	}
	if !info.IsDir() {
		if matchAny(patterns, filepath.Base(root)) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var files []string
	err = afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		} else if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if matchAny(patterns, filepath.ToSlash(rel)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, &ErrWalk{Root: root, Err: err}
	}
	return files, nil
}

func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
