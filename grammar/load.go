// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package grammar

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// FragmentPattern selects fragment files below a grammar directory.
const FragmentPattern = "**/*.{yaml,yml}"

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Builtin returns the grammar shipped with the module, a subset of Rust
// that starts at ModuleContents.
func Builtin() (*Grammar, error) {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, err
	}
	g := New()
	for _, entry := range entries {
		name := path.Join("builtin", entry.Name())
		data, err := fs.ReadFile(builtinFS, name)
		if err != nil {
			return nil, err
		}
		fragment, err := Parse(name, data)
		if err != nil {
			return nil, err
		}
		if err := g.Extend(fragment); err != nil {
			return nil, err
		}
	}
	if err := g.Check(); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadFS merges every fragment below dir, in lexical order of their
// slash-separated paths, and checks the result.
func LoadFS(fsys afero.Fs, dir string) (*Grammar, error) {
	var files []string
	err := afero.Walk(fsys, dir, func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		} else if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, name)
		if err != nil {
			return err
		}
		if ok, _ := doublestar.Match(FragmentPattern, filepath.ToSlash(rel)); ok {
			files = append(files, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("grammar: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("grammar: %s: no fragments", dir)
	}
	sort.Slice(files, func(i, j int) bool {
		return filepath.ToSlash(files[i]) < filepath.ToSlash(files[j])
	})

	g := New()
	for _, name := range files {
		data, err := afero.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("grammar: %w", err)
		}
		fragment, err := Parse(name, data)
		if err != nil {
			return nil, fmt.Errorf("grammar: %w", err)
		}
		if err := g.Extend(fragment); err != nil {
			return nil, fmt.Errorf("grammar: %w", err)
		}
	}
	if err := g.Check(); err != nil {
		return nil, fmt.Errorf("grammar: %w", err)
	}
	return g, nil
}
