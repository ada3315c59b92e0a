// Package fsutil locates manifest and grid files on disk.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Extensions accepted for manifests and grid files: native HCL syntax and
// HCL's JSON syntax.
var Extensions = []string{".hcl", ".json"}

// FindFilesByExtension recursively searches root for files ending with any of
// the given extensions and returns their paths in lexical order.
func FindFilesByExtension(root string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("at least one extension is required")
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && hasExtension(d.Name(), extensions) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}

// ResolvePaths expands every path into the list of files to load. A directory
// contributes all files below it with an accepted extension; a file must
// itself carry one. Duplicates are dropped, first occurrence wins.
func ResolvePaths(paths ...string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("could not access path %s: %w", p, err)
		}

		if !info.IsDir() {
			if !hasExtension(p, Extensions) {
				return nil, fmt.Errorf("file %s must have one of the extensions %s", p, strings.Join(Extensions, ", "))
			}
			add(filepath.Clean(p))
			continue
		}

		found, err := FindFilesByExtension(p, Extensions...)
		if err != nil {
			return nil, fmt.Errorf("error searching for files in directory %s: %w", p, err)
		}
		for _, f := range found {
			add(filepath.Clean(f))
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", strings.Join(Extensions, " or "), strings.Join(paths, ", "))
	}
	return files, nil
}

func hasExtension(name string, extensions []string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
