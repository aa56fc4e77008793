package main

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// scanTraces collects every trace file under root, or returns root itself
// when it points at a single file. Paths come back sorted so repeated runs
// process files in the same order.
// This is CLI-specific logic and is not part of the core library.
func scanTraces(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".gpx", ".tcx", ".json":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
