// SPDX-License-Identifier: AGPL-3.0-or-later

// Package projection holds the filesystem and markdown helpers used to project
// a learning context onto the output directory tree.
package projection

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// AtomicWrite writes content to path by writing a temp file in the same
// directory and renaming it over the target. Missing parent directories are
// created; an existing file at path is replaced.
func AtomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".refsync-tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing content: %w", err)
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		tmpFile.Close()
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), path); err != nil {
		return fmt.Errorf("moving temp file to %s: %w", path, err)
	}

	return nil
}

// EnsureDirs creates root and each of dirs beneath it. Existing directories
// are left alone.
func EnsureDirs(root string, dirs []string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", root, err)
	}
	for _, d := range dirs {
		full := filepath.Join(root, d)
		if err := os.MkdirAll(full, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", full, err)
		}
	}
	return nil
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
