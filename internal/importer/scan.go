package importer

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/starford/jot/internal/apperr"
	"github.com/starford/jot/internal/models"
)

// DefaultPattern matches the files offered for import when none is given.
const DefaultPattern = "*.txt"

// Scan walks dirs recursively and lists regular files whose name matches
// pattern. Hidden directories are skipped and unreadable entries ignored.
// Results are sorted by case-folded name.
func Scan(dirs []string, pattern string) ([]models.FileEntry, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("importer: pattern %q: %w", pattern, apperr.ErrInvalidInput)
	}

	files := []models.FileEntry{}
	seen := map[string]bool{}
	for _, dir := range dirs {
		_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if p != dir && strings.HasPrefix(d.Name(), ".") {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if ok, _ := filepath.Match(pattern, d.Name()); !ok {
				return nil
			}
			if seen[p] {
				return nil
			}
			seen[p] = true

			var size int64
			if info, err := d.Info(); err == nil {
				size = info.Size()
			}
			files = append(files, models.FileEntry{Path: p, Name: d.Name(), Size: size})
			return nil
		})
	}

	slices.SortStableFunc(files, func(a, b models.FileEntry) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return files, nil
}
