package importer

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/jot/internal/apperr"
	"github.com/starford/jot/internal/testutil"
)

func TestScan_PatternHiddenAndOrder(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "beta.txt", "b", time.Time{})
	testutil.WriteFile(t, dir, "Alpha.txt", "aa", time.Time{})
	testutil.WriteFile(t, dir, "sub/gamma.txt", "ccc", time.Time{})
	testutil.WriteFile(t, dir, "notes.md", "skip", time.Time{})
	testutil.WriteFile(t, dir, ".git/hidden.txt", "skip", time.Time{})

	files, err := Scan([]string{dir}, "*.txt")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	want := []string{"Alpha.txt", "beta.txt", "gamma.txt"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names = %v, want %v", names, want)
			break
		}
	}
	if files[0].Size != 2 || files[0].Path != filepath.Join(dir, "Alpha.txt") {
		t.Errorf("first entry = %+v", files[0])
	}
}

func TestScan_MissingDirAndOverlap(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "a.txt", "a", time.Time{})

	files, err := Scan([]string{filepath.Join(dir, "nope"), dir, dir}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("files = %+v, want a single entry", files)
	}
}

func TestScan_InvalidPattern(t *testing.T) {
	_, err := Scan([]string{t.TempDir()}, "[")
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
