package importer

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long a file must stay quiet before it is imported.
const settleDelay = 200 * time.Millisecond

// ImportedCallback is called for every note created from the inbox.
type ImportedCallback func(id int64, path string)

// Watch imports files that appear or change under dir and match pattern,
// until ctx is cancelled. Writes are debounced so a file being copied in is
// only read once it settles. Duplicates are skipped as with ImportFiles.
//
// Subdirectories created at runtime are added to the watch list; hidden
// directories are ignored.
func (im *Importer) Watch(ctx context.Context, dir, pattern string, cb ImportedCallback) error {
	if pattern == "" {
		pattern = DefaultPattern
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, dir); err != nil {
		return err
	}
	im.logger.Info("inbox: watching", slog.String("dir", dir), slog.String("pattern", pattern))

	pending := map[string]struct{}{}
	var settle *time.Timer
	var settleCh <-chan time.Time

	schedule := func(path string) {
		pending[path] = struct{}{}
		if settle == nil {
			settle = time.NewTimer(settleDelay)
			settleCh = settle.C
		} else {
			settle.Reset(settleDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settle != nil {
				settle.Stop()
			}
			im.logger.Info("inbox: stopped")
			return nil

		case <-settleCh:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			im.importSettled(ctx, paths, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
				if ev.Op&fsnotify.Create == 0 || strings.HasPrefix(filepath.Base(ev.Name), ".") {
					continue
				}
				if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
					im.logger.Warn("inbox: add new dir failed",
						slog.String("path", ev.Name),
						slog.String("error", addErr.Error()))
					continue
				}
				// Files copied in together with the directory produce no
				// events of their own.
				if found, scanErr := Scan([]string{ev.Name}, pattern); scanErr == nil {
					for _, f := range found {
						schedule(f.Path)
					}
				}
				continue
			}

			if ok, _ := filepath.Match(pattern, filepath.Base(ev.Name)); !ok {
				continue
			}
			schedule(ev.Name)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			im.logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func (im *Importer) importSettled(ctx context.Context, paths []string, cb ImportedCallback) {
	for _, p := range paths {
		imported, id, err := im.ImportFile(ctx, p)
		if err != nil {
			im.logger.Warn("inbox: import failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		if !imported {
			im.logger.Debug("inbox: duplicate skipped", slog.String("path", p))
			continue
		}
		im.logger.Info("inbox: imported", slog.String("path", p), slog.Int64("id", id))
		if cb != nil {
			cb(id, p)
		}
	}
}

// addDirsRecursive adds root and its non-hidden subdirectories to w.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		return w.Add(path)
	})
}
