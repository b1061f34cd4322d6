package internal

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	appDirName    = "jot"
	dbFileName    = "notes.db"
	exportDirName = "jot-export"
)

// DefaultDBPath returns <data dir>/jot/notes.db for the current platform.
func DefaultDBPath() string {
	return filepath.Join(dataDir(runtime.GOOS, os.Getenv, os.UserHomeDir), appDirName, dbFileName)
}

// DefaultExportDir returns <downloads>/jot-export.
func DefaultExportDir() string {
	return filepath.Join(downloadsDir(os.Getenv, os.UserHomeDir), exportDirName)
}

// dataDir follows each platform's convention for per-user application data.
func dataDir(goos string, getenv func(string) string, home func() (string, error)) string {
	h, err := home()
	if err != nil {
		h = "."
	}
	switch goos {
	case "windows":
		if d := getenv("LOCALAPPDATA"); d != "" {
			return d
		}
		return filepath.Join(h, "AppData", "Local")
	case "darwin":
		return filepath.Join(h, "Library", "Application Support")
	default:
		if d := getenv("XDG_DATA_HOME"); d != "" {
			return d
		}
		return filepath.Join(h, ".local", "share")
	}
}

func downloadsDir(getenv func(string) string, home func() (string, error)) string {
	if d := getenv("XDG_DOWNLOAD_DIR"); d != "" {
		return d
	}
	h, err := home()
	if err != nil {
		h = "."
	}
	return filepath.Join(h, "Downloads")
}
