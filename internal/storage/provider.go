// Package storage defines the file-system target notes are exported into.
package storage

// Provider writes files relative to a root directory.
type Provider interface {
	// Root returns the absolute directory files are written under.
	Root() string
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
}
