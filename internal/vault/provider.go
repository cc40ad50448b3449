// Package vault gives file access to the Markdown vault holding the
// daily notes.
package vault

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent
	// directories as needed.
	Write(path string, content []byte) error
	// Exists reports whether a file exists at path.
	Exists(path string) (bool, error)
}
