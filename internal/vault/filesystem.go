package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gitsnap/internal/snap"
)

// FileSystemVault stores archives as files under a root directory:
//
//	<root>/
//	  archives/
//	    <name>    (finished zip / zip.age files)
type FileSystemVault struct {
	name        string
	root        string
	archivesDir string
}

var _ snap.Vault = (*FileSystemVault)(nil)

// NewFileSystemVault creates a filesystem vault rooted at the given path,
// creating the directory structure if absent.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	archivesDir := filepath.Join(root, "archives")
	if err := os.MkdirAll(archivesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archives directory: %w", err)
	}

	return &FileSystemVault{
		name:        name,
		root:        root,
		archivesDir: archivesDir,
	}, nil
}

// PutArchive stores an archive under its name. Storing a name that already
// exists is a no-op, but the reader is still consumed and its length
// checked against size.
func (v *FileSystemVault) PutArchive(name string, r io.Reader, size int64) error {
	destPath := filepath.Join(v.archivesDir, name)

	if _, err := os.Stat(destPath); err == nil {
		written, err := io.Copy(io.Discard, r)
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}
		if written != size {
			return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
		}
		return nil
	}

	return v.writeFile(destPath, r, size)
}

// GetArchive retrieves an archive by name and writes it to w.
func (v *FileSystemVault) GetArchive(name string, w io.Writer) error {
	f, err := os.Open(filepath.Join(v.archivesDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("archive not found: %s", name)
		}
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	return nil
}

// List returns the stored archive names, sorted.
func (v *FileSystemVault) List() ([]string, error) {
	entries, err := os.ReadDir(v.archivesDir)
	if err != nil {
		return nil, fmt.Errorf("reading archives directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	for _, dir := range []string{v.root, v.archivesDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}
	return nil
}

// writeFile writes data from r to destPath atomically (temp file plus
// rename) and verifies the byte count against expectedSize.
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
