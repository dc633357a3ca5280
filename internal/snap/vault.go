package snap

import "io"

// Vault is an off-site store for finished archives. The local destination
// directory remains the primary output; vaults receive a copy of each
// archive after it is written.
type Vault interface {
	// PutArchive stores an archive under its file name. Storing the same
	// name twice is safe. size is the number of bytes that will be read
	// from r.
	PutArchive(name string, r io.Reader, size int64) error

	// GetArchive retrieves an archive by name and writes it to w.
	GetArchive(name string, w io.Writer) error

	// List returns the names of stored archives, sorted.
	List() ([]string, error)

	// ValidateSetup verifies the vault is accessible and properly
	// configured.
	ValidateSetup() error
}
