package snap

// Archiver abstracts zip archive creation and extraction.
type Archiver interface {
	// Create writes a zip archive at destPath containing baseDir, which
	// must be a direct child of rootDir. Entry names are prefixed with
	// baseDir so extraction reproduces the staging directory.
	Create(destPath, rootDir, baseDir string) error

	// Extract unpacks the archive at archivePath into destDir, restoring
	// file permissions and modification times.
	Extract(archivePath, destDir string) error
}
