// Package archive creates and extracts the zip archives that are the
// tool's persistent output. It uses the standard zip format so archives
// open with any unzip tool.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gitsnap/internal/snap"
)

// ZipArchiver implements snap.Archiver with archive/zip.
type ZipArchiver struct{}

func NewZipArchiver() *ZipArchiver { return &ZipArchiver{} }

var _ snap.Archiver = (*ZipArchiver)(nil)

// Create writes a zip archive at destPath containing baseDir, a direct
// child of rootDir. Entry names are prefixed with baseDir so extraction
// reproduces the directory. Entries record each file's permissions and
// modification time.
func (a *ZipArchiver) Create(destPath, rootDir, baseDir string) error {
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating archive file: %w", err)
	}

	zw := zip.NewWriter(out)
	srcDir := filepath.Join(rootDir, baseDir)

	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(rootDir, path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		header.Method = zip.Deflate

		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(w, f)
		return err
	})

	if walkErr != nil {
		zw.Close()
		out.Close()
		os.Remove(destPath)
		return fmt.Errorf("archiving %s: %w", baseDir, walkErr)
	}

	if err := zw.Close(); err != nil {
		out.Close()
		os.Remove(destPath)
		return fmt.Errorf("finalizing archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing archive file: %w", err)
	}
	return nil
}

// Extract unpacks the archive at archivePath into destDir, restoring file
// permissions and modification times. Entry names that escape destDir are
// rejected.
func (a *ZipArchiver) Extract(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("creating extraction directory: %w", err)
	}

	for _, f := range r.File {
		if err := extractEntry(f, destDir); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(f *zip.File, destDir string) error {
	name := filepath.FromSlash(f.Name)
	if !filepath.IsLocal(name) || strings.Contains(f.Name, `\`) {
		return fmt.Errorf("archive entry escapes destination: %s", f.Name)
	}
	target := filepath.Join(destDir, name)

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", f.Name, err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", target, err)
	}

	if !f.Modified.IsZero() {
		if err := os.Chtimes(target, f.Modified, f.Modified); err != nil {
			return fmt.Errorf("preserving timestamps for %s: %w", target, err)
		}
	}
	return nil
}
