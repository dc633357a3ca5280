package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestZipArchiver_CreateExtract_RoundTrip(t *testing.T) {
	rootDir := t.TempDir()
	baseDir := "git_backup_20240115_1030"
	writeFile(t, filepath.Join(rootDir, baseDir, "notes.txt"), "hello")
	writeFile(t, filepath.Join(rootDir, baseDir, "src", "main.go"), "package main\n")

	archivePath := filepath.Join(t.TempDir(), "20240115_1030.zip")
	a := NewZipArchiver()
	if err := a.Create(archivePath, rootDir, baseDir); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	extracted := t.TempDir()
	if err := a.Extract(archivePath, extracted); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	for path, want := range map[string]string{
		filepath.Join(baseDir, "notes.txt"):      "hello",
		filepath.Join(baseDir, "src", "main.go"): "package main\n",
	} {
		data, err := os.ReadFile(filepath.Join(extracted, path))
		if err != nil {
			t.Fatalf("reading %s: %v", path, err)
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", path, data, want)
		}
	}
}

func TestZipArchiver_Create_EntriesPrefixedWithBaseDir(t *testing.T) {
	rootDir := t.TempDir()
	baseDir := "git_backup_20240115_1030"
	writeFile(t, filepath.Join(rootDir, baseDir, "a.txt"), "a")

	archivePath := filepath.Join(t.TempDir(), "out.zip")
	if err := NewZipArchiver().Create(archivePath, rootDir, baseDir); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer r.Close()

	if len(r.File) != 1 {
		t.Fatalf("archive has %d entries, want 1", len(r.File))
	}
	if got, want := r.File[0].Name, baseDir+"/a.txt"; got != want {
		t.Errorf("entry name = %q, want %q", got, want)
	}
}

func TestZipArchiver_Extract_RejectsEscapingEntries(t *testing.T) {
	archivePath := filepath.Join(t.TempDir(), "evil.zip")
	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("../escape.txt")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write([]byte("nope")); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	f.Close()

	if err := NewZipArchiver().Extract(archivePath, t.TempDir()); err == nil {
		t.Fatal("Extract() error = nil, want traversal rejection")
	}
}

func TestZipArchiver_Create_MissingSource(t *testing.T) {
	err := NewZipArchiver().Create(filepath.Join(t.TempDir(), "out.zip"), t.TempDir(), "missing")
	if err == nil {
		t.Fatal("Create() error = nil, want walk error")
	}
}
