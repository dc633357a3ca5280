package snap_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gitsnap/internal/archive"
	"gitsnap/internal/snap"
	"gitsnap/internal/testutil"
	"gitsnap/internal/vault"
)

const stamp = "20240115_1030" // testutil.FixedClock formatted

func newService(vaults []snap.Vault, enc snap.Encryptor) *snap.Service {
	return snap.NewService(
		archive.NewZipArchiver(),
		vaults,
		enc,
		snap.NewNopLogger(),
		testutil.FixedClock(),
		testutil.NewStubIDGenerator(),
	)
}

func writeSourceFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestService_Backup_NothingToBackUp(t *testing.T) {
	source := t.TempDir()
	dest := filepath.Join(t.TempDir(), "backups")
	repo := &testutil.FakeRepository{RootDir: source}

	res, err := newService(nil, nil).Backup(repo, dest, snap.Options{})
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if res.Archived {
		t.Error("Archived = true, want false")
	}
	if res.ArchivePath != "" {
		t.Errorf("ArchivePath = %q, want empty", res.ArchivePath)
	}

	// Destination is created even when there is nothing to back up, but
	// stays empty: no staging directory, no archive.
	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatalf("destination not created: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("destination has %d entries, want 0", len(entries))
	}
}

func TestService_Backup_SingleUntrackedFile(t *testing.T) {
	source := t.TempDir()
	dest := filepath.Join(t.TempDir(), "backups")
	writeSourceFile(t, source, "notes.txt", "remember the milk\n")

	repo := &testutil.FakeRepository{
		RootDir: source,
		Changes: snap.ChangeSet{Untracked: []string{"notes.txt"}},
		Sum: snap.Summary{
			Branch:      "main",
			HeadID:      "abc123",
			HeadMessage: "Initial commit\n",
		},
	}

	res, err := newService(nil, nil).Backup(repo, dest, snap.Options{})
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if !res.Archived {
		t.Fatal("Archived = false, want true")
	}
	if res.FileCount != 1 {
		t.Errorf("FileCount = %d, want 1", res.FileCount)
	}

	wantArchive := filepath.Join(dest, stamp+".zip")
	if res.ArchivePath != wantArchive {
		t.Errorf("ArchivePath = %q, want %q", res.ArchivePath, wantArchive)
	}
	if _, err := os.Stat(wantArchive); err != nil {
		t.Fatalf("archive not created: %v", err)
	}

	// Staging directory must be gone after archival.
	if _, err := os.Stat(filepath.Join(dest, "git_backup_"+stamp)); !os.IsNotExist(err) {
		t.Errorf("staging directory still present (err=%v)", err)
	}

	// Extracting reproduces a single directory with the file and manifest.
	extracted := t.TempDir()
	if err := archive.NewZipArchiver().Extract(wantArchive, extracted); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	root := filepath.Join(extracted, "git_backup_"+stamp)
	data, err := os.ReadFile(filepath.Join(root, "notes.txt"))
	if err != nil {
		t.Fatalf("reading extracted file: %v", err)
	}
	if string(data) != "remember the milk\n" {
		t.Errorf("extracted content = %q", data)
	}

	manifest, err := os.ReadFile(filepath.Join(root, snap.ManifestName))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	for _, want := range []string{
		"Repository: No remote URL found",
		"Current branch: main",
		"Last commit: abc123 - Initial commit",
		"Untracked files:\nnotes.txt",
		"Modified files:\n\n",
		"Staged files:\n",
	} {
		if !bytes.Contains(manifest, []byte(want)) {
			t.Errorf("manifest missing %q:\n%s", want, manifest)
		}
	}
}

func TestService_Backup_SkipsFilesDeletedSinceEnumeration(t *testing.T) {
	source := t.TempDir()
	dest := filepath.Join(t.TempDir(), "backups")
	writeSourceFile(t, source, "kept.txt", "still here")

	repo := &testutil.FakeRepository{
		RootDir: source,
		Changes: snap.ChangeSet{Modified: []string{"kept.txt", "gone.txt"}},
		Sum:     snap.Summary{HeadID: "abc123"},
	}

	res, err := newService(nil, nil).Backup(repo, dest, snap.Options{})
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if !res.Archived {
		t.Fatal("Archived = false, want true")
	}
	if res.FileCount != 1 {
		t.Errorf("FileCount = %d, want 1 (deleted file silently skipped)", res.FileCount)
	}
}

func TestService_Backup_PreservesModificationTime(t *testing.T) {
	source := t.TempDir()
	dest := filepath.Join(t.TempDir(), "backups")
	writeSourceFile(t, source, "notes.txt", "content")

	mtime := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(filepath.Join(source, "notes.txt"), mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	repo := &testutil.FakeRepository{
		RootDir: source,
		Changes: snap.ChangeSet{Untracked: []string{"notes.txt"}},
		Sum:     snap.Summary{HeadID: "abc123"},
	}

	res, err := newService(nil, nil).Backup(repo, dest, snap.Options{})
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	extracted := t.TempDir()
	if err := archive.NewZipArchiver().Extract(res.ArchivePath, extracted); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(extracted, "git_backup_"+stamp, "notes.txt"))
	if err != nil {
		t.Fatalf("stat extracted file: %v", err)
	}
	// Zip timestamps are two-second granular.
	if diff := info.ModTime().Sub(mtime); diff > 2*time.Second || diff < -2*time.Second {
		t.Errorf("mtime = %v, want %v (±2s)", info.ModTime(), mtime)
	}
}

func TestService_Backup_StoresArchiveInVaults(t *testing.T) {
	source := t.TempDir()
	dest := filepath.Join(t.TempDir(), "backups")
	writeSourceFile(t, source, "notes.txt", "content")

	mem := vault.NewMemoryVault("offsite")
	repo := &testutil.FakeRepository{
		RootDir: source,
		Changes: snap.ChangeSet{Untracked: []string{"notes.txt"}},
		Sum:     snap.Summary{HeadID: "abc123"},
	}

	res, err := newService([]snap.Vault{mem}, nil).Backup(repo, dest, snap.Options{})
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	names, err := mem.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 1 || names[0] != stamp+".zip" {
		t.Fatalf("vault contents = %v, want [%s.zip]", names, stamp)
	}

	var stored bytes.Buffer
	if err := mem.GetArchive(names[0], &stored); err != nil {
		t.Fatalf("GetArchive() error = %v", err)
	}
	local, err := os.ReadFile(res.ArchivePath)
	if err != nil {
		t.Fatalf("reading local archive: %v", err)
	}
	if !bytes.Equal(stored.Bytes(), local) {
		t.Error("vault copy differs from local archive")
	}
}

func TestService_Backup_Encrypt(t *testing.T) {
	t.Run("replaces zip with encrypted archive", func(t *testing.T) {
		source := t.TempDir()
		dest := filepath.Join(t.TempDir(), "backups")
		writeSourceFile(t, source, "notes.txt", "secret")

		enc := testutil.NewStubEncryptor()
		if err := enc.Setup("pass"); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}

		repo := &testutil.FakeRepository{
			RootDir: source,
			Changes: snap.ChangeSet{Untracked: []string{"notes.txt"}},
			Sum:     snap.Summary{HeadID: "abc123"},
		}

		res, err := newService(nil, enc).Backup(repo, dest, snap.Options{Encrypt: true})
		if err != nil {
			t.Fatalf("Backup() error = %v", err)
		}

		wantPath := filepath.Join(dest, stamp+".zip.age")
		if res.ArchivePath != wantPath {
			t.Errorf("ArchivePath = %q, want %q", res.ArchivePath, wantPath)
		}
		if _, err := os.Stat(filepath.Join(dest, stamp+".zip")); !os.IsNotExist(err) {
			t.Errorf("plaintext zip still present (err=%v)", err)
		}

		// Decrypting yields a valid zip with the original content.
		ciphertext, err := os.Open(res.ArchivePath)
		if err != nil {
			t.Fatalf("opening encrypted archive: %v", err)
		}
		defer ciphertext.Close()

		dec, err := enc.Unlock("pass")
		if err != nil {
			t.Fatalf("Unlock() error = %v", err)
		}
		zipPath := filepath.Join(t.TempDir(), "plain.zip")
		out, err := os.Create(zipPath)
		if err != nil {
			t.Fatalf("creating decrypted file: %v", err)
		}
		if err := dec.Decrypt(ciphertext, out); err != nil {
			t.Fatalf("Decrypt() error = %v", err)
		}
		out.Close()

		extracted := t.TempDir()
		if err := archive.NewZipArchiver().Extract(zipPath, extracted); err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		data, err := os.ReadFile(filepath.Join(extracted, "git_backup_"+stamp, "notes.txt"))
		if err != nil {
			t.Fatalf("reading extracted file: %v", err)
		}
		if string(data) != "secret" {
			t.Errorf("extracted content = %q, want %q", data, "secret")
		}
	})

	t.Run("fails without configured keys", func(t *testing.T) {
		source := t.TempDir()
		dest := filepath.Join(t.TempDir(), "backups")
		writeSourceFile(t, source, "notes.txt", "secret")

		repo := &testutil.FakeRepository{
			RootDir: source,
			Changes: snap.ChangeSet{Untracked: []string{"notes.txt"}},
			Sum:     snap.Summary{HeadID: "abc123"},
		}

		_, err := newService(nil, testutil.NewStubEncryptor()).Backup(repo, dest, snap.Options{Encrypt: true})
		if err == nil {
			t.Fatal("Backup() error = nil, want key configuration error")
		}
	})
}
