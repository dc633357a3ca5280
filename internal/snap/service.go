package snap

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gitsnap/internal/fsutil"
)

// stampFormat names the staging directory and the archive. The timestamp
// is captured once per run so the two names never disagree across a
// minute boundary.
const stampFormat = "20060102_1504"

// stagingPrefix prefixes the ephemeral staging directory name.
const stagingPrefix = "git_backup_"

// encryptedSuffix is appended to the archive name when encryption is on.
const encryptedSuffix = ".age"

// Options control a single backup run.
type Options struct {
	// Encrypt replaces the plaintext zip with an age-encrypted copy.
	Encrypt bool
}

// Result describes the outcome of a backup run. Archived is false when
// the change set was empty; that is a terminal success state and no
// archive exists.
type Result struct {
	RunID       string
	StartedAt   time.Time
	Changes     ChangeSet
	Archived    bool
	ArchivePath string
	FileCount   int
}

// Service orchestrates one backup run: staging copy, manifest, zip,
// optional encryption, and vault upload. It holds no state across runs.
type Service struct {
	archiver  Archiver
	vaults    []Vault
	encryptor Encryptor
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewService creates a Service with the provided dependencies. vaults may
// be empty and encryptor may be nil when encryption is not configured.
func NewService(archiver Archiver, vaults []Vault, encryptor Encryptor, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		archiver:  archiver,
		vaults:    vaults,
		encryptor: encryptor,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// Backup snapshots the uncommitted state of repo into a timestamped zip
// under destDir. The destination directory is created if absent. An empty
// change set produces no staging directory and no archive.
func (s *Service) Backup(repo Repository, destDir string, opts Options) (*Result, error) {
	now := s.clock.Now()
	res := &Result{
		RunID:     s.idgen.New(),
		StartedAt: now,
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return res, fmt.Errorf("creating backup destination: %w", err)
	}

	changes, err := repo.ChangeSet()
	if err != nil {
		return res, fmt.Errorf("enumerating changed files: %w", err)
	}
	res.Changes = changes

	if changes.Empty() {
		s.logger.Info("nothing to back up", "source", repo.Root())
		return res, nil
	}

	stamp := now.Format(stampFormat)
	stagingName := stagingPrefix + stamp
	stagingDir := filepath.Join(destDir, stagingName)
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return res, fmt.Errorf("creating staging directory: %w", err)
	}

	copied, err := s.stageFiles(repo.Root(), stagingDir, changes.Union())
	if err != nil {
		return res, err
	}
	res.FileCount = copied

	if err := s.writeManifest(repo, stagingDir, now, changes); err != nil {
		return res, err
	}

	archivePath := filepath.Join(destDir, stamp+".zip")
	if err := s.archiver.Create(archivePath, destDir, stagingName); err != nil {
		return res, fmt.Errorf("creating archive: %w", err)
	}

	// A leaked staging directory is a fatal error, not a warning.
	if err := os.RemoveAll(stagingDir); err != nil {
		return res, fmt.Errorf("removing staging directory: %w", err)
	}

	if opts.Encrypt {
		archivePath, err = s.encryptArchive(archivePath)
		if err != nil {
			return res, err
		}
	}

	if err := s.storeInVaults(archivePath); err != nil {
		return res, err
	}

	res.Archived = true
	res.ArchivePath = archivePath
	s.logger.Info("backup complete", "archive", archivePath, "files", copied)
	return res, nil
}

// stageFiles copies each union path that still exists on disk into the
// staging directory, preserving the relative path, permissions, and
// modification time. Paths deleted since enumeration are skipped silently.
func (s *Service) stageFiles(root, stagingDir string, union []string) (int, error) {
	copied := 0
	for _, rel := range union {
		src := filepath.Join(root, rel)
		if _, err := os.Stat(src); err != nil {
			if os.IsNotExist(err) {
				s.logger.Debug("file gone before copy, skipping", "path", rel)
				continue
			}
			return copied, fmt.Errorf("stat %s: %w", rel, err)
		}
		if err := fsutil.CopyFile(src, filepath.Join(stagingDir, rel)); err != nil {
			return copied, fmt.Errorf("copying %s: %w", rel, err)
		}
		s.logger.Info("backed up", "path", rel)
		copied++
	}
	return copied, nil
}

func (s *Service) writeManifest(repo Repository, stagingDir string, now time.Time, changes ChangeSet) error {
	summary, err := repo.Summary()
	if err != nil {
		return fmt.Errorf("reading repository summary: %w", err)
	}
	manifest := Manifest{CreatedAt: now, Summary: summary, Changes: changes}
	path := filepath.Join(stagingDir, ManifestName)
	if err := os.WriteFile(path, []byte(manifest.Render()), 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// encryptArchive replaces the plaintext zip with an age-encrypted copy and
// returns the new path.
func (s *Service) encryptArchive(zipPath string) (string, error) {
	if s.encryptor == nil || !s.encryptor.IsConfigured() {
		return "", fmt.Errorf("encryption requested but no key pair is configured (run `gitsnap key init`)")
	}

	encPath := zipPath + encryptedSuffix
	in, err := os.Open(zipPath)
	if err != nil {
		return "", fmt.Errorf("opening archive for encryption: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(encPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("creating encrypted archive: %w", err)
	}

	if err := s.encryptor.Encrypt(in, out); err != nil {
		out.Close()
		os.Remove(encPath)
		return "", fmt.Errorf("encrypting archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("finalizing encrypted archive: %w", err)
	}

	if err := os.Remove(zipPath); err != nil {
		return "", fmt.Errorf("removing plaintext archive: %w", err)
	}
	s.logger.Info("archive encrypted", "archive", encPath)
	return encPath, nil
}

// storeInVaults uploads the finished archive to every configured vault.
func (s *Service) storeInVaults(archivePath string) error {
	for _, v := range s.vaults {
		f, err := os.Open(archivePath)
		if err != nil {
			return fmt.Errorf("opening archive for vault upload: %w", err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return fmt.Errorf("stat archive: %w", err)
		}
		err = v.PutArchive(filepath.Base(archivePath), f, info.Size())
		f.Close()
		if err != nil {
			return fmt.Errorf("storing archive in vault: %w", err)
		}
		s.logger.Info("archive stored in vault", "archive", filepath.Base(archivePath))
	}
	return nil
}
