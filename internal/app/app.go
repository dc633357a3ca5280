// Package app wires configuration into a ready-to-run backup application
// and exposes the high-level operations behind the CLI commands.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gitsnap/internal/archive"
	"gitsnap/internal/config"
	"gitsnap/internal/encryption"
	"gitsnap/internal/git"
	"gitsnap/internal/history"
	"gitsnap/internal/snap"
	"gitsnap/internal/vault"
)

// App holds everything one invocation needs. The caller must call Close.
type App struct {
	cfg       *config.Config
	archiver  snap.Archiver
	vaults    []snap.Vault
	encryptor snap.Encryptor
	historyDB *history.Store // nil when history is disabled
	service   *snap.Service
	logger    snap.Logger
	logFile   *os.File
}

// New creates a fully wired App. The config file is optional: when absent,
// defaults apply (no vaults, no encryption keys yet, history enabled).
// operation names the CLI command being run and tags every log line.
func New(operation string) (*App, error) {
	defaults, err := GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := loadConfig(defaults)
	if err != nil {
		return nil, err
	}

	runID := time.Now().UTC().Format("20060102T150405Z") + "-" + operation
	slogger, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	var vaults []snap.Vault
	for _, vc := range cfg.Vaults {
		v, err := vault.NewVaultFromConfig(vc)
		if err != nil {
			logFile.Close()
			return nil, fmt.Errorf("creating vault %q: %w", vc.Name, err)
		}
		vaults = append(vaults, v)
	}

	encryptor, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	var historyDB *history.Store
	if !cfg.History.Disabled {
		dataDir := cfg.History.DataDir
		if dataDir == "" {
			dataDir = filepath.Join(cfg.BaseDir, "db")
		}
		historyDB, err = history.Open(filepath.Join(dataDir, "history.db"))
		if err != nil {
			logFile.Close()
			return nil, fmt.Errorf("opening history database: %w", err)
		}
	}

	archiver := archive.NewZipArchiver()
	service := snap.NewService(archiver, vaults, encryptor, logger, snap.RealClock{}, snap.UUIDGenerator{})

	return &App{
		cfg:       cfg,
		archiver:  archiver,
		vaults:    vaults,
		encryptor: encryptor,
		historyDB: historyDB,
		service:   service,
		logger:    logger,
		logFile:   logFile,
	}, nil
}

// loadConfig reads the config file when it exists, otherwise builds the
// default config so the two-argument backup works without setup.
func loadConfig(defaults map[string]string) (*config.Config, error) {
	path := defaults["config_path"]
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return config.NewConfig("", defaults["base_dir"]), nil
		}
		return nil, fmt.Errorf("stat config file: %w", err)
	}

	cfg, err := config.ReadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = defaults["base_dir"]
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.BaseDir, "log")
	}
	return cfg, nil
}

// Config returns the effective configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Backup validates the source, runs the backup pipeline, and records the
// run in the history database. History failures are logged but never fail
// a backup whose archive already exists.
func (a *App) Backup(source, destination string, opts snap.Options) (*snap.Result, error) {
	repo, err := git.Open(source)
	if err != nil {
		return nil, err
	}

	res, err := a.service.Backup(repo, destination, opts)

	if a.historyDB != nil && res != nil {
		a.recordRun(res, err, source, destination)
	}
	return res, err
}

func (a *App) recordRun(res *snap.Result, runErr error, source, destination string) {
	run := &history.Run{
		RunID:       res.RunID,
		Source:      source,
		Destination: destination,
		StartedAt:   res.StartedAt,
	}
	if err := a.historyDB.RecordStart(run); err != nil {
		a.logger.Warn("recording run start failed", "error", err)
		return
	}

	run.ArchivePath = res.ArchivePath
	run.ModifiedCount = len(res.Changes.Modified)
	run.UntrackedCount = len(res.Changes.Untracked)
	run.StagedCount = len(res.Changes.Staged)
	run.FileCount = res.FileCount
	switch {
	case runErr != nil:
		run.Status = "error"
	case !res.Archived:
		run.Status = "empty"
	default:
		run.Status = "success"
	}
	if err := a.historyDB.RecordFinish(run, time.Now()); err != nil {
		a.logger.Warn("recording run finish failed", "error", err)
	}
}

// History returns the most recent backup runs. It errors when history is
// disabled in the configuration.
func (a *App) History(limit int) ([]*history.Run, error) {
	if a.historyDB == nil {
		return nil, fmt.Errorf("history is disabled in the configuration")
	}
	return a.historyDB.Recent(limit)
}

// SetupKeys generates the age key pair used by --encrypt.
func (a *App) SetupKeys(passphrase string) error {
	return a.encryptor.Setup(passphrase)
}

// Restore extracts an archive into destDir. Archives ending in .age are
// decrypted first; passphrase is called once to unlock the private key and
// only for encrypted archives.
func (a *App) Restore(archivePath, destDir string, passphrase func() (string, error)) error {
	zipPath := archivePath

	if strings.HasSuffix(archivePath, ".age") {
		if !a.encryptor.IsConfigured() {
			return fmt.Errorf("archive is encrypted but no key pair is configured")
		}

		pass, err := passphrase()
		if err != nil {
			return fmt.Errorf("reading passphrase: %w", err)
		}
		dec, err := a.encryptor.Unlock(pass)
		if err != nil {
			return fmt.Errorf("unlocking private key: %w", err)
		}

		in, err := os.Open(archivePath)
		if err != nil {
			return fmt.Errorf("opening encrypted archive: %w", err)
		}
		defer in.Close()

		tmp, err := os.CreateTemp("", "gitsnap-restore-*.zip")
		if err != nil {
			return fmt.Errorf("creating temp file: %w", err)
		}
		zipPath = tmp.Name()
		defer os.Remove(zipPath)

		if err := dec.Decrypt(in, tmp); err != nil {
			tmp.Close()
			return fmt.Errorf("decrypting archive: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("closing temp file: %w", err)
		}
	}

	if err := a.archiver.Extract(zipPath, destDir); err != nil {
		return fmt.Errorf("extracting archive: %w", err)
	}
	a.logger.Info("archive restored", "archive", archivePath, "destination", destDir)
	return nil
}

// Close releases the history database and the log file.
func (a *App) Close() error {
	var firstErr error
	if a.historyDB != nil {
		if err := a.historyDB.Close(); err != nil {
			firstErr = fmt.Errorf("closing history database: %w", err)
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
