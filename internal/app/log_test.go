package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunHandler_Format(t *testing.T) {
	var sb strings.Builder
	logger := slog.New(&runHandler{w: &sb, runID: "20240115T103000Z-Backup"})

	logger.Info("backed up", "file", "notes.txt", "count", 3)

	line := strings.TrimSuffix(sb.String(), "\n")
	fields := strings.Split(line, "\t")
	if len(fields) != 6 {
		t.Fatalf("fields = %d, want 6: %q", len(fields), line)
	}
	if fields[1] != "INFO" {
		t.Errorf("level = %q, want INFO", fields[1])
	}
	if fields[2] != "20240115T103000Z-Backup" {
		t.Errorf("run id = %q", fields[2])
	}
	if fields[3] != "backed up" {
		t.Errorf("message = %q", fields[3])
	}
	if fields[4] != "file=notes.txt" || fields[5] != "count=3" {
		t.Errorf("attrs = %q %q", fields[4], fields[5])
	}
}

func TestRunHandler_WithAttrs(t *testing.T) {
	var sb strings.Builder
	base := slog.New(&runHandler{w: &sb, runID: "run-1"})
	logger := base.With("source", "/src/project")

	logger.Warn("vault store failed", "vault", "offsite")

	line := sb.String()
	if !strings.Contains(line, "\tsource=/src/project\t") {
		t.Errorf("missing bound attr: %q", line)
	}
	if !strings.Contains(line, "\tvault=offsite") {
		t.Errorf("missing record attr: %q", line)
	}
}

func TestNewLogger_WritesToFile(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "log")

	logger, f, err := newLogger(logDir, "run-1")
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	logger.Info("starting backup")

	data, err := os.ReadFile(filepath.Join(logDir, "gitsnap.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "\tINFO\trun-1\tstarting backup") {
		t.Errorf("log file contents = %q", data)
	}
}
