package app

import (
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("GITSNAP_CONFIG_PATH", "/etc/gitsnap.toml")
		t.Setenv("GITSNAP_HOME", "/srv/gitsnap")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		if defaults["config_path"] != "/etc/gitsnap.toml" {
			t.Errorf("config_path = %q", defaults["config_path"])
		}
		if defaults["base_dir"] != "/srv/gitsnap" {
			t.Errorf("base_dir = %q", defaults["base_dir"])
		}
		if want := filepath.Join("/srv/gitsnap", "log"); defaults["log_dir"] != want {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], want)
		}
	})

	t.Run("home fallback", func(t *testing.T) {
		t.Setenv("GITSNAP_CONFIG_PATH", "")
		t.Setenv("GITSNAP_HOME", "")
		t.Setenv("HOME", "/home/alice")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		if want := filepath.Join("/home/alice", ".config", "gitsnap.toml"); defaults["config_path"] != want {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], want)
		}
		if want := filepath.Join("/home/alice", ".local", "share", "gitsnap"); defaults["base_dir"] != want {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], want)
		}
	})
}
