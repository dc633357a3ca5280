package main

import (
	"fmt"
	"os"
	"time"

	"gitsnap/internal/app"
	"gitsnap/internal/buildinfo"
	"gitsnap/internal/config"
	"gitsnap/internal/snap"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gitsnap <source_git_directory> <backup_destination>",
	Short: "Back up uncommitted git changes into a timestamped zip archive",
	Long: `gitsnap snapshots the uncommitted state of a git working tree (modified,
staged, and untracked files) into a timestamped zip archive placed in the
backup destination.`,
	Example: "  gitsnap /path/to/git/project /path/to/backup/location",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Args are valid from here on; runtime failures should print the
		// Error: line without re-dumping usage.
		cmd.SilenceUsage = true

		encrypt, _ := cmd.Flags().GetBool("encrypt")

		a, err := app.New("Backup")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Backup(args[0], args[1], snap.Options{Encrypt: encrypt})
		if err != nil {
			return err
		}

		if !res.Archived {
			fmt.Println("No modified, untracked, or staged files found to backup.")
			return nil
		}

		fmt.Printf("\nBackup completed successfully: %s\n", res.ArchivePath)
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		a, err := app.New("ListConfig")
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.Config()
		fmt.Printf("Host ID:  %s\n", cfg.HostID)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		fmt.Printf("History:  disabled=%v\n", cfg.History.Disabled)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:    %s (%s)\n", v.Name, v.Type)
		}
		return nil
	},
}

// key command
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the archive encryption key pair",
}

var keyInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the age key pair used by --encrypt",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		a, err := app.New("SetupKeys")
		if err != nil {
			return err
		}
		defer a.Close()

		pass, err := readPassphrase("Passphrase for private key: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := a.SetupKeys(pass); err != nil {
			return err
		}

		cfg := a.Config()
		fmt.Printf("Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s\n", cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View backup run history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		limit, _ := cmd.Flags().GetInt("limit")

		a, err := app.New("GetHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No backup runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt.Valid {
				d := r.FinishedAt.Time.Sub(r.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %s  %-8s  %3d file(s)  %s  %s\n",
				r.ID,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Status,
				r.FileCount,
				r.ArchivePath,
				duration,
			)
		}
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore <archive> [destination]",
	Short: "Extract a backup archive (decrypting .age archives)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		dest := "."
		if len(args) > 1 {
			dest = args[1]
		}

		a, err := app.New("Restore")
		if err != nil {
			return err
		}
		defer a.Close()

		err = a.Restore(args[0], dest, func() (string, error) {
			return readPassphrase("Passphrase for private key: ")
		})
		if err != nil {
			return err
		}

		fmt.Printf("Restored %s to %s\n", args[0], dest)
		return nil
	},
}

// version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gitsnap version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(buildinfo.Version())
	},
}

// readPassphrase prompts on stderr and reads without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

func init() {
	rootCmd.Flags().Bool("encrypt", false, "Encrypt the archive with the configured age key")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	keyCmd.AddCommand(keyInitCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(versionCmd)
}
