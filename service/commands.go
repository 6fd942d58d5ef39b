package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"reddish/app/repositories"

	"github.com/spf13/cobra"
)

// errCancelled reports that the operator declined a prompt.
var errCancelled = errors.New("operation cancelled")

func newDBCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Maintain the badger database",
	}

	var backupDir string
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a backup of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.backup(cmd, backupDir)
		},
	}
	backupCmd.Flags().StringVar(&backupDir, "dir", "data/backups", "Directory for backup files")

	var assumeYes bool
	restoreCmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore the database from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.restore(cmd, args[0], assumeYes)
		},
	}
	restoreCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Replace an existing database without asking")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Initialize a new empty database",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return c.initDB(cmd) },
		},
		&cobra.Command{
			Use:   "clean",
			Short: "Delete the database",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return c.clean(cmd) },
		},
		backupCmd,
		restoreCmd,
	)
	return cmd
}

// clean removes the database.
func (c *cli) clean(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	dbPath := c.cfg.DBPath
	if !exists(dbPath) {
		fmt.Fprintln(out, "Database is already clean (does not exist)")
		return nil
	}

	if !confirm(cmd, "Are you sure you want to clean the database? This cannot be undone.") {
		fmt.Fprintln(out, "Operation cancelled")
		return nil
	}

	if err := os.RemoveAll(dbPath); err != nil {
		return fmt.Errorf("failed to clean database: %w", err)
	}
	fmt.Fprintln(out, "Database cleaned successfully")
	return nil
}

// initDB initializes a new empty database.
func (c *cli) initDB(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	if exists(c.cfg.DBPath) {
		fmt.Fprintln(out, "Database already exists. Use 'db clean' first if you want to reinitialize.")
		return nil
	}

	store, err := repositories.Open(c.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := store.Close(); err != nil {
		return err
	}

	fmt.Fprintln(out, "Database initialized successfully")
	return nil
}

// backup writes a full badger backup into backupDir.
func (c *cli) backup(cmd *cobra.Command, backupDir string) error {
	if !exists(c.cfg.DBPath) {
		return fmt.Errorf("no database exists to backup at %s", c.cfg.DBPath)
	}
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	store, err := repositories.Open(c.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	backupFile := filepath.Join(backupDir, fmt.Sprintf("backup_%d.db", time.Now().Unix()))
	f, err := os.Create(backupFile)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	if _, err := store.Backup(f); err != nil {
		return fmt.Errorf("failed to backup database: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Database backed up successfully to %s\n", backupFile)
	return nil
}

// restore replaces the database with the contents of backupFile.
func (c *cli) restore(cmd *cobra.Command, backupFile string, assumeYes bool) error {
	out := cmd.OutOrStdout()
	fi, err := os.Stat(backupFile)
	if err != nil {
		return fmt.Errorf("backup file does not exist: %s", backupFile)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("backup file is empty: %s", backupFile)
	}

	dbPath := c.cfg.DBPath
	if exists(dbPath) {
		if !assumeYes && !confirm(cmd, "Existing database found. Do you want to replace it?") {
			fmt.Fprintln(out, "Operation cancelled")
			return errCancelled
		}
		if err := os.RemoveAll(dbPath); err != nil {
			return fmt.Errorf("failed to remove existing database: %w", err)
		}
	}

	store, err := repositories.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	f, err := os.Open(backupFile)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	if err := store.Load(f); err != nil {
		return fmt.Errorf("failed to restore database: %w", err)
	}

	fmt.Fprintf(out, "Database restored successfully from %s\n", backupFile)
	return nil
}
