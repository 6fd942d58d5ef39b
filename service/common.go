package service

import (
	"fmt"
	"io"
	"os"
	"strings"

	"reddish/app/config"
	"reddish/app/logger"

	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X reddish/service.Version=...".
var Version = "dev"

// cli is the state shared by every subcommand once the root has loaded configuration.
type cli struct {
	cfg    *config.Config
	dbPath string
}

// NewRootCommand builds the reddish command tree.
func NewRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "reddish",
		Short: "Reddish - a community board with posts, comments and votes",
		Long: `Reddish serves community boards with threaded comments, up/down votes
and optional AI moderation of new posts. Configuration is read from the
environment and an optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if c.dbPath != "" {
				cfg.DBPath = c.dbPath
			}
			c.cfg = cfg
			return logger.Initialize(cfg.LogLevel, cfg.LogFile)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Close()
		},
	}
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "Database directory (defaults to DB_PATH or data/badger)")

	root.AddCommand(
		newServeCommand(c),
		newDBCommand(c),
		newSeedCommand(c),
		newTokenCommand(c),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// Skip configuration; version must work anywhere.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reddish version %s\n", Version)
		},
	}
}

// confirm asks a y/N question on the command's streams.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	return readYes(cmd.InOrStdin())
}

func readYes(in io.Reader) bool {
	var response string
	_, _ = fmt.Fscanln(in, &response)
	response = strings.TrimSpace(response)
	return response == "y" || response == "Y"
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
