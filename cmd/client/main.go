package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	rootCmd, a := newRootCmd()
	err := rootCmd.ExecuteContext(context.Background())
	a.teardown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Команды, которым не нужны конфигурация и база
var skipSetup = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "forkful",
		Short: "Forkful engagement client",
		Long: `Command line client for post engagement on Forkful:
like, save, comment, share and watch live counters.

Mutations are applied locally first and confirmed by the server;
transient failures are retried before the command exits.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for c := cmd; c != nil; c = c.Parent() {
				if skipSetup[c.Name()] {
					return nil
				}
			}
			return a.setup()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.flags.config, "config", "", "Path to YAML config file")
	flags.StringVar(&a.flags.server, "server", "", "Server URL (overrides config)")
	flags.StringVar(&a.flags.db, "db", "", "Path to local database (overrides config)")
	flags.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&a.flags.noRealtime, "no-realtime", false, "Disable realtime updates")

	rootCmd.AddCommand(createVersionCmd())
	rootCmd.AddCommand(createLoginCmd(a))
	rootCmd.AddCommand(createLogoutCmd(a))
	rootCmd.AddCommand(createStatusCmd(a))
	rootCmd.AddCommand(createLikeCmd(a))
	rootCmd.AddCommand(createSaveCmd(a))
	rootCmd.AddCommand(createCommentCmd(a))
	rootCmd.AddCommand(createShareCmd(a))
	rootCmd.AddCommand(createCopyLinkCmd(a))
	rootCmd.AddCommand(createWatchCmd(a))

	return rootCmd, a
}

func createVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Forkful Client\n")
			fmt.Fprintf(out, "Version:    %s\n", Version)
			fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}
}
