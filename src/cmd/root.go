package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carvekit/carve/src/config"
	"github.com/carvekit/carve/src/extract"
	"github.com/carvekit/carve/src/git"
	"github.com/carvekit/carve/src/logger"
)

type rootOptions struct {
	base    string
	paths   []string
	message string
	dryRun  bool
	verbose int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "carve",
		Short: "Extract path-scoped changes into a clean commit and rebase onto it",
		Long: `carve diffs the current branch against a base branch, restricted to a set
of paths, commits that diff on a throwaway branch built from the base, and
rebases the current branch onto it so the extracted paths win cleanly.

The working tree must be clean before carve runs. On failure everything carve
created is removed and the original branch restored; a rebase that stops on
conflicts is left in place for you to continue or abort.`,
		Example: `  carve --base main --paths src/parser
  carve -b main -p src/a.txt,src/b.txt -m "split out the parser"
  carve -b develop -p cmd --dry-run`,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.base, "base", "b", "", "base branch to diff against and rebase onto")
	cmd.Flags().StringSliceVarP(&opts.paths, "paths", "p", nil, "comma-separated paths whose changes are extracted")
	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "commit message for the extracted commit")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the extracted diff without touching the repository")
	cmd.PersistentFlags().CountVarP(&opts.verbose, "verbose", "v", "increase verbosity (use -vv for debug level)")

	return cmd
}

var rootCmd = newRootCmd()

func Execute() error {
	return rootCmd.Execute()
}

func runExtract(cmd *cobra.Command, opts *rootOptions) error {
	if opts.verbose > 0 {
		logger.SetLevel(logger.DebugLevel)
	}

	repoRoot, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	base := opts.base
	if base == "" {
		base = cfg.Defaults.Base
	}
	if base == "" {
		return fmt.Errorf("required flag \"base\" not set")
	}
	if len(opts.paths) == 0 {
		return fmt.Errorf("required flag \"paths\" not set")
	}

	// Flags are valid; anything past this point is a pipeline failure, not a
	// usage error.
	cmd.SilenceUsage = true

	session := extract.NewSession(git.NewGitManager(repoRoot), repoRoot, extract.Options{
		BaseBranch:   base,
		Paths:        opts.paths,
		Message:      opts.message,
		BranchPrefix: cfg.Defaults.BranchPrefix,
		DryRun:       opts.dryRun,
	})
	return session.Run(cmd.Context())
}
