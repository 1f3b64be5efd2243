package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand(open sessionOpener) *cobra.Command {
	var adminFlag string
	var verboseFlag bool

	ctx := &commandContext{adminFlag: &adminFlag, verboseFlag: &verboseFlag, open: open}

	rootCmd := &cobra.Command{
		Use:           "moderationctl",
		Short:         "Review pending members and content",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&adminFlag, "admin", "", "User id of the acting admin (overrides MEMBERHUB_ADMIN_ID)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(newSummaryCommand(ctx))
	rootCmd.AddCommand(newContentCommand(ctx))
	rootCmd.AddCommand(newMembersCommand(ctx))
	rootCmd.AddCommand(newSessionKeyCommand())

	return rootCmd
}
