package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	apiURL     string
	statePath  string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "pomonotes",
		Short:         "Pomodoro timer with session notes",
		Long:          "Runs pomodoro sessions against the pomonotes API, queueing writes locally while offline.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to pomonotes.yaml")
	cmd.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "API base URL")
	cmd.PersistentFlags().StringVar(&flags.statePath, "state", "", "path to the local state database")

	cmd.AddCommand(newTimerCmd(flags))
	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newSyncCmd(flags))
	cmd.AddCommand(newQueueCmd(flags))
	cmd.AddCommand(newHistoryCmd(flags))
	cmd.AddCommand(newNoteCmd(flags))
	cmd.AddCommand(newTagCmd(flags))
	cmd.AddCommand(newLoginCmd(flags))

	return cmd
}
